package pebble

import (
	"github.com/cockroachdb/redact"

	"github.com/flashbake/pebble/internal/manifest"
)

// Logger is the minimal structured-logging surface the flush engine needs.
// It mirrors pebble's own Logger interface shape so that callers can plug
// in whatever backend they already use elsewhere in the database.
type Logger interface {
	Infof(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

// nopLogger discards everything; used when Options.Logger is nil.
type nopLogger struct{}

func (nopLogger) Infof(string, ...interface{})  {}
func (nopLogger) Errorf(string, ...interface{}) {}

// FlushJobInfo is the payload `flush_job_info()` (spec.md §6) hands to
// post-flush event subscribers. Field selection follows §12 of
// SPEC_FULL.md: only data this engine itself produces, nothing from the
// out-of-scope query layer.
type FlushJobInfo struct {
	JobID            int
	ColumnFamilyName string
	FlushReason      FlushReason

	OutputFileNum uint64
	OutputPath    redact.RedactableString

	NumEntries  uint64
	NumDeletes  int
	FileSize    uint64
	SmallestSeq uint64
	LargestSeq  uint64

	Mempurge bool

	BlobFiles []manifest.BlobFileMetaData
}

var _ redact.SafeFormatter = (*FlushJobInfo)(nil)

// SafeFormat implements redact.SafeFormatter, matching the teacher's
// Metrics.SafeFormat convention so that flush events can be logged without
// leaking user-key bytes.
func (i *FlushJobInfo) SafeFormat(w redact.SafePrinter, _ rune) {
	if i.Mempurge {
		w.Printf("flush(mempurge) job=%d cf=%s reason=%s entries=%d deletes=%d",
			redact.Safe(i.JobID), redact.SafeString(i.ColumnFamilyName),
			redact.SafeString(i.FlushReason.String()), redact.Safe(i.NumEntries), redact.Safe(i.NumDeletes))
		return
	}
	w.Printf("flush job=%d cf=%s reason=%s file=%d size=%d entries=%d deletes=%d seq=[%d,%d]",
		redact.Safe(i.JobID), redact.SafeString(i.ColumnFamilyName),
		redact.SafeString(i.FlushReason.String()), redact.Safe(i.OutputFileNum), redact.Safe(i.FileSize),
		redact.Safe(i.NumEntries), redact.Safe(i.NumDeletes), redact.Safe(i.SmallestSeq), redact.Safe(i.LargestSeq))
}

// String implements fmt.Stringer via the redact machinery, matching
// Metrics.String's pattern.
func (i *FlushJobInfo) String() string { return redact.StringWithoutMarkers(i) }
