package pebble

import (
	"github.com/flashbake/pebble/internal/base"
	"github.com/flashbake/pebble/sstable"
)

// MempurgePolicy selects when the mempurge path (spec.md §4.D) is
// attempted.
type MempurgePolicy int

const (
	// MempurgeDisabled never attempts mempurge. This is the default,
	// matching spec.md §4.D.
	MempurgeDisabled MempurgePolicy = iota
	// MempurgeAlways always attempts mempurge when the entry predicate's
	// other conditions hold.
	MempurgeAlways
	// MempurgeAlternate attempts mempurge unless any input memtable is
	// itself a previous mempurge output, preventing infinite re-pack
	// cycles (spec.md §4.D).
	MempurgeAlternate
)

// String implements fmt.Stringer.
func (p MempurgePolicy) String() string {
	switch p {
	case MempurgeDisabled:
		return "Disabled"
	case MempurgeAlways:
		return "Always"
	case MempurgeAlternate:
		return "Alternate"
	default:
		return "Unknown"
	}
}

// SnapshotChecker classifies whether a sequence number is visible in some
// pinned snapshot outside the plain ascending list — e.g. a snapshot taken
// by a different column family's write-ahead consistency point (spec.md
// §6).
type SnapshotChecker interface {
	IsVisible(seqNum uint64) bool
}

// CompactionFilter is the flush-stage variant named in spec.md §4.B: given
// a record it may drop or modify it. IgnoresSnapshots must return true for
// the filter to be usable during flush; if false, the job fails with
// ErrNotSupported.
type CompactionFilter interface {
	IgnoresSnapshots() bool
	// Filter returns (drop, newValue). If drop is true the record is
	// removed; otherwise newValue replaces the record's value (return the
	// original value to leave it unmodified).
	Filter(userKey, value []byte) (drop bool, newValue []byte)
}

// Clock abstracts wall-clock time so tests can supply deterministic
// values (spec.md §6 "Clock (wall-clock micros, cpu nanos, current time
// seconds)").
type Clock interface {
	NowSeconds() uint64
}

// Flags bundles the three boolean knobs spec.md §6 lists alongside the
// constructor parameters, plus FlushVerifyMemtableCount (spec.md §4.C).
type Flags struct {
	SyncOutputDir            bool
	WriteManifest            bool
	MeasureIO                bool
	FlushVerifyMemtableCount bool
}

// Options holds the construction parameters from spec.md §6's `new(...)`
// signature. Fields with no obvious Go zero-value default are required;
// the rest default sensibly (mirroring how rockyardkv/options.go and the
// teacher's own Options types expose a large struct of optional knobs).
type Options struct {
	ColumnFamilyID   uint32
	ColumnFamilyName string

	MaxMemtableID uint64

	Snapshots                     base.SnapshotList
	EarliestWriteConflictSnapshot uint64
	SnapshotChecker               SnapshotChecker

	Comparer         *base.Comparer
	Merge            base.Merge
	CompactionFilter CompactionFilter

	OutputCompression sstable.Compression
	ChecksumFuncName  string

	DBID      string
	SessionID string

	FullHistoryTSLow uint64

	MempurgePolicy  MempurgePolicy
	WriteBufferSize int64

	Clock  Clock
	Logger Logger
	Stats  *Metrics

	FlushReason FlushReason

	Flags Flags
}

// comparer returns o.Comparer, defaulting to base.DefaultComparer.
func (o *Options) comparer() *base.Comparer {
	if o.Comparer != nil {
		return o.Comparer
	}
	return base.DefaultComparer
}

// logger returns o.Logger, defaulting to a no-op logger.
func (o *Options) logger() Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return nopLogger{}
}

// stats returns o.Stats, lazily allocating one so callers can always
// record into it without a nil check.
func (o *Options) stats() *Metrics {
	if o.Stats == nil {
		o.Stats = newMetrics()
	}
	return o.Stats
}
