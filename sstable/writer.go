// Package sstable models the external table-builder contract spec.md §1
// and §6 name (TableBuilder: "invoked as build_table(inputs, options) ->
// (io_status, FileMetaData, num_input_entries, payload_bytes,
// garbage_bytes, blob_additions)"). The on-disk block/index format itself
// is out of scope; this package provides just enough of a concrete Writer
// to drive the flush engine's own tests, in the same spirit as
// aalhour/rockyardkv's internal/table package.
package sstable

import (
	"io"

	"github.com/cespare/xxhash/v2"
	"github.com/cockroachdb/errors"

	"github.com/flashbake/pebble/internal/base"
)

// FilterMetrics mirrors the shape pebble's real sstable.FilterMetrics
// exposes to Metrics; filter-policy construction itself is out of scope.
type FilterMetrics struct {
	Hits   int64
	Misses int64
}

// WriterOptions configures a Writer: output compression, comparer name,
// checksum function name and table format. The column family id/name,
// file number, output timestamps and database/session ids are not passed
// to the Writer; the table writer driver records the file number and
// timestamps in the output FileMetaData, and the others are not recorded.
type WriterOptions struct {
	Compression      Compression
	ComparerName     string
	ChecksumFuncName string
	TableFormat      string
}

// Writer accumulates internal-key/value pairs and range-tombstone
// fragments and produces a single sorted table. It deliberately mirrors
// only the calls the flush engine's table writer driver needs.
type Writer struct {
	w    io.Writer
	opts WriterOptions

	numEntries   int
	payloadBytes uint64
	smallest     base.InternalKey
	largest      base.InternalKey
	haveKey      bool

	hasher *xxhash.Digest
	closed bool
}

// NewWriter wraps w. The caller owns w's lifetime (creation and eventual
// Sync/Close of the underlying file are the table writer driver's
// responsibility, not this package's, matching spec.md §1's scoping of
// table file encoding as an external concern).
func NewWriter(w io.Writer, opts WriterOptions) *Writer {
	return &Writer{w: w, opts: opts, hasher: xxhash.New()}
}

// Add appends one internal key/value pair. Keys must be added in ascending
// internal-key order; the writer does not re-sort.
func (w *Writer) Add(key base.InternalKey, value []byte) error {
	if w.closed {
		return errors.New("sstable: write to closed writer")
	}
	buf := make([]byte, key.Size())
	key.Encode(buf)
	payload, err := Encode(w.opts.Compression, append(buf, value...))
	if err != nil {
		return errors.Wrap(err, "sstable: compress entry")
	}
	if _, err := w.w.Write(payload); err != nil {
		return errors.Wrap(err, "sstable: write entry")
	}
	_, _ = w.hasher.Write(payload)

	if !w.haveKey {
		w.smallest = key.Clone()
		w.haveKey = true
	}
	w.largest = key.Clone()
	w.numEntries++
	w.payloadBytes += uint64(len(payload))
	return nil
}

// AddRangeTombstone appends one fragment's worth of range-deletion data as
// a raw record; the flush engine is responsible for only calling this with
// the aggregator's already-fragmented output.
func (w *Writer) AddRangeTombstone(start, end []byte, seqNum uint64) error {
	key := base.MakeInternalKey(start, seqNum, base.InternalKeyKindRangeDelete)
	return w.Add(key, end)
}

// NumEntries returns the count of records written so far. Range-tombstone
// records count too, since AddRangeTombstone goes through Add.
func (w *Writer) NumEntries() int { return w.numEntries }

// FileSize returns the number of payload bytes written so far. A writer
// that received zero entries and zero range tombstones reports 0, which
// spec.md §4.C treats as a valid, not-added-to-the-edit outcome.
func (w *Writer) FileSize() uint64 { return w.payloadBytes }

// Smallest and Largest return the internal-key bounds observed so far.
func (w *Writer) Smallest() base.InternalKey { return w.smallest }
func (w *Writer) Largest() base.InternalKey  { return w.largest }

// Checksum returns the running checksum over everything written.
func (w *Writer) Checksum() uint64 { return w.hasher.Sum64() }

// Abandon discards the writer without finalizing; the caller is
// responsible for removing any partially-written file (spec.md §4.C
// "builder.Abandon()" in the grounding reference).
func (w *Writer) Abandon() { w.closed = true }

// Finish finalizes the table. After Finish, Add must not be called again.
func (w *Writer) Finish() error {
	w.closed = true
	return nil
}
