package pebble

import (
	"io"

	"github.com/cockroachdb/errors"

	"github.com/flashbake/pebble/internal/base"
	"github.com/flashbake/pebble/internal/manifest"
	"github.com/flashbake/pebble/internal/rangedel"
	"github.com/flashbake/pebble/sstable"
)

// tableWriterDriver implements component C (spec.md §4.C): it asks the
// external table builder to produce one sorted L0 table from the
// compaction-iterator stream plus the surviving range-tombstone view.
type tableWriterDriver struct {
	opts     *Options
	w        io.Writer
	fileNum  uint64
	readStat ioStatReader
}

// ioStatReader is a placeholder hook for the IOStats delta-snapshotting
// SPEC_FULL.md §12 calls for; a real deployment would wire this to the
// vfs layer's byte counters. Nothing in this module sets one, so ioDelta
// stays zero.
type ioStatReader interface {
	Snapshot() base.IOStats
}

// buildTableResult mirrors the TableBuilder contract from spec.md §6:
// `build_table(inputs, options) -> (io_status, FileMetaData,
// num_input_entries, payload_bytes, garbage_bytes, blob_additions)`.
type buildTableResult struct {
	meta            manifest.FileMetaData
	numInputEntries uint64
	payloadBytes    uint64
	garbageBytes    uint64
	blobAdditions   []manifest.BlobFileMetaData
	ioDelta         base.IOStats
}

// buildTable drives the compaction-iterator stream and the aggregator's
// fragments into an sstable.Writer, computing the output file's timestamps
// per spec.md §4.C.
func (d *tableWriterDriver) buildTable(
	iter *compactionIter,
	agg *rangedel.Aggregator,
	oldestKeyTime uint64,
	nowSeconds uint64,
) (buildTableResult, error) {
	var before base.IOStats
	if d.readStat != nil {
		before = d.readStat.Snapshot()
	}

	w := sstable.NewWriter(d.w, sstable.WriterOptions{
		Compression:      d.opts.OutputCompression,
		ComparerName:     d.opts.comparer().Name,
		ChecksumFuncName: d.opts.ChecksumFuncName,
	})

	for k, v := iter.First(); iter.Valid(); k, v = iter.Next() {
		if err := w.Add(*k, v); err != nil {
			w.Abandon()
			return buildTableResult{}, errors.Wrap(err, "pebble: table writer driver: add entry")
		}
	}
	if err := iter.Error(); err != nil {
		w.Abandon()
		return buildTableResult{}, errors.Wrap(err, "pebble: table writer driver: compaction iterator")
	}

	numPointEntries := w.NumEntries()

	agg.Finish()
	for _, frag := range agg.Fragments() {
		maxSeq := frag.MaxSeqNum()
		if maxSeq == 0 {
			continue
		}
		if err := w.AddRangeTombstone(frag.Start, frag.End, maxSeq); err != nil {
			w.Abandon()
			return buildTableResult{}, errors.Wrap(err, "pebble: table writer driver: add range tombstone")
		}
	}

	hasRangeTombstones := len(agg.Fragments()) > 0
	if w.NumEntries() == 0 && !hasRangeTombstones {
		w.Abandon()
		return buildTableResult{}, nil
	}

	if err := w.Finish(); err != nil {
		return buildTableResult{}, errors.Wrap(err, "pebble: table writer driver: finish")
	}

	// oldest_ancester_time = min(current_time, oldest_key_time) (spec.md
	// §4.C); file_creation_time is wall clock now, unconditionally — a
	// distinct timestamp from oldest_ancester_time, not a FIFO-conditional
	// variant of it.
	oldestAncestorTime := nowSeconds
	if oldestKeyTime != 0 && oldestKeyTime < oldestAncestorTime {
		oldestAncestorTime = oldestKeyTime
	}

	meta := manifest.FileMetaData{
		FileNum:            d.fileNum,
		Level:              0,
		Smallest:           w.Smallest(),
		Largest:            w.Largest(),
		SmallestSeqNum:     w.Smallest().SeqNum(),
		LargestSeqNum:      w.Largest().SeqNum(),
		FileSize:           w.FileSize(),
		OldestAncestorTime: oldestAncestorTime,
		FileCreationTime:   nowSeconds,
		Checksum:           w.Checksum(),
		ChecksumFuncName:   d.opts.ChecksumFuncName,
	}

	result := buildTableResult{
		meta:            meta,
		numInputEntries: uint64(numPointEntries),
		payloadBytes:    w.FileSize(),
	}
	if d.readStat != nil {
		result.ioDelta = d.readStat.Snapshot().Sub(before)
	}
	return result, nil
}
