package pebble

import (
	"github.com/cockroachdb/errors"

	"github.com/flashbake/pebble/internal/base"
	"github.com/flashbake/pebble/internal/memtable"
	"github.com/flashbake/pebble/internal/rangedel"
)

// mempurgeEligible implements the entry predicate from spec.md §4.D: the
// feature must be enabled, the flush must have been triggered by
// write-buffer fullness, the input set must be non-empty, and the policy
// decider must approve.
func mempurgeEligible(policy MempurgePolicy, reason FlushReason, inputs []*memtable.MemTable) bool {
	if policy == MempurgeDisabled {
		return false
	}
	if reason != FlushReasonWriteBufferFull {
		return false
	}
	if len(inputs) == 0 {
		return false
	}
	if policy == MempurgeAlternate {
		for _, m := range inputs {
			if m.IsMempurgeOutput() {
				return false
			}
		}
	}
	return true
}

// mempurgeResult carries what a successful mempurge produced; a nil
// newMem with a nil error means nothing was emitted and the caller should
// fall through to the disk path without it being treated as a failure.
type mempurgeResult struct {
	newMem *memtable.MemTable
}

// runMempurge implements the §4.D procedure: it drives the same merging
// cursor and compaction iterator as the disk path, but writes the result
// into a freshly allocated memtable instead of an sstable. It is run with
// the db-mutex released, exactly like the disk path's table build.
func runMempurge(
	cmp base.Compare,
	merge base.Merge,
	filter CompactionFilter,
	snapshots base.SnapshotList,
	earliestWCSnap uint64,
	inputs []*memtable.MemTable,
	writeBufferSize int64,
) (mempurgeResult, error) {
	iters := make([]base.InternalIterator, len(inputs))
	minID := inputs[0].ID()
	earliestSeq := inputs[0].EarliestSeqNum()
	for i, m := range inputs {
		iters[i] = m.NewIterator()
		if m.ID() < minID {
			minID = m.ID()
		}
		if m.EarliestSeqNum() < earliestSeq {
			earliestSeq = m.EarliestSeqNum()
		}
	}

	agg := rangedel.NewAggregator(cmp, snapshots)
	for _, m := range inputs {
		if err := agg.AddTombstones(m.RangeTombstoneIterator()); err != nil {
			return mempurgeResult{}, errors.Wrap(err, "pebble: mempurge: aggregate range tombstones")
		}
	}
	agg.Finish()

	merged := newMergingIter(cmp, iters)
	citer, err := newCompactionIter(cmp, merge, filter, snapshots, earliestWCSnap, agg, merged)
	if err != nil {
		return mempurgeResult{}, err
	}
	defer citer.Close()

	newMem := memtable.New(minID, cmp)
	newMem.SetEarliestSeqNum(earliestSeq)

	var newFirstSeq uint64
	haveFirstSeq := false
	emitted := false

	updateFirstSeq := func(seq uint64) {
		if !haveFirstSeq || seq < newFirstSeq {
			newFirstSeq = seq
			haveFirstSeq = true
		}
	}

	for k, v := citer.First(); citer.Valid(); k, v = citer.Next() {
		newMem.Add(*k, v)
		updateFirstSeq(k.SeqNum())
		emitted = true
		if newMem.ApproximateMemoryUsage() > writeBufferSize {
			return mempurgeResult{}, errors.Mark(ErrMempurgeAborted, ErrMempurgeAborted)
		}
	}
	if err := citer.Error(); err != nil {
		return mempurgeResult{}, errors.Wrap(err, "pebble: mempurge: compaction iterator")
	}

	agg.Finish()
	for _, frag := range agg.Fragments() {
		maxSeq := frag.MaxSeqNum()
		if maxSeq == 0 {
			continue
		}
		newMem.AddRangeTombstone(frag.Start, frag.End, maxSeq)
		updateFirstSeq(maxSeq)
		emitted = true
		if newMem.ApproximateMemoryUsage() > writeBufferSize {
			return mempurgeResult{}, errors.Mark(ErrMempurgeAborted, ErrMempurgeAborted)
		}
	}

	if !emitted {
		// Nothing survived filtering; spec.md §4.D "If nothing was emitted,
		// discard new_mem" — this is a legitimate empty result, not a
		// failure, so the caller treats it the same as an overflow abort
		// and falls back to the disk path.
		return mempurgeResult{}, nil
	}
	newMem.SetFirstSeqNum(newFirstSeq)

	if newMem.ApproximateMemoryUsage() > writeBufferSize || newMem.ShouldFlushNow(writeBufferSize) {
		return mempurgeResult{}, errors.Mark(ErrMempurgeAborted, ErrMempurgeAborted)
	}

	return mempurgeResult{newMem: newMem}, nil
}

// installMempurgeOutput re-acquires the mutex-protected view of the
// immutable list (the caller holds the lock) and finishes the §4.D
// post-processing: assign new_mem.id = min(input ids), clear every input's
// mempurge-output flag, mark new_mem as mempurge output, and hand it back
// to the caller for insertion "WITHOUT scheduling another flush".
func installMempurgeOutput(inputs []*memtable.MemTable, newMem *memtable.MemTable) {
	minID := inputs[0].ID()
	for _, m := range inputs {
		m.SetMempurgeOutput(false)
		if m.ID() < minID {
			minID = m.ID()
		}
	}
	newMem.SetID(minID)
	newMem.SetMempurgeOutput(true)
}
