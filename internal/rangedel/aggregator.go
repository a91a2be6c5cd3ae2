package rangedel

import "github.com/flashbake/pebble/internal/base"

// Aggregator is the range-tombstone aggregator named in spec.md §4.A: it is
// fed the fragmented tombstone lists from every input memtable and answers
// point-key coverage queries for the compaction iterator (§4.B), as well as
// exposing the surviving fragments for replay into the output table or the
// mempurge memtable.
type Aggregator struct {
	cmp        base.Compare
	fragmenter *Fragmenter
	fragments  []Fragment
	finished   bool
}

// NewAggregator constructs an Aggregator parameterized by the user
// comparator and the existing-snapshots vector (spec.md §4.A).
func NewAggregator(cmp base.Compare, snapshots base.SnapshotList) *Aggregator {
	return &Aggregator{cmp: cmp, fragmenter: NewFragmenter(cmp, snapshots)}
}

// AddTombstones feeds one memtable's range-tombstone iterator into the
// aggregator. A nil iterator (a memtable with no range deletions) is a
// no-op, matching spec.md §4.A's "collecting the non-null ones".
func (a *Aggregator) AddTombstones(iter base.RangeTombstoneIterator) error {
	if iter == nil {
		return nil
	}
	defer iter.Close()
	for start, end, seq, ok := iter.First(); ok; start, end, seq, ok = iter.Next() {
		a.fragmenter.Add(Tombstone{Start: start, End: end, SeqNum: seq})
	}
	return nil
}

// Finish fragments the accumulated input. Must be called before Covers,
// MaxCoveringSeqNum or Fragments.
func (a *Aggregator) Finish() {
	if a.finished {
		return
	}
	a.fragments = a.fragmenter.Finish()
	a.finished = true
}

// Empty reports whether the aggregator holds no tombstones at all.
func (a *Aggregator) Empty() bool {
	return a.fragmenter.Empty()
}

// Fragments returns the finished, non-overlapping fragment list in
// ascending key order. Callers (the table writer driver, the mempurge
// replay step) must call Finish first.
func (a *Aggregator) Fragments() []Fragment { return a.fragments }

// Covers reports whether userKey at keySeqNum is shadowed by a tombstone
// with a sequence number greater than keySeqNum in the same snapshot stripe
// — i.e. whether the compaction iterator may drop this point key (spec.md
// §4.B "Preserves range tombstones via the aggregator rather than the point
// stream"). A tombstone in a newer stripe does not cover a key that an older
// snapshot still sees.
func (a *Aggregator) Covers(userKey []byte, keySeqNum uint64) bool {
	frag := a.find(userKey)
	if frag == nil {
		return false
	}
	snapshots := a.fragmenter.snapshots
	keyStripe := stripeIndex(keySeqNum, snapshots)
	for _, seq := range frag.Seqnums {
		if seq > keySeqNum && stripeIndex(seq, snapshots) == keyStripe {
			return true
		}
	}
	return false
}

// MaxCoveringSeqNum returns the highest tombstone sequence number covering
// userKey, or 0 if none.
func (a *Aggregator) MaxCoveringSeqNum(userKey []byte) uint64 {
	if frag := a.find(userKey); frag != nil {
		return frag.MaxSeqNum()
	}
	return 0
}

func (a *Aggregator) find(userKey []byte) *Fragment {
	// Fragment count from a single flush job is small (bounded by the
	// number of distinct tombstone boundaries across a handful of
	// memtables), so linear scan is simpler and fast enough; a production
	// compaction-path aggregator with many sstable levels would use a
	// binary search here instead.
	for i := range a.fragments {
		f := &a.fragments[i]
		if a.cmp(f.Start, userKey) <= 0 && a.cmp(userKey, f.End) < 0 {
			return f
		}
	}
	return nil
}
