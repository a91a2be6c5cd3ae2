// Package rangedel implements the range-tombstone fragmentation and
// aggregation the flush engine's merging cursor (spec.md §4.A) and
// compaction iterator (§4.B) rely on to preserve deletions over
// [start_key, end_key) intervals.
//
// Reference: RocksDB db/range_del_aggregator.h, adapted from the Go port
// in aalhour/rockyardkv's internal/rangedel package.
package rangedel

import "github.com/flashbake/pebble/internal/base"

// Tombstone is a single RangeDeletion record: start is inclusive, end is
// exclusive, and SeqNum is the sequence number at which the deletion is
// visible.
type Tombstone struct {
	Start, End []byte
	SeqNum     uint64
}

// Contains reports whether userKey falls within [Start, End).
func (t Tombstone) Contains(cmp base.Compare, userKey []byte) bool {
	return cmp(t.Start, userKey) <= 0 && cmp(userKey, t.End) < 0
}

// Fragment is a non-overlapping interval produced by the Fragmenter. Within
// a fragment, Seqnums holds the maximum deleting sequence number per
// snapshot stripe (spec.md §4.A: "each carrying the maximum sequence that
// deletes that interval per snapshot stripe").
type Fragment struct {
	Start, End []byte
	// Seqnums is sorted descending, most-recent stripe first: one entry per
	// snapshot stripe that has a covering tombstone, holding the highest
	// such sequence number in that stripe. Stripes with no covering
	// tombstone are omitted, so an index does not identify a snapshot.
	Seqnums []uint64
}

// MaxSeqNum returns the highest deleting sequence number in the fragment,
// or 0 if none.
func (f Fragment) MaxSeqNum() uint64 {
	var max uint64
	for _, s := range f.Seqnums {
		if s > max {
			max = s
		}
	}
	return max
}
