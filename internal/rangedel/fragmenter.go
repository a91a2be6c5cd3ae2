package rangedel

import (
	"sort"

	"github.com/flashbake/pebble/internal/base"
)

// Fragmenter accumulates overlapping tombstones and produces the
// non-overlapping Fragment list the compaction iterator replays (spec.md
// §4.A/§4.B). It is parameterized by the user comparator and the existing
// snapshot sequence vector, so that each fragment records the maximum
// deleting sequence number per snapshot stripe rather than a single global
// maximum — this is what lets Aggregator.Covers keep a point key that an
// older snapshot still sees even when a newer tombstone spans it.
type Fragmenter struct {
	cmp        base.Compare
	snapshots  base.SnapshotList
	tombstones []Tombstone
}

// NewFragmenter constructs a Fragmenter. snapshots must be sorted ascending
// (spec.md §3).
func NewFragmenter(cmp base.Compare, snapshots base.SnapshotList) *Fragmenter {
	return &Fragmenter{cmp: cmp, snapshots: snapshots}
}

// Add records a tombstone to be fragmented. Order of addition does not
// matter; Finish sorts and fragments everything accumulated so far.
func (f *Fragmenter) Add(t Tombstone) {
	if f.cmp(t.Start, t.End) >= 0 {
		return // empty range, nothing to delete
	}
	f.tombstones = append(f.tombstones, t)
}

// Empty reports whether any tombstone has been added.
func (f *Fragmenter) Empty() bool { return len(f.tombstones) == 0 }

// Finish fragments the accumulated tombstones into a sorted, non-overlapping
// Fragment slice. Calling Finish does not reset the accumulated input; it is
// intended to be called once per flush job.
func (f *Fragmenter) Finish() []Fragment {
	if len(f.tombstones) == 0 {
		return nil
	}

	// Collect and dedupe boundary points.
	bounds := make([][]byte, 0, len(f.tombstones)*2)
	for _, t := range f.tombstones {
		bounds = append(bounds, t.Start, t.End)
	}
	sort.Slice(bounds, func(i, j int) bool { return f.cmp(bounds[i], bounds[j]) < 0 })
	bounds = dedupe(bounds, f.cmp)

	fragments := make([]Fragment, 0, len(bounds)-1)
	for i := 0; i+1 < len(bounds); i++ {
		lo, hi := bounds[i], bounds[i+1]
		var covering []uint64
		for _, t := range f.tombstones {
			if f.cmp(t.Start, lo) <= 0 && f.cmp(hi, t.End) <= 0 {
				covering = append(covering, t.SeqNum)
			}
		}
		if len(covering) == 0 {
			continue
		}
		fragments = append(fragments, Fragment{
			Start:   lo,
			End:     hi,
			Seqnums: perStripeMax(covering, f.snapshots),
		})
	}
	return fragments
}

// dedupe removes adjacent duplicate keys from a sorted slice.
func dedupe(keys [][]byte, cmp base.Compare) [][]byte {
	out := keys[:0:0]
	for i, k := range keys {
		if i == 0 || cmp(k, keys[i-1]) != 0 {
			out = append(out, k)
		}
	}
	return out
}

// perStripeMax buckets covering sequence numbers into snapshot stripes and
// returns, per stripe (most-recent first), the maximum sequence number that
// falls in that stripe. A stripe with no covering tombstone is omitted.
func perStripeMax(seqs []uint64, snapshots base.SnapshotList) []uint64 {
	if len(snapshots) == 0 {
		return []uint64{maxOf(seqs)}
	}
	stripeMax := make(map[int]uint64, len(snapshots)+1)
	for _, seq := range seqs {
		stripe := stripeIndex(seq, snapshots)
		if seq > stripeMax[stripe] {
			stripeMax[stripe] = seq
		}
	}
	out := make([]uint64, 0, len(stripeMax))
	for stripe := 0; stripe <= len(snapshots); stripe++ {
		if m, ok := stripeMax[stripe]; ok {
			out = append(out, m)
		}
	}
	// Reverse so the most-recent (highest-index) stripe comes first, matching
	// Fragment.Seqnums' documented ordering.
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}

// stripeIndex returns the index of the snapshot stripe seq falls into: 0 is
// the stripe bounded above by the oldest snapshot, len(snapshots) is the
// most-recent (unbounded-above) stripe.
func stripeIndex(seq uint64, snapshots base.SnapshotList) int {
	for i, s := range snapshots {
		if seq <= s {
			return i
		}
	}
	return len(snapshots)
}

func maxOf(seqs []uint64) uint64 {
	var m uint64
	for _, s := range seqs {
		if s > m {
			m = s
		}
	}
	return m
}
