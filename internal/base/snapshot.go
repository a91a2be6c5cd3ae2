package base

import "golang.org/x/exp/slices"

// SnapshotList is the sorted ascending vector of visible snapshot sequence
// numbers from spec.md §3 ("Snapshots: a sorted ascending vector of
// sequence numbers visible to readers").
type SnapshotList []uint64

// VisibleAt returns the smallest snapshot sequence number that is >= seq,
// i.e. the stripe boundary that seq belongs below, and whether one exists.
// The compaction iterator (component B) uses this to decide which stripe a
// given sequence number's entries fall into.
func (s SnapshotList) VisibleAt(seq uint64) (boundary uint64, ok bool) {
	i, found := slices.BinarySearch(s, seq)
	if found {
		return s[i], true
	}
	if i < len(s) {
		return s[i], true
	}
	return 0, false
}

// Covers reports whether any snapshot in s is >= lo and < hi, i.e. whether a
// range tombstone spanning [lo, hi) in sequence space is pinned by a live
// snapshot and therefore cannot be collapsed away.
func (s SnapshotList) Covers(lo, hi uint64) bool {
	i, _ := slices.BinarySearch(s, lo)
	return i < len(s) && s[i] < hi
}
