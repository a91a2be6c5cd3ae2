package pebble

import (
	"sync"

	"github.com/flashbake/pebble/internal/manifest"
	"github.com/flashbake/pebble/internal/memtable"
)

// immutableMemtableList is the ImmutableList collaborator from spec.md §6:
// pick_memtables_to_flush, rollback, try_install_results, and the
// mempurge-output flag set. It serializes installation across overlapping
// flush jobs even though jobs themselves may run in parallel (spec.md §5
// "coordination is delegated to the immutable list, which serializes
// installation").
type immutableMemtableList struct {
	mu sync.Mutex

	// tables holds every sealed memtable not yet retired, in ascending
	// creation order. A memtable currently picked by an in-flight flush
	// job remains in this slice (marked picked) until installed or rolled
	// back, so a retry after rollback can pick it again.
	tables []*entryState
}

type entryState struct {
	mem    *memtable.MemTable
	picked bool
}

// newImmutableMemtableList constructs an empty list.
func newImmutableMemtableList() *immutableMemtableList {
	return &immutableMemtableList{}
}

// Add seals a new memtable into the list; called by the write path, not by
// the flush engine itself (spec.md §1 "does not choose which memtables
// exist").
func (l *immutableMemtableList) Add(m *memtable.MemTable) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.tables = append(l.tables, &entryState{mem: m})
}

// PickMemtablesToFlush selects every not-yet-picked memtable with id ≤
// upperID, in ascending creation order, and marks them picked so a
// concurrent flush job cannot select them again (spec.md §3 "All m_i.id ≤
// max_memtable_id").
func (l *immutableMemtableList) PickMemtablesToFlush(upperID uint64) []*memtable.MemTable {
	l.mu.Lock()
	defer l.mu.Unlock()

	var picked []*memtable.MemTable
	for _, e := range l.tables {
		if e.picked || e.mem.ID() > upperID {
			continue
		}
		e.picked = true
		picked = append(picked, e.mem)
	}
	return picked
}

// Rollback un-picks the given memtables so a retry can select them again
// (spec.md §4.E branch 3). The output file number is informational only —
// the caller is responsible for not having installed anything under it.
func (l *immutableMemtableList) Rollback(inputs []*memtable.MemTable, outputFileNum uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, m := range inputs {
		for _, e := range l.tables {
			if e.mem == m {
				e.picked = false
			}
		}
	}
}

// removeLocked retires the given inputs from the list. Callers holding the
// mutex use this for both the disk-write and mempurge success paths; the
// mempurge path additionally reinserts its replacement memtable.
func (l *immutableMemtableList) removeLocked(inputs []*memtable.MemTable) {
	remaining := l.tables[:0]
	for _, e := range l.tables {
		drop := false
		for _, m := range inputs {
			if e.mem == m {
				drop = true
				break
			}
		}
		if !drop {
			remaining = append(remaining, e)
		}
	}
	l.tables = remaining
}

// TryInstallResults implements spec.md §4.E branch 4/5: under the mutex,
// retire the flushed inputs (queued for deferred deletion by the caller)
// and, for the mempurge path, reinsert the replacement memtable "WITHOUT
// scheduling another flush". writeEdit distinguishes the two: true applies
// ve via vs.logAndApply (branch 4), false is the mempurge no-manifest case
// (branch 5).
func (l *immutableMemtableList) TryInstallResults(
	vs *versionSet,
	inputs []*memtable.MemTable,
	ve *manifest.VersionEdit,
	writeEdit bool,
	mempurgeOutput *memtable.MemTable,
) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.removeLocked(inputs)
	if mempurgeOutput != nil {
		l.tables = append(l.tables, &entryState{mem: mempurgeOutput})
	}
	if writeEdit && vs != nil && ve != nil && !ve.Empty() {
		vs.logAndApply(ve)
	}
}

// Len reports the number of memtables currently tracked, used by tests to
// assert the invariants in spec.md §8 ("immutable-list size decreases by
// k-1").
func (l *immutableMemtableList) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.tables)
}
