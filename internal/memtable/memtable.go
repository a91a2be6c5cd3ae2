// Package memtable implements the MemTable contract from spec.md §3: an
// ordered collection of internal keys with values, exposing an
// internal-key iterator, a range-tombstone iterator, and the identity
// fields the flush engine reads (id, next_log_number, sequence range,
// sizes, entry counts).
//
// Production pebble's memtable is an arena-backed skiplist; that data
// structure and its memory-allocation strategy are out of scope per
// spec.md §1 (MemTable is an external collaborator). This package provides
// a deliberately simple reference implementation — an insertion-sorted
// slice — good enough to drive the flush engine's own tests, the same
// stance aalhour/rockyardkv's internal/memtable package takes relative to
// RocksDB's real skiplist memtable.
package memtable

import (
	"sort"
	"sync/atomic"

	"github.com/flashbake/pebble/internal/base"
	"github.com/flashbake/pebble/internal/rangedel"
)

// entry is one stored (internal key, value) pair.
type entry struct {
	key   base.InternalKey
	value []byte
}

// MemTable is the reference implementation of spec.md §3's MemTable.
type MemTable struct {
	cmp     base.Compare
	entries []entry
	tomb    []rangedel.Tombstone

	id            uint64
	nextLogNumber uint64
	earliestSeq   uint64
	firstSeq      uint64
	oldestKeyTime uint64

	dataSize    int64
	deleteCount int

	// mempurgeOutput records whether this memtable is itself the product of
	// a prior mempurge, consulted by the Alternate mempurge policy
	// (spec.md §4.D) to avoid infinite re-pack cycles.
	mempurgeOutput atomic.Bool
}

// New constructs an empty memtable with the given id and comparator.
func New(id uint64, cmp base.Compare) *MemTable {
	if cmp == nil {
		cmp = base.DefaultCompare
	}
	return &MemTable{cmp: cmp, id: id, earliestSeq: base.SeqNumMax}
}

// Add inserts an internal key/value pair, keeping entries in internal-key
// order. Range-deletion kinds should be added via AddRangeTombstone
// instead.
func (m *MemTable) Add(key base.InternalKey, value []byte) {
	idx := sort.Search(len(m.entries), func(i int) bool {
		return base.InternalCompare(m.cmp, m.entries[i].key, key) >= 0
	})
	m.entries = append(m.entries, entry{})
	copy(m.entries[idx+1:], m.entries[idx:])
	m.entries[idx] = entry{key: key, value: append([]byte(nil), value...)}

	if key.SeqNum() < m.earliestSeq {
		m.earliestSeq = key.SeqNum()
	}
	if key.SeqNum() > m.firstSeq {
		m.firstSeq = key.SeqNum()
	}
	if key.Kind() == base.InternalKeyKindDelete || key.Kind() == base.InternalKeyKindSingleDelete {
		m.deleteCount++
	}
	m.dataSize += int64(key.Size() + len(value))
}

// AddRangeTombstone records a RangeDeletion entry. start is inclusive, end
// is exclusive.
func (m *MemTable) AddRangeTombstone(start, end []byte, seqNum uint64) {
	m.tomb = append(m.tomb, rangedel.Tombstone{
		Start:  append([]byte(nil), start...),
		End:    append([]byte(nil), end...),
		SeqNum: seqNum,
	})
	if seqNum < m.earliestSeq {
		m.earliestSeq = seqNum
	}
	if seqNum > m.firstSeq {
		m.firstSeq = seqNum
	}
	m.dataSize += int64(len(start) + len(end) + 8)
}

// NewIterator returns a forward internal-key iterator with total-order seek
// semantics (spec.md §4.A disables bloom-filter short circuits; this
// reference implementation has no bloom filter to short-circuit).
func (m *MemTable) NewIterator() base.InternalIterator {
	return &memIter{entries: m.entries, pos: -1}
}

// RangeTombstoneIterator returns nil if the memtable holds no range
// deletions, matching spec.md §4.A's "collecting the non-null ones".
func (m *MemTable) RangeTombstoneIterator() base.RangeTombstoneIterator {
	if len(m.tomb) == 0 {
		return nil
	}
	return &rangeIter{tomb: m.tomb, pos: -1}
}

// ID returns the memtable's identity (spec.md §3).
func (m *MemTable) ID() uint64 { return m.id }

// SetID reassigns the memtable's id; used by the mempurge path (spec.md
// §4.D) to assign new_mem.id = min(input ids).
func (m *MemTable) SetID(id uint64) { m.id = id }

// NextLogNumber returns the log number beyond which recovery no longer
// needs earlier WALs once this memtable is flushed.
func (m *MemTable) NextLogNumber() uint64 { return m.nextLogNumber }

// SetNextLogNumber sets NextLogNumber.
func (m *MemTable) SetNextLogNumber(n uint64) { m.nextLogNumber = n }

// EarliestSeqNum returns the smallest sequence number inserted so far.
func (m *MemTable) EarliestSeqNum() uint64 {
	if len(m.entries) == 0 && len(m.tomb) == 0 {
		return 0
	}
	return m.earliestSeq
}

// SetEarliestSeqNum overrides the earliest-sequence identity field; used by
// the mempurge path when constructing new_mem (spec.md §4.D: "new_mem whose
// earliest_sequence = min of inputs' earliest sequences").
func (m *MemTable) SetEarliestSeqNum(seq uint64) { m.earliestSeq = seq }

// FirstSeqNum returns the highest sequence number inserted so far. (The
// name mirrors spec.md's `first_sequence` identity field, which in RocksDB
// denotes the most-recently-assigned sequence at memtable-creation time,
// not necessarily the numerically smallest.)
func (m *MemTable) FirstSeqNum() uint64 { return m.firstSeq }

// SetFirstSeqNum overrides FirstSeqNum; used by the mempurge path to set
// new_mem.first_sequence = new_first_sequence (spec.md §4.D).
func (m *MemTable) SetFirstSeqNum(seq uint64) { m.firstSeq = seq }

// ApproximateMemoryUsage estimates bytes retained by the memtable, used by
// the mempurge path's overflow check (spec.md §4.D).
func (m *MemTable) ApproximateMemoryUsage() int64 { return m.dataSize }

// EntryCount returns the number of point entries (spec.md §3
// "entry_count").
func (m *MemTable) EntryCount() int { return len(m.entries) }

// DeleteCount returns the number of Delete/SingleDelete entries (spec.md §3
// "delete_count").
func (m *MemTable) DeleteCount() int { return m.deleteCount }

// DataSize returns the total encoded size of entries (spec.md §3
// "data_size").
func (m *MemTable) DataSize() int64 { return m.dataSize }

// OldestKeyTime returns the memtable's oldest-key wall-clock time, used by
// the table writer driver's timestamp computation (spec.md §4.C).
func (m *MemTable) OldestKeyTime() uint64 { return m.oldestKeyTime }

// SetOldestKeyTime sets OldestKeyTime; exposed for tests and for recovery
// paths that restore it from a WAL record.
func (m *MemTable) SetOldestKeyTime(t uint64) { m.oldestKeyTime = t }

// IsMempurgeOutput reports whether this memtable was produced by a prior
// mempurge (spec.md §4.D's Alternate policy).
func (m *MemTable) IsMempurgeOutput() bool { return m.mempurgeOutput.Load() }

// SetMempurgeOutput marks or clears the mempurge-output flag.
func (m *MemTable) SetMempurgeOutput(v bool) { m.mempurgeOutput.Store(v) }

// ShouldFlushNow reports whether the memtable has grown enough that it
// should be flushed even though it was just mempurged back into the
// immutable list (spec.md §4.D "its should_flush_now() is false"). The
// reference implementation ties this to the same write-buffer threshold
// callers already check via ApproximateMemoryUsage; a production memtable
// may also consider arena fragmentation, which this simple slice-backed
// implementation has none of.
func (m *MemTable) ShouldFlushNow(writeBufferSize int64) bool {
	return m.dataSize >= writeBufferSize
}

type memIter struct {
	entries []entry
	pos     int
}

func (it *memIter) First() (*base.InternalKey, []byte) {
	it.pos = 0
	return it.current()
}

func (it *memIter) Next() (*base.InternalKey, []byte) {
	it.pos++
	return it.current()
}

func (it *memIter) current() (*base.InternalKey, []byte) {
	if it.pos < 0 || it.pos >= len(it.entries) {
		return nil, nil
	}
	e := &it.entries[it.pos]
	return &e.key, e.value
}

func (it *memIter) Valid() bool  { return it.pos >= 0 && it.pos < len(it.entries) }
func (it *memIter) Error() error { return nil }
func (it *memIter) Close() error { return nil }

type rangeIter struct {
	tomb []rangedel.Tombstone
	pos  int
}

func (it *rangeIter) First() (start, end []byte, seqNum uint64, ok bool) {
	it.pos = 0
	return it.current()
}

func (it *rangeIter) Next() (start, end []byte, seqNum uint64, ok bool) {
	it.pos++
	return it.current()
}

func (it *rangeIter) current() (start, end []byte, seqNum uint64, ok bool) {
	if it.pos < 0 || it.pos >= len(it.tomb) {
		return nil, nil, 0, false
	}
	t := it.tomb[it.pos]
	return t.Start, t.End, t.SeqNum, true
}

func (it *rangeIter) Close() error { return nil }
