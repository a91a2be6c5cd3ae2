package base

// InternalIterator iterates over internal keys in internal-key order.
// Implementations need not be goroutine-safe, but distinct iterators over
// the same underlying memtable may be used concurrently from different
// goroutines (spec.md §3, "exposes ... an internal-key iterator").
//
// The flush engine always constructs these with total-order seek
// semantics: bloom-filter short circuits are a read-path optimization that
// must never cause a flush to skip a key (spec.md §4.A).
type InternalIterator interface {
	First() (*InternalKey, []byte)
	Next() (*InternalKey, []byte)
	Valid() bool
	Error() error
	Close() error
}

// RangeTombstoneIterator iterates over a memtable's fragmented range
// tombstones. A memtable with no range deletions returns a nil iterator
// (spec.md §4.A: "collecting the non-null ones into an ordered vector").
type RangeTombstoneIterator interface {
	First() (start, end []byte, seqNum uint64, ok bool)
	Next() (start, end []byte, seqNum uint64, ok bool)
	Close() error
}

// IOStats is a thread-local counter snapshot. The table writer driver reads
// one before and one after the call into the table builder and reports the
// delta (spec.md §5, "IO stats counters: thread-local; snapshotted
// before/after I/O to compute deltas").
type IOStats struct {
	BytesWritten uint64
	BytesRead    uint64
	Syncs        uint64
}

// Sub returns a-b, saturating at zero per field rather than wrapping, since
// a well-behaved counter snapshot pair never produces a negative delta but
// a corrupted one shouldn't wrap into a huge uint64.
func (a IOStats) Sub(b IOStats) IOStats {
	sub := func(x, y uint64) uint64 {
		if x < y {
			return 0
		}
		return x - y
	}
	return IOStats{
		BytesWritten: sub(a.BytesWritten, b.BytesWritten),
		BytesRead:    sub(a.BytesRead, b.BytesRead),
		Syncs:        sub(a.Syncs, b.Syncs),
	}
}
