package pebble

import (
	"github.com/flashbake/pebble/internal/base"
)

// mergingIter implements the merging input cursor from spec.md §4.A: it
// produces a single ordered stream of internal keys drawn from N immutable
// memtables. Ties resolve by sequence descending then kind descending,
// which base.InternalCompare already encodes, so the merge only needs to
// pick the minimum internal key across inputs at each step.
//
// A flush job merges a handful of memtables (k is bounded by how many
// sealed memtables accumulate before a flush fires), so a linear scan for
// the minimum is simpler than a heap and fast enough; a compaction-path
// merge across many sstables would reach for a heap instead.
type mergingIter struct {
	cmp   base.Compare
	iters []base.InternalIterator
	keys  []*base.InternalKey
	vals  [][]byte

	key   base.InternalKey
	val   []byte
	valid bool
	err   error
}

// newMergingIter constructs the merged cursor over one internal-key
// iterator per input memtable.
func newMergingIter(cmp base.Compare, iters []base.InternalIterator) *mergingIter {
	return &mergingIter{
		cmp:   cmp,
		iters: iters,
		keys:  make([]*base.InternalKey, len(iters)),
		vals:  make([][]byte, len(iters)),
	}
}

// First positions the merge at the smallest internal key across all
// inputs.
func (m *mergingIter) First() (*base.InternalKey, []byte) {
	for i, it := range m.iters {
		m.keys[i], m.vals[i] = it.First()
	}
	return m.advance()
}

// Next advances the iterator that produced the last-returned key and
// repositions at the new smallest internal key.
func (m *mergingIter) Next() (*base.InternalKey, []byte) {
	return m.advance()
}

func (m *mergingIter) advance() (*base.InternalKey, []byte) {
	lo := -1
	for i, k := range m.keys {
		if k == nil {
			continue
		}
		if lo == -1 || base.InternalCompare(m.cmp, *k, *m.keys[lo]) < 0 {
			lo = i
		}
	}
	if lo == -1 {
		m.key, m.val, m.valid = base.InternalKey{}, nil, false
		return nil, nil
	}
	m.key, m.val, m.valid = *m.keys[lo], m.vals[lo], true
	m.keys[lo], m.vals[lo] = m.iters[lo].Next()
	return &m.key, m.val
}

func (m *mergingIter) Valid() bool { return m.valid }

func (m *mergingIter) Error() error {
	if m.err != nil {
		return m.err
	}
	for _, it := range m.iters {
		if err := it.Error(); err != nil {
			return err
		}
	}
	return nil
}

func (m *mergingIter) Close() error {
	var err error
	for _, it := range m.iters {
		if cerr := it.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	return err
}
