package rangedel

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/flashbake/pebble/internal/base"
)

type sliceTombstoneIter struct {
	tombs []Tombstone
	pos   int
}

func (it *sliceTombstoneIter) First() (start, end []byte, seqNum uint64, ok bool) {
	it.pos = 0
	return it.current()
}

func (it *sliceTombstoneIter) Next() (start, end []byte, seqNum uint64, ok bool) {
	it.pos++
	return it.current()
}

func (it *sliceTombstoneIter) current() (start, end []byte, seqNum uint64, ok bool) {
	if it.pos < 0 || it.pos >= len(it.tombs) {
		return nil, nil, 0, false
	}
	t := it.tombs[it.pos]
	return t.Start, t.End, t.SeqNum, true
}

func (it *sliceTombstoneIter) Close() error { return nil }

func TestAggregatorCoversAndMaxSeqNum(t *testing.T) {
	agg := NewAggregator(base.DefaultCompare, nil)
	require.NoError(t, agg.AddTombstones(&sliceTombstoneIter{tombs: []Tombstone{
		{Start: []byte("a"), End: []byte("m"), SeqNum: 10},
	}}))
	agg.Finish()

	require.True(t, agg.Covers([]byte("b"), 5))
	require.False(t, agg.Covers([]byte("b"), 10))
	require.False(t, agg.Covers([]byte("z"), 0))
	require.Equal(t, uint64(10), agg.MaxCoveringSeqNum([]byte("b")))
	require.Equal(t, uint64(0), agg.MaxCoveringSeqNum([]byte("z")))
}

func TestAggregatorNilIteratorIsNoOp(t *testing.T) {
	agg := NewAggregator(base.DefaultCompare, nil)
	require.NoError(t, agg.AddTombstones(nil))
	agg.Finish()
	require.True(t, agg.Empty())
	require.Empty(t, agg.Fragments())
}
