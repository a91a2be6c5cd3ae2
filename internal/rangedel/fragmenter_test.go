package rangedel

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/flashbake/pebble/internal/base"
)

func TestFragmenterNoOverlap(t *testing.T) {
	f := NewFragmenter(base.DefaultCompare, nil)
	f.Add(Tombstone{Start: []byte("a"), End: []byte("c"), SeqNum: 5})
	f.Add(Tombstone{Start: []byte("d"), End: []byte("f"), SeqNum: 3})

	frags := f.Finish()
	require.Len(t, frags, 2)
	require.Equal(t, []byte("a"), frags[0].Start)
	require.Equal(t, []byte("c"), frags[0].End)
	require.Equal(t, uint64(5), frags[0].MaxSeqNum())
	require.Equal(t, uint64(3), frags[1].MaxSeqNum())
}

func TestFragmenterOverlapSplits(t *testing.T) {
	f := NewFragmenter(base.DefaultCompare, nil)
	f.Add(Tombstone{Start: []byte("a"), End: []byte("e"), SeqNum: 1})
	f.Add(Tombstone{Start: []byte("c"), End: []byte("g"), SeqNum: 2})

	frags := f.Finish()
	require.Len(t, frags, 3)
	require.Equal(t, []byte("a"), frags[0].Start)
	require.Equal(t, []byte("c"), frags[0].End)
	require.Equal(t, uint64(1), frags[0].MaxSeqNum())

	require.Equal(t, []byte("c"), frags[1].Start)
	require.Equal(t, []byte("e"), frags[1].End)
	require.Equal(t, uint64(2), frags[1].MaxSeqNum())

	require.Equal(t, []byte("e"), frags[2].Start)
	require.Equal(t, []byte("g"), frags[2].End)
	require.Equal(t, uint64(2), frags[2].MaxSeqNum())
}

func TestFragmenterEmptyRangeDropped(t *testing.T) {
	f := NewFragmenter(base.DefaultCompare, nil)
	f.Add(Tombstone{Start: []byte("a"), End: []byte("a"), SeqNum: 1})
	require.True(t, f.Empty())
	require.Nil(t, f.Finish())
}

func TestFragmenterPerStripeMax(t *testing.T) {
	// Tombstones over the same range on either side of a snapshot boundary
	// record the max deleting sequence per stripe, most-recent stripe first.
	snaps := base.SnapshotList{5}
	f := NewFragmenter(base.DefaultCompare, snaps)
	f.Add(Tombstone{Start: []byte("a"), End: []byte("b"), SeqNum: 3})
	f.Add(Tombstone{Start: []byte("a"), End: []byte("b"), SeqNum: 8})

	frags := f.Finish()
	require.Len(t, frags, 1)
	require.Equal(t, []uint64{8, 3}, frags[0].Seqnums)
}
