package base

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestInternalKeyEncodeDecode(t *testing.T) {
	k := MakeInternalKey([]byte("hello"), 42, InternalKeyKindSet)
	buf := make([]byte, k.Size())
	k.Encode(buf)

	got := DecodeInternalKey(buf)
	require.Equal(t, []byte("hello"), got.UserKey)
	require.Equal(t, uint64(42), got.SeqNum())
	require.Equal(t, InternalKeyKindSet, got.Kind())
}

func TestDecodeInternalKeyTooShort(t *testing.T) {
	got := DecodeInternalKey([]byte("ab"))
	require.False(t, got.Valid())
	require.Equal(t, InternalKeyKindInvalid, got.Kind())
}

func TestInternalCompareOrdering(t *testing.T) {
	// Ascending user key, then descending sequence, then descending kind.
	a := MakeInternalKey([]byte("a"), 10, InternalKeyKindSet)
	b := MakeInternalKey([]byte("b"), 1, InternalKeyKindSet)
	require.Less(t, InternalCompare(DefaultCompare, a, b), 0)

	newer := MakeInternalKey([]byte("a"), 10, InternalKeyKindSet)
	older := MakeInternalKey([]byte("a"), 5, InternalKeyKindSet)
	require.Less(t, InternalCompare(DefaultCompare, newer, older), 0)

	higherKind := MakeInternalKey([]byte("a"), 10, InternalKeyKindSingleDelete)
	lowerKind := MakeInternalKey([]byte("a"), 10, InternalKeyKindSet)
	require.Less(t, InternalCompare(DefaultCompare, higherKind, lowerKind), 0)
}

func TestCheckValid(t *testing.T) {
	require.NoError(t, CheckValid(MakeInternalKey([]byte("a"), 1, InternalKeyKindSet)))

	bad := InternalKey{UserKey: []byte("a"), trailer: uint64(InternalKeyKindInvalid)}
	err := CheckValid(bad)
	require.Error(t, err)
	require.ErrorIs(t, err, ErrCorruptInternalKey)
}

func TestSnapshotListVisibleAt(t *testing.T) {
	snaps := SnapshotList{10, 20, 30}

	boundary, ok := snaps.VisibleAt(5)
	require.True(t, ok)
	require.Equal(t, uint64(10), boundary)

	boundary, ok = snaps.VisibleAt(20)
	require.True(t, ok)
	require.Equal(t, uint64(20), boundary)

	_, ok = snaps.VisibleAt(31)
	require.False(t, ok)
}

func TestSnapshotListCovers(t *testing.T) {
	snaps := SnapshotList{10, 20}
	require.True(t, snaps.Covers(5, 15))
	require.False(t, snaps.Covers(21, 25))
}
