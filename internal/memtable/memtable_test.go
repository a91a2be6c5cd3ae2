package memtable

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/flashbake/pebble/internal/base"
)

func TestMemTableAddOrdersEntries(t *testing.T) {
	m := New(1, base.DefaultCompare)
	m.Add(base.MakeInternalKey([]byte("b"), 1, base.InternalKeyKindSet), []byte("v1"))
	m.Add(base.MakeInternalKey([]byte("a"), 2, base.InternalKeyKindSet), []byte("v2"))
	m.Add(base.MakeInternalKey([]byte("a"), 5, base.InternalKeyKindSet), []byte("v3"))

	it := m.NewIterator()
	k, v := it.First()
	require.Equal(t, []byte("a"), k.UserKey)
	require.Equal(t, uint64(5), k.SeqNum())
	require.Equal(t, []byte("v3"), v)

	k, v = it.Next()
	require.Equal(t, []byte("a"), k.UserKey)
	require.Equal(t, uint64(2), k.SeqNum())
	require.Equal(t, []byte("v2"), v)

	k, _ = it.Next()
	require.Equal(t, []byte("b"), k.UserKey)

	_, _ = it.Next()
	require.False(t, it.Valid())
}

func TestMemTableIdentityFields(t *testing.T) {
	m := New(1, base.DefaultCompare)
	require.Equal(t, uint64(0), m.EarliestSeqNum())

	m.Add(base.MakeInternalKey([]byte("a"), 10, base.InternalKeyKindSet), []byte("v"))
	m.Add(base.MakeInternalKey([]byte("a"), 3, base.InternalKeyKindDelete), []byte(""))

	require.Equal(t, uint64(3), m.EarliestSeqNum())
	require.Equal(t, uint64(10), m.FirstSeqNum())
	require.Equal(t, 2, m.EntryCount())
	require.Equal(t, 1, m.DeleteCount())
	require.True(t, m.DataSize() > 0)
}

func TestMemTableRangeTombstoneIteratorNilWhenEmpty(t *testing.T) {
	m := New(1, base.DefaultCompare)
	require.Nil(t, m.RangeTombstoneIterator())

	m.AddRangeTombstone([]byte("a"), []byte("c"), 7)
	it := m.RangeTombstoneIterator()
	require.NotNil(t, it)
	start, end, seq, ok := it.First()
	require.True(t, ok)
	require.Equal(t, []byte("a"), start)
	require.Equal(t, []byte("c"), end)
	require.Equal(t, uint64(7), seq)

	_, _, _, ok = it.Next()
	require.False(t, ok)
}

func TestMemTableMempurgeOutputFlag(t *testing.T) {
	m := New(1, base.DefaultCompare)
	require.False(t, m.IsMempurgeOutput())
	m.SetMempurgeOutput(true)
	require.True(t, m.IsMempurgeOutput())
}

func TestMemTableShouldFlushNow(t *testing.T) {
	m := New(1, base.DefaultCompare)
	m.Add(base.MakeInternalKey([]byte("a"), 1, base.InternalKeyKindSet), make([]byte, 100))
	require.False(t, m.ShouldFlushNow(1000))
	require.True(t, m.ShouldFlushNow(10))
}
