package pebble

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/flashbake/pebble/internal/base"
	"github.com/flashbake/pebble/internal/memtable"
)

func TestMempurgeEligible(t *testing.T) {
	inputs := []*memtable.MemTable{memtable.New(1, base.DefaultCompare)}

	require.False(t, mempurgeEligible(MempurgeDisabled, FlushReasonWriteBufferFull, inputs))
	require.False(t, mempurgeEligible(MempurgeAlways, FlushReasonManualFlush, inputs))
	require.False(t, mempurgeEligible(MempurgeAlways, FlushReasonWriteBufferFull, nil))
	require.True(t, mempurgeEligible(MempurgeAlways, FlushReasonWriteBufferFull, inputs))

	inputs[0].SetMempurgeOutput(true)
	require.False(t, mempurgeEligible(MempurgeAlternate, FlushReasonWriteBufferFull, inputs))
	require.True(t, mempurgeEligible(MempurgeAlways, FlushReasonWriteBufferFull, inputs))
}

func TestRunMempurgeRepacksSurvivingEntries(t *testing.T) {
	m1 := memtable.New(1, base.DefaultCompare)
	m1.Add(base.MakeInternalKey([]byte("a"), 1, base.InternalKeyKindSet), []byte("v1"))
	m2 := memtable.New(2, base.DefaultCompare)
	m2.Add(base.MakeInternalKey([]byte("a"), 3, base.InternalKeyKindSet), []byte("v3"))
	m2.Add(base.MakeInternalKey([]byte("b"), 2, base.InternalKeyKindSet), []byte("vb"))

	res, err := runMempurge(base.DefaultCompare, nil, nil, nil, 0, []*memtable.MemTable{m1, m2}, 1<<20)
	require.NoError(t, err)
	require.NotNil(t, res.newMem)
	require.Equal(t, uint64(1), res.newMem.ID())
	require.Equal(t, 2, res.newMem.EntryCount())
}

func TestRunMempurgeAbortsOnOverflow(t *testing.T) {
	m1 := memtable.New(1, base.DefaultCompare)
	m1.Add(base.MakeInternalKey([]byte("a"), 1, base.InternalKeyKindSet), make([]byte, 1024))

	_, err := runMempurge(base.DefaultCompare, nil, nil, nil, 0, []*memtable.MemTable{m1}, 16)
	require.Error(t, err)
	require.ErrorIs(t, err, ErrMempurgeAborted)
}

func TestRunMempurgeEmptyResultWhenNothingEmitted(t *testing.T) {
	m1 := memtable.New(1, base.DefaultCompare)
	m1.Add(base.MakeInternalKey([]byte("a"), 1, base.InternalKeyKindSet), []byte("v"))
	m1.Add(base.MakeInternalKey([]byte("a"), 2, base.InternalKeyKindDelete), []byte(""))

	filter := dropAllFilter{}
	res, err := runMempurge(base.DefaultCompare, nil, filter, nil, 0, []*memtable.MemTable{m1}, 1<<20)
	require.NoError(t, err)
	require.Nil(t, res.newMem)
}

type dropAllFilter struct{}

func (dropAllFilter) IgnoresSnapshots() bool { return true }
func (dropAllFilter) Filter(userKey, value []byte) (bool, []byte) {
	return true, nil
}

func TestInstallMempurgeOutputAssignsMinID(t *testing.T) {
	m1 := memtable.New(5, base.DefaultCompare)
	m2 := memtable.New(2, base.DefaultCompare)
	m1.SetMempurgeOutput(true)

	newMem := memtable.New(99, base.DefaultCompare)
	installMempurgeOutput([]*memtable.MemTable{m1, m2}, newMem)

	require.Equal(t, uint64(2), newMem.ID())
	require.True(t, newMem.IsMempurgeOutput())
	require.False(t, m1.IsMempurgeOutput())
}
