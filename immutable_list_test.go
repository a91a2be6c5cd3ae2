package pebble

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/flashbake/pebble/internal/base"
	"github.com/flashbake/pebble/internal/manifest"
	"github.com/flashbake/pebble/internal/memtable"
)

func newTestMemtable(id uint64) *memtable.MemTable {
	m := memtable.New(id, base.DefaultCompare)
	m.Add(base.MakeInternalKey([]byte("a"), id, base.InternalKeyKindSet), []byte("v"))
	return m
}

func TestImmutableListPickMarksPicked(t *testing.T) {
	l := newImmutableMemtableList()
	m1, m2, m3 := newTestMemtable(1), newTestMemtable(2), newTestMemtable(5)
	l.Add(m1)
	l.Add(m2)
	l.Add(m3)

	picked := l.PickMemtablesToFlush(2)
	require.Equal(t, []*memtable.MemTable{m1, m2}, picked)
	require.Equal(t, 3, l.Len())

	// A second pick at the same upper bound must not reselect already
	// picked memtables.
	require.Empty(t, l.PickMemtablesToFlush(2))
}

func TestImmutableListRollbackReenablesPick(t *testing.T) {
	l := newImmutableMemtableList()
	m1 := newTestMemtable(1)
	l.Add(m1)

	picked := l.PickMemtablesToFlush(10)
	require.Len(t, picked, 1)
	require.Empty(t, l.PickMemtablesToFlush(10))

	l.Rollback(picked, 42)
	require.Equal(t, picked, l.PickMemtablesToFlush(10))
}

func TestImmutableListTryInstallResultsRetiresInputs(t *testing.T) {
	l := newImmutableMemtableList()
	vs := newVersionSet()
	m1 := newTestMemtable(1)
	l.Add(m1)

	picked := l.PickMemtablesToFlush(10)
	ve := &manifest.VersionEdit{}
	ve.AddFile(manifest.FileMetaData{FileNum: 1, FileSize: 100})

	l.TryInstallResults(vs, picked, ve, true, nil)
	require.Equal(t, 0, l.Len())

	v := vs.Current()
	defer v.unref()
	require.Len(t, v.l0, 1)
}

func TestImmutableListTryInstallResultsMempurgeReinserts(t *testing.T) {
	l := newImmutableMemtableList()
	m1 := newTestMemtable(1)
	l.Add(m1)

	picked := l.PickMemtablesToFlush(10)
	replacement := newTestMemtable(1)
	l.TryInstallResults(nil, picked, &manifest.VersionEdit{}, false, replacement)

	require.Equal(t, 1, l.Len())
}
