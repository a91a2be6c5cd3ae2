package pebble

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/flashbake/pebble/internal/manifest"
)

func TestVersionSetNewFileNumberMonotone(t *testing.T) {
	vs := newVersionSet()
	require.Equal(t, uint64(1), vs.NewFileNumber())
	require.Equal(t, uint64(2), vs.NewFileNumber())
	require.Equal(t, uint64(3), vs.NewFileNumber())
}

func TestVersionSetCurrentRefCounting(t *testing.T) {
	vs := newVersionSet()
	v1 := vs.Current()
	require.EqualValues(t, 2, v1.refs.Load())
	v1.unref()
	require.EqualValues(t, 1, v1.refs.Load())
}

func TestVersionSetLogAndApplyInstallsNewVersion(t *testing.T) {
	vs := newVersionSet()
	before := vs.Current()
	defer before.unref()

	ve := &manifest.VersionEdit{}
	ve.AddFile(manifest.FileMetaData{FileNum: 1, FileSize: 10})
	next := vs.logAndApply(ve)

	require.Len(t, next.l0, 1)
	require.NotSame(t, before, vs.Current())
}
