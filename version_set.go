// Copyright 2012 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package pebble

import (
	"sync"
	"sync/atomic"

	"github.com/flashbake/pebble/internal/manifest"
)

// version is the ref-counted snapshot of a column family's on-disk state
// that VersionSet.Current returns (spec.md §6 "VersionSet with ...
// current() -> Version"). Only the L0 file list matters to a flush job;
// everything else a real version tracks (per-level iterators, compaction
// pointers) is out of scope per spec.md §1.
type version struct {
	refs atomic.Int32
	l0   []manifest.FileMetaData
}

// ref acquires a reference (spec.md §9/§13 Open Question 1: the job takes
// one reference on pick, releases it on cancel or at the end of run).
func (v *version) ref() { v.refs.Add(1) }

// unref releases a reference taken by ref.
func (v *version) unref() { v.refs.Add(-1) }

// versionSet is the minimal VersionSet contract spec.md §6 names:
// new_file_number() and current(). The manifest persistence format itself
// (CURRENT file, manifest record encoding) is out of scope per spec.md §1;
// logAndApply below only updates the in-memory current version, which is
// all install/rollback (§4.E) requires.
type versionSet struct {
	mu sync.Mutex

	nextFileNumber atomic.Uint64
	current        *version
}

// newVersionSet constructs an empty version set with no L0 files.
func newVersionSet() *versionSet {
	vs := &versionSet{current: &version{}}
	vs.current.ref()
	vs.nextFileNumber.Store(1)
	return vs
}

// NewFileNumber draws the next number from the monotone allocator "under
// the mutex" (spec.md §5); atomics make the mutex unnecessary here, but the
// method name matches the spec's external-interface naming.
func (vs *versionSet) NewFileNumber() uint64 {
	return vs.nextFileNumber.Add(1) - 1
}

// Current returns the currently-installed version, taking a reference the
// caller must eventually release with unref.
func (vs *versionSet) Current() *version {
	vs.mu.Lock()
	defer vs.mu.Unlock()
	v := vs.current
	v.ref()
	return v
}

// logAndApply installs ve as the new current version: it applies the added
// files to a copy of the L0 list and swaps it in, releasing the prior
// version's installation-held reference. The on-disk manifest record this
// would also append is out of scope per spec.md §1 — db.go's flush path
// only needs the in-memory effect.
func (vs *versionSet) logAndApply(ve *manifest.VersionEdit) *version {
	vs.mu.Lock()
	defer vs.mu.Unlock()

	next := &version{l0: append(append([]manifest.FileMetaData(nil), vs.current.l0...), ve.NewFiles...)}
	next.ref()
	vs.current.unref()
	vs.current = next
	return next
}
