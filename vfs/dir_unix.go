//go:build unix

package vfs

import (
	"os"

	"github.com/cockroachdb/errors"
	"golang.org/x/sys/unix"
)

// Dir is an open handle to the output directory the flush engine fsyncs
// after writing a table (spec.md §4.E, §6 "FSDirectory.fsync()").
type Dir struct {
	f *os.File
}

// OpenDir opens path for the sole purpose of fsyncing it.
func OpenDir(path string) (*Dir, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "vfs: open dir %q", path)
	}
	return &Dir{f: f}, nil
}

// Sync fsyncs the directory so that the just-written table file's entry is
// durable (spec.md §4.E "If the optional output directory handle is
// present and sync_output_directory=true, the output directory is fsynced
// before the mutex is re-acquired").
func (d *Dir) Sync() error {
	if d == nil {
		return nil
	}
	if err := unix.Fsync(int(d.f.Fd())); err != nil {
		return errors.Wrap(err, "vfs: fsync dir")
	}
	return nil
}

// Close releases the directory handle.
func (d *Dir) Close() error {
	if d == nil {
		return nil
	}
	return d.f.Close()
}
