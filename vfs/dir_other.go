//go:build !unix

package vfs

import (
	"os"

	"github.com/cockroachdb/errors"
)

// Dir is an open handle to the output directory. On non-unix platforms
// there is no directory-fsync syscall; Sync is a best-effort no-op, and
// flush_options.go's sync_output_dir flag becomes a documentation-only
// guarantee there, matching how pebble's own vfs layer degrades on such
// platforms.
type Dir struct {
	f *os.File
}

// OpenDir opens path for the sole purpose of (attempting to) fsync it.
func OpenDir(path string) (*Dir, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "vfs: open dir %q", path)
	}
	return &Dir{f: f}, nil
}

// Sync is a no-op on platforms without directory-fsync support.
func (d *Dir) Sync() error { return nil }

// Close releases the directory handle.
func (d *Dir) Close() error {
	if d == nil {
		return nil
	}
	return d.f.Close()
}
