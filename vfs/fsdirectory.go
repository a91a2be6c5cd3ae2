package vfs

// FSDirectory is the external collaborator spec.md §6 names as
// "FSDirectory.fsync()" — the flush engine only ever calls Sync on the
// output directory handle it was constructed with. *Dir satisfies this on
// every platform.
type FSDirectory interface {
	Sync() error
	Close() error
}

var _ FSDirectory = (*Dir)(nil)
