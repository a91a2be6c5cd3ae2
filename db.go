package pebble

import (
	"sync"
	"sync/atomic"

	"github.com/flashbake/pebble/internal/manifest"
	"github.com/flashbake/pebble/internal/memtable"
	"github.com/flashbake/pebble/vfs"
)

// DB is the coarse-grained coordinator a flush job runs under: it owns the
// single mutex protecting the version state and the immutable memtable
// list (spec.md §5 "The database mutex"), and exposes Flush as the
// caller-facing entry point that wires pick/run/cancel together for one
// column family.
//
// Everything else a real database needs — the write path, read path,
// compaction scheduling, recovery — is out of scope per spec.md §1; DB
// here only carries what the flush engine itself touches.
type DB struct {
	mu sync.Mutex

	opts *Options
	vs   *versionSet
	list *immutableMemtableList
	dir  vfs.FSDirectory

	shuttingDown atomic.Bool
	cfDropped    atomic.Bool

	nextJobID atomic.Int32
}

// NewDB constructs a DB ready to accept sealed memtables (via AddMemtable)
// and flush them (via Flush). dir may be nil if output-directory fsyncing
// is not needed.
func NewDB(opts *Options, dir vfs.FSDirectory) *DB {
	return &DB{
		opts: opts,
		vs:   newVersionSet(),
		list: newImmutableMemtableList(),
		dir:  dir,
	}
}

// AddMemtable seals a memtable into the immutable list, standing in for
// the write path's rotation of a full mutable memtable (spec.md §1 "does
// not choose which memtables exist" — that's the caller's job; this is
// just the handoff point).
func (d *DB) AddMemtable(m *memtable.MemTable) {
	d.list.Add(m)
}

// Flush runs one flush attempt to completion: pick, run, and (on any
// terminal outcome) return. It is the single caller-facing entry point
// spec.md §6 describes as the composition of new/pick/run/cancel.
func (d *DB) Flush() (*manifest.FileMetaData, error) {
	d.mu.Lock()
	jobID := int(d.nextJobID.Add(1))
	job := NewFlushJob(d.opts, jobID, &d.mu, d.vs, d.list, d.dir, &d.shuttingDown, &d.cfDropped)

	if err := job.Pick(); err != nil {
		d.mu.Unlock()
		return nil, err
	}

	meta, err := job.Run()
	d.mu.Unlock()
	return meta, err
}

// Close marks the database as shutting down; an in-flight flush observes
// this after its I/O phase and rolls back rather than installing (spec.md
// §5 "the shutting-down flag (checked after I/O)").
func (d *DB) Close() {
	d.shuttingDown.Store(true)
}

// DropColumnFamily marks the column family as dropped; an in-flight flush
// observes this the same way it observes shutdown (spec.md §5).
func (d *DB) DropColumnFamily() {
	d.cfDropped.Store(true)
}
