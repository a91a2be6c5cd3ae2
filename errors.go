package pebble

import "github.com/cockroachdb/errors"

// Error kinds from spec.md §7. Each is a sentinel marked with
// errors.Mark so that a wrapped return value can still be recognized with
// errors.Is after table_writer.go or mempurge.go adds context.
var (
	// ErrNotSupported is returned when a flush-stage compaction filter
	// declares it cannot ignore snapshots (spec.md §4.B).
	ErrNotSupported = errors.New("pebble: compaction filter cannot ignore snapshots during flush")

	// ErrMempurgeAborted is returned when the mempurge path's output
	// memtable overflows the write-buffer size (spec.md §4.D).
	ErrMempurgeAborted = errors.New("pebble: mempurge filled more than one memtable")

	// ErrColumnFamilyDropped is returned when the column family was
	// dropped while a flush was in flight (spec.md §4.E).
	ErrColumnFamilyDropped = errors.New("pebble: column family dropped during flush")

	// ErrShutdownInProgress is returned when the database is shutting down
	// (spec.md §4.E).
	ErrShutdownInProgress = errors.New("pebble: database shutdown in progress")

	// ErrCorruption is returned when flush-time verification detects a
	// mismatch the caller has asked to treat as fatal (spec.md §4.C, §7).
	ErrCorruption = errors.New("pebble: corruption detected during flush")

	// errPickAlreadyCalled guards against the programmer error of calling
	// Pick twice on the same job (spec.md §3 "pick called exactly once").
	errPickAlreadyCalled = errors.New("pebble: flush job Pick called more than once")
)
