// Package manifest holds the on-disk-adjacent metadata types the flush
// engine produces and installs: FileMetaData and VersionEdit from spec.md
// §3. The manifest's actual encoding and the version-set's persistence
// format are out of scope per spec.md §1; this package only models the
// in-memory shape the flush engine constructs and the version set
// consumes.
package manifest

import "github.com/flashbake/pebble/internal/base"

// FileMetaData describes one on-disk sorted table produced by a flush
// (spec.md §3 "FileMetaData (output)").
type FileMetaData struct {
	FileNum  uint64
	PathID   int
	Level    int // always 0 for flush output
	Smallest base.InternalKey
	Largest  base.InternalKey

	SmallestSeqNum uint64
	LargestSeqNum  uint64
	FileSize       uint64

	OldestAncestorTime  uint64
	FileCreationTime    uint64
	MarkedForCompaction bool

	OldestBlobFileNum uint64 // 0 if none

	Checksum         uint64
	ChecksumFuncName string
}

// Empty reports whether the file has no size, which spec.md §4.C treats as
// a valid-but-unadded outcome ("Output size = 0 ... is valid; in that case
// the file is not added to the edit").
func (m *FileMetaData) Empty() bool { return m == nil || m.FileSize == 0 }

// BlobFileMetaData describes a blob file reference collected by the table
// writer driver (spec.md §4.C "collect output file metadata and blob
// additions"). Blob file layout itself is out of scope per spec.md §1; only
// the reference the version edit carries is modeled.
type BlobFileMetaData struct {
	BlobFileNum uint64
	TotalSize   uint64
}
