package manifest

// VersionEdit is the journal record a flush installs (spec.md §3
// "VersionEdit"). Its on-disk encoding is the version-set's concern and out
// of scope per spec.md §1; only the fields the flush engine populates are
// modeled.
type VersionEdit struct {
	ColumnFamilyID uint32

	NewFiles  []FileMetaData
	BlobFiles []BlobFileMetaData

	PrevLogNumber uint64 // always 0, per spec.md §3
	NextLogNumber uint64 // mₖ₋₁.next_log_number
}

// AddFile appends a flushed file to the edit, skipping zero-size files per
// spec.md §4.C.
func (e *VersionEdit) AddFile(m FileMetaData) {
	if m.FileSize == 0 {
		return
	}
	e.NewFiles = append(e.NewFiles, m)
}

// AddBlobFile appends a blob-file reference collected during table
// building.
func (e *VersionEdit) AddBlobFile(b BlobFileMetaData) {
	e.BlobFiles = append(e.BlobFiles, b)
}

// Empty reports whether the edit carries no new files and no blob files —
// the all-tombstoned-away case from spec.md §8 ("All inputs fully deleted
// by a range tombstone") still produces a non-empty edit if the range
// tombstone itself was written to a non-zero-size file; Empty is true only
// when nothing at all survived.
func (e *VersionEdit) Empty() bool {
	return len(e.NewFiles) == 0 && len(e.BlobFiles) == 0
}
