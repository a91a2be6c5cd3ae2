// Copyright 2018 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package pebble

import (
	"math"

	"github.com/cockroachdb/errors"

	"github.com/flashbake/pebble/internal/base"
	"github.com/flashbake/pebble/internal/rangedel"
)

// compactionIter is the snapshot-aware compaction iterator from spec.md
// §4.B. It wraps the merging cursor (component A) and collapses entries
// that are shadowed by a newer entry for the same user key *within the
// same snapshot stripe*: every live snapshot sequence number defines a
// stripe boundary, and entries are collapsed within stripes but never
// across them, so that a reader pinned at an older snapshot still observes
// the version of a key that existed at that point in time. Consider:
//
//	a.PUT.9
//	a.DEL.8
//	a.PUT.7
//	a.DEL.6
//	a.PUT.5
//
// With no live snapshots these collapse to a.PUT.9. With a snapshot at
// sequence 6, the entries split into two stripes and collapse within each:
//
//	a.PUT.9        a.PUT.9
//	a.DEL.8  --->
//	a.PUT.7
//	--             --
//	a.DEL.6  --->  a.DEL.6
//	a.PUT.5
//
// Unlike a compaction iterator feeding a non-base level, a flush never
// knows whether a lower level holds an older version of a deleted key, so
// it never elides a Delete/SingleDelete tombstone outright — eliding
// tombstones is a base-level compaction concern, out of scope here per
// spec.md §1.
type compactionIter struct {
	cmp            base.Compare
	merge          base.Merge
	filter         CompactionFilter
	snapshots      base.SnapshotList
	earliestWCSnap uint64
	rangeDel       *rangedel.Aggregator

	iter base.InternalIterator

	// posKey/posVal track the merging cursor's current, not-yet-consumed
	// position; they are separate from key/value, which hold the entry
	// most recently returned to the caller.
	posKey *base.InternalKey
	posVal []byte

	err      error
	key      base.InternalKey
	keyBuf   []byte
	value    []byte
	valueBuf []byte
	valid    bool
	skip     bool

	// curBoundary is the snapshot-stripe upper bound (exclusive) of the
	// entry currently held in key/value; further entries for the same user
	// key within the same stripe are collapsed away.
	curBoundary uint64
}

// newCompactionIter constructs the compaction iterator. filter may be nil.
// Returns ErrNotSupported if filter declares it cannot ignore snapshots
// (spec.md §4.B).
func newCompactionIter(
	cmp base.Compare,
	merge base.Merge,
	filter CompactionFilter,
	snapshots base.SnapshotList,
	earliestWCSnap uint64,
	rangeDel *rangedel.Aggregator,
	iter base.InternalIterator,
) (*compactionIter, error) {
	if filter != nil && !filter.IgnoresSnapshots() {
		return nil, errors.Mark(ErrNotSupported, ErrNotSupported)
	}
	return &compactionIter{
		cmp: cmp, merge: merge, filter: filter,
		snapshots: snapshots, earliestWCSnap: earliestWCSnap,
		rangeDel: rangeDel, iter: iter,
	}, nil
}

func (i *compactionIter) stripeBoundary(seq uint64) uint64 {
	if boundary, ok := i.snapshots.VisibleAt(seq); ok {
		return boundary
	}
	return math.MaxUint64
}

// First positions the iterator at the first emittable entry.
func (i *compactionIter) First() (*base.InternalKey, []byte) {
	if i.err != nil {
		return nil, nil
	}
	i.posKey, i.posVal = i.iter.First()
	return i.Next()
}

// Next returns the next emittable internal key, collapsing shadowed
// entries per spec.md §4.B.
func (i *compactionIter) Next() (*base.InternalKey, []byte) {
	if i.err != nil {
		return nil, nil
	}

	if i.skip {
		i.skip = false
		i.skipWithinStripe()
	}

	i.valid = false
	for i.posKey != nil {
		key := *i.posKey
		if !key.Valid() {
			i.err = errors.Mark(base.CheckValid(key), base.ErrCorruptInternalKey)
			return nil, nil
		}

		boundary := i.stripeBoundary(key.SeqNum())

		// Range-deletion entries are preserved via the aggregator, not the
		// point stream (spec.md §4.B); the aggregator already consumed
		// them from each memtable's dedicated range-tombstone iterator, so
		// here we only need to make sure we don't also emit them as point
		// records.
		if key.Kind() == base.InternalKeyKindRangeDelete {
			i.advance()
			continue
		}

		// A point key shadowed by a visible range tombstone is dropped
		// entirely; the tombstone itself carries the deletion forward.
		if i.rangeDel != nil && i.rangeDel.Covers(key.UserKey, key.SeqNum()) {
			i.advance()
			continue
		}

		if i.filter != nil {
			drop, newValue := i.filter.Filter(key.UserKey, i.posVal)
			if drop {
				i.advance()
				continue
			}
			i.posVal = newValue
		}

		switch key.Kind() {
		case base.InternalKeyKindDelete, base.InternalKeyKindSingleDelete:
			i.key, i.value = key, i.posVal
			i.valid = true
			i.skip = true
			i.curBoundary = boundary
			i.advance()
			return &i.key, i.value

		case base.InternalKeyKindSet:
			i.key, i.value = key, i.posVal
			i.valid = true
			i.skip = true
			i.curBoundary = boundary
			i.advance()
			return &i.key, i.value

		case base.InternalKeyKindMerge:
			i.curBoundary = boundary
			return i.mergeNext(key, boundary)

		default:
			i.err = errors.Wrapf(base.ErrCorruptInternalKey, "unexpected kind=%d user_key=%q", key.Kind(), key.UserKey)
			return nil, nil
		}
	}
	return nil, nil
}

// mergeNext folds a run of Merge records for the same user key within the
// same snapshot stripe into a single resolved value, stopping at a Set,
// Delete, a different user key, or a stripe-boundary crossing (spec.md
// §4.B "applies the merge operator ... whenever safe given the visible
// snapshot stripes").
func (i *compactionIter) mergeNext(first base.InternalKey, boundary uint64) (*base.InternalKey, []byte) {
	i.keyBuf = append(i.keyBuf[:0], first.UserKey...)
	i.valueBuf = append(i.valueBuf[:0], i.posVal...)
	i.key = base.MakeInternalKey(i.keyBuf, first.SeqNum(), base.InternalKeyKindMerge)
	i.value = i.valueBuf
	i.valid = true
	i.skip = true

	i.advance()
	for i.posKey != nil {
		key := *i.posKey
		if i.cmp(key.UserKey, i.key.UserKey) != 0 {
			i.skip = false
			return &i.key, i.value
		}
		if i.stripeBoundary(key.SeqNum()) != boundary {
			// A different stripe's version of this key exists; stop
			// merging here so that stripe gets its own independent
			// resolution on a later Next() call.
			i.skip = false
			return &i.key, i.value
		}
		switch key.Kind() {
		case base.InternalKeyKindDelete, base.InternalKeyKindSingleDelete:
			i.advance()
			return &i.key, i.value
		case base.InternalKeyKindSet:
			i.value = i.merge(i.key.UserKey, i.value, i.posVal, nil)
			i.key.SetKind(base.InternalKeyKindSet)
			i.advance()
			return &i.key, i.value
		case base.InternalKeyKindMerge:
			i.value = i.merge(i.key.UserKey, i.value, i.posVal, nil)
			i.advance()
		default:
			i.err = errors.Mark(base.CheckValid(key), base.ErrCorruptInternalKey)
			return nil, nil
		}
	}
	i.skip = false
	return &i.key, i.value
}

// skipWithinStripe silently drops further entries for the user key/stripe
// just emitted, stopping as soon as either changes. earliest_write_conflict
// _snapshot keeps a record visible for write-conflict detection rather than
// letting it be silently skipped (spec.md §4.B).
func (i *compactionIter) skipWithinStripe() {
	for i.posKey != nil {
		key := *i.posKey
		if i.cmp(key.UserKey, i.key.UserKey) != 0 {
			return
		}
		if i.stripeBoundary(key.SeqNum()) != i.curBoundary {
			return
		}
		if key.SeqNum() < i.earliestWCSnap {
			return
		}
		i.advance()
	}
}

func (i *compactionIter) advance() { i.posKey, i.posVal = i.iter.Next() }

func (i *compactionIter) Key() base.InternalKey { return i.key }
func (i *compactionIter) Value() []byte         { return i.value }
func (i *compactionIter) Valid() bool           { return i.valid }
func (i *compactionIter) Error() error          { return i.err }
func (i *compactionIter) Close() error          { return i.err }
