// Copyright 2011 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

// Package base defines the internal-key representation shared by every
// flush-engine component: the merging cursor, the compaction iterator, the
// table writer driver and the mempurge path all operate on base.InternalKey
// rather than on raw user keys.
package base

import (
	"bytes"
	"encoding/binary"

	"github.com/cockroachdb/errors"
)

// InternalKeyKind enumerates the kinds of entries that can appear in an
// internal key. The numeric values are part of the on-disk/on-wire format
// and must not be renumbered.
type InternalKeyKind uint8

// Kinds understood by the flush engine (spec.md §3: "kind ∈ {Put, Delete,
// SingleDelete, Merge, RangeDeletion, ...}").
const (
	InternalKeyKindDelete       InternalKeyKind = 0
	InternalKeyKindSet          InternalKeyKind = 1
	InternalKeyKindMerge        InternalKeyKind = 2
	InternalKeyKindLogData      InternalKeyKind = 3
	InternalKeyKindSingleDelete InternalKeyKind = 7
	InternalKeyKindRangeDelete  InternalKeyKind = 15

	// InternalKeyKindMax is the upper bound of the kind space; no kind above
	// InternalKeyKindRangeDelete is assigned a name here. Internal keys are
	// ordered by kind descending within a (user key, sequence) group, and
	// seek keys use this as a "match anything at this sequence" sentinel.
	InternalKeyKindMax InternalKeyKind = 17

	// InternalKeyKindInvalid marks a corrupt or zero-value key.
	InternalKeyKindInvalid InternalKeyKind = 255

	// SeqNumMax is the largest valid sequence number: trailers reserve the
	// low byte for the kind, leaving 56 bits for the sequence.
	SeqNumMax = uint64(1<<56 - 1)
)

// String implements fmt.Stringer, used only in diagnostics/logging.
func (k InternalKeyKind) String() string {
	switch k {
	case InternalKeyKindDelete:
		return "DEL"
	case InternalKeyKindSet:
		return "SET"
	case InternalKeyKindMerge:
		return "MERGE"
	case InternalKeyKindLogData:
		return "LOGDATA"
	case InternalKeyKindSingleDelete:
		return "SINGLEDEL"
	case InternalKeyKindRangeDelete:
		return "RANGEDEL"
	default:
		return "INVALID"
	}
}

// InternalKey is the tuple (user_key, sequence, kind) from spec.md §3. It is
// the sort key used internally by the merging cursor, the compaction
// iterator and the sstable writer.
//
// Encoding: user key bytes followed by an 8-byte little-endian trailer,
// trailer = (sequence << 8) | kind.
type InternalKey struct {
	UserKey []byte
	trailer uint64
}

// MakeInternalKey builds an InternalKey from its components.
func MakeInternalKey(userKey []byte, seqNum uint64, kind InternalKeyKind) InternalKey {
	return InternalKey{UserKey: userKey, trailer: (seqNum << 8) | uint64(kind)}
}

// DecodeInternalKey decodes an encoded internal key. A too-short input
// decodes to an invalid key rather than panicking; corruption is the
// flush engine's problem to report, not this package's to hide.
func DecodeInternalKey(encoded []byte) InternalKey {
	n := len(encoded) - 8
	if n < 0 {
		return InternalKey{UserKey: encoded, trailer: uint64(InternalKeyKindInvalid)}
	}
	return InternalKey{
		UserKey: encoded[:n:n],
		trailer: binary.LittleEndian.Uint64(encoded[n:]),
	}
}

// Encode writes the encoded form of k into buf, which must be at least
// k.Size() bytes long.
func (k InternalKey) Encode(buf []byte) {
	n := copy(buf, k.UserKey)
	binary.LittleEndian.PutUint64(buf[n:], k.trailer)
}

// Size returns the encoded length of k.
func (k InternalKey) Size() int { return len(k.UserKey) + 8 }

// SeqNum returns the sequence number component.
func (k InternalKey) SeqNum() uint64 { return k.trailer >> 8 }

// Kind returns the kind component.
func (k InternalKey) Kind() InternalKeyKind { return InternalKeyKind(k.trailer & 0xff) }

// SetKind rewrites the kind component in place, keeping the sequence
// number unchanged. Used when a run of Merge records collapses into a Set
// (spec.md §4.B: "MERGE+MERGE+SET -> SET").
func (k *InternalKey) SetKind(kind InternalKeyKind) {
	k.trailer = (k.trailer &^ 0xff) | uint64(kind)
}

// Trailer returns the raw (sequence, kind) trailer.
func (k InternalKey) Trailer() uint64 { return k.trailer }

// Valid reports whether k's kind is at most InternalKeyKindMax. Unnamed
// kinds within that bound (4-6, 8-14, 16, 17) also count as valid.
func (k InternalKey) Valid() bool { return k.Kind() <= InternalKeyKindMax }

// Clone returns a deep copy of k, safe to retain past the lifetime of the
// buffer UserKey currently points into.
func (k InternalKey) Clone() InternalKey {
	return InternalKey{UserKey: append([]byte(nil), k.UserKey...), trailer: k.trailer}
}

// Compare is a user-key comparator: negative if a < b, zero if equal,
// positive if a > b.
type Compare func(a, b []byte) int

// DefaultCompare orders user keys lexicographically.
func DefaultCompare(a, b []byte) int { return bytes.Compare(a, b) }

// InternalCompare orders internal keys per spec.md §3: ascending by user
// key, then descending by sequence, then descending by kind — so that the
// most recent version of a key sorts first within a user-key group.
func InternalCompare(userCmp Compare, a, b InternalKey) int {
	if x := userCmp(a.UserKey, b.UserKey); x != 0 {
		return x
	}
	switch {
	case a.trailer > b.trailer:
		return -1
	case a.trailer < b.trailer:
		return 1
	default:
		return 0
	}
}

// Comparer bundles the user-key comparator with the name the table writer
// records into the output file's metadata, mirroring how the rest of the
// pack's comparator types are threaded through (rockyardkv's
// Comparator/BytewiseComparator).
type Comparer struct {
	Compare Compare
	Name    string
}

// DefaultComparer is byte-wise ordering, pebble's (and RocksDB's) default.
var DefaultComparer = &Comparer{Compare: DefaultCompare, Name: "leveldb.BytewiseComparator"}

// Merge folds the values of two records for the same user key during
// Merge-operator resolution (component B). mergedOperand may be nil for the
// initial call.
type Merge func(key, existingValue, value []byte, mergedOperand []byte) []byte

// ErrCorruptInternalKey is returned when an iterator observes a key with an
// invalid kind; spec.md §4.B requires flush to treat this as a hard error
// rather than silently dropping the record.
var ErrCorruptInternalKey = errors.New("base: corrupt internal key")

// CheckValid returns ErrCorruptInternalKey (wrapped with the offending key)
// if k is not a recognized internal key.
func CheckValid(k InternalKey) error {
	if !k.Valid() {
		return errors.Wrapf(ErrCorruptInternalKey, "kind=%d user_key=%q", k.Kind(), k.UserKey)
	}
	return nil
}
