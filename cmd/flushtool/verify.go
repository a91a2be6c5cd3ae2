package main

import (
	"bytes"

	kzstd "github.com/klauspost/compress/zstd"

	"github.com/cockroachdb/errors"

	"github.com/flashbake/pebble/sstable"
)

// verifyZstdRoundTrip re-decompresses a zstd-compressed payload with an
// independent decoder from the one the table writer used to produce it
// (sstable.Decode goes through DataDog/zstd; this goes through
// klauspost/compress/zstd), catching codec-specific decode bugs that a
// single-implementation round trip would miss.
func verifyZstdRoundTrip(payload []byte) error {
	compressed, err := sstable.Encode(sstable.CompressionZstd, payload)
	if err != nil {
		return errors.Wrap(err, "flushtool: compress verification payload")
	}

	dec, err := kzstd.NewReader(nil)
	if err != nil {
		return errors.Wrap(err, "flushtool: create klauspost zstd reader")
	}
	defer dec.Close()

	got, err := dec.DecodeAll(compressed, nil)
	if err != nil {
		return errors.Wrap(err, "flushtool: independent zstd decode")
	}
	if !bytes.Equal(got, payload) {
		return errors.New("flushtool: independent zstd decode mismatched original payload")
	}
	return nil
}
