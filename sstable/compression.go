package sstable

import (
	"github.com/DataDog/zstd"
	"github.com/cockroachdb/errors"
	"github.com/golang/snappy"
)

// Compression selects the table writer driver's output codec (spec.md
// §4.C "output compression kind and options").
type Compression int

const (
	// CompressionNone disables compression.
	CompressionNone Compression = iota
	// CompressionSnappy uses golang/snappy.
	CompressionSnappy
	// CompressionZstd uses DataDog/zstd, matching the codec the teacher's
	// own table-builder stack links against.
	CompressionZstd
)

// String implements fmt.Stringer.
func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionSnappy:
		return "snappy"
	case CompressionZstd:
		return "zstd"
	default:
		return "unknown"
	}
}

// Encode compresses src with the given codec, returning a new buffer.
func Encode(c Compression, src []byte) ([]byte, error) {
	switch c {
	case CompressionNone:
		return src, nil
	case CompressionSnappy:
		return snappy.Encode(nil, src), nil
	case CompressionZstd:
		out, err := zstd.Compress(nil, src)
		if err != nil {
			return nil, errors.Wrap(err, "sstable: zstd compress")
		}
		return out, nil
	default:
		return nil, errors.Newf("sstable: unknown compression kind %d", c)
	}
}

// Decode decompresses src, which was produced with codec c.
func Decode(c Compression, src []byte) ([]byte, error) {
	switch c {
	case CompressionNone:
		return src, nil
	case CompressionSnappy:
		out, err := snappy.Decode(nil, src)
		if err != nil {
			return nil, errors.Wrap(err, "sstable: snappy decompress")
		}
		return out, nil
	case CompressionZstd:
		out, err := zstd.Decompress(nil, src)
		if err != nil {
			return nil, errors.Wrap(err, "sstable: zstd decompress")
		}
		return out, nil
	default:
		return nil, errors.Newf("sstable: unknown compression kind %d", c)
	}
}
