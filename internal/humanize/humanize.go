// Package humanize formats byte counts for human-readable metrics output,
// matching pebble's own internal/humanize package that metrics.go imports.
package humanize

import "fmt"

// Bytes selects the unit base a formatted value uses.
type Bytes struct {
	base     float64
	suffixes []string
}

// SI formats using base-1000 suffixes (B, kB, MB, ...).
var SI = Bytes{base: 1000, suffixes: []string{"B", "kB", "MB", "GB", "TB", "PB", "EB"}}

// IEC formats using base-1024 suffixes (B, KiB, MiB, ...).
var IEC = Bytes{base: 1024, suffixes: []string{"B", "KiB", "MiB", "GiB", "TiB", "PiB", "EiB"}}

// Uint64 formats n using b's unit base.
func (b Bytes) Uint64(n uint64) string { return b.format(float64(n)) }

// Int64 formats n using b's unit base.
func (b Bytes) Int64(n int64) string {
	if n < 0 {
		return "-" + b.format(-float64(n))
	}
	return b.format(float64(n))
}

func (b Bytes) format(v float64) string {
	i := 0
	for v >= b.base && i < len(b.suffixes)-1 {
		v /= b.base
		i++
	}
	if i == 0 {
		return fmt.Sprintf("%d %s", int64(v), b.suffixes[i])
	}
	return fmt.Sprintf("%.1f %s", v, b.suffixes[i])
}
