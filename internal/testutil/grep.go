// Package testutil holds small test-only helpers shared across the flush
// engine's test files: a log-line grep filter and a golden-file diff
// printer, mirroring the shape of tooling the teacher's own test suite
// leans on.
package testutil

import (
	"strings"

	"github.com/ghemawat/stream"
)

// Grep filters multi-line text down to the lines matching pattern, in the
// same Unix-pipe style the teacher's metamorphic tests use ghemawat/stream
// for, e.g. to pull matching records out of a Logger's captured output
// without hand-rolling a line scanner. No test in this module calls it.
func Grep(text, pattern string) ([]string, error) {
	lines := strings.Split(strings.TrimRight(text, "\n"), "\n")
	var out []string
	err := stream.ForEach(
		stream.Sequence(
			stream.Items(lines...),
			stream.GrepLine(pattern),
		),
		func(line string) { out = append(out, line) },
	)
	if err != nil {
		return nil, err
	}
	return out, nil
}
