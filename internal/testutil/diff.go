package testutil

import (
	"fmt"

	"github.com/kr/pretty"
	"github.com/pmezard/go-difflib/difflib"
)

// Diff renders a unified diff between two golden-test strings, used when a
// datadriven test's actual output disagrees with the checked-in golden
// file so the failure prints an aligned diff instead of two opaque blobs.
func Diff(wantLabel, want, gotLabel, got string) string {
	d := difflib.UnifiedDiff{
		A:        difflib.SplitLines(want),
		B:        difflib.SplitLines(got),
		FromFile: wantLabel,
		ToFile:   gotLabel,
		Context:  3,
	}
	text, err := difflib.GetUnifiedDiffString(d)
	if err != nil {
		return fmt.Sprintf("<diff error: %v>", err)
	}
	return text
}

// DiffValues renders a structural diff of two arbitrary Go values, for
// assertions where the comparison isn't naturally line-oriented (e.g. two
// FlushJobInfo structs).
func DiffValues(want, got interface{}) string {
	return fmt.Sprint(pretty.Diff(want, got))
}
