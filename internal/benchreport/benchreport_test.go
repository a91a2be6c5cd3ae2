package benchreport

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

const sampleOutput = `goos: linux
goarch: amd64
pkg: github.com/flashbake/pebble
BenchmarkFlushJob/small-8    	    2000	    612345 ns/op	   163.84 MB/s
BenchmarkFlushJob/large-8    	     500	   2048000 ns/op	   512.00 MB/s
PASS
`

func TestParseThroughputs(t *testing.T) {
	got, err := ParseThroughputs(strings.NewReader(sampleOutput))
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.InDelta(t, 163.84, got["BenchmarkFlushJob/small-8"].MBps, 0.01)
	require.InDelta(t, 512.00, got["BenchmarkFlushJob/large-8"].MBps, 0.01)
}

func TestCompareFlagsRegression(t *testing.T) {
	baseline := map[string]Throughput{
		"BenchmarkFlushJob/small": {Name: "BenchmarkFlushJob/small", MBps: 100},
	}
	candidate := map[string]Throughput{
		"BenchmarkFlushJob/small": {Name: "BenchmarkFlushJob/small", MBps: 80},
	}

	regressions := Compare(baseline, candidate, 10)
	require.Len(t, regressions, 1)
	require.Equal(t, "BenchmarkFlushJob/small", regressions[0].Name)
	require.InDelta(t, 20, regressions[0].PercentSlower, 0.01)
}

func TestCompareIgnoresWithinThreshold(t *testing.T) {
	baseline := map[string]Throughput{"x": {Name: "x", MBps: 100}}
	candidate := map[string]Throughput{"x": {Name: "x", MBps: 95}}

	require.Empty(t, Compare(baseline, candidate, 10))
}
