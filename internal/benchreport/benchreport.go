// Package benchreport parses `go test -bench` output from the flush
// engine's micro-benchmarks and flags a regression when write throughput
// drops more than a threshold between two runs, the same continuous-
// benchmarking posture the teacher's own tooling takes with
// golang.org/x/perf/benchfmt.
package benchreport

import (
	"fmt"
	"io"

	"github.com/cockroachdb/errors"
	"golang.org/x/perf/benchfmt"
)

// Throughput holds one benchmark's reported write-throughput value (the
// flush micro-benchmarks report a custom "MB/s" unit alongside the
// standard ns/op).
type Throughput struct {
	Name string
	MBps float64
}

// ParseThroughputs reads benchfmt-formatted output and returns the MB/s
// value recorded for each benchmark name.
func ParseThroughputs(r io.Reader) (map[string]Throughput, error) {
	out := make(map[string]Throughput)
	reader := benchfmt.NewReader(r, "")
	for reader.Scan() {
		res := reader.Result()
		for _, v := range res.Values {
			if v.Unit != "MB/s" {
				continue
			}
			name := string(res.Name)
			out[name] = Throughput{Name: name, MBps: v.Value}
		}
	}
	if err := reader.Err(); err != nil {
		return nil, errors.Wrap(err, "benchreport: parse benchmark output")
	}
	return out, nil
}

// Regression describes a benchmark whose throughput dropped more than the
// configured threshold between a baseline and a candidate run.
type Regression struct {
	Name          string
	BaselineMBps  float64
	CandidateMBps float64
	PercentSlower float64
}

// Compare reports every benchmark present in both baseline and candidate
// whose throughput dropped by more than thresholdPercent.
func Compare(baseline, candidate map[string]Throughput, thresholdPercent float64) []Regression {
	var regressions []Regression
	for name, base := range baseline {
		cand, ok := candidate[name]
		if !ok || base.MBps == 0 {
			continue
		}
		pctSlower := (base.MBps - cand.MBps) / base.MBps * 100
		if pctSlower > thresholdPercent {
			regressions = append(regressions, Regression{
				Name: name, BaselineMBps: base.MBps, CandidateMBps: cand.MBps, PercentSlower: pctSlower,
			})
		}
	}
	return regressions
}

// String implements fmt.Stringer for a quick CLI summary line.
func (r Regression) String() string {
	return fmt.Sprintf("%s: %.1f MB/s -> %.1f MB/s (%.1f%% slower)", r.Name, r.BaselineMBps, r.CandidateMBps, r.PercentSlower)
}
