// Copyright 2019 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package pebble

import (
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
	"github.com/cockroachdb/redact"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/flashbake/pebble/internal/cache"
	"github.com/flashbake/pebble/internal/humanize"
	"github.com/flashbake/pebble/record"
	"github.com/flashbake/pebble/sstable"
)

// CacheMetrics holds metrics for the block and table cache. The cache itself
// is an external collaborator (spec.md §1); this engine only ever reports
// whatever numbers it's handed.
type CacheMetrics = cache.Metrics

// FilterMetrics holds metrics for the filter policy, another external
// collaborator.
type FilterMetrics = sstable.FilterMetrics

// FsyncLatencyBuckets are prometheus histogram buckets suitable for
// recording directory/manifest fsync latencies (spec.md §6 "SyncOutputDir").
var FsyncLatencyBuckets = append(
	prometheus.LinearBuckets(0.0, float64(time.Microsecond*100), 50),
	prometheus.ExponentialBucketsRange(float64(time.Millisecond*5), float64(10*time.Second), 50)...,
)

// Metrics holds the flush engine's observable counters, trimmed down from
// pebble's full-database Metrics to just the subsystems a flush job itself
// touches: the output table, the memtables it retires, open snapshots and
// the (optional) block/table caches it reports through. Compaction,
// ingestion and per-level metrics belong to the compaction picker, which is
// out of scope per spec.md §1.
type Metrics struct {
	BlockCache CacheMetrics
	TableCache CacheMetrics
	Filter     FilterMetrics

	Flush struct {
		// Count is the total number of completed flushes.
		Count int64
		// NumInProgress is 0 or 1 in the current single-flush-at-a-time
		// implementation.
		NumInProgress int64
		// MempurgeCount counts flushes that took the mempurge path (spec.md
		// §4.D) instead of writing a table.
		MempurgeCount int64
		// WriteThroughput holds cumulative bytes written and wall-clock
		// duration for flushes; no flush path in this package updates it.
		WriteThroughput ThroughputMetric
		// TableBuildLatency is an HDR histogram for build_table's
		// wall-clock duration, so p50/p99/max are cheap to recompute
		// without re-scanning raw samples. newMetrics allocates it; no
		// flush path in this package records into it.
		TableBuildLatency *hdrhistogram.Histogram
	}

	MemTable struct {
		// Size is the approximate bytes allocated by the memtables this
		// engine currently holds a reference to (inputs awaiting flush plus
		// any live mempurge output).
		Size uint64
		// Count is the number of memtables referenced.
		Count int64
		// ZombieSize/ZombieCount report memtables retired by a flush but
		// still pinned by an outstanding iterator.
		ZombieSize  uint64
		ZombieCount int64
	}

	Snapshots struct {
		// Count is the number of currently open snapshots.
		Count int
		// EarliestSeqNum is the sequence number of the oldest open
		// snapshot; it bounds how aggressively flush can collapse entries
		// (spec.md §4.B).
		EarliestSeqNum uint64
		// PinnedKeys/PinnedSize tally keys and bytes the flush wrote out
		// only because an open snapshot still needed to see them.
		PinnedKeys uint64
		PinnedSize uint64
	}

	LogWriter struct {
		FsyncLatency prometheus.Histogram
		record.LogWriterMetrics
	}
}

// ThroughputMetric is a cumulative throughput metric: bytes moved over a
// cumulative duration, from which an average rate can be derived.
type ThroughputMetric struct {
	Bytes        int64
	WorkDuration time.Duration
	IdleDuration time.Duration
}

// Rate returns bytes per second of work, 0 if no work has been recorded.
func (t ThroughputMetric) Rate() float64 {
	if t.WorkDuration == 0 {
		return 0
	}
	return float64(t.Bytes) / t.WorkDuration.Seconds()
}

func formatCacheMetrics(w redact.SafePrinter, m *CacheMetrics, name redact.SafeString) {
	w.Printf("%7s %9s %7s %6.1f%%  (score == hit-rate)\n",
		name,
		humanize.SI.Int64(m.Count),
		humanize.IEC.Int64(m.Size),
		redact.Safe(hitRate(m.Hits, m.Misses)))
}

const notApplicable = redact.SafeString("-")

// newMetrics constructs a Metrics with its histogram initialized; the zero
// value of Metrics is not usable on its own because *hdrhistogram.Histogram
// must be constructed with bounds.
func newMetrics() *Metrics {
	m := &Metrics{}
	m.Flush.TableBuildLatency = hdrhistogram.New(1, int64(10*time.Minute/time.Microsecond), 3)
	return m
}

// registerPrometheus registers the counters a flush job updates on reg, so a
// caller's existing Prometheus registry picks them up. reg may be nil, in
// which case metrics are only available via Metrics itself.
func (m *Metrics) registerPrometheus(reg prometheus.Registerer, cfName string) {
	if reg == nil {
		return
	}
	labels := prometheus.Labels{"cf": cfName}
	flushCount := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace:   "pebble",
		Subsystem:   "flush",
		Name:        "count",
		Help:        "Total number of completed flushes.",
		ConstLabels: labels,
	}, func() float64 { return float64(m.Flush.Count) })
	mempurgeCount := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace:   "pebble",
		Subsystem:   "flush",
		Name:        "mempurge_count",
		Help:        "Total number of flushes resolved via mempurge instead of a table write.",
		ConstLabels: labels,
	}, func() float64 { return float64(m.Flush.MempurgeCount) })
	reg.MustRegister(flushCount, mempurgeCount)
}

// String pretty-prints the metrics relevant to a single flush engine
// instance.
func (m *Metrics) String() string {
	return redact.StringWithoutMarkers(m)
}

var _ redact.SafeFormatter = &Metrics{}

// SafeFormat implements redact.SafeFormatter.
func (m *Metrics) SafeFormat(w redact.SafePrinter, _ rune) {
	w.Printf("  flush %9d %7d %7d  (mempurge, in-progress)\n",
		redact.Safe(m.Flush.Count),
		redact.Safe(m.Flush.MempurgeCount),
		redact.Safe(m.Flush.NumInProgress))
	w.Printf(" memtbl %9d %7s\n",
		redact.Safe(m.MemTable.Count),
		humanize.IEC.Uint64(m.MemTable.Size))
	w.Printf("zmemtbl %9d %7s\n",
		redact.Safe(m.MemTable.ZombieCount),
		humanize.IEC.Uint64(m.MemTable.ZombieSize))
	formatCacheMetrics(w, &m.BlockCache, "bcache")
	formatCacheMetrics(w, &m.TableCache, "tcache")
	w.Printf("  snaps %9d %7s %7d  (score == earliest seq num)\n",
		redact.Safe(m.Snapshots.Count),
		notApplicable,
		redact.Safe(m.Snapshots.EarliestSeqNum))
	w.Printf(" filter %9s %7s %6.1f%%  (score == utility)\n",
		notApplicable,
		notApplicable,
		redact.Safe(hitRate(m.Filter.Hits, m.Filter.Misses)))
}

func hitRate(hits, misses int64) float64 {
	sum := hits + misses
	if sum == 0 {
		return 0
	}
	return 100 * float64(hits) / float64(sum)
}
