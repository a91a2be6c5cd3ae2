package pebble

import (
	"testing"

	"github.com/flashbake/pebble/internal/base"
	"github.com/flashbake/pebble/internal/memtable"
)

// BenchmarkFlushJob drives a single memtable through DB.Flush and reports
// write throughput in MB/s, the metric internal/benchreport compares across
// runs to catch regressions.
func BenchmarkFlushJob(b *testing.B) {
	const numEntries = 1000

	for i := 0; i < b.N; i++ {
		b.StopTimer()
		m := memtable.New(uint64(i+1), base.DefaultCompare)
		for k := 0; k < numEntries; k++ {
			key := base.MakeInternalKey([]byte{byte(k >> 8), byte(k)}, uint64(k+1), base.InternalKeyKindSet)
			m.Add(key, make([]byte, 64))
		}

		opts := &Options{
			ColumnFamilyName: "bench",
			MaxMemtableID:    1 << 62,
			FlushReason:      FlushReasonManualFlush,
		}
		db := NewDB(opts, nil)
		db.AddMemtable(m)
		b.StartTimer()

		meta, err := db.Flush()
		if err != nil {
			b.Fatal(err)
		}
		if meta != nil {
			b.SetBytes(int64(meta.FileSize))
		}
	}
}
