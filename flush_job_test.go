package pebble

import (
	"fmt"
	"strconv"
	"strings"
	"testing"

	"github.com/cockroachdb/datadriven"
	"github.com/stretchr/testify/require"

	"github.com/flashbake/pebble/internal/base"
	"github.com/flashbake/pebble/internal/memtable"
)

// failingDir is an vfs.FSDirectory whose Sync always fails, used to verify
// that a directory-fsync failure rolls back the flush instead of
// installing the table anyway (spec.md §7).
type failingDir struct{}

func (failingDir) Sync() error  { return fmt.Errorf("simulated fsync failure") }
func (failingDir) Close() error { return nil }

func TestFlushJobRollsBackOnDirectoryFsyncFailure(t *testing.T) {
	m := memtable.New(1, base.DefaultCompare)
	m.Add(base.MakeInternalKey([]byte("a"), 1, base.InternalKeyKindSet), []byte("v"))

	opts := &Options{
		ColumnFamilyName: "default",
		MaxMemtableID:    1 << 62,
		FlushReason:      FlushReasonManualFlush,
		Flags:            Flags{SyncOutputDir: true},
	}
	db := NewDB(opts, failingDir{})
	db.AddMemtable(m)

	meta, err := db.Flush()
	require.Error(t, err)
	require.Nil(t, meta)
	require.Equal(t, 1, db.list.Len())
}

// parseEntryLine parses one "define" line of the form
// "<userkey>.<KIND>.<seq>:<value>", e.g. "a.SET.3:foo" or "a.DEL.4:".
func parseEntryLine(line string) (key base.InternalKey, value string, err error) {
	dot1 := strings.IndexByte(line, '.')
	dot2 := strings.IndexByte(line[dot1+1:], '.')
	if dot1 < 0 || dot2 < 0 {
		return base.InternalKey{}, "", fmt.Errorf("malformed entry %q", line)
	}
	dot2 += dot1 + 1
	userKey := line[:dot1]
	kindStr := line[dot1+1 : dot2]
	rest := line[dot2+1:]
	colon := strings.IndexByte(rest, ':')
	if colon < 0 {
		return base.InternalKey{}, "", fmt.Errorf("malformed entry %q, missing ':'", line)
	}
	seq, err := strconv.ParseUint(rest[:colon], 10, 64)
	if err != nil {
		return base.InternalKey{}, "", err
	}
	value = rest[colon+1:]

	var kind base.InternalKeyKind
	switch kindStr {
	case "SET":
		kind = base.InternalKeyKindSet
	case "DEL":
		kind = base.InternalKeyKindDelete
	case "SINGLEDEL":
		kind = base.InternalKeyKindSingleDelete
	case "MERGE":
		kind = base.InternalKeyKindMerge
	default:
		return base.InternalKey{}, "", fmt.Errorf("unknown kind %q", kindStr)
	}
	return base.MakeInternalKey([]byte(userKey), seq, kind), value, nil
}

// parseRangeDelLine parses "<start>,<end>,<seq>", e.g. "a,zzz,7".
func parseRangeDelLine(line string) (start, end []byte, seq uint64, err error) {
	parts := strings.Split(line, ",")
	if len(parts) != 3 {
		return nil, nil, 0, fmt.Errorf("malformed rangedel %q", line)
	}
	seq, err = strconv.ParseUint(parts[2], 10, 64)
	if err != nil {
		return nil, nil, 0, err
	}
	return []byte(parts[0]), []byte(parts[1]), seq, nil
}

// buildMemtables parses a "define" block: each "mem <id>" line starts a new
// memtable, followed by entry lines until the next "mem" line.
func buildMemtables(t *testing.T, input string) []*memtable.MemTable {
	t.Helper()
	var mems []*memtable.MemTable
	var cur *memtable.MemTable
	for _, line := range strings.Split(input, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "mem ") {
			id, err := strconv.ParseUint(strings.TrimPrefix(line, "mem "), 10, 64)
			require.NoError(t, err)
			cur = memtable.New(id, base.DefaultCompare)
			mems = append(mems, cur)
			continue
		}
		require.NotNil(t, cur, "entry line before any \"mem <id>\" line: %q", line)
		if strings.HasPrefix(line, "rangedel ") {
			start, end, seq, err := parseRangeDelLine(strings.TrimPrefix(line, "rangedel "))
			require.NoError(t, err)
			cur.AddRangeTombstone(start, end, seq)
			continue
		}
		key, value, err := parseEntryLine(line)
		require.NoError(t, err)
		cur.Add(key, []byte(value))
	}
	return mems
}

// TestFlushJob drives FlushJob through eight golden cases: a single
// memtable of puts, the empty-input no-op, a Delete collapsing the older
// Sets of its key, a mempurge success, an overlapping key where the newer
// sequence wins, a range tombstone erasing the puts beneath it, a mempurge
// overflow that falls back to a disk flush, and a shutdown observed after
// the table build.
func TestFlushJob(t *testing.T) {
	var mems []*memtable.MemTable

	datadriven.RunTest(t, "testdata/flush/basic", func(t *testing.T, d *datadriven.TestData) string {
		switch d.Cmd {
		case "define":
			mems = buildMemtables(t, d.Input)
			return ""

		case "flush":
			opts := &Options{
				ColumnFamilyName: "default",
				MaxMemtableID:    1 << 62,
				FlushReason:      FlushReasonManualFlush,
				Flags:            Flags{FlushVerifyMemtableCount: true},
			}
			for _, arg := range d.CmdArgs {
				switch arg.Key {
				case "max-memtable-id":
					v, err := strconv.ParseUint(arg.Vals[0], 10, 64)
					require.NoError(t, err)
					opts.MaxMemtableID = v
				case "policy":
					switch arg.Vals[0] {
					case "always":
						opts.MempurgePolicy = MempurgeAlways
					case "alternate":
						opts.MempurgePolicy = MempurgeAlternate
					case "disabled":
						opts.MempurgePolicy = MempurgeDisabled
					}
				case "reason":
					if arg.Vals[0] == "write-buffer-full" {
						opts.FlushReason = FlushReasonWriteBufferFull
					}
				case "write-buffer-size":
					v, err := strconv.ParseInt(arg.Vals[0], 10, 64)
					require.NoError(t, err)
					opts.WriteBufferSize = v
				}
			}

			shutdown := false
			for _, arg := range d.CmdArgs {
				if arg.Key == "shutdown" && arg.Vals[0] == "true" {
					shutdown = true
				}
			}

			numInputs := len(mems)
			db := NewDB(opts, nil)
			for _, m := range mems {
				db.AddMemtable(m)
			}
			if shutdown {
				db.Close()
			}

			meta, err := db.Flush()
			var buf strings.Builder
			switch {
			case err != nil:
				fmt.Fprintf(&buf, "error: %v remaining=%d\n", err, db.list.Len())
			case meta != nil:
				fmt.Fprintf(&buf, "file=%d size=%d smallest=%s largest=%s remaining=%d\n",
					meta.FileNum, meta.FileSize, meta.Smallest.UserKey, meta.Largest.UserKey, db.list.Len())
			case numInputs == 0:
				fmt.Fprintf(&buf, "no-op remaining=%d\n", db.list.Len())
			default:
				fmt.Fprintf(&buf, "mempurge remaining=%d\n", db.list.Len())
			}
			return buf.String()

		default:
			t.Fatalf("unknown command %q", d.Cmd)
			return ""
		}
	})
}
