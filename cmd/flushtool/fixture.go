package main

import (
	"bufio"
	"os"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/flashbake/pebble/internal/base"
	"github.com/flashbake/pebble/internal/memtable"
)

// loadFixture reads one fixture file into a memtable. Each line is
// "key,seq,kind,value", kind one of SET, DEL, SINGLEDEL, MERGE. Blank
// lines and lines starting with '#' are ignored.
func loadFixture(id uint64, path string) (*memtable.MemTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "flushtool: open fixture %q", path)
	}
	defer f.Close()

	m := memtable.New(id, base.DefaultCompare)
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.SplitN(line, ",", 4)
		if len(parts) != 4 {
			return nil, errors.Newf("flushtool: malformed fixture line %q in %q", line, path)
		}
		seq, err := strconv.ParseUint(parts[1], 10, 64)
		if err != nil {
			return nil, errors.Wrapf(err, "flushtool: bad sequence in %q", line)
		}
		kind, err := parseKind(parts[2])
		if err != nil {
			return nil, err
		}
		key := base.MakeInternalKey([]byte(parts[0]), seq, kind)
		m.Add(key, []byte(parts[3]))
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrapf(err, "flushtool: read fixture %q", path)
	}
	return m, nil
}

func parseKind(s string) (base.InternalKeyKind, error) {
	switch strings.ToUpper(s) {
	case "SET":
		return base.InternalKeyKindSet, nil
	case "DEL":
		return base.InternalKeyKindDelete, nil
	case "SINGLEDEL":
		return base.InternalKeyKindSingleDelete, nil
	case "MERGE":
		return base.InternalKeyKindMerge, nil
	default:
		return 0, errors.Newf("flushtool: unknown entry kind %q", s)
	}
}
