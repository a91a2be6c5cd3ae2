package pebble

import (
	"sync"
	"sync/atomic"

	"github.com/cockroachdb/errors"

	"github.com/flashbake/pebble/internal/base"
	"github.com/flashbake/pebble/internal/manifest"
	"github.com/flashbake/pebble/internal/memtable"
	"github.com/flashbake/pebble/internal/rangedel"
	"github.com/flashbake/pebble/vfs"
)

// jobState is the state machine from spec.md §4.E: Created -> Picked ->
// Running -> {Installed | RolledBack}.
type jobState int

const (
	jobCreated jobState = iota
	jobPicked
	jobRunning
	jobInstalled
	jobRolledBack
	jobCanceled
)

// FlushJob is the orchestrating type tying components A-E together: one
// instance per flush attempt, constructed once, pick()'d once, run() or
// cancel()'d once (spec.md §3 "Lifecycle of a job").
type FlushJob struct {
	opts *Options
	jobID int

	mu   *sync.Mutex
	vs   *versionSet
	list *immutableMemtableList
	dir  vfs.FSDirectory

	shuttingDown *atomic.Bool
	cfDropped    *atomic.Bool

	state   jobState
	inputs  []*memtable.MemTable
	verRef  *version
	fileNum uint64

	info FlushJobInfo
}

// NewFlushJob constructs a flush job. mu is the database's coarse mutex,
// assumed held by the caller across Pick/Cancel and the bookkeeping phase
// of Run (spec.md §5). shuttingDown/cfDropped are the two cooperative
// cancellation signals checked after I/O (spec.md §5).
func NewFlushJob(
	opts *Options,
	jobID int,
	mu *sync.Mutex,
	vs *versionSet,
	list *immutableMemtableList,
	dir vfs.FSDirectory,
	shuttingDown *atomic.Bool,
	cfDropped *atomic.Bool,
) *FlushJob {
	return &FlushJob{
		opts: opts, jobID: jobID, mu: mu, vs: vs, list: list, dir: dir,
		shuttingDown: shuttingDown, cfDropped: cfDropped,
	}
}

// Pick selects the input memtables under the mutex (spec.md §6 "pick()").
// A zero-memtable selection is a legal no-op (spec.md §3).
func (j *FlushJob) Pick() error {
	if j.state != jobCreated {
		return errors.Mark(errPickAlreadyCalled, errPickAlreadyCalled)
	}
	j.inputs = j.list.PickMemtablesToFlush(j.opts.MaxMemtableID)
	j.verRef = j.vs.Current()
	j.state = jobPicked
	return nil
}

// Cancel releases the version reference taken by Pick without running
// (spec.md §6 "cancel()"). Must be called under the mutex.
func (j *FlushJob) Cancel() {
	if j.verRef != nil {
		j.verRef.unref()
		j.verRef = nil
	}
	j.state = jobCanceled
}

// FlushJobInfo returns the post-flush event payload (spec.md §6
// "flush_job_info()"), valid after Run returns.
func (j *FlushJob) FlushJobInfo() *FlushJobInfo { return &j.info }

// Run performs the flush: it releases the caller-held mutex for the
// duration of I/O (and the mempurge body), then re-acquires it for
// installation or rollback, returning with the mutex held again (spec.md
// §5). Returns the overall status and, for a successful non-mempurge
// flush with a non-empty output, the resulting file metadata.
func (j *FlushJob) Run() (*manifest.FileMetaData, error) {
	if j.state != jobPicked {
		return nil, errors.Newf("pebble: flush job Run called from state %d, want Picked", j.state)
	}
	j.state = jobRunning
	j.info.JobID = j.jobID
	j.info.ColumnFamilyName = j.opts.ColumnFamilyName
	j.info.FlushReason = j.opts.FlushReason

	if len(j.inputs) == 0 {
		// A zero-memtable selection is a legal no-op (spec.md §3); nothing
		// to install, so there's no reason to release the mutex.
		j.finishInstalled(nil, nil, false, nil)
		return nil, nil
	}

	cmp := j.opts.comparer().Compare
	fileNum := j.vs.NewFileNumber()
	j.fileNum = fileNum

	j.mu.Unlock()
	meta, mempurged, mempurgeMem, runErr := j.runUnlocked(cmp)
	j.mu.Lock()

	if j.cfDropped != nil && j.cfDropped.Load() {
		j.finishRolledBack()
		return nil, errors.Mark(ErrColumnFamilyDropped, ErrColumnFamilyDropped)
	}
	if j.shuttingDown != nil && j.shuttingDown.Load() {
		j.finishRolledBack()
		return nil, errors.Mark(ErrShutdownInProgress, ErrShutdownInProgress)
	}
	if runErr != nil {
		j.finishRolledBack()
		return nil, runErr
	}

	if mempurged {
		installMempurgeOutput(j.inputs, mempurgeMem)
		j.info.Mempurge = true
		j.finishInstalled(nil, mempurgeMem, false, nil)
		j.opts.stats().Flush.MempurgeCount++
		return nil, nil
	}

	var ve *manifest.VersionEdit
	if meta != nil && !meta.Empty() {
		ve = &manifest.VersionEdit{NextLogNumber: j.inputs[len(j.inputs)-1].NextLogNumber()}
		ve.AddFile(*meta)
	}
	j.finishInstalled(ve, nil, j.opts.Flags.WriteManifest, meta)
	j.opts.stats().Flush.Count++
	return meta, nil
}

// runUnlocked performs the I/O-bound phase of Run with the mutex released:
// build the merging cursor (A), the compaction iterator (B), and either the
// mempurge path (D) or the table writer driver (C).
func (j *FlushJob) runUnlocked(
	cmp base.Compare,
) (meta *manifest.FileMetaData, mempurged bool, mempurgeMem *memtable.MemTable, err error) {
	if mempurgeEligible(j.opts.MempurgePolicy, j.opts.FlushReason, j.inputs) {
		res, merr := runMempurge(
			cmp, j.opts.Merge, j.opts.CompactionFilter, j.opts.Snapshots,
			j.opts.EarliestWriteConflictSnapshot, j.inputs, j.opts.WriteBufferSize,
		)
		switch {
		case merr != nil && errors.Is(merr, ErrMempurgeAborted):
			j.opts.logger().Infof("pebble: mempurge aborted, falling back to disk flush")
		case merr != nil:
			j.opts.logger().Errorf("pebble: mempurge failed: %v, falling back to disk flush", merr)
		case res.newMem != nil:
			return nil, true, res.newMem, nil
		}
	}

	iters := make([]base.InternalIterator, len(j.inputs))
	for i, m := range j.inputs {
		iters[i] = m.NewIterator()
	}
	agg := rangedel.NewAggregator(cmp, j.opts.Snapshots)
	for _, m := range j.inputs {
		if err := agg.AddTombstones(m.RangeTombstoneIterator()); err != nil {
			return nil, false, nil, err
		}
	}
	// Every input memtable's tombstones are known up front, unlike a
	// compaction feeding from a streaming lower level, so the aggregator
	// can fragment now; the compaction iterator's Covers queries below
	// need the finished fragment list to answer point-key coverage.
	agg.Finish()

	merged := newMergingIter(cmp, iters)
	citer, err := newCompactionIter(
		cmp, j.opts.Merge, j.opts.CompactionFilter, j.opts.Snapshots,
		j.opts.EarliestWriteConflictSnapshot, agg, merged,
	)
	if err != nil {
		return nil, false, nil, err
	}
	defer citer.Close()

	var oldestKeyTime uint64
	for _, m := range j.inputs {
		t := m.OldestKeyTime()
		if t != 0 && (oldestKeyTime == 0 || t < oldestKeyTime) {
			oldestKeyTime = t
		}
	}
	now := uint64(0)
	if j.opts.Clock != nil {
		now = j.opts.Clock.NowSeconds()
	}

	w := &vfsBuffer{}
	driver := &tableWriterDriver{opts: j.opts, w: w, fileNum: j.fileNum}
	result, err := driver.buildTable(citer, agg, oldestKeyTime, now)
	if err != nil {
		return nil, false, nil, err
	}
	if result.meta.FileSize == 0 {
		return nil, false, nil, nil
	}

	sumInputEntries := 0
	for _, m := range j.inputs {
		sumInputEntries += m.EntryCount()
	}
	if int(result.numInputEntries) > sumInputEntries {
		const msg = "pebble: flush output entry count exceeds sum of input entry counts"
		if j.opts.Flags.FlushVerifyMemtableCount {
			return nil, false, nil, errors.Mark(errors.New(msg), ErrCorruption)
		}
		j.opts.logger().Errorf(msg)
	}

	j.info.NumEntries = result.numInputEntries
	j.info.FileSize = result.meta.FileSize
	j.info.SmallestSeq = result.meta.SmallestSeqNum
	j.info.LargestSeq = result.meta.LargestSeqNum
	j.info.OutputFileNum = result.meta.FileNum

	if j.opts.Flags.SyncOutputDir && j.dir != nil {
		if err := j.dir.Sync(); err != nil {
			return nil, false, nil, errors.Wrap(err, "pebble: output directory fsync")
		}
	}

	m := result.meta
	return &m, false, nil, nil
}

func (j *FlushJob) finishInstalled(
	ve *manifest.VersionEdit, mempurgeMem *memtable.MemTable, writeEdit bool, meta *manifest.FileMetaData,
) {
	if ve == nil {
		ve = &manifest.VersionEdit{}
	}
	j.list.TryInstallResults(j.vs, j.inputs, ve, writeEdit, mempurgeMem)
	if j.verRef != nil {
		j.verRef.unref()
		j.verRef = nil
	}
	j.state = jobInstalled
}

func (j *FlushJob) finishRolledBack() {
	j.list.Rollback(j.inputs, j.fileNum)
	if j.verRef != nil {
		j.verRef.unref()
		j.verRef = nil
	}
	j.state = jobRolledBack
}

// vfsBuffer is a minimal in-memory io.Writer standing in for the real
// output file handle; file creation and naming are vfs/table-cache
// concerns out of scope per spec.md §1.
type vfsBuffer struct {
	buf []byte
}

func (b *vfsBuffer) Write(p []byte) (int, error) {
	b.buf = append(b.buf, p...)
	return len(p), nil
}
