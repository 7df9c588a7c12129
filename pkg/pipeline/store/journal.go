package store

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"mercator-hq/ganymede/pkg/pipeline"
	"mercator-hq/ganymede/pkg/telemetry/logging"
	"mercator-hq/ganymede/pkg/telemetry/metrics"
)

const (
	partitionPrefix = "metrics_"
	partitionSuffix = ".jsonl"
	partitionLayout = "20060102"

	// maxPendingLines bounds the park-and-retry buffer during a disk
	// outage. Beyond it the oldest parked lines are dropped; the cache
	// still holds the records.
	maxPendingLines = 1000
)

// envelope is the journal line format. Every line is independently
// parseable: a type discriminator, the append timestamp and the payload.
type envelope struct {
	Type      string          `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
}

// pendingLine is a journal line whose append failed, parked for retry on
// the next write. The partition is remembered so a retried line still
// lands in the day it belongs to.
type pendingLine struct {
	partition string
	line      []byte
}

// journal is the append-only durable layer: one JSONL file per UTC
// calendar day. Appends never fail the caller; a failed write parks the
// line and surfaces through flush.
type journal struct {
	dir       string
	logger    *logging.Logger
	collector *metrics.Collector

	mu      sync.Mutex
	pending []pendingLine
	lastErr error
}

func newJournal(dir string, collector *metrics.Collector, logger *logging.Logger) (*journal, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, pipeline.NewStorageError("mkdir", dir, err)
	}
	return &journal{
		dir:       dir,
		logger:    logger,
		collector: collector,
	}, nil
}

// partitionName returns the journal filename for the UTC day of t.
func partitionName(t time.Time) string {
	return partitionPrefix + t.UTC().Format(partitionLayout) + partitionSuffix
}

// parsePartitionDate extracts the UTC day from a journal filename.
func parsePartitionDate(name string) (time.Time, bool) {
	if !strings.HasPrefix(name, partitionPrefix) || !strings.HasSuffix(name, partitionSuffix) {
		return time.Time{}, false
	}
	stamp := strings.TrimSuffix(strings.TrimPrefix(name, partitionPrefix), partitionSuffix)
	date, err := time.ParseInLocation(partitionLayout, stamp, time.UTC)
	if err != nil {
		return time.Time{}, false
	}
	return date, true
}

// appendEnvelope marshals the payload into an envelope line and appends
// it to today's partition. Disk failures park the line for retry and are
// not returned; only a marshal failure is.
func (j *journal) appendEnvelope(kind string, data interface{}) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", kind, err)
	}
	line, err := json.Marshal(envelope{
		Type:      kind,
		Timestamp: time.Now().UTC(),
		Data:      raw,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal envelope: %w", err)
	}

	partition := partitionName(time.Now())

	j.mu.Lock()
	defer j.mu.Unlock()

	j.retryPendingLocked()

	if len(j.pending) > 0 {
		// Earlier lines are still parked; queue behind them to keep
		// the journal in append order.
		j.parkLocked(partition, line)
		return nil
	}

	if err := j.writeLine(partition, line); err != nil {
		j.lastErr = err
		j.parkLocked(partition, line)
		j.logger.Warn("journal append failed, line parked for retry",
			"partition", partition,
			"pending", len(j.pending),
			"error", err)
		if j.collector != nil {
			j.collector.RecordJournalAppend("error")
			j.collector.UpdateJournalPending(len(j.pending))
		}
		return nil
	}

	if j.collector != nil {
		j.collector.RecordJournalAppend("success")
	}
	return nil
}

// retryPendingLocked replays parked lines in order, stopping at the
// first failure.
func (j *journal) retryPendingLocked() {
	if len(j.pending) == 0 {
		return
	}

	flushed := 0
	for _, p := range j.pending {
		if err := j.writeLine(p.partition, p.line); err != nil {
			j.lastErr = err
			break
		}
		flushed++
	}

	if flushed > 0 {
		j.pending = append([]pendingLine(nil), j.pending[flushed:]...)
		j.logger.Info("replayed parked journal lines",
			"replayed", flushed,
			"pending", len(j.pending))
	}
	if len(j.pending) == 0 {
		j.lastErr = nil
	}
	if j.collector != nil {
		j.collector.UpdateJournalPending(len(j.pending))
	}
}

// parkLocked queues a line for retry, dropping the oldest past the cap.
func (j *journal) parkLocked(partition string, line []byte) {
	j.pending = append(j.pending, pendingLine{partition: partition, line: line})
	if len(j.pending) > maxPendingLines {
		dropped := len(j.pending) - maxPendingLines
		j.pending = append([]pendingLine(nil), j.pending[dropped:]...)
		j.logger.Warn("pending journal buffer full, dropped oldest lines",
			"dropped", dropped)
	}
	if j.collector != nil {
		j.collector.UpdateJournalPending(len(j.pending))
	}
}

// writeLine appends one line to a partition file.
func (j *journal) writeLine(partition string, line []byte) error {
	path := filepath.Join(j.dir, partition)

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return pipeline.NewStorageError("append", path, err)
	}
	defer f.Close()

	buf := make([]byte, 0, len(line)+1)
	buf = append(buf, line...)
	buf = append(buf, '\n')
	if _, err := f.Write(buf); err != nil {
		return pipeline.NewStorageError("append", path, err)
	}
	return nil
}

// flush replays any parked lines and reports whether the journal is
// fully durable. With parked lines remaining it returns the underlying
// append failure as a StorageError.
func (j *journal) flush() error {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.retryPendingLocked()
	if len(j.pending) == 0 {
		return nil
	}

	cause := j.lastErr
	if cause == nil {
		cause = fmt.Errorf("%d journal lines still pending", len(j.pending))
	}
	return pipeline.NewStorageError("flush", j.dir, cause)
}

// pendingCount returns the number of parked lines.
func (j *journal) pendingCount() int {
	j.mu.Lock()
	defer j.mu.Unlock()

	return len(j.pending)
}

// readPartition parses one partition file into envelopes. A missing
// partition is not an error. Corrupt lines are skipped with a warning so
// one bad write never hides a day of records.
func (j *journal) readPartition(name string) ([]envelope, error) {
	path := filepath.Join(j.dir, name)

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, pipeline.NewStorageError("read", path, err)
	}
	defer f.Close()

	var (
		envelopes []envelope
		skipped   int
	)
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var env envelope
		if err := json.Unmarshal([]byte(line), &env); err != nil {
			skipped++
			continue
		}
		envelopes = append(envelopes, env)
	}
	if err := scanner.Err(); err != nil {
		return envelopes, pipeline.NewStorageError("read", path, err)
	}

	if skipped > 0 {
		j.logger.Warn("skipped corrupt journal lines",
			"partition", name,
			"skipped", skipped)
	}
	return envelopes, nil
}

// partitionInfo pairs a journal filename with its UTC day.
type partitionInfo struct {
	name string
	date time.Time
}

// partitions lists the journal files in the data directory, oldest
// first. Files that do not match the naming scheme are ignored.
func (j *journal) partitions() ([]partitionInfo, error) {
	entries, err := os.ReadDir(j.dir)
	if err != nil {
		return nil, pipeline.NewStorageError("read", j.dir, err)
	}

	var infos []partitionInfo
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		date, ok := parsePartitionDate(entry.Name())
		if !ok {
			continue
		}
		infos = append(infos, partitionInfo{name: entry.Name(), date: date})
	}

	sort.Slice(infos, func(a, b int) bool {
		return infos[a].date.Before(infos[b].date)
	})
	return infos, nil
}

// removePartition deletes one partition file.
func (j *journal) removePartition(name string) error {
	path := filepath.Join(j.dir, name)
	if err := os.Remove(path); err != nil {
		return pipeline.NewStorageError("cleanup", path, err)
	}
	return nil
}
