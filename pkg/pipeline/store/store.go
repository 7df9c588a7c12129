package store

import (
	"encoding/json"
	"errors"
	"sort"
	"sync"
	"time"

	"mercator-hq/ganymede/pkg/config"
	"mercator-hq/ganymede/pkg/pipeline"
	"mercator-hq/ganymede/pkg/telemetry/logging"
	"mercator-hq/ganymede/pkg/telemetry/metrics"
)

// warmLoadDays is how many days of journal partitions are replayed into
// the cache on startup.
const warmLoadDays = 7

// Store is the record store: a bounded in-memory cache of recent units
// and drift reports backed by a date-partitioned JSONL journal. Ingestion
// never blocks on the disk; a failed append degrades durability, not
// availability. All reads copy records out.
type Store struct {
	config    config.StorageConfig
	cache     *unitCache
	history   *reportHistory
	journal   *journal
	logger    *logging.Logger
	collector *metrics.Collector

	feedMu      sync.RWMutex
	subscribers map[int]chan pipeline.Event
	nextSubID   int
	closed      bool
}

// NewStore creates a store rooted at cfg.DataDir and warms the cache
// from the most recent journal partitions. The collector may be nil.
func NewStore(cfg config.StorageConfig, collector *metrics.Collector, logger *logging.Logger) (*Store, error) {
	if logger == nil {
		logger = logging.Nop()
	}
	logger = logger.Component("store")

	if cfg.DataDir == "" {
		cfg.DataDir = "data/telemetry"
	}
	if cfg.FeedBuffer <= 0 {
		cfg.FeedBuffer = 256
	}

	journal, err := newJournal(cfg.DataDir, collector, logger)
	if err != nil {
		return nil, err
	}

	s := &Store{
		config:      cfg,
		cache:       newUnitCache(cfg.CacheSize),
		history:     newReportHistory(cfg.ReportHistory),
		journal:     journal,
		logger:      logger,
		collector:   collector,
		subscribers: make(map[int]chan pipeline.Event),
	}
	s.warmLoad()

	return s, nil
}

// warmLoad replays the last warmLoadDays of journal partitions into the
// in-memory caches, oldest day first so trimming keeps the newest
// records. Unreadable partitions are skipped; startup never fails on
// journal damage.
func (s *Store) warmLoad() {
	var units, reports, skipped int

	for daysAgo := warmLoadDays - 1; daysAgo >= 0; daysAgo-- {
		day := time.Now().UTC().AddDate(0, 0, -daysAgo)
		envelopes, err := s.journal.readPartition(partitionName(day))
		if err != nil {
			s.logger.Warn("could not warm-load journal partition",
				"partition", partitionName(day),
				"error", err)
			continue
		}

		for _, env := range envelopes {
			switch env.Type {
			case string(pipeline.EventUnitRecorded):
				var unit pipeline.UnitRecord
				if err := json.Unmarshal(env.Data, &unit); err != nil {
					skipped++
					continue
				}
				s.cache.Add(&unit)
				units++
			case string(pipeline.EventReportRecorded):
				var report pipeline.DriftReport
				if err := json.Unmarshal(env.Data, &report); err != nil {
					skipped++
					continue
				}
				s.history.Add(&report)
				reports++
			}
		}
	}

	if units > 0 || reports > 0 || skipped > 0 {
		s.logger.Info("warm-loaded journal history",
			"units", units,
			"reports", reports,
			"skipped", skipped,
			"cached_units", s.cache.Size(),
			"cached_reports", s.history.Size())
	}
	if s.collector != nil {
		s.collector.UpdateCacheSize(s.cache.Size())
	}
}

// Record stores a finalized unit: it enters the cache, is appended to
// today's journal partition and is published to the feed. Only a nil,
// unfinalized or invalid unit is rejected; journal failures degrade to
// cache-only durability and surface through Flush.
func (s *Store) Record(unit *pipeline.UnitRecord) error {
	if unit == nil {
		return pipeline.NewValidationError("unit", "unit is required")
	}
	if !unit.Finalized() {
		return pipeline.NewValidationError("completed_at", "unit must be finalized before it is recorded")
	}
	if err := unit.Validate(); err != nil {
		return err
	}
	if s.isClosed() {
		return pipeline.NewStorageError("append", s.config.DataDir, errors.New("store is closed"))
	}

	clone := unit.Clone()

	evicted := s.cache.Add(clone)
	if s.collector != nil {
		for i := 0; i < evicted; i++ {
			s.collector.RecordCacheEviction()
		}
		s.collector.UpdateCacheSize(s.cache.Size())
	}

	if err := s.journal.appendEnvelope(string(pipeline.EventUnitRecorded), clone); err != nil {
		s.logger.Error("could not encode unit for the journal",
			"unit_id", clone.ID,
			"error", err)
	}

	s.publish(pipeline.Event{Kind: pipeline.EventUnitRecorded, Unit: clone})

	return nil
}

// RecordReport stores a drift report in the bounded history and the
// journal, and publishes it to the feed.
func (s *Store) RecordReport(report *pipeline.DriftReport) error {
	if report == nil {
		return pipeline.NewValidationError("report", "report is required")
	}
	if report.Timestamp.IsZero() {
		return pipeline.NewValidationError("timestamp", "report timestamp is required")
	}
	if s.isClosed() {
		return pipeline.NewStorageError("append", s.config.DataDir, errors.New("store is closed"))
	}

	clone := report.Clone()

	s.history.Add(clone)

	if err := s.journal.appendEnvelope(string(pipeline.EventReportRecorded), clone); err != nil {
		s.logger.Error("could not encode report for the journal",
			"error", err)
	}

	s.publish(pipeline.Event{Kind: pipeline.EventReportRecorded, Report: clone})

	return nil
}

// Recent returns up to limit of the most recently recorded units, newest
// first. It reads only the cache.
func (s *Store) Recent(limit int) []*pipeline.UnitRecord {
	return s.cache.Recent(limit)
}

// Unit returns the unit with the given ID, or nil when none matches. The
// cache is consulted first, then the journal partitions newest to
// oldest.
func (s *Store) Unit(id string) (*pipeline.UnitRecord, error) {
	if unit, ok := s.cache.ByID(id); ok {
		return unit, nil
	}

	infos, err := s.journal.partitions()
	if err != nil {
		return nil, err
	}

	for i := len(infos) - 1; i >= 0; i-- {
		envelopes, err := s.journal.readPartition(infos[i].name)
		if err != nil {
			return nil, err
		}
		// Scan the newest lines first so a re-recorded ID resolves to
		// its latest state.
		for k := len(envelopes) - 1; k >= 0; k-- {
			if envelopes[k].Type != string(pipeline.EventUnitRecorded) {
				continue
			}
			var unit pipeline.UnitRecord
			if err := json.Unmarshal(envelopes[k].Data, &unit); err != nil {
				continue
			}
			if unit.ID == id {
				return &unit, nil
			}
		}
	}

	return nil, nil
}

// WindowSince returns the units whose terminal timestamp falls in
// [start, end), ascending. It reads the covering journal partitions and
// merges the cache so records parked by a degraded journal still appear.
// A partition read failure is returned alongside whatever was assembled.
func (s *Store) WindowSince(start, end time.Time) ([]*pipeline.UnitRecord, error) {
	if !start.Before(end) {
		return nil, nil
	}

	byID := make(map[string]*pipeline.UnitRecord)
	var readErr error

	startDay := start.UTC().Truncate(24 * time.Hour)
	endDay := end.UTC().Truncate(24 * time.Hour)
	for day := startDay; !day.After(endDay); day = day.AddDate(0, 0, 1) {
		envelopes, err := s.journal.readPartition(partitionName(day))
		if err != nil {
			if readErr == nil {
				readErr = err
			}
			continue
		}
		for _, env := range envelopes {
			if env.Type != string(pipeline.EventUnitRecorded) {
				continue
			}
			var unit pipeline.UnitRecord
			if err := json.Unmarshal(env.Data, &unit); err != nil {
				continue
			}
			if unit.CompletedAt.Before(start) || !unit.CompletedAt.Before(end) {
				continue
			}
			byID[unit.ID] = &unit
		}
	}

	// The cache is authoritative for anything it still holds.
	for _, unit := range s.cache.Window(start, end) {
		byID[unit.ID] = unit
	}

	units := make([]*pipeline.UnitRecord, 0, len(byID))
	for _, unit := range byID {
		units = append(units, unit)
	}
	sort.Slice(units, func(a, b int) bool {
		return units[a].CompletedAt.Before(units[b].CompletedAt)
	})

	return units, readErr
}

// ReportHistory returns up to limit drift reports, newest first.
func (s *Store) ReportHistory(limit int) []*pipeline.DriftReport {
	return s.history.Recent(limit)
}

// Reports returns every held drift report in append order.
func (s *Store) Reports() []*pipeline.DriftReport {
	return s.history.All()
}

// Size returns the number of units currently cached.
func (s *Store) Size() int {
	return s.cache.Size()
}

// Pending returns the number of journal lines parked for retry.
func (s *Store) Pending() int {
	return s.journal.pendingCount()
}

// Flush replays parked journal lines and reports whether everything
// recorded so far is durable.
func (s *Store) Flush() error {
	return s.journal.flush()
}

// Subscribe registers a feed subscriber and returns its id and channel.
// Events for a subscriber whose buffer is full are dropped, never
// queued; buffer <= 0 uses the configured default.
func (s *Store) Subscribe(buffer int) (int, <-chan pipeline.Event) {
	if buffer <= 0 {
		buffer = s.config.FeedBuffer
	}

	s.feedMu.Lock()
	defer s.feedMu.Unlock()

	id := s.nextSubID
	s.nextSubID++
	ch := make(chan pipeline.Event, buffer)
	s.subscribers[id] = ch

	s.logger.Debug("feed subscriber added", "subscriber_id", id, "buffer", buffer)
	return id, ch
}

// Unsubscribe removes a feed subscriber and closes its channel.
func (s *Store) Unsubscribe(id int) {
	s.feedMu.Lock()
	defer s.feedMu.Unlock()

	ch, ok := s.subscribers[id]
	if !ok {
		return
	}
	delete(s.subscribers, id)
	close(ch)

	s.logger.Debug("feed subscriber removed", "subscriber_id", id)
}

// publish fans an event out to the subscribers. Each subscriber gets its
// own clone; a full subscriber drops the event rather than blocking the
// producer.
func (s *Store) publish(event pipeline.Event) {
	s.feedMu.RLock()
	defer s.feedMu.RUnlock()

	if len(s.subscribers) == 0 {
		return
	}
	if s.collector != nil {
		s.collector.RecordFeedEvent(string(event.Kind))
	}

	for id, ch := range s.subscribers {
		out := event
		if event.Unit != nil {
			out.Unit = event.Unit.Clone()
		}
		if event.Report != nil {
			out.Report = event.Report.Clone()
		}

		select {
		case ch <- out:
		default:
			if s.collector != nil {
				s.collector.RecordFeedDrop(string(event.Kind))
			}
			s.logger.Debug("feed subscriber lagging, event dropped",
				"subscriber_id", id,
				"kind", event.Kind)
		}
	}
}

// Close flushes the journal and closes every feed subscriber. The store
// rejects records afterwards; reads keep working.
func (s *Store) Close() error {
	s.feedMu.Lock()
	if s.closed {
		s.feedMu.Unlock()
		return nil
	}
	s.closed = true
	for id, ch := range s.subscribers {
		close(ch)
		delete(s.subscribers, id)
	}
	s.feedMu.Unlock()

	err := s.Flush()
	s.logger.Info("store closed",
		"cached_units", s.cache.Size(),
		"pending_lines", s.journal.pendingCount())
	return err
}

func (s *Store) isClosed() bool {
	s.feedMu.RLock()
	defer s.feedMu.RUnlock()

	return s.closed
}
