package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"mercator-hq/ganymede/pkg/telemetry/logging"
)

// CleanupScheduler runs retention cleanup on a cron schedule, e.g. daily
// at 3 AM. It is the scheduled face of Store.Cleanup; manual cleanup
// stays available regardless.
type CleanupScheduler struct {
	store         *Store
	schedule      string
	retentionDays int
	cron          *cron.Cron
	mu            sync.Mutex
	logger        *logging.Logger
	running       bool
}

// NewCleanupScheduler creates a scheduler for the store. The schedule is
// a standard five-field cron expression; empty disables scheduling.
func NewCleanupScheduler(store *Store, schedule string, retentionDays int, logger *logging.Logger) *CleanupScheduler {
	if logger == nil {
		logger = logging.Nop()
	}
	return &CleanupScheduler{
		store:         store,
		schedule:      schedule,
		retentionDays: retentionDays,
		cron:          cron.New(),
		logger:        logger.Component("store.scheduler"),
	}
}

// Start begins scheduled cleanup. With an empty schedule or disabled
// retention it logs and does nothing. The scheduler stops itself when
// the context is cancelled.
func (s *CleanupScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.schedule == "" || s.retentionDays <= 0 {
		s.logger.Info("retention cleanup not scheduled",
			"schedule", s.schedule,
			"retention_days", s.retentionDays)
		return nil
	}

	if _, err := cron.ParseStandard(s.schedule); err != nil {
		return fmt.Errorf("invalid cleanup schedule %q: %w", s.schedule, err)
	}

	if _, err := s.cron.AddFunc(s.schedule, func() {
		s.runCleanup()
	}); err != nil {
		return fmt.Errorf("failed to schedule cleanup: %w", err)
	}

	s.cron.Start()
	s.running = true

	s.logger.Info("retention cleanup scheduled",
		"schedule", s.schedule,
		"retention_days", s.retentionDays)

	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	return nil
}

// runCleanup executes one cleanup cycle.
func (s *CleanupScheduler) runCleanup() {
	removed, err := s.store.Cleanup(s.retentionDays)
	if err != nil {
		s.logger.Error("scheduled cleanup failed", "error", err)
		return
	}
	if removed > 0 {
		s.logger.Info("scheduled cleanup completed", "removed", removed)
	} else {
		s.logger.Debug("scheduled cleanup completed, nothing to remove")
	}
}

// Stop stops the scheduler and waits for a running cleanup to finish.
func (s *CleanupScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cron != nil && s.running {
		ctx := s.cron.Stop()
		<-ctx.Done()
		s.running = false
		s.logger.Info("retention scheduler stopped")
	}
}

// IsRunning reports whether the scheduler is active.
func (s *CleanupScheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.running
}

// NextRun returns the next scheduled cleanup time, if any.
func (s *CleanupScheduler) NextRun() *time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cron == nil {
		return nil
	}
	entries := s.cron.Entries()
	if len(entries) == 0 {
		return nil
	}
	next := entries[0].Next
	return &next
}
