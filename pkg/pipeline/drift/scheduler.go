package drift

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"mercator-hq/ganymede/pkg/pipeline"
	"mercator-hq/ganymede/pkg/telemetry/logging"
)

// AnalysisScheduler runs drift analysis on a cron schedule. It is the
// scheduled face of Detector.Analyze; on-demand analysis stays available
// regardless.
type AnalysisScheduler struct {
	detector *Detector
	schedule string
	cron     *cron.Cron
	mu       sync.Mutex
	logger   *logging.Logger
	running  bool
}

// NewAnalysisScheduler creates a scheduler for the detector. The
// schedule is a standard five-field cron expression; empty disables
// scheduling.
func NewAnalysisScheduler(detector *Detector, schedule string, logger *logging.Logger) *AnalysisScheduler {
	if logger == nil {
		logger = logging.Nop()
	}
	return &AnalysisScheduler{
		detector: detector,
		schedule: schedule,
		cron:     cron.New(),
		logger:   logger.Component("drift.scheduler"),
	}
}

// Start begins scheduled analysis. With an empty schedule it logs and
// does nothing. The scheduler stops itself when the context is
// cancelled.
func (s *AnalysisScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.schedule == "" {
		s.logger.Info("drift analysis not scheduled")
		return nil
	}

	if _, err := cron.ParseStandard(s.schedule); err != nil {
		return fmt.Errorf("invalid analysis schedule %q: %w", s.schedule, err)
	}

	if _, err := s.cron.AddFunc(s.schedule, func() {
		s.runAnalysis()
	}); err != nil {
		return fmt.Errorf("failed to schedule analysis: %w", err)
	}

	s.cron.Start()
	s.running = true

	s.logger.Info("drift analysis scheduled", "schedule", s.schedule)

	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	return nil
}

// runAnalysis executes one analysis cycle.
func (s *AnalysisScheduler) runAnalysis() {
	report := s.detector.Analyze()
	if report.Severity.AtLeast(pipeline.SeverityMedium) {
		s.logger.Warn("scheduled analysis detected drift",
			"severity", report.Severity,
			"indicators", len(report.Indicators))
		return
	}
	s.logger.Debug("scheduled analysis completed", "severity", report.Severity)
}

// Stop stops the scheduler and waits for a running analysis to finish.
func (s *AnalysisScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cron != nil && s.running {
		ctx := s.cron.Stop()
		<-ctx.Done()
		s.running = false
		s.logger.Info("analysis scheduler stopped")
	}
}

// IsRunning reports whether the scheduler is active.
func (s *AnalysisScheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.running
}

// NextRun returns the next scheduled analysis time, if any.
func (s *AnalysisScheduler) NextRun() *time.Time {
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
