package observer

import (
	"context"
	"fmt"
	"sync"

	"mercator-hq/ganymede/pkg/config"
	"mercator-hq/ganymede/pkg/pipeline/baseline"
	"mercator-hq/ganymede/pkg/pipeline/drift"
	"mercator-hq/ganymede/pkg/pipeline/recorder"
	"mercator-hq/ganymede/pkg/pipeline/store"
	"mercator-hq/ganymede/pkg/pipeline/summary"
	"mercator-hq/ganymede/pkg/processing/costs"
	"mercator-hq/ganymede/pkg/processing/tokens"
	"mercator-hq/ganymede/pkg/telemetry/logging"
	"mercator-hq/ganymede/pkg/telemetry/metrics"
)

// Observer is the embeddable entry point. It wires the record store,
// ingestion recorder, baseline manager, drift detector and summary
// aggregator from one configuration and exposes the ingestion and query
// boundaries on a single value.
//
// All methods are safe for concurrent use. Start is optional: ingestion
// and queries work without it, it only runs the background schedulers
// and the threshold watcher.
type Observer struct {
	config     *config.Config
	configPath string

	base       *logging.Logger
	logger     *logging.Logger
	collector  *metrics.Collector
	store      *store.Store
	recorder   *recorder.Recorder
	baselines  *baseline.Manager
	detector   *drift.Detector
	aggregator *summary.Aggregator

	// Built fresh on every Start so a stopped observer can be restarted
	cleanupSched  *store.CleanupScheduler
	analysisSched *drift.AnalysisScheduler

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	watcher *drift.ThresholdWatcher
	watchWG sync.WaitGroup

	closeOnce sync.Once
	closeErr  error
}

// New creates an Observer from an in-memory configuration. A nil cfg
// uses the defaults; a partial cfg is completed with them. A nil logger
// builds one from the configuration's telemetry section; embedding
// applications that handle their own logging pass logging.Nop().
func New(cfg *config.Config, logger *logging.Logger) (*Observer, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	} else {
		// Copy so defaults never mutate the caller's struct
		c := *cfg
		cfg = &c
		config.ApplyDefaults(cfg)
	}
	if err := config.Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	if logger == nil {
		var err error
		logger, err = logging.NewFromConfig(cfg.Telemetry.Logging)
		if err != nil {
			return nil, fmt.Errorf("failed to create logger: %w", err)
		}
	}

	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, nil)

	st, err := store.NewStore(cfg.Storage, collector, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}

	var estimator *tokens.Estimator
	if cfg.Recorder.EstimateTokens {
		estimator = tokens.NewEstimator(&cfg.Processing.Tokens)
	}
	var calculator *costs.Calculator
	if cfg.Recorder.EstimateCosts {
		calculator = costs.NewCalculator(&cfg.Processing.Costs)
	}
	rec := recorder.NewRecorder(st, cfg.Recorder, estimator, calculator, collector, logger)

	baselines, err := baseline.NewManager(cfg.Baseline, st, collector, logger)
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("failed to open baseline manager: %w", err)
	}

	detector := drift.NewDetector(cfg.Drift, st, baselines, collector, logger)

	return &Observer{
		config:     cfg,
		base:       logger,
		logger:     logger.Component("observer"),
		collector:  collector,
		store:      st,
		recorder:   rec,
		baselines:  baselines,
		detector:   detector,
		aggregator: summary.NewAggregator(st, logger),
	}, nil
}

// NewFromFile creates an Observer from a YAML configuration file with
// environment overrides applied. The file path is remembered so that
// threshold hot-reload can re-read it when watching is enabled.
func NewFromFile(path string) (*Observer, error) {
	cfg, err := config.LoadConfigWithEnvOverrides(path)
	if err != nil {
		return nil, err
	}

	o, err := New(cfg, nil)
	if err != nil {
		return nil, err
	}
	o.configPath = path
	return o, nil
}

// Start runs the background work: the retention cleanup schedule, the
// periodic analysis schedule, and the configuration watcher for
// threshold hot-reload. Schedules left empty in the configuration stay
// disabled. Start does not block; the background work stops when ctx is
// cancelled or Stop is called.
func (o *Observer) Start(ctx context.Context) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.running {
		return fmt.Errorf("observer is already running")
	}

	runCtx, cancel := context.WithCancel(ctx)

	o.cleanupSched = store.NewCleanupScheduler(o.store, o.config.Storage.CleanupSchedule, o.config.Storage.RetentionDays, o.base)
	o.analysisSched = drift.NewAnalysisScheduler(o.detector, o.config.Drift.Schedule, o.base)

	if err := o.cleanupSched.Start(runCtx); err != nil {
		cancel()
		return fmt.Errorf("failed to start cleanup scheduler: %w", err)
	}
	if err := o.analysisSched.Start(runCtx); err != nil {
		o.cleanupSched.Stop()
		cancel()
		return fmt.Errorf("failed to start analysis scheduler: %w", err)
	}

	if o.config.Drift.Watch {
		if o.configPath == "" {
			o.logger.Warn("threshold watching enabled without a configuration file, skipping")
		} else {
			watcher, err := drift.NewThresholdWatcher(o.configPath, 0, o.base)
			if err != nil {
				o.analysisSched.Stop()
				o.cleanupSched.Stop()
				cancel()
				return fmt.Errorf("failed to create threshold watcher: %w", err)
			}
			o.watcher = watcher
			o.watchWG.Add(1)
			go func() {
				defer o.watchWG.Done()
				if err := watcher.Watch(runCtx, o.reloadThresholds); err != nil {
					o.logger.Error("threshold watcher stopped", "error", err)
				}
			}()
		}
	}

	o.cancel = cancel
	o.running = true

	o.logger.Info("observer started",
		"cleanup_scheduled", o.cleanupSched.IsRunning(),
		"analysis_scheduled", o.analysisSched.IsRunning(),
		"watching", o.watcher != nil)
	return nil
}

// reloadThresholds re-reads the configuration file and applies the
// drift thresholds section to the detector.
func (o *Observer) reloadThresholds() error {
	cfg, err := config.LoadConfigWithEnvOverrides(o.configPath)
	if err != nil {
		return fmt.Errorf("failed to reload configuration: %w", err)
	}
	o.detector.SetThresholds(cfg.Drift.Thresholds)
	return nil
}

// Stop halts the background work started by Start. Ingestion and
// queries keep working; Stop does not release storage.
func (o *Observer) Stop() {
	o.mu.Lock()
	defer o.mu.Unlock()

	if !o.running {
		return
	}

	if o.watcher != nil {
		if err := o.watcher.Stop(); err != nil {
			o.logger.Warn("failed to stop threshold watcher", "error", err)
		}
		o.watcher = nil
	}
	o.watchWG.Wait()

	o.analysisSched.Stop()
	o.cleanupSched.Stop()

	o.cancel()
	o.cancel = nil
	o.running = false

	o.logger.Info("observer stopped")
}

// IsRunning reports whether the background work is running.
func (o *Observer) IsRunning() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.running
}

// Close stops the background work and releases the store and the
// baseline database. The Observer must not be used afterwards. Close is
// idempotent.
func (o *Observer) Close() error {
	o.closeOnce.Do(func() {
		o.Stop()

		if err := o.baselines.Close(); err != nil {
			o.logger.Warn("failed to close baseline manager", "error", err)
			o.closeErr = err
		}
		if err := o.store.Close(); err != nil {
			o.logger.Warn("failed to close store", "error", err)
			if o.closeErr == nil {
				o.closeErr = err
			}
		}
	})
	return o.closeErr
}
