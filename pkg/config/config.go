package config

import "time"

// Config is the root configuration structure for the Ganymede telemetry
// engine. It contains all configuration sections for storage, baseline
// management, drift detection, ingestion, processing, and telemetry.
type Config struct {
	// Storage contains configuration for the record store: cache bounds,
	// journal location, retention, and the downstream feed.
	Storage StorageConfig `yaml:"storage"`

	// Baseline contains configuration for baseline establishment and
	// persistence.
	Baseline BaselineConfig `yaml:"baseline"`

	// Drift contains configuration for the drift detector including the
	// analysis window, severity thresholds, and scheduling.
	Drift DriftConfig `yaml:"drift"`

	// Recorder contains configuration for the ingestion recorder including
	// text sample truncation and metric backfill.
	Recorder RecorderConfig `yaml:"recorder"`

	// Processing contains configuration for token estimation and cost
	// calculation used to backfill incomplete stage outcomes.
	Processing ProcessingConfig `yaml:"processing"`

	// Telemetry contains configuration for the engine's own observability:
	// logging and Prometheus metrics.
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// StorageConfig contains configuration for the record store.
type StorageConfig struct {
	// DataDir is the directory holding the dated journal partitions
	// (metrics_YYYYMMDD.jsonl files).
	// Default: "data/telemetry"
	DataDir string `yaml:"data_dir"`

	// CacheSize is the maximum number of finalized units held in the
	// in-memory recent-history cache. Eviction is FIFO by finalize order.
	// Default: 100
	CacheSize int `yaml:"cache_size"`

	// ReportHistory is the maximum number of drift reports kept in memory.
	// Default: 50
	ReportHistory int `yaml:"report_history"`

	// RetentionDays is the age in days past which journal partitions are
	// deleted by cleanup. A negative value disables retention cleanup
	// entirely, including the schedule.
	// Default: 30
	RetentionDays int `yaml:"retention_days"`

	// CleanupSchedule is the cron expression for scheduled retention
	// cleanup. The schedule only runs while RetentionDays is positive;
	// Cleanup can always be invoked manually.
	// Default: "0 3 * * *" (daily at 3 AM)
	CleanupSchedule string `yaml:"cleanup_schedule"`

	// FeedBuffer is the per-subscriber channel capacity for the downstream
	// feed. When a subscriber falls this far behind, new events for it are
	// dropped and counted.
	// Default: 256
	FeedBuffer int `yaml:"feed_buffer"`
}

// BaselineConfig contains configuration for baseline management.
type BaselineConfig struct {
	// DBPath is the SQLite database file persisting versioned baselines.
	// Default: "data/telemetry/baselines.db"
	DBPath string `yaml:"db_path"`

	// MinSamples is the minimum number of units required to establish a
	// baseline. Establishment with fewer units fails with
	// InsufficientDataError.
	// Default: 10
	MinSamples int `yaml:"min_samples"`

	// DefaultSampleCount is the window size used when SetBaseline is
	// invoked without an explicit count.
	// Default: 100
	DefaultSampleCount int `yaml:"default_sample_count"`

	// BusyTimeout is the SQLite busy timeout.
	// Default: 5s
	BusyTimeout time.Duration `yaml:"busy_timeout"`
}

// DriftConfig contains configuration for the drift detector.
type DriftConfig struct {
	// WindowSize is the number of most recent units compared against the
	// baseline per analysis cycle.
	// Default: 50
	WindowSize int `yaml:"window_size"`

	// MinWindow is the minimum number of recent units required before an
	// analysis computes statistics; below it the cycle degrades to a
	// none-severity report.
	// Default: 10
	MinWindow int `yaml:"min_window"`

	// Schedule is the cron expression for periodic background analysis.
	// An empty string disables scheduling; Analyze can still be invoked
	// on demand.
	// Default: "" (disabled)
	Schedule string `yaml:"schedule"`

	// Watch enables hot-reloading of the thresholds section when the
	// configuration file changes on disk.
	// Default: false
	Watch bool `yaml:"watch"`

	// Thresholds contains the severity classification thresholds. These
	// are policy choices, not derived constants.
	Thresholds ThresholdsConfig `yaml:"thresholds"`
}

// ThresholdsConfig contains the severity classification thresholds used by
// the drift detector. Entropy thresholds are fractional changes relative
// to the baseline (0.25 = 25%).
type ThresholdsConfig struct {
	// EntropyLow is the entropy change above which severity is at least
	// medium.
	// Default: 0.10
	EntropyLow float64 `yaml:"entropy_low"`

	// EntropyMedium is the entropy change above which severity is at
	// least high.
	// Default: 0.25
	EntropyMedium float64 `yaml:"entropy_medium"`

	// EntropyHigh is the entropy change above which severity is critical.
	// Default: 0.40
	EntropyHigh float64 `yaml:"entropy_high"`

	// KSCritical is the KS statistic above which a drifting metric is
	// classified critical.
	// Default: 0.5
	KSCritical float64 `yaml:"ks_critical"`
}

// RecorderConfig contains configuration for the ingestion recorder.
type RecorderConfig struct {
	// MaxInputSample is the truncation cap, in characters, for stage
	// input text samples.
	// Default: 500
	MaxInputSample int `yaml:"max_input_sample"`

	// MaxOutputSample is the truncation cap, in characters, for stage
	// output text samples.
	// Default: 1000
	MaxOutputSample int `yaml:"max_output_sample"`

	// EstimateTokens backfills missing token counts from text samples
	// using the configured character ratio.
	// Default: true
	EstimateTokens bool `yaml:"estimate_tokens"`

	// EstimateCosts backfills missing costs from token counts using the
	// configured pricing table.
	// Default: true
	EstimateCosts bool `yaml:"estimate_costs"`
}

// ProcessingConfig contains configuration for stage outcome backfill.
type ProcessingConfig struct {
	// Tokens contains token estimation configuration.
	Tokens TokensConfig `yaml:"tokens"`

	// Costs contains cost calculation configuration.
	Costs CostsConfig `yaml:"costs"`
}

// TokensConfig contains token estimation configuration.
type TokensConfig struct {
	// CharsPerToken is the fallback characters-per-token ratio used when
	// no model-specific ratio matches.
	// Default: 4.0
	CharsPerToken float64 `yaml:"chars_per_token"`

	// Models maps model identifiers (exact or prefix) to model-specific
	// characters-per-token ratios.
	Models map[string]float64 `yaml:"models"`
}

// CostsConfig contains cost calculation configuration.
type CostsConfig struct {
	// Pricing maps model identifiers (exact or prefix) to per-1K-token
	// USD rates. The "default" entry is the fallback for unknown models.
	Pricing map[string]ModelPricing `yaml:"pricing"`
}

// ModelPricing contains the per-1K-token rates for one model.
type ModelPricing struct {
	// Prompt is the USD cost per 1000 input tokens.
	Prompt float64 `yaml:"prompt"`

	// Completion is the USD cost per 1000 output tokens.
	Completion float64 `yaml:"completion"`
}

// TelemetryConfig contains configuration for the engine's observability.
type TelemetryConfig struct {
	// Logging contains logging configuration.
	Logging LoggingConfig `yaml:"logging"`

	// Metrics contains Prometheus metrics configuration.
	Metrics MetricsConfig `yaml:"metrics"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	// Level is the minimum log level to emit.
	// Options: "debug", "info", "warn", "error"
	// Default: "info"
	Level string `yaml:"level"`

	// Format controls the log output format.
	// Options: "json", "text", "console"
	// Default: "json"
	Format string `yaml:"format"`

	// AddSource includes file and line number in log entries.
	// Default: false
	AddSource bool `yaml:"add_source"`
}

// MetricsConfig contains Prometheus metrics configuration.
type MetricsConfig struct {
	// Enabled controls whether the engine registers and updates its
	// Prometheus collectors.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// Namespace is the metric name prefix.
	// Default: "ganymede"
	Namespace string `yaml:"namespace"`

	// DurationBuckets defines histogram buckets for stage and unit
	// durations, in seconds.
	// Default: [0.1, 0.25, 0.5, 1.0, 2.0, 5.0, 10.0, 30.0]
	DurationBuckets []float64 `yaml:"duration_buckets"`

	// TokenBuckets defines histogram buckets for token counts.
	// Default: [100, 500, 1000, 5000, 10000, 50000, 100000]
	TokenBuckets []float64 `yaml:"token_buckets"`

	// CostBuckets defines histogram buckets for unit costs in USD.
	// Default: [0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0, 5.0, 10.0]
	CostBuckets []float64 `yaml:"cost_buckets"`
}
