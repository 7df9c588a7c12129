package config

import "time"

// Default values for configuration fields.
const (
	// Storage defaults
	DefaultStorageDataDir       = "data/telemetry"
	DefaultStorageCacheSize     = 100
	DefaultStorageReportHistory = 50
	DefaultStorageRetentionDays = 30
	DefaultStorageCleanupSched  = "0 3 * * *"
	DefaultStorageFeedBuffer    = 256

	// Baseline defaults
	DefaultBaselineDBPath      = "data/telemetry/baselines.db"
	DefaultBaselineMinSamples  = 10
	DefaultBaselineSampleCount = 100
	DefaultBaselineBusyTimeout = 5 * time.Second

	// Drift defaults
	DefaultDriftWindowSize    = 50
	DefaultDriftMinWindow     = 10
	DefaultDriftEntropyLow    = 0.10
	DefaultDriftEntropyMedium = 0.25
	DefaultDriftEntropyHigh   = 0.40
	DefaultDriftKSCritical    = 0.5

	// Recorder defaults
	DefaultRecorderMaxInputSample  = 500
	DefaultRecorderMaxOutputSample = 1000

	// Processing defaults
	DefaultTokensCharsPerToken = 4.0

	// Telemetry defaults
	DefaultLoggingLevel     = "info"
	DefaultLoggingFormat    = "json"
	DefaultMetricsNamespace = "ganymede"
)

// DefaultConfig returns a fully populated configuration with every field
// at its default value. This is what the engine runs with when no
// configuration file is provided.
func DefaultConfig() *Config {
	cfg := &Config{
		Recorder: RecorderConfig{
			EstimateTokens: true,
			EstimateCosts:  true,
		},
		Telemetry: TelemetryConfig{
			Metrics: MetricsConfig{
				Enabled: true,
			},
		},
	}
	ApplyDefaults(cfg)
	return cfg
}

// ApplyDefaults applies default values to a Config struct. It sets
// defaults for any fields that have zero values, so an empty or partial
// YAML file yields a usable configuration. Boolean fields are left alone:
// their defaults come from DefaultConfig, since a zero value cannot be
// told apart from an explicit false.
// This function is idempotent and safe to call multiple times.
func ApplyDefaults(cfg *Config) {
	// Storage defaults
	if cfg.Storage.DataDir == "" {
		cfg.Storage.DataDir = DefaultStorageDataDir
	}
	if cfg.Storage.CacheSize == 0 {
		cfg.Storage.CacheSize = DefaultStorageCacheSize
	}
	if cfg.Storage.ReportHistory == 0 {
		cfg.Storage.ReportHistory = DefaultStorageReportHistory
	}
	if cfg.Storage.RetentionDays == 0 {
		cfg.Storage.RetentionDays = DefaultStorageRetentionDays
	}
	if cfg.Storage.CleanupSchedule == "" {
		cfg.Storage.CleanupSchedule = DefaultStorageCleanupSched
	}
	if cfg.Storage.FeedBuffer == 0 {
		cfg.Storage.FeedBuffer = DefaultStorageFeedBuffer
	}

	// Baseline defaults
	if cfg.Baseline.DBPath == "" {
		cfg.Baseline.DBPath = DefaultBaselineDBPath
	}
	if cfg.Baseline.MinSamples == 0 {
		cfg.Baseline.MinSamples = DefaultBaselineMinSamples
	}
	if cfg.Baseline.DefaultSampleCount == 0 {
		cfg.Baseline.DefaultSampleCount = DefaultBaselineSampleCount
	}
	if cfg.Baseline.BusyTimeout == 0 {
		cfg.Baseline.BusyTimeout = DefaultBaselineBusyTimeout
	}

	// Drift defaults
	if cfg.Drift.WindowSize == 0 {
		cfg.Drift.WindowSize = DefaultDriftWindowSize
	}
	if cfg.Drift.MinWindow == 0 {
		cfg.Drift.MinWindow = DefaultDriftMinWindow
	}
	if cfg.Drift.Thresholds.EntropyLow == 0 {
		cfg.Drift.Thresholds.EntropyLow = DefaultDriftEntropyLow
	}
	if cfg.Drift.Thresholds.EntropyMedium == 0 {
		cfg.Drift.Thresholds.EntropyMedium = DefaultDriftEntropyMedium
	}
	if cfg.Drift.Thresholds.EntropyHigh == 0 {
		cfg.Drift.Thresholds.EntropyHigh = DefaultDriftEntropyHigh
	}
	if cfg.Drift.Thresholds.KSCritical == 0 {
		cfg.Drift.Thresholds.KSCritical = DefaultDriftKSCritical
	}

	// Recorder defaults
	if cfg.Recorder.MaxInputSample == 0 {
		cfg.Recorder.MaxInputSample = DefaultRecorderMaxInputSample
	}
	if cfg.Recorder.MaxOutputSample == 0 {
		cfg.Recorder.MaxOutputSample = DefaultRecorderMaxOutputSample
	}

	// Processing defaults
	if cfg.Processing.Tokens.CharsPerToken == 0 {
		cfg.Processing.Tokens.CharsPerToken = DefaultTokensCharsPerToken
	}
	if cfg.Processing.Costs.Pricing == nil {
		cfg.Processing.Costs.Pricing = DefaultPricing()
	}

	// Telemetry defaults
	if cfg.Telemetry.Logging.Level == "" {
		cfg.Telemetry.Logging.Level = DefaultLoggingLevel
	}
	if cfg.Telemetry.Logging.Format == "" {
		cfg.Telemetry.Logging.Format = DefaultLoggingFormat
	}
	if cfg.Telemetry.Metrics.Namespace == "" {
		cfg.Telemetry.Metrics.Namespace = DefaultMetricsNamespace
	}
	if cfg.Telemetry.Metrics.DurationBuckets == nil {
		cfg.Telemetry.Metrics.DurationBuckets = []float64{0.1, 0.25, 0.5, 1.0, 2.0, 5.0, 10.0, 30.0}
	}
	if cfg.Telemetry.Metrics.TokenBuckets == nil {
		cfg.Telemetry.Metrics.TokenBuckets = []float64{100, 500, 1000, 5000, 10000, 50000, 100000}
	}
	if cfg.Telemetry.Metrics.CostBuckets == nil {
		cfg.Telemetry.Metrics.CostBuckets = []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0, 5.0, 10.0}
	}
}

// DefaultPricing returns the default per-model pricing table. Rates are
// USD per 1000 tokens. The "default" entry serves as the fallback for
// models with no exact or prefix match.
func DefaultPricing() map[string]ModelPricing {
	return map[string]ModelPricing{
		"claude-3-5-sonnet": {Prompt: 0.003, Completion: 0.015},
		"claude-3-sonnet":   {Prompt: 0.003, Completion: 0.015},
		"gpt-4":             {Prompt: 0.03, Completion: 0.06},
		"gpt-3.5-turbo":     {Prompt: 0.0015, Completion: 0.002},
		"nova-micro":        {Prompt: 0.00003, Completion: 0.00007},
		"default":           {Prompt: 0.0015, Completion: 0.002},
	}
}
