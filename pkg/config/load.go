package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// LoadConfig loads configuration from a YAML file at the specified path.
// It applies default values, validates the configuration, and returns any
// errors. An empty path yields the default configuration. The
// configuration is not modified by environment variables; use
// LoadConfigWithEnvOverrides for that functionality.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return DefaultConfig(), nil
	}

	// Read the file
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	// Parse YAML
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
	}

	// Apply defaults
	ApplyDefaults(&cfg)

	// Validate
	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// LoadConfigWithEnvOverrides loads configuration from a YAML file and
// applies environment variable overrides. Environment variables follow
// the naming convention GANYMEDE_SECTION_FIELD (e.g.
// GANYMEDE_STORAGE_DATA_DIR). Environment variables always take
// precedence over file-based configuration.
//
// The loading sequence is:
// 1. Load YAML from file
// 2. Apply default values
// 3. Apply environment variable overrides
// 4. Validate final configuration
func LoadConfigWithEnvOverrides(path string) (*Config, error) {
	// First load from file (this already applies defaults)
	cfg, err := LoadConfig(path)
	if err != nil {
		return nil, err
	}

	// Apply environment variable overrides
	applyEnvOverrides(cfg)

	// Re-validate after overrides
	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed after environment overrides: %w", err)
	}

	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides to the
// configuration. Environment variables use the format
// GANYMEDE_SECTION_FIELD.
func applyEnvOverrides(cfg *Config) {
	// Storage overrides
	if val := os.Getenv("GANYMEDE_STORAGE_DATA_DIR"); val != "" {
		cfg.Storage.DataDir = val
	}
	if val := os.Getenv("GANYMEDE_STORAGE_CACHE_SIZE"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.Storage.CacheSize = i
		}
	}
	if val := os.Getenv("GANYMEDE_STORAGE_REPORT_HISTORY"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.Storage.ReportHistory = i
		}
	}
	if val := os.Getenv("GANYMEDE_STORAGE_RETENTION_DAYS"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.Storage.RetentionDays = i
		}
	}
	if val := os.Getenv("GANYMEDE_STORAGE_CLEANUP_SCHEDULE"); val != "" {
		cfg.Storage.CleanupSchedule = val
	}

	// Baseline overrides
	if val := os.Getenv("GANYMEDE_BASELINE_DB_PATH"); val != "" {
		cfg.Baseline.DBPath = val
	}
	if val := os.Getenv("GANYMEDE_BASELINE_MIN_SAMPLES"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.Baseline.MinSamples = i
		}
	}
	if val := os.Getenv("GANYMEDE_BASELINE_DEFAULT_SAMPLE_COUNT"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.Baseline.DefaultSampleCount = i
		}
	}
	if val := os.Getenv("GANYMEDE_BASELINE_BUSY_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Baseline.BusyTimeout = d
		}
	}

	// Drift overrides
	if val := os.Getenv("GANYMEDE_DRIFT_WINDOW_SIZE"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.Drift.WindowSize = i
		}
	}
	if val := os.Getenv("GANYMEDE_DRIFT_MIN_WINDOW"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.Drift.MinWindow = i
		}
	}
	if val := os.Getenv("GANYMEDE_DRIFT_SCHEDULE"); val != "" {
		cfg.Drift.Schedule = val
	}
	if val := os.Getenv("GANYMEDE_DRIFT_WATCH"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Drift.Watch = b
		}
	}
	if val := os.Getenv("GANYMEDE_DRIFT_ENTROPY_LOW"); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			cfg.Drift.Thresholds.EntropyLow = f
		}
	}
	if val := os.Getenv("GANYMEDE_DRIFT_ENTROPY_MEDIUM"); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			cfg.Drift.Thresholds.EntropyMedium = f
		}
	}
	if val := os.Getenv("GANYMEDE_DRIFT_ENTROPY_HIGH"); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			cfg.Drift.Thresholds.EntropyHigh = f
		}
	}
	if val := os.Getenv("GANYMEDE_DRIFT_KS_CRITICAL"); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			cfg.Drift.Thresholds.KSCritical = f
		}
	}

	// Recorder overrides
	if val := os.Getenv("GANYMEDE_RECORDER_MAX_INPUT_SAMPLE"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.Recorder.MaxInputSample = i
		}
	}
	if val := os.Getenv("GANYMEDE_RECORDER_MAX_OUTPUT_SAMPLE"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.Recorder.MaxOutputSample = i
		}
	}
	if val := os.Getenv("GANYMEDE_RECORDER_ESTIMATE_TOKENS"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Recorder.EstimateTokens = b
		}
	}
	if val := os.Getenv("GANYMEDE_RECORDER_ESTIMATE_COSTS"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Recorder.EstimateCosts = b
		}
	}

	// Telemetry overrides
	if val := os.Getenv("GANYMEDE_LOGGING_LEVEL"); val != "" {
		cfg.Telemetry.Logging.Level = val
	}
	if val := os.Getenv("GANYMEDE_LOGGING_FORMAT"); val != "" {
		cfg.Telemetry.Logging.Format = val
	}
	if val := os.Getenv("GANYMEDE_METRICS_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Telemetry.Metrics.Enabled = b
		}
	}
	if val := os.Getenv("GANYMEDE_METRICS_NAMESPACE"); val != "" {
		cfg.Telemetry.Metrics.Namespace = val
	}
}
