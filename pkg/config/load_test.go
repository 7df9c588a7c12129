package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadConfig_EmptyPath(t *testing.T) {
	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("failed to load default config: %v", err)
	}

	if cfg.Storage.DataDir != DefaultStorageDataDir {
		t.Errorf("expected default data dir %q, got %q", DefaultStorageDataDir, cfg.Storage.DataDir)
	}
	if !cfg.Recorder.EstimateTokens {
		t.Error("expected token estimation enabled in default config")
	}
}

func TestLoadConfig_ValidFile(t *testing.T) {
	// Create a temporary config file
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
storage:
  data_dir: "/tmp/ganymede-test"
  cache_size: 200
  retention_days: 14

baseline:
  min_samples: 20
  busy_timeout: "10s"

drift:
  window_size: 25
  thresholds:
    entropy_medium: 0.30

telemetry:
  logging:
    level: "debug"
    format: "text"
`

	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	// Load the config
	cfg, err := LoadConfig(configPath)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	// Verify loaded values
	if cfg.Storage.DataDir != "/tmp/ganymede-test" {
		t.Errorf("expected data dir %q, got %q", "/tmp/ganymede-test", cfg.Storage.DataDir)
	}
	if cfg.Storage.CacheSize != 200 {
		t.Errorf("expected cache size 200, got %d", cfg.Storage.CacheSize)
	}
	if cfg.Storage.RetentionDays != 14 {
		t.Errorf("expected retention days 14, got %d", cfg.Storage.RetentionDays)
	}
	if cfg.Baseline.MinSamples != 20 {
		t.Errorf("expected min samples 20, got %d", cfg.Baseline.MinSamples)
	}
	if cfg.Baseline.BusyTimeout != 10*time.Second {
		t.Errorf("expected busy timeout %v, got %v", 10*time.Second, cfg.Baseline.BusyTimeout)
	}
	if cfg.Drift.WindowSize != 25 {
		t.Errorf("expected window size 25, got %d", cfg.Drift.WindowSize)
	}
	if cfg.Drift.Thresholds.EntropyMedium != 0.30 {
		t.Errorf("expected medium entropy threshold 0.30, got %v", cfg.Drift.Thresholds.EntropyMedium)
	}
	if cfg.Telemetry.Logging.Level != "debug" {
		t.Errorf("expected logging level %q, got %q", "debug", cfg.Telemetry.Logging.Level)
	}

	// Verify unset fields received defaults
	if cfg.Storage.ReportHistory != DefaultStorageReportHistory {
		t.Errorf("expected default report history %d, got %d", DefaultStorageReportHistory, cfg.Storage.ReportHistory)
	}
	if cfg.Drift.Thresholds.EntropyHigh != DefaultDriftEntropyHigh {
		t.Errorf("expected default high entropy threshold %v, got %v", DefaultDriftEntropyHigh, cfg.Drift.Thresholds.EntropyHigh)
	}
}

func TestLoadConfig_FileNotFound(t *testing.T) {
	_, err := LoadConfig("/nonexistent/config.yaml")
	if err == nil {
		t.Error("expected error for nonexistent file")
	}
	if !strings.Contains(err.Error(), "failed to read configuration file") {
		t.Errorf("expected read error, got: %v", err)
	}
}

func TestLoadConfig_MalformedYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	malformedContent := `
storage:
  data_dir: "data/telemetry"
  invalid yaml here: [
`

	if err := os.WriteFile(configPath, []byte(malformedContent), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	_, err := LoadConfig(configPath)
	if err == nil {
		t.Error("expected error for malformed YAML")
	}
}

func TestLoadConfig_ValidationFailure(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	// Threshold ordering violation and an invalid logging level.
	invalidContent := `
drift:
  thresholds:
    entropy_low: 0.50
    entropy_medium: 0.25

telemetry:
  logging:
    level: "invalid"
`

	if err := os.WriteFile(configPath, []byte(invalidContent), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	_, err := LoadConfig(configPath)
	if err == nil {
		t.Fatal("expected validation error")
	}

	// Check if the error chain contains a ValidationError
	var validationErr ValidationError
	if !errors.As(err, &validationErr) {
		t.Errorf("expected ValidationError in error chain, got %T: %v", err, err)
	}
}

func TestLoadConfigWithEnvOverrides_BasicOverrides(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
storage:
  data_dir: "/tmp/from-file"

drift:
  window_size: 30

telemetry:
  logging:
    level: "info"
    format: "json"
`

	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	// Set environment variables
	os.Setenv("GANYMEDE_STORAGE_DATA_DIR", "/tmp/from-env")
	os.Setenv("GANYMEDE_DRIFT_WINDOW_SIZE", "75")
	os.Setenv("GANYMEDE_LOGGING_LEVEL", "debug")
	defer func() {
		os.Unsetenv("GANYMEDE_STORAGE_DATA_DIR")
		os.Unsetenv("GANYMEDE_DRIFT_WINDOW_SIZE")
		os.Unsetenv("GANYMEDE_LOGGING_LEVEL")
	}()

	cfg, err := LoadConfigWithEnvOverrides(configPath)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	// Verify environment overrides took effect
	if cfg.Storage.DataDir != "/tmp/from-env" {
		t.Errorf("expected data dir %q from env, got %q", "/tmp/from-env", cfg.Storage.DataDir)
	}
	if cfg.Drift.WindowSize != 75 {
		t.Errorf("expected window size 75 from env, got %d", cfg.Drift.WindowSize)
	}
	if cfg.Telemetry.Logging.Level != "debug" {
		t.Errorf("expected logging level %q from env, got %q", "debug", cfg.Telemetry.Logging.Level)
	}
}

func TestLoadConfigWithEnvOverrides_FloatAndBoolParsing(t *testing.T) {
	os.Setenv("GANYMEDE_DRIFT_ENTROPY_HIGH", "0.55")
	os.Setenv("GANYMEDE_DRIFT_WATCH", "true")
	os.Setenv("GANYMEDE_RECORDER_ESTIMATE_COSTS", "false")
	defer func() {
		os.Unsetenv("GANYMEDE_DRIFT_ENTROPY_HIGH")
		os.Unsetenv("GANYMEDE_DRIFT_WATCH")
		os.Unsetenv("GANYMEDE_RECORDER_ESTIMATE_COSTS")
	}()

	cfg, err := LoadConfigWithEnvOverrides("")
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Drift.Thresholds.EntropyHigh != 0.55 {
		t.Errorf("expected high entropy threshold 0.55, got %v", cfg.Drift.Thresholds.EntropyHigh)
	}
	if !cfg.Drift.Watch {
		t.Error("expected watch enabled from env")
	}
	if cfg.Recorder.EstimateCosts {
		t.Error("expected cost estimation disabled from env")
	}
}

func TestLoadConfigWithEnvOverrides_InvalidOverrideFailsValidation(t *testing.T) {
	os.Setenv("GANYMEDE_DRIFT_KS_CRITICAL", "1.5")
	defer os.Unsetenv("GANYMEDE_DRIFT_KS_CRITICAL")

	_, err := LoadConfigWithEnvOverrides("")
	if err == nil {
		t.Fatal("expected validation error for out-of-range KS threshold")
	}
	if !strings.Contains(err.Error(), "environment overrides") {
		t.Errorf("expected override validation error, got: %v", err)
	}
}
