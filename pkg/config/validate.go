package config

import (
	"fmt"
	"strings"
)

// FieldError represents a validation error for a specific configuration
// field.
type FieldError struct {
	// Field is the dotted path to the configuration field (e.g.,
	// "storage.cache_size").
	Field string

	// Message is a human-readable error message.
	Message string
}

// Error returns the error message for this field error.
func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError represents one or more validation errors in a
// configuration. It implements the error interface and provides access to
// all field errors.
type ValidationError struct {
	// Errors contains all validation errors found in the configuration.
	Errors []FieldError
}

// Error returns a formatted string containing all validation errors.
func (e ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "configuration validation failed"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("configuration validation failed: %s", e.Errors[0].Error())
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("configuration validation failed with %d errors:\n", len(e.Errors)))
	for _, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("  - %s\n", err.Error()))
	}
	return sb.String()
}

// Validate validates the entire configuration and returns a
// ValidationError if any validation rules fail. It returns nil if the
// configuration is valid. All validation errors are collected and
// returned together.
func Validate(cfg *Config) error {
	var errs []FieldError

	errs = append(errs, validateStorage(&cfg.Storage)...)
	errs = append(errs, validateBaseline(&cfg.Baseline)...)
	errs = append(errs, validateDrift(&cfg.Drift)...)
	errs = append(errs, validateRecorder(&cfg.Recorder)...)
	errs = append(errs, validateProcessing(&cfg.Processing)...)
	errs = append(errs, validateTelemetry(&cfg.Telemetry)...)

	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}

	return nil
}

// validateStorage validates storage configuration.
func validateStorage(cfg *StorageConfig) []FieldError {
	var errs []FieldError

	if cfg.DataDir == "" {
		errs = append(errs, FieldError{
			Field:   "storage.data_dir",
			Message: "data directory is required",
		})
	}
	if cfg.CacheSize < 1 {
		errs = append(errs, FieldError{
			Field:   "storage.cache_size",
			Message: "cache size must be at least 1",
		})
	}
	if cfg.ReportHistory < 1 {
		errs = append(errs, FieldError{
			Field:   "storage.report_history",
			Message: "report history must be at least 1",
		})
	}
	if cfg.FeedBuffer < 1 {
		errs = append(errs, FieldError{
			Field:   "storage.feed_buffer",
			Message: "feed buffer must be at least 1",
		})
	}

	return errs
}

// validateBaseline validates baseline configuration.
func validateBaseline(cfg *BaselineConfig) []FieldError {
	var errs []FieldError

	if cfg.DBPath == "" {
		errs = append(errs, FieldError{
			Field:   "baseline.db_path",
			Message: "database path is required",
		})
	}
	if cfg.MinSamples < 2 {
		errs = append(errs, FieldError{
			Field:   "baseline.min_samples",
			Message: "minimum samples must be at least 2",
		})
	}
	if cfg.DefaultSampleCount < cfg.MinSamples {
		errs = append(errs, FieldError{
			Field:   "baseline.default_sample_count",
			Message: "default sample count must not be below the minimum sample count",
		})
	}

	return errs
}

// validateDrift validates drift detector configuration including the
// threshold ordering.
func validateDrift(cfg *DriftConfig) []FieldError {
	var errs []FieldError

	if cfg.WindowSize < 2 {
		errs = append(errs, FieldError{
			Field:   "drift.window_size",
			Message: "window size must be at least 2",
		})
	}
	if cfg.MinWindow < 2 {
		errs = append(errs, FieldError{
			Field:   "drift.min_window",
			Message: "minimum window must be at least 2",
		})
	}
	if cfg.MinWindow > cfg.WindowSize {
		errs = append(errs, FieldError{
			Field:   "drift.min_window",
			Message: "minimum window must not exceed the window size",
		})
	}

	t := cfg.Thresholds
	if t.EntropyLow <= 0 {
		errs = append(errs, FieldError{
			Field:   "drift.thresholds.entropy_low",
			Message: "entropy threshold must be positive",
		})
	}
	if t.EntropyMedium < t.EntropyLow {
		errs = append(errs, FieldError{
			Field:   "drift.thresholds.entropy_medium",
			Message: "medium threshold must not be below the low threshold",
		})
	}
	if t.EntropyHigh < t.EntropyMedium {
		errs = append(errs, FieldError{
			Field:   "drift.thresholds.entropy_high",
			Message: "high threshold must not be below the medium threshold",
		})
	}
	if t.KSCritical <= 0 || t.KSCritical > 1 {
		errs = append(errs, FieldError{
			Field:   "drift.thresholds.ks_critical",
			Message: "KS critical threshold must be in (0, 1]",
		})
	}

	return errs
}

// validateRecorder validates recorder configuration.
func validateRecorder(cfg *RecorderConfig) []FieldError {
	var errs []FieldError

	if cfg.MaxInputSample < 0 {
		errs = append(errs, FieldError{
			Field:   "recorder.max_input_sample",
			Message: "truncation cap must not be negative",
		})
	}
	if cfg.MaxOutputSample < 0 {
		errs = append(errs, FieldError{
			Field:   "recorder.max_output_sample",
			Message: "truncation cap must not be negative",
		})
	}

	return errs
}

// validateProcessing validates processing configuration.
func validateProcessing(cfg *ProcessingConfig) []FieldError {
	var errs []FieldError

	if cfg.Tokens.CharsPerToken <= 0 {
		errs = append(errs, FieldError{
			Field:   "processing.tokens.chars_per_token",
			Message: "characters per token must be positive",
		})
	}
	for model, ratio := range cfg.Tokens.Models {
		if ratio <= 0 {
			errs = append(errs, FieldError{
				Field:   fmt.Sprintf("processing.tokens.models.%s", model),
				Message: "characters per token must be positive",
			})
		}
	}
	for model, pricing := range cfg.Costs.Pricing {
		if pricing.Prompt < 0 || pricing.Completion < 0 {
			errs = append(errs, FieldError{
				Field:   fmt.Sprintf("processing.costs.pricing.%s", model),
				Message: "pricing rates must not be negative",
			})
		}
	}

	return errs
}

// validateTelemetry validates telemetry configuration.
func validateTelemetry(cfg *TelemetryConfig) []FieldError {
	var errs []FieldError

	switch cfg.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.level",
			Message: fmt.Sprintf("invalid log level %q (must be debug, info, warn, or error)", cfg.Logging.Level),
		})
	}

	switch cfg.Logging.Format {
	case "json", "text", "console":
	default:
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.format",
			Message: fmt.Sprintf("invalid log format %q (must be json, text, or console)", cfg.Logging.Format),
		})
	}

	if cfg.Metrics.Namespace == "" {
		errs = append(errs, FieldError{
			Field:   "telemetry.metrics.namespace",
			Message: "metrics namespace is required",
		})
	}

	return errs
}
