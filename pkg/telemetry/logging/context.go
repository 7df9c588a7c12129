package logging

import (
	"context"
)

// Context keys for common log fields.
type contextKey string

const (
	// UnitIDKey is the context key for pipeline unit identifiers.
	UnitIDKey contextKey = "unit_id"

	// StageKey is the context key for pipeline stage names.
	StageKey contextKey = "stage"

	// StrategyKey is the context key for pipeline strategy labels.
	StrategyKey contextKey = "strategy"

	// ModelKey is the context key for model names.
	ModelKey contextKey = "model"
)

// WithUnitID adds a unit identifier to the context.
func WithUnitID(ctx context.Context, unitID string) context.Context {
	return context.WithValue(ctx, UnitIDKey, unitID)
}

// GetUnitID retrieves the unit identifier from the context.
func GetUnitID(ctx context.Context) string {
	if unitID, ok := ctx.Value(UnitIDKey).(string); ok {
		return unitID
	}
	return ""
}

// WithStage adds a stage name to the context.
func WithStage(ctx context.Context, stage string) context.Context {
	return context.WithValue(ctx, StageKey, stage)
}

// GetStage retrieves the stage name from the context.
func GetStage(ctx context.Context) string {
	if stage, ok := ctx.Value(StageKey).(string); ok {
		return stage
	}
	return ""
}

// WithStrategy adds a strategy label to the context.
func WithStrategy(ctx context.Context, strategy string) context.Context {
	return context.WithValue(ctx, StrategyKey, strategy)
}

// GetStrategy retrieves the strategy label from the context.
func GetStrategy(ctx context.Context) string {
	if strategy, ok := ctx.Value(StrategyKey).(string); ok {
		return strategy
	}
	return ""
}

// WithModel adds a model name to the context.
func WithModel(ctx context.Context, model string) context.Context {
	return context.WithValue(ctx, ModelKey, model)
}

// GetModel retrieves the model name from the context.
func GetModel(ctx context.Context) string {
	if model, ok := ctx.Value(ModelKey).(string); ok {
		return model
	}
	return ""
}

// extractContextFields extracts common fields from context for logging.
// Returns a slice of key-value pairs suitable for logger.With().
func extractContextFields(ctx context.Context) []any {
	var fields []any

	if unitID := GetUnitID(ctx); unitID != "" {
		fields = append(fields, "unit_id", unitID)
	}
	if stage := GetStage(ctx); stage != "" {
		fields = append(fields, "stage", stage)
	}
	if strategy := GetStrategy(ctx); strategy != "" {
		fields = append(fields, "strategy", strategy)
	}
	if model := GetModel(ctx); model != "" {
		fields = append(fields, "model", model)
	}

	return fields
}

// ContextLogger is a logger that automatically includes context fields.
type ContextLogger struct {
	logger *Logger
	ctx    context.Context
}

// NewContextLogger creates a logger that automatically includes context fields.
func NewContextLogger(logger *Logger, ctx context.Context) *ContextLogger {
	return &ContextLogger{
		logger: logger.WithContext(ctx),
		ctx:    ctx,
	}
}

// Debug logs a debug message with context fields.
func (cl *ContextLogger) Debug(msg string, args ...any) {
	cl.logger.Debug(msg, args...)
}

// Info logs an info message with context fields.
func (cl *ContextLogger) Info(msg string, args ...any) {
	cl.logger.Info(msg, args...)
}

// Warn logs a warning message with context fields.
func (cl *ContextLogger) Warn(msg string, args ...any) {
	cl.logger.Warn(msg, args...)
}

// Error logs an error message with context fields.
func (cl *ContextLogger) Error(msg string, args ...any) {
	cl.logger.Error(msg, args...)
}

// With creates a new context logger with additional fields.
func (cl *ContextLogger) With(args ...any) *ContextLogger {
	return &ContextLogger{
		logger: cl.logger.With(args...),
		ctx:    cl.ctx,
	}
}
