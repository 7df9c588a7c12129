package tokens

import (
	"strings"
	"sync"

	"mercator-hq/ganymede/pkg/config"
)

// Estimator implements character-based token estimation. It uses
// model-specific characters-per-token ratios to backfill token counts
// for stages that were recorded without them.
//
// Pipelines that know their real token usage should report it; the
// estimator exists so that partially instrumented pipelines still
// produce comparable distributions.
type Estimator struct {
	// config contains token estimation configuration
	config *config.TokensConfig

	// mu protects the estimator for concurrent access
	mu sync.RWMutex
}

// NewEstimator creates a new character-based token estimator.
func NewEstimator(cfg *config.TokensConfig) *Estimator {
	return &Estimator{
		config: cfg,
	}
}

// EstimateText estimates tokens for a single text string using the
// model-specific characters-per-token ratio. Non-empty text always
// counts as at least one token.
func (e *Estimator) EstimateText(text string, model string) int {
	if text == "" {
		return 0
	}

	charsPerToken := e.getCharsPerToken(model)
	charCount := len(text)

	tokens := float64(charCount) / charsPerToken
	if tokens < 1.0 {
		tokens = 1.0
	}

	return int(tokens + 0.5) // Round to nearest integer
}

// EstimatePair estimates input and output tokens for a stage from its
// text samples.
func (e *Estimator) EstimatePair(inputSample, outputSample, model string) (int, int) {
	return e.EstimateText(inputSample, model), e.EstimateText(outputSample, model)
}

// getCharsPerToken returns the characters-per-token ratio for a model.
// It uses the configured model-specific ratios, falling back to the
// default ratio.
func (e *Estimator) getCharsPerToken(model string) float64 {
	e.mu.RLock()
	defer e.mu.RUnlock()

	// Try exact model match
	if ratio, ok := e.config.Models[model]; ok {
		return ratio
	}

	// Try model family match (e.g., "gpt-4" matches "gpt-4-0613")
	for modelPattern, ratio := range e.config.Models {
		if modelPattern != "" && strings.HasPrefix(model, modelPattern) {
			return ratio
		}
	}

	if e.config.CharsPerToken > 0 {
		return e.config.CharsPerToken
	}

	// Ultimate fallback
	return 4.0
}
