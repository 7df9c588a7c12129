package costs

import (
	"fmt"
	"strings"
	"sync"

	"mercator-hq/ganymede/pkg/config"
)

// Calculator calculates stage costs from token counts and a per-model
// pricing table. It is thread-safe and supports hot-reload of pricing
// configuration.
type Calculator struct {
	// config contains cost calculation configuration
	config *config.CostsConfig

	// mu protects the calculator for concurrent access
	mu sync.RWMutex
}

// NewCalculator creates a new cost calculator with the given configuration.
func NewCalculator(cfg *config.CostsConfig) *Calculator {
	return &Calculator{
		config: cfg,
	}
}

// StageCost calculates the USD cost of a stage from its input and output
// token counts. Unknown models fall back to the "default" pricing entry;
// with no usable pricing at all the cost is zero.
func (c *Calculator) StageCost(inputTokens, outputTokens int, model string) float64 {
	pricing, err := c.ModelPricing(model)
	if err != nil {
		return 0.0
	}

	return calculateTokenCost(inputTokens, pricing.Prompt) +
		calculateTokenCost(outputTokens, pricing.Completion)
}

// ModelPricing retrieves pricing for a specific model. It first tries an
// exact match, then a model prefix match, then the "default" entry.
func (c *Calculator) ModelPricing(model string) (config.ModelPricing, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	// Try exact model match
	if pricing, ok := c.config.Pricing[model]; ok {
		return pricing, nil
	}

	// Try model prefix match (e.g., "gpt-4" matches "gpt-4-0613")
	for modelPattern, pricing := range c.config.Pricing {
		if modelPattern != "" && modelPattern != "default" && strings.HasPrefix(model, modelPattern) {
			return pricing, nil
		}
	}

	// Fall back to default pricing
	if pricing, ok := c.config.Pricing["default"]; ok {
		return pricing, nil
	}

	return config.ModelPricing{}, fmt.Errorf("no pricing found for model %q", model)
}

// UpdatePricing updates the pricing configuration (hot-reload support).
// This is thread-safe and can be called while the calculator is in use.
func (c *Calculator) UpdatePricing(newConfig *config.CostsConfig) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.config = newConfig
}

// calculateTokenCost calculates the cost for a given number of tokens.
// costPer1K is the cost per 1000 tokens in USD.
func calculateTokenCost(tokens int, costPer1K float64) float64 {
	if tokens <= 0 {
		return 0.0
	}

	return (float64(tokens) / 1000.0) * costPer1K
}
