// Package cost estimates API spend from token usage.
package cost

import (
	"strings"

	"github.com/maquina-noticias/pipeline/internal/model"
)

// ModelRate holds per-model token pricing in USD per million tokens.
type ModelRate struct {
	Input  float64 `yaml:"input" mapstructure:"input"`
	Output float64 `yaml:"output" mapstructure:"output"`
}

// Rates maps model name prefixes to pricing. Dated releases match their
// undated prefix, so "claude-haiku-4-5-20251001" resolves through
// "claude-haiku-4-5".
type Rates struct {
	Models map[string]ModelRate `yaml:"models" mapstructure:"models"`
}

// DefaultRates covers the two model tiers the pipeline uses.
func DefaultRates() Rates {
	return Rates{
		Models: map[string]ModelRate{
			"claude-haiku-4-5":  {Input: 1.00, Output: 5.00},
			"claude-sonnet-4-5": {Input: 3.00, Output: 15.00},
		},
	}
}

// Calculator computes estimated costs for model usage.
type Calculator struct {
	rates Rates
}

// NewCalculator creates a calculator with the given rates.
func NewCalculator(rates Rates) *Calculator {
	return &Calculator{rates: rates}
}

// MessageCost returns the estimated USD cost of one call. Unknown models
// cost zero; the estimate is advisory, never a processing input.
func (c *Calculator) MessageCost(modelName string, usage model.TokenUsage) float64 {
	rate, ok := c.rateFor(modelName)
	if !ok {
		return 0
	}
	return float64(usage.InputTokens)/1_000_000*rate.Input +
		float64(usage.OutputTokens)/1_000_000*rate.Output
}

// rateFor resolves a model name to pricing by longest matching prefix.
func (c *Calculator) rateFor(modelName string) (ModelRate, bool) {
	var (
		best    ModelRate
		bestLen = -1
	)
	for prefix, rate := range c.rates.Models {
		if strings.HasPrefix(modelName, prefix) && len(prefix) > bestLen {
			best = rate
			bestLen = len(prefix)
		}
	}
	return best, bestLen >= 0
}
