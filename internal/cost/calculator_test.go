package cost

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/maquina-noticias/pipeline/internal/model"
)

func TestMessageCost(t *testing.T) {
	calc := NewCalculator(Rates{
		Models: map[string]ModelRate{
			"claude-haiku-4-5":  {Input: 1.00, Output: 5.00},
			"claude-sonnet-4-5": {Input: 3.00, Output: 15.00},
		},
	})

	usage := model.TokenUsage{InputTokens: 1_000_000, OutputTokens: 100_000}

	assert.InDelta(t, 1.50, calc.MessageCost("claude-haiku-4-5-20251001", usage), 0.0001)
	assert.InDelta(t, 4.50, calc.MessageCost("claude-sonnet-4-5-20250929", usage), 0.0001)
}

func TestMessageCost_UnknownModelIsZero(t *testing.T) {
	calc := NewCalculator(DefaultRates())

	usage := model.TokenUsage{InputTokens: 500_000, OutputTokens: 500_000}
	assert.Zero(t, calc.MessageCost("gpt-4o", usage))
}

func TestMessageCost_LongestPrefixWins(t *testing.T) {
	calc := NewCalculator(Rates{
		Models: map[string]ModelRate{
			"claude":           {Input: 100, Output: 100},
			"claude-haiku-4-5": {Input: 1.00, Output: 5.00},
		},
	})

	usage := model.TokenUsage{InputTokens: 1_000_000}
	assert.InDelta(t, 1.00, calc.MessageCost("claude-haiku-4-5-20251001", usage), 0.0001)
}

func TestDefaultRates_CoverPipelineModels(t *testing.T) {
	calc := NewCalculator(DefaultRates())

	usage := model.TokenUsage{InputTokens: 10_000, OutputTokens: 2_000}
	assert.Positive(t, calc.MessageCost("claude-haiku-4-5-20251001", usage))
	assert.Positive(t, calc.MessageCost("claude-sonnet-4-5-20250929", usage))
}
