package anthropic

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// GatewayConfig holds the settings the completion gateway needs.
type GatewayConfig struct {
	APIKey string
	// TriageModel handles triage and translation; ExtractionModel handles
	// the three extraction phases.
	TriageModel     string
	ExtractionModel string
	MaxTokens       int64
	// RequestsPerSecond caps the outbound call rate. Zero disables limiting.
	RequestsPerSecond float64
	DefaultTimeout    time.Duration
}

// Gateway is the pipeline's single entry point to the model: one prompt in,
// raw text out. It enforces the per-call timeout and rate limit but does not
// retry — failure policy is phase-specific and belongs to the caller.
type Gateway struct {
	client  Client
	cfg     GatewayConfig
	limiter *rate.Limiter
}

// NewGateway builds a Gateway backed by the SDK client. A missing API key is
// a configuration error: fatal, reported before any network call is made.
func NewGateway(cfg GatewayConfig) (*Gateway, error) {
	if cfg.APIKey == "" {
		return nil, ErrMissingAPIKey
	}
	return newGateway(NewClient(cfg.APIKey), cfg), nil
}

// NewGatewayWithClient builds a Gateway over an existing client. Used by
// tests to substitute a mock.
func NewGatewayWithClient(client Client, cfg GatewayConfig) *Gateway {
	return newGateway(client, cfg)
}

func newGateway(client Client, cfg GatewayConfig) *Gateway {
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 4096
	}
	if cfg.DefaultTimeout <= 0 {
		cfg.DefaultTimeout = 120 * time.Second
	}
	var limiter *rate.Limiter
	if cfg.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1)
	}
	return &Gateway{client: client, cfg: cfg, limiter: limiter}
}

// BuildCachedSystemBlocks wraps a system prompt in a cache-controlled block
// so repeated fragments reuse the prompt prefix.
func BuildCachedSystemBlocks(text string) []SystemBlock {
	return []SystemBlock{{
		Text:         text,
		CacheControl: &CacheControl{TTL: "5m"},
	}}
}

// Complete sends one prompt and returns the raw response text. On failure it
// returns a PhaseError tagged with the phase; timeouts additionally carry the
// timeout duration. RetryCount is left at zero — callers that retry stamp the
// attempt count before surfacing the error.
func (g *Gateway) Complete(ctx context.Context, prompt string, system []SystemBlock, phase Phase, timeout time.Duration) (string, TokenUsage, error) {
	if timeout <= 0 {
		timeout = g.cfg.DefaultTimeout
	}
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if g.limiter != nil {
		if err := g.limiter.Wait(callCtx); err != nil {
			return "", TokenUsage{}, g.tag(err, phase, timeout)
		}
	}

	resp, err := g.client.CreateMessage(callCtx, MessageRequest{
		Model:     g.modelFor(phase),
		MaxTokens: g.cfg.MaxTokens,
		System:    system,
		Messages: []Message{
			{Role: "user", Content: prompt},
		},
	})
	if err != nil {
		return "", TokenUsage{}, g.tag(err, phase, timeout)
	}

	return resp.Text(), resp.Usage, nil
}

// Models returns the configured model names: the light model serving triage
// and translation, and the heavier one serving the extraction phases.
func (g *Gateway) Models() (triage, extraction string) {
	return g.cfg.TriageModel, g.cfg.ExtractionModel
}

func (g *Gateway) modelFor(phase Phase) string {
	switch phase {
	case PhaseTriage, PhaseTranslation:
		return g.cfg.TriageModel
	default:
		return g.cfg.ExtractionModel
	}
}

func (g *Gateway) tag(err error, phase Phase, timeout time.Duration) *PhaseError {
	pe := &PhaseError{Phase: phase, Err: err}
	if isDeadline(err) {
		pe.TimeoutSeconds = timeout.Seconds()
	}
	return pe
}
