package anthropic

import (
	"context"
	"errors"
	"fmt"

	"github.com/rotisserie/eris"
)

// Phase identifies which pipeline phase issued an LLM call. Errors are
// tagged with it so each phase can apply its own fallback policy.
type Phase string

const (
	PhaseTriage        Phase = "triaje"
	PhaseTranslation   Phase = "traduccion"
	PhaseExtraction    Phase = "extraccion"
	PhaseQuoteData     Phase = "citas_datos"
	PhaseNormalization Phase = "normalizacion"
)

// ErrMissingAPIKey is the configuration error raised when the gateway is
// constructed without credentials. Fatal: no fallback, no retry.
var ErrMissingAPIKey = eris.New("anthropic: api key not configured")

// PhaseError is the phase-tagged failure returned by Gateway.Complete.
// RetryCount records the attempts already made by the calling stage;
// TimeoutSeconds is set only when the call hit its deadline.
type PhaseError struct {
	Phase          Phase
	RetryCount     int
	TimeoutSeconds float64
	Err            error
}

func (e *PhaseError) Error() string {
	if e.TimeoutSeconds > 0 {
		return fmt.Sprintf("llm call failed in phase %s after %d retries (timeout %.1fs): %v",
			e.Phase, e.RetryCount, e.TimeoutSeconds, e.Err)
	}
	return fmt.Sprintf("llm call failed in phase %s after %d retries: %v", e.Phase, e.RetryCount, e.Err)
}

func (e *PhaseError) Unwrap() error {
	return e.Err
}

// Timeout reports whether the underlying failure was a deadline expiry.
func (e *PhaseError) Timeout() bool {
	return e.TimeoutSeconds > 0
}

// AsPhaseError extracts a PhaseError from an error chain.
func AsPhaseError(err error) (*PhaseError, bool) {
	var pe *PhaseError
	ok := errors.As(err, &pe)
	return pe, ok
}

func isDeadline(err error) bool {
	return errors.Is(err, context.DeadlineExceeded)
}
