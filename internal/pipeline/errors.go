package pipeline

import (
	"errors"
	"fmt"

	"github.com/maquina-noticias/pipeline/internal/resilience"
	"github.com/maquina-noticias/pipeline/internal/store"
	"github.com/maquina-noticias/pipeline/pkg/anthropic"
)

// Error kinds surfaced to callers: job error types and the HTTP layer's
// error field map onto these.
const (
	KindConfiguration = "configuracion"
	KindLLM           = "llm"
	KindParsing       = "parseo"
	KindValidation    = "validacion"
	KindPersistence   = "persistencia"
	KindNotFound      = "no_encontrado"
	KindInternal      = "interno"
)

// ValidationError reports a field-level constraint violation found while
// building a persistence payload. Fatal for that fragment's persistence.
type ValidationError struct {
	Field      string
	Constraint string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("pipeline: campo %q invalido: %s", e.Field, e.Constraint)
}

// ReferentialIntegrityError reports a cross-reference that does not resolve
// inside the payload being built: a relation or quote naming a fact or
// entity id the fragment never produced.
type ReferentialIntegrityError struct {
	Kind      string // what holds the reference: "cita", "dato", "hecho_entidad", ...
	Reference string // the offending reference, e.g. "hecho_id=7"
}

func (e *ReferentialIntegrityError) Error() string {
	return fmt.Sprintf("pipeline: referencia invalida en %s: %s no existe en el fragmento", e.Kind, e.Reference)
}

// Classify maps an error to its taxonomy kind.
func Classify(err error) string {
	if err == nil {
		return ""
	}

	var ve *ValidationError
	var re *ReferentialIntegrityError
	switch {
	case errors.Is(err, anthropic.ErrMissingAPIKey), errors.Is(err, store.ErrMissingDSN):
		return KindConfiguration
	case errors.As(err, &ve), errors.As(err, &re):
		return KindValidation
	case store.IsDatabaseError(err):
		return KindPersistence
	case errors.Is(err, resilience.ErrBreakerOpen):
		return KindLLM
	}
	if _, ok := anthropic.AsPhaseError(err); ok {
		return KindLLM
	}
	return KindInternal
}
