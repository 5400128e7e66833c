// Package store is the persistence gateway: a single, process-wide client
// for the Supabase backend, exposing the two bulk-insert RPCs and the fuzzy
// entity search the pipeline relies on. All remote calls are retry-wrapped
// and guarded by a circuit breaker.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/maquina-noticias/pipeline/internal/model"
)

// Store defines the persistence operations used by the pipeline.
type Store interface {
	// InsertArticle persists a complete article payload in one RPC.
	// Returns nil on an empty backend response rather than an error.
	InsertArticle(ctx context.Context, payload *model.ArticlePayload) (*model.InsertResult, error)

	// InsertFragment persists a fragment payload in one RPC. Same empty
	// response semantics as InsertArticle.
	InsertFragment(ctx context.Context, payload *model.FragmentPayload) (*model.InsertResult, error)

	// FindSimilarEntity fuzzy-searches existing entities by name. An empty
	// entityType omits the type filter from the call.
	FindSimilarEntity(ctx context.Context, name, entityType string, threshold float64, limit int) ([]model.EntityMatch, error)

	// HealthCheck is a best-effort liveness read. Never returns an error;
	// any failure yields false.
	HealthCheck(ctx context.Context) bool

	Close()
}

// DatabaseError marks a persistence failure that survived the retry loop.
// Distinct from validation errors: the payload was well-formed but the
// backend would not take it.
type DatabaseError struct {
	Op  string
	Err error
}

func (e *DatabaseError) Error() string {
	return fmt.Sprintf("persistence failure in %s: %v", e.Op, e.Err)
}

func (e *DatabaseError) Unwrap() error {
	return e.Err
}

// IsDatabaseError reports whether err is a persistence failure.
func IsDatabaseError(err error) bool {
	var de *DatabaseError
	return errors.As(err, &de)
}
