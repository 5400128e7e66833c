// Package db defines the minimal database pool surface the persistence
// gateway needs. *pgxpool.Pool satisfies it in production; pgxmock
// satisfies it in tests.
package db

import (
	"context"

	"github.com/jackc/pgx/v5"
)

// Pool is the subset of pgxpool.Pool used by the store.
type Pool interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
	Close()
}
