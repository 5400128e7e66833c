package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/maquina-noticias/pipeline/internal/db"
	"github.com/maquina-noticias/pipeline/internal/model"
	"github.com/maquina-noticias/pipeline/internal/resilience"
)

// ErrMissingDSN is the configuration error raised when the store is
// constructed without connection credentials.
var ErrMissingDSN = eris.New("store: database url not configured")

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// rpc statements. The insert functions take the whole payload as jsonb and
// return a jsonb summary with per-artifact insert counts.
const (
	rpcInsertArticle      = `SELECT insertar_articulo_completo($1::jsonb)`
	rpcInsertFragment     = `SELECT insertar_fragmento_completo($1::jsonb)`
	rpcFindSimilar        = `SELECT id, nombre, tipo, similitud FROM buscar_entidad_similar($1, $2, $3, $4)`
	rpcFindSimilarUntyped = `SELECT id, nombre, tipo, similitud FROM buscar_entidad_similar($1, NULL, $2, $3)`
	queryHealth           = `SELECT 1`
)

// PostgresStore implements Store against a Supabase postgres backend.
type PostgresStore struct {
	pool    db.Pool
	policy  resilience.Policy
	breaker *resilience.Breaker
}

// NewPostgres creates the process-wide store. Construction fails fast when
// the connection string is absent and pings the backend before returning.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig, policy resilience.Policy) (*PostgresStore, error) {
	if connString == "" {
		return nil, ErrMissingDSN
	}

	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "store: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "store: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "store: ping")
	}

	return NewPostgresWithPool(pool, policy), nil
}

// NewPostgresWithPool wraps an existing pool. Used by tests with pgxmock.
func NewPostgresWithPool(pool db.Pool, policy resilience.Policy) *PostgresStore {
	return &PostgresStore{
		pool:    pool,
		policy:  policy,
		breaker: resilience.NewBreaker(5, 30*time.Second),
	}
}

func (s *PostgresStore) InsertArticle(ctx context.Context, payload *model.ArticlePayload) (*model.InsertResult, error) {
	return s.callInsert(ctx, "insertar_articulo_completo", rpcInsertArticle, payload)
}

func (s *PostgresStore) InsertFragment(ctx context.Context, payload *model.FragmentPayload) (*model.InsertResult, error) {
	return s.callInsert(ctx, "insertar_fragmento_completo", rpcInsertFragment, payload)
}

// callInsert serializes the payload, invokes the bulk-insert RPC under the
// retry policy and circuit breaker, and decodes the count summary. An empty
// backend response yields (nil, nil).
func (s *PostgresStore) callInsert(ctx context.Context, op, stmt string, payload any) (*model.InsertResult, error) {
	datos, err := json.Marshal(payload)
	if err != nil {
		return nil, eris.Wrapf(err, "store: marshal payload for %s", op)
	}

	policy := s.policy
	policy.OnRetry = resilience.RetryLogger("supabase", op)

	raw, _, err := resilience.Retry(ctx, policy, func(ctx context.Context) ([]byte, error) {
		return resilience.Guard(s.breaker, func() ([]byte, error) {
			var out []byte
			if scanErr := s.pool.QueryRow(ctx, stmt, datos).Scan(&out); scanErr != nil {
				return nil, scanErr
			}
			return out, nil
		})
	})
	if err != nil {
		return nil, &DatabaseError{Op: op, Err: err}
	}

	if len(raw) == 0 || string(raw) == "null" {
		zap.L().Warn("store: empty rpc response", zap.String("op", op))
		return nil, nil
	}

	var result model.InsertResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, &DatabaseError{Op: op, Err: eris.Wrap(err, "decode rpc response")}
	}
	return &result, nil
}

func (s *PostgresStore) FindSimilarEntity(ctx context.Context, name, entityType string, threshold float64, limit int) ([]model.EntityMatch, error) {
	if limit <= 0 {
		limit = 5
	}

	stmt := rpcFindSimilarUntyped
	args := []any{name, threshold, limit}
	if entityType != "" {
		stmt = rpcFindSimilar
		args = []any{name, entityType, threshold, limit}
	}

	policy := s.policy
	policy.OnRetry = resilience.RetryLogger("supabase", "buscar_entidad_similar")

	matches, _, err := resilience.Retry(ctx, policy, func(ctx context.Context) ([]model.EntityMatch, error) {
		return resilience.Guard(s.breaker, func() ([]model.EntityMatch, error) {
			rows, queryErr := s.pool.Query(ctx, stmt, args...)
			if queryErr != nil {
				return nil, queryErr
			}
			defer rows.Close()

			var out []model.EntityMatch
			for rows.Next() {
				var m model.EntityMatch
				if scanErr := rows.Scan(&m.ID, &m.Name, &m.Type, &m.Score); scanErr != nil {
					return nil, scanErr
				}
				out = append(out, m)
			}
			return out, rows.Err()
		})
	})
	if err != nil {
		return nil, &DatabaseError{Op: "buscar_entidad_similar", Err: err}
	}
	return matches, nil
}

// HealthCheck never raises: any failure, including a panic-free scan error,
// reports false.
func (s *PostgresStore) HealthCheck(ctx context.Context) bool {
	var one int
	if err := s.pool.QueryRow(ctx, queryHealth).Scan(&one); err != nil {
		zap.L().Debug("store: health check failed", zap.Error(err))
		return false
	}
	return one == 1
}

func (s *PostgresStore) Close() {
	s.pool.Close()
}
