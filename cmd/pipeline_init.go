package main

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/maquina-noticias/pipeline/internal/jobs"
	"github.com/maquina-noticias/pipeline/internal/pipeline"
	"github.com/maquina-noticias/pipeline/internal/resilience"
	"github.com/maquina-noticias/pipeline/internal/store"
	"github.com/maquina-noticias/pipeline/pkg/anthropic"
)

// pipelineEnv holds the initialized gateway, store, tracker and pipeline
// needed by the serve/process commands.
type pipelineEnv struct {
	Store    store.Store // nil when no database URL is configured
	Tracker  jobs.Tracker
	Pipeline *pipeline.Pipeline
}

// Close releases resources held by the pipeline environment.
func (pe *pipelineEnv) Close() {
	if pe.Tracker != nil {
		_ = pe.Tracker.Close()
	}
	if pe.Store != nil {
		pe.Store.Close()
	}
}

func retryPolicy() resilience.Policy {
	return resilience.Policy{
		MaxAttempts:    cfg.Pipeline.MaxRetries,
		InitialBackoff: time.Duration(cfg.Pipeline.BackoffInitialMs) * time.Millisecond,
		MaxBackoff:     time.Duration(cfg.Pipeline.BackoffMaxSecs) * time.Second,
	}
}

func initStore(ctx context.Context) (store.Store, error) {
	if cfg.Store.DatabaseURL == "" {
		zap.L().Warn("store not configured, results will not be persisted")
		return nil, nil
	}
	policy := retryPolicy()
	policy.MaxAttempts = cfg.Store.MaxRetries
	return store.NewPostgres(ctx, cfg.Store.DatabaseURL, &store.PoolConfig{
		MaxConns: cfg.Store.MaxConns,
		MinConns: cfg.Store.MinConns,
	}, policy)
}

func initTracker() (jobs.Tracker, error) {
	switch cfg.Jobs.Backend {
	case "sqlite":
		return jobs.NewSQLite(cfg.Jobs.SQLitePath, cfg.Jobs.Retention())
	default:
		return jobs.NewMemory(cfg.Jobs.Retention()), nil
	}
}

// initPipeline sets up the model gateway, the store and the job tracker, and
// builds the Pipeline. Callers should defer env.Close(). withTracker is false
// for one-shot commands that always run synchronously.
func initPipeline(ctx context.Context, withTracker bool) (*pipelineEnv, error) {
	gateway, err := anthropic.NewGateway(anthropic.GatewayConfig{
		APIKey:            cfg.Anthropic.Key,
		TriageModel:       cfg.Anthropic.TriageModel,
		ExtractionModel:   cfg.Anthropic.ExtractionModel,
		MaxTokens:         cfg.Anthropic.MaxTokens,
		RequestsPerSecond: cfg.Anthropic.RequestsPerSecond,
		DefaultTimeout:    time.Duration(cfg.Anthropic.TimeoutSecs) * time.Second,
	})
	if err != nil {
		return nil, err
	}

	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}

	var tracker jobs.Tracker
	if withTracker {
		tracker, err = initTracker()
		if err != nil {
			if st != nil {
				st.Close()
			}
			return nil, err
		}
	}

	p, err := pipeline.New(gateway, st, tracker, pipeline.Config{
		Version:        cfg.Pipeline.Version,
		AsyncThreshold: cfg.Pipeline.AsyncThresholdChars,
		LLMTimeout:     time.Duration(cfg.Anthropic.TimeoutSecs) * time.Second,
		Retry:          retryPolicy(),
		DedupEnabled:   cfg.Pipeline.DedupEnabled,
		DedupThreshold: cfg.Pipeline.DedupThreshold,
		DedupLimit:     cfg.Pipeline.DedupLimit,
	})
	if err != nil {
		if tracker != nil {
			_ = tracker.Close()
		}
		if st != nil {
			st.Close()
		}
		return nil, err
	}

	return &pipelineEnv{Store: st, Tracker: tracker, Pipeline: p}, nil
}
