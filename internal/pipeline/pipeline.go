// Package pipeline implements the four-phase news extraction pipeline:
// triage, fact/entity extraction, quote/data extraction, and relation
// normalization, plus the payload building and persistence step that
// follows them. The orchestrator decides between synchronous execution and
// background jobs based on input length.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/maquina-noticias/pipeline/internal/alloc"
	"github.com/maquina-noticias/pipeline/internal/cost"
	"github.com/maquina-noticias/pipeline/internal/jobs"
	"github.com/maquina-noticias/pipeline/internal/model"
	"github.com/maquina-noticias/pipeline/internal/resilience"
	"github.com/maquina-noticias/pipeline/internal/store"
	"github.com/maquina-noticias/pipeline/pkg/anthropic"
)

// DefaultAsyncThreshold is the input length, in characters, above which a
// submission is processed as a background job.
const DefaultAsyncThreshold = 10000

// Config tunes the orchestrator.
type Config struct {
	// Version is stamped into every payload's processing info.
	Version string

	// AsyncThreshold is the character count above which processing goes
	// async. Non-positive means DefaultAsyncThreshold.
	AsyncThreshold int

	// LLMTimeout bounds each individual model call.
	LLMTimeout time.Duration

	// Retry is the per-call retry policy for model calls.
	Retry resilience.Policy

	// DedupEnabled turns on entity deduplication lookups during
	// normalization. Requires a store.
	DedupEnabled   bool
	DedupThreshold float64
	DedupLimit     int
}

func (c Config) withDefaults() Config {
	if c.AsyncThreshold <= 0 {
		c.AsyncThreshold = DefaultAsyncThreshold
	}
	if c.DedupThreshold <= 0 {
		c.DedupThreshold = 0.85
	}
	if c.DedupLimit <= 0 {
		c.DedupLimit = 3
	}
	return c
}

// Pipeline wires the gateway, the persistence store and the job tracker.
// One instance serves all concurrent submissions; per-fragment state lives
// in the allocator created for each run.
type Pipeline struct {
	gateway  *anthropic.Gateway
	store    store.Store  // nil disables persistence
	tracker  jobs.Tracker // nil disables async processing
	taxonomy *Taxonomy
	costs    *cost.Calculator
	breaker  *resilience.Breaker
	cfg      Config
}

// New builds the pipeline. store and tracker may be nil for reduced modes
// (extraction-only runs, synchronous-only tools).
func New(gateway *anthropic.Gateway, st store.Store, tracker jobs.Tracker, cfg Config) (*Pipeline, error) {
	taxonomy, err := LoadTaxonomy()
	if err != nil {
		return nil, err
	}
	return &Pipeline{
		gateway:  gateway,
		store:    st,
		tracker:  tracker,
		taxonomy: taxonomy,
		costs:    cost.NewCalculator(cost.DefaultRates()),
		breaker:  resilience.NewBreaker(5, 30*time.Second),
		cfg:      cfg.withDefaults(),
	}, nil
}

// Submission is one unit of input: a fragment, optionally wrapped in its
// article envelope. Article-level submissions persist through the article
// RPC, fragment-level ones through the fragment RPC.
type Submission struct {
	Fragment   model.Fragment
	Article    *model.ArticleMetadata
	DocumentID string
}

// Outcome is the orchestrator's answer: either a full synchronous result or
// the id of the background job now carrying the work.
type Outcome struct {
	Result *model.PipelineResult
	JobID  string
}

func (o *Outcome) Async() bool {
	return o.JobID != ""
}

// AsyncThreshold exposes the effective threshold for the HTTP layer's
// response metadata.
func (p *Pipeline) AsyncThreshold() int {
	return p.cfg.AsyncThreshold
}

// Process routes a submission. At or under the threshold the four phases
// run inline and the caller gets the complete result; over it, a job is
// registered and returned immediately while a goroutine does the work.
func (p *Pipeline) Process(ctx context.Context, sub Submission) (*Outcome, error) {
	if len(sub.Fragment.RawText) <= p.cfg.AsyncThreshold || p.tracker == nil {
		result, err := p.run(ctx, sub, nil)
		if err != nil {
			return nil, err
		}
		return &Outcome{Result: result}, nil
	}

	job, err := p.tracker.Create(ctx)
	if err != nil {
		return nil, err
	}

	go p.runJob(job.ID, sub)

	zap.L().Info("pipeline: async job registered",
		zap.String("job_id", job.ID),
		zap.String("fragment_id", sub.Fragment.ID),
		zap.Int("chars", len(sub.Fragment.RawText)))
	return &Outcome{JobID: job.ID}, nil
}

// runJob executes a submission in the background, reporting transitions to
// the tracker. The job context is detached from the HTTP request that
// spawned it: the work is not externally cancellable.
func (p *Pipeline) runJob(jobID string, sub Submission) {
	ctx := context.Background()

	if err := p.tracker.MarkProcessing(ctx, jobID); err != nil {
		zap.L().Error("pipeline: cannot mark job processing",
			zap.String("job_id", jobID), zap.Error(err))
		return
	}

	started := time.Now()
	result, err := p.run(ctx, sub, func(pct int, msg string) {
		if err := p.tracker.SetProgress(ctx, jobID, pct, msg); err != nil {
			zap.L().Debug("pipeline: progress update failed",
				zap.String("job_id", jobID), zap.Error(err))
		}
	})
	if err != nil {
		jobErr := &model.JobError{Type: Classify(err), Message: err.Error()}
		if failErr := p.tracker.Fail(ctx, jobID, jobErr); failErr != nil {
			zap.L().Error("pipeline: cannot fail job",
				zap.String("job_id", jobID), zap.Error(failErr))
		}
		return
	}

	hechos, entidades, citas, datos, relaciones := result.Counts()
	summary := &model.JobResult{
		FragmentID:     result.FragmentID,
		Hechos:         hechos,
		Entidades:      entidades,
		Citas:          citas,
		Datos:          datos,
		Relaciones:     relaciones,
		Persisted:      result.Persistencia != nil,
		ElapsedSeconds: time.Since(started).Seconds(),
	}
	if err := p.tracker.Complete(ctx, jobID, summary); err != nil {
		zap.L().Error("pipeline: cannot complete job",
			zap.String("job_id", jobID), zap.Error(err))
	}
}

// run executes the four phases in order for one fragment, then persists.
// progress may be nil (synchronous path).
func (p *Pipeline) run(ctx context.Context, sub Submission, progress func(int, string)) (*model.PipelineResult, error) {
	report := func(pct int, msg string) {
		if progress != nil {
			progress(pct, msg)
		}
	}

	started := time.Now()
	ids := alloc.New()
	result := &model.PipelineResult{FragmentID: sub.Fragment.ID}

	// Phase 1: triage (and conditional translation).
	report(5, "triaje")
	phaseStart := time.Now()
	triage, usage, err := p.Triage(ctx, sub.Fragment)
	if err != nil {
		return nil, err
	}
	result.Triaje = triage
	result.TotalUsage.Add(usage)
	result.Metricas = append(result.Metricas, faseMetrica("triaje", phaseStart, usage, triage.Warnings))

	if triage.Decision == model.DecisionDiscard {
		report(100, "descartado en triaje")
		result.ElapsedMs = time.Since(started).Milliseconds()
		result.CostoEstimadoUSD = p.estimateCost(result.Metricas)
		zap.L().Info("pipeline: fragment discarded",
			zap.String("fragment_id", sub.Fragment.ID),
			zap.Float64("score", triage.Score))
		return result, nil
	}

	// Phase 2: facts and entities.
	report(30, "extraccion de hechos y entidades")
	phaseStart = time.Now()
	extraction, usage, err := p.Extract(ctx, triage, ids)
	if err != nil {
		return nil, err
	}
	result.Extraccion = extraction
	result.TotalUsage.Add(usage)
	result.Metricas = append(result.Metricas, faseMetrica("extraccion", phaseStart, usage, extraction.Warnings))

	// Phase 3: quotes and quantitative data.
	report(55, "extraccion de citas y datos")
	phaseStart = time.Now()
	quoteData, usage, err := p.QuoteData(ctx, triage, extraction, ids)
	if err != nil {
		return nil, err
	}
	result.CitasDatos = quoteData
	result.TotalUsage.Add(usage)
	result.Metricas = append(result.Metricas, faseMetrica("citas_datos", phaseStart, usage, quoteData.Warnings))

	// Phase 4: relations and deduplication.
	report(75, "normalizacion de relaciones")
	phaseStart = time.Now()
	normalization, usage, err := p.Normalize(ctx, extraction, knownIDs(extraction))
	if err != nil {
		return nil, err
	}
	result.Normalizacion = normalization
	result.TotalUsage.Add(usage)
	result.Metricas = append(result.Metricas, faseMetrica("normalizacion", phaseStart, usage, normalization.Resumen.Warnings))

	// Persistence.
	if p.store != nil {
		report(90, "persistencia")
		inserted, err := p.persist(ctx, sub, triage, extraction, quoteData, normalization, time.Since(started))
		if err != nil {
			return nil, err
		}
		result.Persistencia = inserted
	}

	report(100, "completado")
	result.ElapsedMs = time.Since(started).Milliseconds()
	result.CostoEstimadoUSD = p.estimateCost(result.Metricas)
	zap.L().Info("pipeline: fragment processed",
		zap.String("fragment_id", sub.Fragment.ID),
		zap.Int64("elapsed_ms", result.ElapsedMs),
		zap.Int("hechos", len(extraction.Hechos)),
		zap.Int("entidades", len(extraction.Entidades)),
		zap.Float64("costo_estimado_usd", result.CostoEstimadoUSD))
	return result, nil
}

// estimateCost prices each phase's usage against the model that served it:
// triage and translation run on the light model, everything else on the
// extraction model.
func (p *Pipeline) estimateCost(metricas []model.FaseMetrica) float64 {
	triageModel, extractionModel := p.gateway.Models()
	var total float64
	for _, m := range metricas {
		name := extractionModel
		if m.Name == "triaje" {
			name = triageModel
		}
		total += p.costs.MessageCost(name, m.Usage)
	}
	return total
}

// persist builds the payload for the submission's level and hands it to the
// store. Validation and referential-integrity failures abort persistence
// for this fragment; nothing partial is written.
func (p *Pipeline) persist(
	ctx context.Context,
	sub Submission,
	triage *model.TriageResult,
	extraction *model.ExtractionResult,
	quoteData *model.QuoteDataResult,
	normalization *model.NormalizationResult,
	elapsed time.Duration,
) (*model.InsertResult, error) {
	processing := model.ProcessingInfo{
		PipelineVersion:  p.cfg.Version,
		TriageScore:      triage.Score,
		TriageCategory:   triage.Category,
		DetectedLanguage: triage.DetectedLanguage,
		Translated:       triage.Translated,
		ElapsedSeconds:   elapsed.Seconds(),
	}

	if sub.Article != nil {
		payload, err := BuildArticlePayload(*sub.Article, processing,
			extraction.Hechos, extraction.Entidades, quoteData.Citas, quoteData.Datos, normalization)
		if err != nil {
			return nil, err
		}
		return p.store.InsertArticle(ctx, payload)
	}

	payload, err := BuildFragmentPayload(sub.Fragment.ID, sub.DocumentID, processing,
		extraction.Hechos, extraction.Entidades, quoteData.Citas, quoteData.Datos, normalization)
	if err != nil {
		return nil, err
	}
	return p.store.InsertFragment(ctx, payload)
}

// complete is the stages' shared path to the model: retry policy around the
// gateway call, attempt count stamped onto the phase error on failure.
func (p *Pipeline) complete(ctx context.Context, prompt string, system []anthropic.SystemBlock, phase anthropic.Phase) (string, model.TokenUsage, error) {
	policy := p.cfg.Retry
	policy.OnRetry = resilience.RetryLogger("anthropic", string(phase))

	type completion struct {
		text  string
		usage anthropic.TokenUsage
	}
	out, attempts, err := resilience.Retry(ctx, policy, func(ctx context.Context) (completion, error) {
		return resilience.Guard(p.breaker, func() (completion, error) {
			text, usage, callErr := p.gateway.Complete(ctx, prompt, system, phase, p.cfg.LLMTimeout)
			return completion{text: text, usage: usage}, callErr
		})
	})

	usage := model.TokenUsage{
		InputTokens:  int(out.usage.InputTokens),
		OutputTokens: int(out.usage.OutputTokens),
	}
	if err != nil {
		if pe, ok := anthropic.AsPhaseError(err); ok {
			pe.RetryCount = attempts - 1
			return "", usage, pe
		}
		return "", usage, fmt.Errorf("pipeline: fase %s: %w", phase, err)
	}
	return out.text, usage, nil
}

func faseMetrica(name string, started time.Time, usage model.TokenUsage, warnings []string) model.FaseMetrica {
	status := model.FaseComplete
	if len(warnings) > 0 {
		status = model.FaseFallback
	}
	return model.FaseMetrica{
		Name:       name,
		Status:     status,
		DurationMs: time.Since(started).Milliseconds(),
		Usage:      usage,
		Warnings:   warnings,
	}
}
