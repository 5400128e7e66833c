package pipeline

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/maquina-noticias/pipeline/internal/model"
	"github.com/maquina-noticias/pipeline/internal/sanitize"
	"github.com/maquina-noticias/pipeline/pkg/anthropic"
)

// Triage runs phase 1: clean the raw text, detect its language, ask the
// model for a relevance verdict, and translate when a relevant fragment is
// not in the canonical language.
//
// An LLM failure after retries does not abort the fragment: the stage falls
// back to accepting the text (decision PROCESS, full relevance) with a
// warning, so uncertain content flows downstream instead of being dropped.
func (p *Pipeline) Triage(ctx context.Context, frag model.Fragment) (*model.TriageResult, model.TokenUsage, error) {
	var usage model.TokenUsage

	cleaned := sanitize.CleanText(sanitize.StripHTML(frag.RawText), true)
	language := p.taxonomy.DetectLanguage(cleaned)

	result := &model.TriageResult{
		FragmentID:       frag.ID,
		DetectedLanguage: language,
		CleanedText:      cleaned,
		TextForNextStage: cleaned,
	}

	system := anthropic.BuildCachedSystemBlocks(p.triageSystem())
	raw, callUsage, err := p.complete(ctx, buildTriagePrompt(cleaned), system, anthropic.PhaseTriage)
	usage.Add(callUsage)
	if err != nil {
		// Accept under uncertainty: the fragment proceeds, flagged.
		warning := fmt.Sprintf("triaje: fallo del modelo, se acepta por defecto: %v", err)
		zap.L().Warn("pipeline: triage fallback",
			zap.String("fragment_id", frag.ID), zap.Error(err))
		result.IsRelevant = true
		result.Decision = model.DecisionProcess
		result.Score = 1.0
		result.Warnings = append(result.Warnings, warning)
		return result, usage, nil
	}

	outcome := parseResponse("triaje", raw)
	if !outcome.ok() {
		zap.L().Warn("pipeline: triage response malformed",
			zap.String("fragment_id", frag.ID), zap.String("warning", outcome.warning))
		result.IsRelevant = true
		result.Decision = model.DecisionProcess
		result.Score = 1.0
		result.Warnings = append(result.Warnings, outcome.warning)
	} else {
		p.applyTriageVerdict(result, outcome.data)
	}

	if result.Decision == model.DecisionProcess && language != p.taxonomy.CanonicalLanguage {
		translated, translationUsage := p.translate(ctx, frag.ID, cleaned, language)
		usage.Add(translationUsage)
		if translated != "" {
			result.Translated = true
			result.TextForNextStage = translated
		} else {
			result.Warnings = append(result.Warnings,
				"triaje: traduccion fallida, se continua con el texto original")
		}
	}

	return result, usage, nil
}

func (p *Pipeline) triageSystem() string {
	return fmt.Sprintf(triageSystemPrompt, strings.Join(p.taxonomy.Categories, ", "))
}

func (p *Pipeline) applyTriageVerdict(result *model.TriageResult, data map[string]any) {
	result.IsRelevant = asBool(data, "es_relevante")
	result.Score = asFloat(data, "puntuacion")
	result.Keywords = asStringSlice(data, "palabras_clave")

	decision := model.TriageDecision(asString(data, "decision"))
	if decision != model.DecisionProcess && decision != model.DecisionDiscard {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("triaje: decision desconocida %q, se acepta por defecto", decision))
		decision = model.DecisionProcess
		result.IsRelevant = true
	}
	result.Decision = decision

	category := asString(data, "categoria")
	if category != "" && !p.taxonomy.KnownCategory(category) {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("triaje: categoria %q fuera de la taxonomia", category))
	}
	result.Category = category
}

// translate runs the conditional second call of phase 1. Best-effort: an
// empty return means translation failed and the caller keeps the original.
func (p *Pipeline) translate(ctx context.Context, fragmentID, text, sourceLanguage string) (string, model.TokenUsage) {
	system := anthropic.BuildCachedSystemBlocks(translationSystemPrompt)
	raw, usage, err := p.complete(ctx, buildTranslationPrompt(text, sourceLanguage), system, anthropic.PhaseTranslation)
	if err != nil {
		zap.L().Warn("pipeline: translation failed",
			zap.String("fragment_id", fragmentID),
			zap.String("source_language", sourceLanguage),
			zap.Error(err))
		return "", usage
	}
	return sanitize.CleanText(raw, true), usage
}
