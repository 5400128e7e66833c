package pipeline

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/maquina-noticias/pipeline/internal/alloc"
	"github.com/maquina-noticias/pipeline/internal/model"
	"github.com/maquina-noticias/pipeline/internal/sanitize"
	"github.com/maquina-noticias/pipeline/pkg/anthropic"
)

// Extract runs phase 2: facts and entities over the triaged text. Each
// parsed item gets a fragment-scoped id from the allocator. LLM or parse
// failure degrades to an empty-but-valid result with a warning; the
// fragment is never aborted here.
func (p *Pipeline) Extract(ctx context.Context, triage *model.TriageResult, ids *alloc.Allocator) (*model.ExtractionResult, model.TokenUsage, error) {
	result := &model.ExtractionResult{FragmentID: triage.FragmentID}

	system := anthropic.BuildCachedSystemBlocks(extractionSystemPrompt)
	raw, usage, err := p.complete(ctx, buildExtractionPrompt(triage.TextForNextStage), system, anthropic.PhaseExtraction)
	if err != nil {
		warning := fmt.Sprintf("extraccion: fallo del modelo, resultado vacio: %v", err)
		zap.L().Warn("pipeline: extraction fallback",
			zap.String("fragment_id", triage.FragmentID), zap.Error(err))
		result.Warnings = append(result.Warnings, warning)
		return result, usage, nil
	}

	outcome := parseResponse("extraccion", raw)
	if !outcome.ok() {
		result.Warnings = append(result.Warnings, outcome.warning)
		return result, usage, nil
	}

	for _, obj := range asObjects(outcome.data, "hechos") {
		hecho, warnings := parseHecho(obj, triage.FragmentID, ids)
		result.Warnings = append(result.Warnings, warnings...)
		if hecho != nil {
			result.Hechos = append(result.Hechos, *hecho)
		}
	}
	for _, obj := range asObjects(outcome.data, "entidades") {
		entidad, warnings := parseEntidad(obj, triage.FragmentID, ids)
		result.Warnings = append(result.Warnings, warnings...)
		if entidad != nil {
			result.Entidades = append(result.Entidades, *entidad)
		}
	}

	return result, usage, nil
}

// parseHecho builds one fact from a model object. Metadata fields travel
// verbatim into HechoMetadata. A fact with no content is dropped; invalid
// confidence or offsets are repaired with a warning rather than dropping
// the fact.
func parseHecho(obj map[string]any, fragmentID string, ids *alloc.Allocator) (*model.Hecho, []string) {
	text := sanitize.CleanText(asString(obj, "contenido"), false)
	if text == "" {
		return nil, []string{"extraccion: hecho sin contenido descartado"}
	}

	var warnings []string
	confidence := asFloat(obj, "confianza")
	if err := sanitize.ValidateConfidenceScore(confidence); err != nil {
		warnings = append(warnings,
			fmt.Sprintf("extraccion: confianza %.2f fuera de rango, ajustada", confidence))
		confidence = clamp(confidence, 0, 1)
	}

	offsets := model.OffsetRange{Start: optInt(obj, "inicio"), End: optInt(obj, "fin")}
	if err := sanitize.ValidateOffsetRange(offsets.Start, offsets.End); err != nil {
		warnings = append(warnings, fmt.Sprintf("extraccion: offsets invalidos descartados: %v", err))
		offsets = model.OffsetRange{}
	}

	return &model.Hecho{
		ID:         ids.NextHechoID(),
		Text:       text,
		Confidence: confidence,
		Offsets:    offsets,
		FragmentID: fragmentID,
		Metadata: model.HechoMetadata{
			TemporalPrecision: asString(obj, "precision_temporal"),
			FactType:          asString(obj, "tipo_hecho"),
			Countries:         asStringSlice(obj, "paises"),
			Regions:           asStringSlice(obj, "regiones"),
			Cities:            asStringSlice(obj, "ciudades"),
			IsFuture:          asBool(obj, "es_futuro"),
			OccurrenceDate:    asString(obj, "fecha_ocurrencia"),
			ConsensusState:    asString(obj, "estado_programacion"),
		},
	}, warnings
}

func parseEntidad(obj map[string]any, fragmentID string, ids *alloc.Allocator) (*model.Entidad, []string) {
	name := sanitize.CleanText(asString(obj, "nombre"), false)
	if name == "" {
		return nil, []string{"extraccion: entidad sin nombre descartada"}
	}

	var warnings []string
	relevance := asFloat(obj, "relevancia")
	if err := sanitize.ValidateConfidenceScore(relevance); err != nil {
		warnings = append(warnings,
			fmt.Sprintf("extraccion: relevancia %.2f fuera de rango, ajustada", relevance))
		relevance = clamp(relevance, 0, 1)
	}

	wikidata := asString(obj, "wikidata_uri")
	if wikidata != "" {
		if err := sanitize.ValidateWikidataURI(wikidata); err != nil {
			warnings = append(warnings,
				fmt.Sprintf("extraccion: wikidata_uri invalida descartada para %q", name))
			wikidata = ""
		}
	}

	return &model.Entidad{
		ID:         ids.NextEntidadID(),
		Name:       name,
		Type:       asString(obj, "tipo"),
		Relevance:  relevance,
		FragmentID: fragmentID,
		Metadata: model.EntidadMetadata{
			Aliases:               asStringSlice(obj, "alias"),
			StructuredDescription: asStringSlice(obj, "descripcion_estructurada"),
			FoundationDate:        asString(obj, "fecha_nacimiento"),
			DissolutionDate:       asString(obj, "fecha_disolucion"),
			WikidataURI:           wikidata,
		},
	}, warnings
}

func clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
