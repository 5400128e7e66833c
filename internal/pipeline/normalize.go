package pipeline

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/maquina-noticias/pipeline/internal/model"
	"github.com/maquina-noticias/pipeline/pkg/anthropic"
)

// Normalize runs phase 4: relations between the fragment's facts and
// entities, plus contradiction detection. Relations referencing unknown ids
// are filtered, counted and reported in the summary. When the persistence
// store is available, entities are fuzzy-matched against already known ones
// and tagged with the best match.
//
// A fragment with nothing extracted is not an error: the stage returns an
// empty result with status ok and no model call.
func (p *Pipeline) Normalize(ctx context.Context, extraction *model.ExtractionResult, ids idSet) (*model.NormalizationResult, model.TokenUsage, error) {
	var usage model.TokenUsage
	result := &model.NormalizationResult{FragmentID: extraction.FragmentID}

	if len(extraction.Hechos) == 0 && len(extraction.Entidades) == 0 {
		result.Resumen = model.ResumenNormalizacion{
			Status:   model.NormalizationOK,
			Warnings: []string{"normalizacion: sin hechos ni entidades que normalizar"},
		}
		return result, usage, nil
	}

	system := anthropic.BuildCachedSystemBlocks(normalizationSystemPrompt)
	prompt := buildNormalizationPrompt(extractionInventory(extraction))
	raw, callUsage, err := p.complete(ctx, prompt, system, anthropic.PhaseNormalization)
	usage.Add(callUsage)

	var warnings []string
	dropped := 0

	switch {
	case err != nil:
		zap.L().Warn("pipeline: normalization fallback",
			zap.String("fragment_id", extraction.FragmentID), zap.Error(err))
		warnings = append(warnings,
			fmt.Sprintf("normalizacion: fallo del modelo, sin relaciones: %v", err))
	default:
		outcome := parseResponse("normalizacion", raw)
		if !outcome.ok() {
			warnings = append(warnings, outcome.warning)
			break
		}
		var w []string
		w, dropped = p.applyRelations(result, outcome.data, ids)
		warnings = append(warnings, w...)
	}

	lookups := p.dedupEntities(ctx, extraction, &warnings)

	kept := len(result.HechoEntidad) + len(result.HechoHecho) +
		len(result.EntidadEntidad) + len(result.Contradicciones)

	status := model.NormalizationOK
	switch {
	case err != nil:
		status = model.NormalizationDegraded
	case len(warnings) > 0:
		status = model.NormalizationWithWarnings
	}

	result.Resumen = model.ResumenNormalizacion{
		Status:           status,
		RelationsKept:    kept,
		RelationsDropped: dropped,
		EntityLookups:    lookups,
		Warnings:         warnings,
	}
	return result, usage, nil
}

// applyRelations decodes and validates the four relation kinds, returning
// the warnings recorded and how many relations were dropped.
func (p *Pipeline) applyRelations(result *model.NormalizationResult, data map[string]any, ids idSet) ([]string, int) {
	var warnings []string
	dropped := 0

	drop := func(kind, ref string) {
		dropped++
		warnings = append(warnings,
			fmt.Sprintf("normalizacion: relacion %s descartada, %s inexistente", kind, ref))
	}

	for _, obj := range asObjects(data, "hecho_entidad") {
		rel := model.HechoEntidadRel{
			HechoID:   asInt(obj, "hecho_id"),
			EntidadID: asInt(obj, "entidad_id"),
			Role:      asString(obj, "tipo_relacion"),
			Relevance: asInt(obj, "relevancia_en_hecho"),
		}
		if _, ok := ids.hechos[rel.HechoID]; !ok {
			drop("hecho_entidad", fmt.Sprintf("hecho_id=%d", rel.HechoID))
			continue
		}
		if _, ok := ids.entidades[rel.EntidadID]; !ok {
			drop("hecho_entidad", fmt.Sprintf("entidad_id=%d", rel.EntidadID))
			continue
		}
		result.HechoEntidad = append(result.HechoEntidad, rel)
	}

	for _, obj := range asObjects(data, "hecho_relacionado") {
		rel := model.HechoHechoRel{
			OriginID:    asInt(obj, "hecho_origen_id"),
			TargetID:    asInt(obj, "hecho_destino_id"),
			Type:        asString(obj, "tipo_relacion"),
			Strength:    asInt(obj, "fuerza_relacion"),
			Description: asString(obj, "descripcion_relacion"),
		}
		if _, ok := ids.hechos[rel.OriginID]; !ok {
			drop("hecho_relacionado", fmt.Sprintf("hecho_origen_id=%d", rel.OriginID))
			continue
		}
		if _, ok := ids.hechos[rel.TargetID]; !ok {
			drop("hecho_relacionado", fmt.Sprintf("hecho_destino_id=%d", rel.TargetID))
			continue
		}
		result.HechoHecho = append(result.HechoHecho, rel)
	}

	for _, obj := range asObjects(data, "entidad_relacion") {
		rel := model.EntidadEntidadRel{
			OriginID:  asInt(obj, "entidad_origen_id"),
			TargetID:  asInt(obj, "entidad_destino_id"),
			Type:      asString(obj, "tipo_relacion"),
			StartDate: asString(obj, "fecha_inicio"),
			EndDate:   asString(obj, "fecha_fin"),
			Strength:  asInt(obj, "fuerza_relacion"),
		}
		if _, ok := ids.entidades[rel.OriginID]; !ok {
			drop("entidad_relacion", fmt.Sprintf("entidad_origen_id=%d", rel.OriginID))
			continue
		}
		if _, ok := ids.entidades[rel.TargetID]; !ok {
			drop("entidad_relacion", fmt.Sprintf("entidad_destino_id=%d", rel.TargetID))
			continue
		}
		result.EntidadEntidad = append(result.EntidadEntidad, rel)
	}

	for _, obj := range asObjects(data, "contradicciones") {
		c := model.Contradiccion{
			HechoID:         asInt(obj, "hecho_principal_id"),
			ContradictoryID: asInt(obj, "hecho_contradictorio_id"),
			Type:            asString(obj, "tipo_contradiccion"),
			Degree:          asInt(obj, "grado_contradiccion"),
			Description:     asString(obj, "descripcion"),
		}
		if _, ok := ids.hechos[c.HechoID]; !ok {
			drop("contradiccion", fmt.Sprintf("hecho_principal_id=%d", c.HechoID))
			continue
		}
		if _, ok := ids.hechos[c.ContradictoryID]; !ok {
			drop("contradiccion", fmt.Sprintf("hecho_contradictorio_id=%d", c.ContradictoryID))
			continue
		}
		result.Contradicciones = append(result.Contradicciones, c)
	}

	return warnings, dropped
}

// dedupEntities fuzzy-matches each entity against the persistence backend
// and records the best candidate on the entity's metadata. Optional: a nil
// store skips the lookup entirely, and lookup failures degrade to a warning.
func (p *Pipeline) dedupEntities(ctx context.Context, extraction *model.ExtractionResult, warnings *[]string) int {
	if p.store == nil || !p.cfg.DedupEnabled {
		return 0
	}

	lookups := 0
	for i := range extraction.Entidades {
		e := &extraction.Entidades[i]
		lookups++
		matches, err := p.store.FindSimilarEntity(ctx, e.Name, e.Type, p.cfg.DedupThreshold, p.cfg.DedupLimit)
		if err != nil {
			*warnings = append(*warnings,
				fmt.Sprintf("normalizacion: busqueda de entidad similar fallida para %q", e.Name))
			continue
		}
		if len(matches) > 0 {
			id := matches[0].ID
			e.Metadata.SimilarEntityID = &id
		}
	}
	return lookups
}
