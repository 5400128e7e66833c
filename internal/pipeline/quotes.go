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

// QuoteData runs phase 3: direct quotations and quantitative data, each
// optionally referencing facts and entities from phase 2. References to ids
// the fragment never produced are nulled out with a warning; the item
// itself survives.
func (p *Pipeline) QuoteData(ctx context.Context, triage *model.TriageResult, extraction *model.ExtractionResult, ids *alloc.Allocator) (*model.QuoteDataResult, model.TokenUsage, error) {
	result := &model.QuoteDataResult{FragmentID: triage.FragmentID}

	inventory := extractionInventory(extraction)
	system := anthropic.BuildCachedSystemBlocks(quoteDataSystemPrompt)
	raw, usage, err := p.complete(ctx, buildQuoteDataPrompt(triage.TextForNextStage, inventory), system, anthropic.PhaseQuoteData)
	if err != nil {
		warning := fmt.Sprintf("citas_datos: fallo del modelo, resultado vacio: %v", err)
		zap.L().Warn("pipeline: quote/data fallback",
			zap.String("fragment_id", triage.FragmentID), zap.Error(err))
		result.Warnings = append(result.Warnings, warning)
		return result, usage, nil
	}

	outcome := parseResponse("citas_datos", raw)
	if !outcome.ok() {
		result.Warnings = append(result.Warnings, outcome.warning)
		return result, usage, nil
	}

	known := knownIDs(extraction)

	for _, obj := range asObjects(outcome.data, "citas_textuales") {
		cita, warnings := parseCita(obj, triage.FragmentID, ids, known)
		result.Warnings = append(result.Warnings, warnings...)
		if cita != nil {
			result.Citas = append(result.Citas, *cita)
		}
	}
	for _, obj := range asObjects(outcome.data, "datos_cuantitativos") {
		dato, warnings := parseDato(obj, triage.FragmentID, ids, known)
		result.Warnings = append(result.Warnings, warnings...)
		if dato != nil {
			result.Datos = append(result.Datos, *dato)
		}
	}

	return result, usage, nil
}

// idSet indexes the fact and entity ids produced by phase 2.
type idSet struct {
	hechos    map[int]struct{}
	entidades map[int]struct{}
}

func knownIDs(extraction *model.ExtractionResult) idSet {
	s := idSet{
		hechos:    make(map[int]struct{}, len(extraction.Hechos)),
		entidades: make(map[int]struct{}, len(extraction.Entidades)),
	}
	for _, h := range extraction.Hechos {
		s.hechos[h.ID] = struct{}{}
	}
	for _, e := range extraction.Entidades {
		s.entidades[e.ID] = struct{}{}
	}
	return s
}

func extractionInventory(extraction *model.ExtractionResult) string {
	hechos := make([]inventoryItem, 0, len(extraction.Hechos))
	for _, h := range extraction.Hechos {
		hechos = append(hechos, inventoryItem{ID: h.ID, Text: sanitize.Truncate(h.Text, 200)})
	}
	entidades := make([]inventoryItem, 0, len(extraction.Entidades))
	for _, e := range extraction.Entidades {
		entidades = append(entidades, inventoryItem{ID: e.ID, Text: e.Name, Kind: e.Type})
	}
	return buildInventory(hechos, entidades)
}

func parseCita(obj map[string]any, fragmentID string, ids *alloc.Allocator, known idSet) (*model.Cita, []string) {
	text := sanitize.CleanText(asString(obj, "cita"), false)
	if text == "" {
		return nil, []string{"citas_datos: cita sin texto descartada"}
	}

	var warnings []string
	cita := &model.Cita{
		ID:         ids.NextCitaID(),
		Text:       text,
		FragmentID: fragmentID,
		EntityID:   optInt(obj, "entidad_id"),
		FactID:     optInt(obj, "hecho_id"),
		Metadata: model.CitaMetadata{
			Date:      asString(obj, "fecha"),
			Context:   asString(obj, "contexto"),
			Relevance: asInt(obj, "relevancia"),
		},
	}

	if cita.EntityID != nil {
		if _, ok := known.entidades[*cita.EntityID]; !ok {
			warnings = append(warnings,
				fmt.Sprintf("citas_datos: cita %d referencia entidad_id=%d inexistente, anulada", cita.ID, *cita.EntityID))
			cita.EntityID = nil
		}
	}
	if cita.FactID != nil {
		if _, ok := known.hechos[*cita.FactID]; !ok {
			warnings = append(warnings,
				fmt.Sprintf("citas_datos: cita %d referencia hecho_id=%d inexistente, anulada", cita.ID, *cita.FactID))
			cita.FactID = nil
		}
	}

	if err := sanitize.ValidateRelevance(cita.Metadata.Relevance); err != nil {
		warnings = append(warnings,
			fmt.Sprintf("citas_datos: relevancia %d fuera de rango en cita %d, ajustada", cita.Metadata.Relevance, cita.ID))
		cita.Metadata.Relevance = clampInt(cita.Metadata.Relevance, 1, 5)
	}

	return cita, warnings
}

func parseDato(obj map[string]any, fragmentID string, ids *alloc.Allocator, known idSet) (*model.DatoCuantitativo, []string) {
	description := sanitize.CleanText(asString(obj, "indicador"), false)
	if description == "" {
		return nil, []string{"citas_datos: dato sin indicador descartado"}
	}

	var warnings []string
	dato := &model.DatoCuantitativo{
		ID:          ids.NextDatoID(),
		Description: description,
		Value:       asFloat(obj, "valor"),
		Unit:        asString(obj, "unidad"),
		FragmentID:  fragmentID,
		FactID:      optInt(obj, "hecho_id"),
		Metadata: model.DatoMetadata{
			Category:      asString(obj, "categoria"),
			Period:        asString(obj, "periodo"),
			Trend:         asString(obj, "tendencia"),
			PreviousValue: optFloat(obj, "valor_anterior"),
			GeoScope:      asStringSlice(obj, "ambito_geografico"),
		},
	}

	if dato.FactID != nil {
		if _, ok := known.hechos[*dato.FactID]; !ok {
			warnings = append(warnings,
				fmt.Sprintf("citas_datos: dato %d referencia hecho_id=%d inexistente, anulada", dato.ID, *dato.FactID))
			dato.FactID = nil
		}
	}

	return dato, warnings
}

func clampInt(x, lo, hi int) int {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
