package pipeline

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/maquina-noticias/pipeline/internal/alloc"
	"github.com/maquina-noticias/pipeline/internal/model"
	"github.com/maquina-noticias/pipeline/pkg/anthropic/mocks"
)

func extractionWith(hechos, entidades int) *model.ExtractionResult {
	result := &model.ExtractionResult{FragmentID: "frag-1"}
	ids := alloc.New()
	for i := 0; i < hechos; i++ {
		result.Hechos = append(result.Hechos, model.Hecho{
			ID: ids.NextHechoID(), Text: "hecho", Confidence: 0.8, FragmentID: "frag-1",
		})
	}
	for i := 0; i < entidades; i++ {
		result.Entidades = append(result.Entidades, model.Entidad{
			ID: ids.NextEntidadID(), Name: "Entidad", Type: "PERSONA", Relevance: 0.7, FragmentID: "frag-1",
		})
	}
	return result
}

const quoteDataJSON = `{
	"citas_textuales": [
		{
			"cita": "No subiremos los impuestos este año",
			"entidad_id": 1,
			"hecho_id": 2,
			"fecha": "2026-08-25",
			"contexto": "rueda de prensa",
			"relevancia": 4
		}
	],
	"datos_cuantitativos": [
		{
			"indicador": "déficit público",
			"valor": 3.2,
			"unidad": "% PIB",
			"hecho_id": 1,
			"categoria": "económico",
			"periodo": "2026",
			"tendencia": "disminucion",
			"valor_anterior": 3.9,
			"ambito_geografico": ["España"]
		}
	]
}`

func TestQuoteData_ParsesQuotesAndData(t *testing.T) {
	client := mocks.NewMockClient(t)
	client.On("CreateMessage", mock.Anything, matchQuoteDataRequest()).
		Return(textResponse(quoteDataJSON), nil).Once()

	p := newTestPipeline(t, client)
	extraction := extractionWith(2, 1)
	ids := alloc.New()

	result, _, err := p.QuoteData(context.Background(), triageFor(spanishText), extraction, ids)
	require.NoError(t, err)
	require.Len(t, result.Citas, 1)
	require.Len(t, result.Datos, 1)
	assert.Empty(t, result.Warnings)

	c := result.Citas[0]
	assert.Equal(t, 1, c.ID)
	require.NotNil(t, c.EntityID)
	assert.Equal(t, 1, *c.EntityID)
	require.NotNil(t, c.FactID)
	assert.Equal(t, 2, *c.FactID)
	assert.Equal(t, 4, c.Metadata.Relevance)

	d := result.Datos[0]
	assert.Equal(t, 1, d.ID)
	assert.InDelta(t, 3.2, d.Value, 0.001)
	require.NotNil(t, d.Metadata.PreviousValue)
	assert.InDelta(t, 3.9, *d.Metadata.PreviousValue, 0.001)
	assert.Equal(t, []string{"España"}, d.Metadata.GeoScope)
}

func TestQuoteData_DanglingReferencesAreNulled(t *testing.T) {
	payload := `{
		"citas_textuales": [
			{"cita": "una cita", "entidad_id": 99, "hecho_id": 1, "relevancia": 3}
		],
		"datos_cuantitativos": [
			{"indicador": "inflación", "valor": 2.1, "unidad": "%", "hecho_id": 42}
		]
	}`
	client := mocks.NewMockClient(t)
	client.On("CreateMessage", mock.Anything, matchQuoteDataRequest()).
		Return(textResponse(payload), nil).Once()

	p := newTestPipeline(t, client)
	extraction := extractionWith(1, 1)

	result, _, err := p.QuoteData(context.Background(), triageFor(spanishText), extraction, alloc.New())
	require.NoError(t, err)

	// Items survive; only the dangling references are removed.
	require.Len(t, result.Citas, 1)
	assert.Nil(t, result.Citas[0].EntityID)
	require.NotNil(t, result.Citas[0].FactID)

	require.Len(t, result.Datos, 1)
	assert.Nil(t, result.Datos[0].FactID)

	assert.Len(t, result.Warnings, 2)
}

func TestQuoteData_RelevanceOutOfRangeIsClamped(t *testing.T) {
	payload := `{
		"citas_textuales": [
			{"cita": "otra cita", "relevancia": 9}
		],
		"datos_cuantitativos": []
	}`
	client := mocks.NewMockClient(t)
	client.On("CreateMessage", mock.Anything, matchQuoteDataRequest()).
		Return(textResponse(payload), nil).Once()

	p := newTestPipeline(t, client)

	result, _, err := p.QuoteData(context.Background(), triageFor(spanishText), extractionWith(0, 0), alloc.New())
	require.NoError(t, err)
	require.Len(t, result.Citas, 1)
	assert.Equal(t, 5, result.Citas[0].Metadata.Relevance)
	assert.NotEmpty(t, result.Warnings)
}

func TestQuoteData_LLMFailureIsEmptyWithWarning(t *testing.T) {
	client := mocks.NewMockClient(t)
	client.On("CreateMessage", mock.Anything, matchQuoteDataRequest()).
		Return(nil, assert.AnError)

	p := newTestPipeline(t, client)

	result, _, err := p.QuoteData(context.Background(), triageFor(spanishText), extractionWith(1, 1), alloc.New())
	require.NoError(t, err)
	assert.Empty(t, result.Citas)
	assert.Empty(t, result.Datos)
	require.NotEmpty(t, result.Warnings)
}
