package pipeline

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/maquina-noticias/pipeline/internal/model"
	"github.com/maquina-noticias/pipeline/pkg/anthropic/mocks"
)

const spanishText = `El presidente del gobierno anunció este martes en el congreso una
reforma de la ley de presupuestos que será tramitada por la vía de urgencia,
según fuentes del ejecutivo.`

const englishText = `The government announced on Tuesday that the new budget law will
be submitted to parliament for an urgent vote, according to official sources
from the president's office.`

const triageProcessJSON = `{
	"es_relevante": true,
	"decision": "PROCESS",
	"puntuacion": 0.87,
	"categoria": "POLITICA_NACIONAL",
	"palabras_clave": ["presupuestos", "reforma"]
}`

const triageDiscardJSON = `{
	"es_relevante": false,
	"decision": "DISCARD",
	"puntuacion": 0.05,
	"categoria": "OTROS",
	"palabras_clave": []
}`

func TestTriage_SpanishProcessSkipsTranslation(t *testing.T) {
	client := mocks.NewMockClient(t)
	client.On("CreateMessage", mock.Anything, matchTriageRequest()).
		Return(textResponse(triageProcessJSON), nil).Once()

	p := newTestPipeline(t, client)
	frag := model.NewFragment("", spanishText)

	result, usage, err := p.Triage(context.Background(), frag)
	require.NoError(t, err)

	assert.Equal(t, model.DecisionProcess, result.Decision)
	assert.True(t, result.IsRelevant)
	assert.InDelta(t, 0.87, result.Score, 0.001)
	assert.Equal(t, "POLITICA_NACIONAL", result.Category)
	assert.Equal(t, "es", result.DetectedLanguage)
	assert.False(t, result.Translated)
	assert.Equal(t, result.CleanedText, result.TextForNextStage)
	assert.Positive(t, usage.InputTokens)
}

func TestTriage_EnglishProcessTranslates(t *testing.T) {
	client := mocks.NewMockClient(t)
	client.On("CreateMessage", mock.Anything, matchTriageRequest()).
		Return(textResponse(triageProcessJSON), nil).Once()
	client.On("CreateMessage", mock.Anything, matchTranslationRequest()).
		Return(textResponse("El gobierno anunció el martes la nueva ley de presupuestos."), nil).Once()

	p := newTestPipeline(t, client)
	frag := model.NewFragment("", englishText)

	result, _, err := p.Triage(context.Background(), frag)
	require.NoError(t, err)

	assert.Equal(t, "en", result.DetectedLanguage)
	assert.True(t, result.Translated)
	assert.NotEqual(t, result.CleanedText, result.TextForNextStage)
	assert.Contains(t, result.TextForNextStage, "presupuestos")
}

func TestTriage_DiscardNeverTranslates(t *testing.T) {
	client := mocks.NewMockClient(t)
	client.On("CreateMessage", mock.Anything, matchTriageRequest()).
		Return(textResponse(triageDiscardJSON), nil).Once()

	p := newTestPipeline(t, client)
	frag := model.NewFragment("", englishText)

	result, _, err := p.Triage(context.Background(), frag)
	require.NoError(t, err)

	assert.Equal(t, model.DecisionDiscard, result.Decision)
	assert.False(t, result.IsRelevant)
	assert.False(t, result.Translated)
	// No translation expectation was registered: AssertExpectations would
	// fail if a second call had been made.
}

func TestTriage_LLMFailureAcceptsWithWarning(t *testing.T) {
	client := mocks.NewMockClient(t)
	client.On("CreateMessage", mock.Anything, matchTriageRequest()).
		Return(nil, assert.AnError)

	p := newTestPipeline(t, client)
	frag := model.NewFragment("", spanishText)

	result, _, err := p.Triage(context.Background(), frag)
	require.NoError(t, err)

	assert.Equal(t, model.DecisionProcess, result.Decision)
	assert.True(t, result.IsRelevant)
	assert.NotEmpty(t, result.Warnings)
	assert.Equal(t, result.CleanedText, result.TextForNextStage)
}

func TestTriage_MalformedResponseAcceptsWithWarning(t *testing.T) {
	client := mocks.NewMockClient(t)
	client.On("CreateMessage", mock.Anything, matchTriageRequest()).
		Return(textResponse("no soy JSON"), nil).Once()

	p := newTestPipeline(t, client)
	frag := model.NewFragment("", spanishText)

	result, _, err := p.Triage(context.Background(), frag)
	require.NoError(t, err)

	assert.Equal(t, model.DecisionProcess, result.Decision)
	assert.NotEmpty(t, result.Warnings)
}

func TestTriage_UnknownCategoryWarns(t *testing.T) {
	client := mocks.NewMockClient(t)
	client.On("CreateMessage", mock.Anything, matchTriageRequest()).
		Return(textResponse(`{"es_relevante": true, "decision": "PROCESS", "puntuacion": 0.7, "categoria": "INVENTADA"}`), nil).Once()

	p := newTestPipeline(t, client)
	frag := model.NewFragment("", spanishText)

	result, _, err := p.Triage(context.Background(), frag)
	require.NoError(t, err)

	assert.Equal(t, "INVENTADA", result.Category)
	require.NotEmpty(t, result.Warnings)
	assert.Contains(t, result.Warnings[0], "taxonomia")
}

func TestTriage_CleansHTMLInput(t *testing.T) {
	client := mocks.NewMockClient(t)
	client.On("CreateMessage", mock.Anything, matchTriageRequest()).
		Return(textResponse(triageProcessJSON), nil).Once()

	p := newTestPipeline(t, client)
	frag := model.NewFragment("", "<p>El  gobierno   del país</p><script>alert(1)</script>")

	result, _, err := p.Triage(context.Background(), frag)
	require.NoError(t, err)

	assert.NotContains(t, result.CleanedText, "<p>")
	assert.NotContains(t, result.CleanedText, "alert")
	assert.Contains(t, result.CleanedText, "El gobierno del país")
}

func TestDetectLanguage(t *testing.T) {
	taxonomy, err := LoadTaxonomy()
	require.NoError(t, err)

	assert.Equal(t, "es", taxonomy.DetectLanguage(spanishText))
	assert.Equal(t, "en", taxonomy.DetectLanguage(englishText))
	// No stopword hits: canonical language wins by default.
	assert.Equal(t, "es", taxonomy.DetectLanguage("xyzzy plugh 12345"))
	assert.Equal(t, "es", taxonomy.DetectLanguage(""))
}
