package pipeline

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/maquina-noticias/pipeline/internal/model"
	"github.com/maquina-noticias/pipeline/internal/resilience"
	"github.com/maquina-noticias/pipeline/pkg/anthropic"
	"github.com/maquina-noticias/pipeline/pkg/anthropic/mocks"
)

const (
	testTriageModel     = "claude-haiku-4-5-20251001"
	testExtractionModel = "claude-sonnet-4-5-20250929"
)

// mockStore is a testify mock for the persistence gateway.
type mockStore struct {
	mock.Mock
}

func newMockStore(t *testing.T) *mockStore {
	m := &mockStore{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *mockStore) InsertArticle(ctx context.Context, payload *model.ArticlePayload) (*model.InsertResult, error) {
	ret := m.Called(ctx, payload)
	if ret.Get(0) == nil {
		return nil, ret.Error(1)
	}
	return ret.Get(0).(*model.InsertResult), ret.Error(1)
}

func (m *mockStore) InsertFragment(ctx context.Context, payload *model.FragmentPayload) (*model.InsertResult, error) {
	ret := m.Called(ctx, payload)
	if ret.Get(0) == nil {
		return nil, ret.Error(1)
	}
	return ret.Get(0).(*model.InsertResult), ret.Error(1)
}

func (m *mockStore) FindSimilarEntity(ctx context.Context, name, entityType string, threshold float64, limit int) ([]model.EntityMatch, error) {
	ret := m.Called(ctx, name, entityType, threshold, limit)
	if ret.Get(0) == nil {
		return nil, ret.Error(1)
	}
	return ret.Get(0).([]model.EntityMatch), ret.Error(1)
}

func (m *mockStore) HealthCheck(ctx context.Context) bool {
	return m.Called(ctx).Bool(0)
}

func (m *mockStore) Close() {
	m.Called()
}

// newTestPipeline wires a pipeline over a mock client with a fast retry
// policy and no store or tracker unless the test injects them.
func newTestPipeline(t *testing.T, client *mocks.MockClient) *Pipeline {
	t.Helper()
	gateway := anthropic.NewGatewayWithClient(client, anthropic.GatewayConfig{
		TriageModel:     testTriageModel,
		ExtractionModel: testExtractionModel,
	})
	p, err := New(gateway, nil, nil, Config{
		Version:    "test",
		LLMTimeout: 5 * time.Second,
		Retry:      resilience.Policy{MaxAttempts: 1, InitialBackoff: time.Millisecond, MaxBackoff: time.Millisecond},
	})
	if err != nil {
		t.Fatalf("new pipeline: %v", err)
	}
	return p
}

func textResponse(text string) *anthropic.MessageResponse {
	return &anthropic.MessageResponse{
		Content: []anthropic.ContentBlock{{Type: "text", Text: text}},
		Usage:   anthropic.TokenUsage{InputTokens: 100, OutputTokens: 40},
	}
}

/// Request matchers: phases are told apart by model and system prompt.

func matchSystem(marker string) any {
	return mock.MatchedBy(func(req anthropic.MessageRequest) bool {
		return len(req.System) > 0 && strings.Contains(req.System[0].Text, marker)
	})
}

func matchTriageRequest() any {
	return matchSystem("analista de prensa")
}

func matchTranslationRequest() any {
	return matchSystem("traductor")
}

func matchExtractionRequest() any {
	return matchSystem("extractor de hechos")
}

func matchQuoteDataRequest() any {
	return matchSystem("citas textuales")
}

func matchNormalizationRequest() any {
	return matchSystem("analista de relaciones")
}
