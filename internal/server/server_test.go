package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maquina-noticias/pipeline/internal/jobs"
	"github.com/maquina-noticias/pipeline/internal/model"
	"github.com/maquina-noticias/pipeline/internal/pipeline"
	"github.com/maquina-noticias/pipeline/internal/store"
)

// stubProcessor plays the orchestrator with a canned outcome.
type stubProcessor struct {
	outcome   *pipeline.Outcome
	err       error
	threshold int
	lastSub   pipeline.Submission
	calls     int
}

func (s *stubProcessor) Process(ctx context.Context, sub pipeline.Submission) (*pipeline.Outcome, error) {
	s.calls++
	s.lastSub = sub
	if s.err != nil {
		return nil, s.err
	}
	return s.outcome, nil
}

func (s *stubProcessor) AsyncThreshold() int {
	if s.threshold == 0 {
		return pipeline.DefaultAsyncThreshold
	}
	return s.threshold
}

func syncOutcome(fragmentID string) *pipeline.Outcome {
	return &pipeline.Outcome{Result: &model.PipelineResult{
		FragmentID: fragmentID,
		Triaje:     &model.TriageResult{FragmentID: fragmentID, Decision: model.DecisionProcess},
	}}
}

func postJSON(t *testing.T, handler http.Handler, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func validArticleBody() map[string]any {
	return map[string]any{
		"medio":            "El Diario",
		"titular":          "El gobierno aprueba la reforma",
		"contenido_texto":  "El presidente anunció la reforma de presupuestos.",
		"pais_publicacion": "España",
	}
}

func TestProcessArticle_Synchronous(t *testing.T) {
	proc := &stubProcessor{outcome: syncOutcome("frag-1")}
	router := New(proc, nil, nil, Options{}).Router()

	rec := postJSON(t, router, "/procesar_articulo", validArticleBody())
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Success    bool            `json:"success"`
		RequestID  string          `json:"request_id"`
		APIVersion string          `json:"api_version"`
		Data       json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.NotEmpty(t, resp.RequestID)
	assert.Equal(t, APIVersion, resp.APIVersion)
	assert.Contains(t, string(resp.Data), "fase_1_triaje")

	require.NotNil(t, proc.lastSub.Article)
	assert.Equal(t, "El Diario", proc.lastSub.Article.Medium)
}

func TestProcessArticle_MissingFieldsIs400(t *testing.T) {
	proc := &stubProcessor{outcome: syncOutcome("frag-1")}
	router := New(proc, nil, nil, Options{}).Router()

	for _, missing := range []string{"contenido_texto", "medio", "titular"} {
		body := validArticleBody()
		delete(body, missing)

		rec := postJSON(t, router, "/procesar_articulo", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, "missing %s", missing)

		var resp struct {
			Detail struct {
				Error     string `json:"error"`
				Message   string `json:"mensaje"`
				RequestID string `json:"request_id"`
			} `json:"detail"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, pipeline.KindValidation, resp.Detail.Error)
		assert.NotEmpty(t, resp.Detail.Message)
		assert.NotEmpty(t, resp.Detail.RequestID)
	}

	// No submission reached the orchestrator.
	assert.Zero(t, proc.calls)
}

func TestProcessArticle_InvalidJSONIs400(t *testing.T) {
	proc := &stubProcessor{outcome: syncOutcome("frag-1")}
	router := New(proc, nil, nil, Options{}).Router()

	req := httptest.NewRequest(http.MethodPost, "/procesar_articulo", bytes.NewReader([]byte("{no es json")))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Zero(t, proc.calls)
}

func TestProcessArticle_AsyncAcknowledgment(t *testing.T) {
	proc := &stubProcessor{outcome: &pipeline.Outcome{JobID: "job-123"}, threshold: 100}
	router := New(proc, nil, nil, Options{}).Router()

	body := validArticleBody()
	rec := postJSON(t, router, "/procesar_articulo", body)
	require.Equal(t, http.StatusAccepted, rec.Code)

	var resp asyncResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "processing", resp.Status)
	assert.Equal(t, "job-123", resp.JobID)
	assert.Equal(t, "/status/job-123", resp.Tracking.CheckStatusEndpoint)
	assert.Positive(t, resp.Tracking.EstimatedTimeSeconds)
	assert.Equal(t, 100, resp.Metadata.ThresholdUsed)
	assert.True(t, resp.Metadata.IsLongArticle)
	assert.Positive(t, resp.Metadata.CharacterLength)
}

func TestProcessFragment_Synchronous(t *testing.T) {
	proc := &stubProcessor{outcome: syncOutcome("frag-2")}
	router := New(proc, nil, nil, Options{}).Router()

	rec := postJSON(t, router, "/procesar_fragmento", map[string]any{
		"contenido_texto": "El gobierno anunció nuevas medidas.",
		"documento_id":    "doc-9",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Nil(t, proc.lastSub.Article)
	assert.Equal(t, "doc-9", proc.lastSub.DocumentID)
}

func TestProcess_ErrorKindsMapToStatus(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{&pipeline.ValidationError{Field: "hechos[0].id", Constraint: "obligatorio"}, http.StatusUnprocessableEntity},
		{&store.DatabaseError{Op: "insertar_articulo_completo", Err: assert.AnError}, http.StatusBadGateway},
		{assert.AnError, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		proc := &stubProcessor{err: tt.err}
		router := New(proc, nil, nil, Options{}).Router()

		rec := postJSON(t, router, "/procesar_articulo", validArticleBody())
		assert.Equal(t, tt.status, rec.Code)
	}
}

func TestJobStatus_UnknownIs404(t *testing.T) {
	tracker := jobs.NewMemory(time.Hour)
	defer tracker.Close()
	router := New(&stubProcessor{}, tracker, nil, Options{}).Router()

	req := httptest.NewRequest(http.MethodGet, "/status/no-such-job", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)

	var resp errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, pipeline.KindNotFound, resp.Detail.Error)
}

func TestJobStatus_CompletedJobIsIdempotent(t *testing.T) {
	tracker := jobs.NewMemory(time.Hour)
	defer tracker.Close()
	ctx := context.Background()

	job, err := tracker.Create(ctx)
	require.NoError(t, err)
	require.NoError(t, tracker.Complete(ctx, job.ID, &model.JobResult{FragmentID: "f-1", Hechos: 2}))

	router := New(&stubProcessor{}, tracker, nil, Options{}).Router()

	var first, second string
	for i, target := range []*string{&first, &second} {
		req := httptest.NewRequest(http.MethodGet, "/status/"+job.ID, nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, "poll %d", i)
		*target = rec.Body.String()
	}
	assert.JSONEq(t, first, second)

	var resp struct {
		Data model.Job `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(first), &resp))
	assert.Equal(t, model.JobCompleted, resp.Data.Status)
	require.NotNil(t, resp.Data.Result)
	assert.Equal(t, 2, resp.Data.Result.Hechos)
}

func TestHealth(t *testing.T) {
	router := New(&stubProcessor{}, nil, nil, Options{}).Router()

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp["status"])
	assert.NotContains(t, resp, "database")
}
