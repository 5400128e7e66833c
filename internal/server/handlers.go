package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/maquina-noticias/pipeline/internal/jobs"
	"github.com/maquina-noticias/pipeline/internal/model"
	"github.com/maquina-noticias/pipeline/internal/pipeline"
)

// articleRequest is the body of POST /procesar_articulo.
type articleRequest struct {
	URL             string `json:"url"`
	Medium          string `json:"medio"`
	MediumType      string `json:"tipo_medio"`
	Country         string `json:"pais_publicacion"`
	Headline        string `json:"titular"`
	PublicationDate string `json:"fecha_publicacion"`
	Author          string `json:"autor"`
	Section         string `json:"seccion"`
	Summary         string `json:"resumen"`
	Content         string `json:"contenido_texto"`
}

// fragmentRequest is the body of POST /procesar_fragmento.
type fragmentRequest struct {
	DocumentID string `json:"documento_id"`
	Content    string `json:"contenido_texto"`
}

func (s *Server) handleProcessArticle(w http.ResponseWriter, r *http.Request) {
	var req articleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, pipeline.KindValidation, "cuerpo JSON invalido")
		return
	}

	switch {
	case req.Content == "":
		writeError(w, r, http.StatusBadRequest, pipeline.KindValidation, "contenido_texto es obligatorio")
		return
	case req.Medium == "":
		writeError(w, r, http.StatusBadRequest, pipeline.KindValidation, "medio es obligatorio")
		return
	case req.Headline == "":
		writeError(w, r, http.StatusBadRequest, pipeline.KindValidation, "titular es obligatorio")
		return
	}

	article := model.ArticleMetadata{
		URL:             req.URL,
		Medium:          req.Medium,
		MediumType:      req.MediumType,
		Country:         req.Country,
		Headline:        req.Headline,
		PublicationDate: req.PublicationDate,
		Author:          req.Author,
		Section:         req.Section,
		Summary:         req.Summary,
	}
	sub := pipeline.Submission{
		Fragment: model.NewFragment(req.URL, req.Content),
		Article:  &article,
	}
	s.process(w, r, sub)
}

func (s *Server) handleProcessFragment(w http.ResponseWriter, r *http.Request) {
	var req fragmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, pipeline.KindValidation, "cuerpo JSON invalido")
		return
	}
	if req.Content == "" {
		writeError(w, r, http.StatusBadRequest, pipeline.KindValidation, "contenido_texto es obligatorio")
		return
	}

	sub := pipeline.Submission{
		Fragment:   model.NewFragment("", req.Content),
		DocumentID: req.DocumentID,
	}
	s.process(w, r, sub)
}

// process routes the submission through the orchestrator and renders either
// the synchronous envelope or the async acknowledgment.
func (s *Server) process(w http.ResponseWriter, r *http.Request, sub pipeline.Submission) {
	outcome, err := s.processor.Process(r.Context(), sub)
	if err != nil {
		kind := pipeline.Classify(err)
		zap.L().Error("server: processing failed",
			zap.String("fragment_id", sub.Fragment.ID),
			zap.String("kind", kind),
			zap.Error(err))
		writeError(w, r, statusFor(kind), kind, err.Error())
		return
	}

	if !outcome.Async() {
		writeSync(w, r, outcome.Result)
		return
	}

	chars := len(sub.Fragment.RawText)
	writeJSON(w, http.StatusAccepted, asyncResponse{
		Success:   true,
		Status:    "processing",
		JobID:     outcome.JobID,
		RequestID: middleware.GetReqID(r.Context()),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Message:   "articulo aceptado para procesamiento en segundo plano",
		Tracking: trackingInfo{
			EstimatedTimeSeconds: estimateSeconds(chars),
			CheckStatusEndpoint:  fmt.Sprintf("/status/%s", outcome.JobID),
		},
		Metadata: asyncMetadata{
			CharacterLength: chars,
			IsLongArticle:   true,
			ThresholdUsed:   s.processor.AsyncThreshold(),
		},
	})
}

func (s *Server) handleJobStatus(w http.ResponseWriter, r *http.Request) {
	if s.tracker == nil {
		writeError(w, r, http.StatusNotFound, pipeline.KindNotFound, "procesamiento asincrono deshabilitado")
		return
	}

	jobID := chi.URLParam(r, "job_id")
	job, err := s.tracker.Get(r.Context(), jobID)
	if err != nil {
		if errors.Is(err, jobs.ErrNotFound) {
			writeError(w, r, http.StatusNotFound, pipeline.KindNotFound,
				fmt.Sprintf("job %s no encontrado", jobID))
			return
		}
		writeError(w, r, http.StatusInternalServerError, pipeline.KindInternal, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"data": job})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	body := map[string]any{"status": "ok"}
	if s.store != nil {
		body["database"] = s.store.HealthCheck(r.Context())
	}
	writeJSON(w, http.StatusOK, body)
}

// statusFor maps error kinds onto HTTP statuses. Request-level validation
// is caught before processing; a validation kind here means the payload
// builder rejected the fragment.
func statusFor(kind string) int {
	switch kind {
	case pipeline.KindValidation:
		return http.StatusUnprocessableEntity
	case pipeline.KindPersistence:
		return http.StatusBadGateway
	case pipeline.KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// estimateSeconds is a coarse completion estimate for the async tracking
// block, derived from input length.
func estimateSeconds(chars int) int {
	estimate := chars / 250
	if estimate < 30 {
		estimate = 30
	}
	if estimate > 600 {
		estimate = 600
	}
	return estimate
}
