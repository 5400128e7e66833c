package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// errorDetail is the body of every non-2xx response.
type errorDetail struct {
	Error     string `json:"error"`
	Message   string `json:"mensaje"`
	RequestID string `json:"request_id"`
}

type errorResponse struct {
	Detail errorDetail `json:"detail"`
}

// syncResponse is the envelope for synchronous processing results.
type syncResponse struct {
	Success    bool   `json:"success"`
	RequestID  string `json:"request_id"`
	Timestamp  string `json:"timestamp"`
	APIVersion string `json:"api_version"`
	Data       any    `json:"data"`
}

// asyncResponse acknowledges a submission that went to a background job.
type asyncResponse struct {
	Success   bool          `json:"success"`
	Status    string        `json:"status"`
	JobID     string        `json:"job_id"`
	RequestID string        `json:"request_id"`
	Timestamp string        `json:"timestamp"`
	Message   string        `json:"message"`
	Tracking  trackingInfo  `json:"tracking"`
	Metadata  asyncMetadata `json:"metadata"`
}

type trackingInfo struct {
	EstimatedTimeSeconds int    `json:"estimated_time_seconds"`
	CheckStatusEndpoint  string `json:"check_status_endpoint"`
}

type asyncMetadata struct {
	CharacterLength int  `json:"longitud_caracteres"`
	IsLongArticle   bool `json:"es_articulo_largo"`
	ThresholdUsed   int  `json:"threshold_usado"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		zap.L().Error("server: encode response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, r *http.Request, status int, kind, message string) {
	writeJSON(w, status, errorResponse{Detail: errorDetail{
		Error:     kind,
		Message:   message,
		RequestID: middleware.GetReqID(r.Context()),
	}})
}

func writeSync(w http.ResponseWriter, r *http.Request, data any) {
	writeJSON(w, http.StatusOK, syncResponse{
		Success:    true,
		RequestID:  middleware.GetReqID(r.Context()),
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
		APIVersion: APIVersion,
		Data:       data,
	})
}
