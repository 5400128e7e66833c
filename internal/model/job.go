package model

import "time"

// JobStatus is the lifecycle state of an async processing job.
// Transitions are monotonic: PENDING → PROCESSING → {COMPLETED | FAILED}.
// Terminal states are immutable.
type JobStatus string

const (
	JobPending    JobStatus = "PENDING"
	JobProcessing JobStatus = "PROCESSING"
	JobCompleted  JobStatus = "COMPLETED"
	JobFailed     JobStatus = "FAILED"
)

// Terminal reports whether the status admits no further transitions.
func (s JobStatus) Terminal() bool {
	return s == JobCompleted || s == JobFailed
}

// JobProgress is a coarse progress indicator updated between phases.
type JobProgress struct {
	Percentage int    `json:"percentage"`
	Message    string `json:"message,omitempty"`
}

// JobError is the structured error carried by a FAILED job.
type JobError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// JobResult summarizes a COMPLETED job.
type JobResult struct {
	FragmentID     string  `json:"fragment_id"`
	Hechos         int     `json:"hechos"`
	Entidades      int     `json:"entidades"`
	Citas          int     `json:"citas"`
	Datos          int     `json:"datos"`
	Relaciones     int     `json:"relaciones"`
	Persisted      bool    `json:"persistido"`
	ElapsedSeconds float64 `json:"tiempo_total_segundos"`
}

// Job is the tracked record of one async submission.
type Job struct {
	ID        string      `json:"job_id"`
	Status    JobStatus   `json:"status"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
	Progress  JobProgress `json:"progress"`
	Result    *JobResult  `json:"result,omitempty"`
	Error     *JobError   `json:"error,omitempty"`
}
