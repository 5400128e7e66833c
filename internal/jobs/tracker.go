// Package jobs tracks asynchronous processing jobs: a state machine per
// job (PENDING → PROCESSING → COMPLETED | FAILED) behind a store interface
// so the in-memory backend can be swapped for a durable one. Terminal
// states are immutable; terminal records are pruned after a retention
// window.
package jobs

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/maquina-noticias/pipeline/internal/model"
)

// ErrNotFound is returned when a job id is unknown (or already pruned).
var ErrNotFound = eris.New("jobs: job not found")

// ErrTerminalState is returned on any transition out of COMPLETED or FAILED.
var ErrTerminalState = eris.New("jobs: job already in terminal state")

// Tracker is the job store shared by all concurrent pipeline tasks.
// Implementations serialize updates per job id, not globally, so unrelated
// jobs never contend.
type Tracker interface {
	// Create registers a new PENDING job and returns it.
	Create(ctx context.Context) (*model.Job, error)

	// Get returns a snapshot of the job, or ErrNotFound.
	Get(ctx context.Context, jobID string) (*model.Job, error)

	// MarkProcessing moves PENDING → PROCESSING.
	MarkProcessing(ctx context.Context, jobID string) error

	// SetProgress updates the progress indicator of a non-terminal job.
	SetProgress(ctx context.Context, jobID string, percentage int, message string) error

	// Complete moves the job to COMPLETED with its result summary.
	Complete(ctx context.Context, jobID string, result *model.JobResult) error

	// Fail moves the job to FAILED with a structured error.
	Fail(ctx context.Context, jobID string, jobErr *model.JobError) error

	// Prune removes terminal jobs whose last update is older than the
	// retention window and returns how many were removed.
	Prune(ctx context.Context) (int, error)

	Close() error
}
