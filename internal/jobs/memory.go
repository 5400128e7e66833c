package jobs

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/maquina-noticias/pipeline/internal/model"
)

// DefaultRetention is how long terminal jobs stay queryable before the
// sweeper removes them.
const DefaultRetention = time.Hour

// memoryEntry pairs a job with its own lock so transitions on one job never
// block reads or writes on another.
type memoryEntry struct {
	mu  sync.Mutex
	job model.Job
}

// MemoryTracker is the in-process Tracker backend.
type MemoryTracker struct {
	entries   sync.Map // job id → *memoryEntry
	retention time.Duration

	sweepStop chan struct{}
	sweepOnce sync.Once
}

// NewMemory creates a MemoryTracker. Non-positive retention falls back to
// DefaultRetention.
func NewMemory(retention time.Duration) *MemoryTracker {
	if retention <= 0 {
		retention = DefaultRetention
	}
	return &MemoryTracker{
		retention: retention,
		sweepStop: make(chan struct{}),
	}
}

// StartSweeper launches the background goroutine that prunes terminal jobs
// past retention. Stopped by Close.
func (t *MemoryTracker) StartSweeper(interval time.Duration) {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-t.sweepStop:
				return
			case <-ticker.C:
				n, _ := t.Prune(context.Background())
				if n > 0 {
					zap.L().Debug("jobs: pruned terminal jobs", zap.Int("count", n))
				}
			}
		}
	}()
}

func (t *MemoryTracker) Create(ctx context.Context) (*model.Job, error) {
	now := time.Now().UTC()
	job := model.Job{
		ID:        uuid.NewString(),
		Status:    model.JobPending,
		CreatedAt: now,
		UpdatedAt: now,
		Progress:  model.JobProgress{Percentage: 0, Message: "en cola"},
	}
	t.entries.Store(job.ID, &memoryEntry{job: job})
	return &job, nil
}

func (t *MemoryTracker) Get(ctx context.Context, jobID string) (*model.Job, error) {
	e, ok := t.lookup(jobID)
	if !ok {
		return nil, ErrNotFound
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	snapshot := e.job
	return &snapshot, nil
}

func (t *MemoryTracker) MarkProcessing(ctx context.Context, jobID string) error {
	return t.update(jobID, func(j *model.Job) error {
		j.Status = model.JobProcessing
		j.Progress = model.JobProgress{Percentage: 0, Message: "procesando"}
		return nil
	})
}

func (t *MemoryTracker) SetProgress(ctx context.Context, jobID string, percentage int, message string) error {
	return t.update(jobID, func(j *model.Job) error {
		j.Progress = model.JobProgress{Percentage: percentage, Message: message}
		return nil
	})
}

func (t *MemoryTracker) Complete(ctx context.Context, jobID string, result *model.JobResult) error {
	return t.update(jobID, func(j *model.Job) error {
		j.Status = model.JobCompleted
		j.Progress = model.JobProgress{Percentage: 100, Message: "completado"}
		j.Result = result
		return nil
	})
}

func (t *MemoryTracker) Fail(ctx context.Context, jobID string, jobErr *model.JobError) error {
	return t.update(jobID, func(j *model.Job) error {
		j.Status = model.JobFailed
		j.Error = jobErr
		return nil
	})
}

func (t *MemoryTracker) Prune(ctx context.Context) (int, error) {
	cutoff := time.Now().UTC().Add(-t.retention)
	removed := 0
	t.entries.Range(func(key, value any) bool {
		e := value.(*memoryEntry)
		e.mu.Lock()
		prune := e.job.Status.Terminal() && e.job.UpdatedAt.Before(cutoff)
		e.mu.Unlock()
		if prune {
			t.entries.Delete(key)
			removed++
		}
		return true
	})
	return removed, nil
}

func (t *MemoryTracker) Close() error {
	t.sweepOnce.Do(func() { close(t.sweepStop) })
	return nil
}

func (t *MemoryTracker) lookup(jobID string) (*memoryEntry, bool) {
	v, ok := t.entries.Load(jobID)
	if !ok {
		return nil, false
	}
	return v.(*memoryEntry), true
}

// update applies fn under the entry lock, refusing transitions out of a
// terminal state and stamping UpdatedAt.
func (t *MemoryTracker) update(jobID string, fn func(*model.Job) error) error {
	e, ok := t.lookup(jobID)
	if !ok {
		return ErrNotFound
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.job.Status.Terminal() {
		return ErrTerminalState
	}
	if err := fn(&e.job); err != nil {
		return err
	}
	e.job.UpdatedAt = time.Now().UTC()
	return nil
}
