package jobs

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maquina-noticias/pipeline/internal/model"
)

func TestMemoryTracker_CreateStartsPending(t *testing.T) {
	tr := NewMemory(time.Hour)
	defer tr.Close()

	job, err := tr.Create(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, job.ID)
	assert.Equal(t, model.JobPending, job.Status)
	assert.Equal(t, 0, job.Progress.Percentage)
	assert.Equal(t, "en cola", job.Progress.Message)
}

func TestMemoryTracker_FullLifecycle(t *testing.T) {
	tr := NewMemory(time.Hour)
	defer tr.Close()
	ctx := context.Background()

	job, err := tr.Create(ctx)
	require.NoError(t, err)

	require.NoError(t, tr.MarkProcessing(ctx, job.ID))
	got, err := tr.Get(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, model.JobProcessing, got.Status)

	require.NoError(t, tr.SetProgress(ctx, job.ID, 40, "extrayendo hechos"))
	got, err = tr.Get(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, 40, got.Progress.Percentage)
	assert.Equal(t, "extrayendo hechos", got.Progress.Message)

	result := &model.JobResult{FragmentID: "f-1", Hechos: 3, Entidades: 2}
	require.NoError(t, tr.Complete(ctx, job.ID, result))

	got, err = tr.Get(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, model.JobCompleted, got.Status)
	assert.Equal(t, 100, got.Progress.Percentage)
	require.NotNil(t, got.Result)
	assert.Equal(t, 3, got.Result.Hechos)
}

func TestMemoryTracker_TerminalStateIsImmutable(t *testing.T) {
	tr := NewMemory(time.Hour)
	defer tr.Close()
	ctx := context.Background()

	job, err := tr.Create(ctx)
	require.NoError(t, err)
	require.NoError(t, tr.Fail(ctx, job.ID, &model.JobError{Type: "llm", Message: "timeout"}))

	assert.ErrorIs(t, tr.MarkProcessing(ctx, job.ID), ErrTerminalState)
	assert.ErrorIs(t, tr.SetProgress(ctx, job.ID, 50, "x"), ErrTerminalState)
	assert.ErrorIs(t, tr.Complete(ctx, job.ID, nil), ErrTerminalState)
	assert.ErrorIs(t, tr.Fail(ctx, job.ID, nil), ErrTerminalState)

	// Reads still work after the failed transition attempts.
	got, err := tr.Get(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, model.JobFailed, got.Status)
	require.NotNil(t, got.Error)
	assert.Equal(t, "llm", got.Error.Type)
}

func TestMemoryTracker_UnknownJob(t *testing.T) {
	tr := NewMemory(time.Hour)
	defer tr.Close()
	ctx := context.Background()

	_, err := tr.Get(ctx, "no-such-job")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, tr.MarkProcessing(ctx, "no-such-job"), ErrNotFound)
}

func TestMemoryTracker_GetReturnsSnapshot(t *testing.T) {
	tr := NewMemory(time.Hour)
	defer tr.Close()
	ctx := context.Background()

	job, err := tr.Create(ctx)
	require.NoError(t, err)

	snapshot, err := tr.Get(ctx, job.ID)
	require.NoError(t, err)
	snapshot.Status = model.JobFailed

	got, err := tr.Get(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, model.JobPending, got.Status)
}

func TestMemoryTracker_ConcurrentJobsDoNotInterfere(t *testing.T) {
	tr := NewMemory(time.Hour)
	defer tr.Close()
	ctx := context.Background()

	const n = 32
	ids := make([]string, n)
	for i := range ids {
		job, err := tr.Create(ctx)
		require.NoError(t, err)
		ids[i] = job.ID
	}

	var wg sync.WaitGroup
	for _, id := range ids {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			assert.NoError(t, tr.MarkProcessing(ctx, id))
			assert.NoError(t, tr.SetProgress(ctx, id, 50, "procesando"))
			assert.NoError(t, tr.Complete(ctx, id, &model.JobResult{FragmentID: id}))
		}(id)
	}
	wg.Wait()

	for _, id := range ids {
		got, err := tr.Get(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, model.JobCompleted, got.Status)
	}
}

func TestMemoryTracker_PruneRemovesOldTerminalJobs(t *testing.T) {
	tr := NewMemory(time.Millisecond)
	defer tr.Close()
	ctx := context.Background()

	done, err := tr.Create(ctx)
	require.NoError(t, err)
	require.NoError(t, tr.Complete(ctx, done.ID, nil))

	active, err := tr.Create(ctx)
	require.NoError(t, err)
	require.NoError(t, tr.MarkProcessing(ctx, active.ID))

	time.Sleep(5 * time.Millisecond)

	removed, err := tr.Prune(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	_, err = tr.Get(ctx, done.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	// Non-terminal jobs survive regardless of age.
	_, err = tr.Get(ctx, active.ID)
	assert.NoError(t, err)
}
