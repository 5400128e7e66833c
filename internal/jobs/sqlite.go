package jobs

import (
	"context"
	"database/sql"
	"encoding/json"
	"sync"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/maquina-noticias/pipeline/internal/model"
)

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS jobs (
	id           TEXT PRIMARY KEY,
	status       TEXT NOT NULL,
	created_at   TIMESTAMP NOT NULL,
	updated_at   TIMESTAMP NOT NULL,
	progress_pct INTEGER NOT NULL DEFAULT 0,
	progress_msg TEXT NOT NULL DEFAULT '',
	result       TEXT,
	error_type   TEXT,
	error_msg    TEXT
);

CREATE INDEX IF NOT EXISTS idx_jobs_status ON jobs(status);
CREATE INDEX IF NOT EXISTS idx_jobs_updated_at ON jobs(updated_at);
`

// terminalStatuses guards transition updates at the SQL level.
var terminalStatuses = []string{string(model.JobCompleted), string(model.JobFailed)}

// SQLiteTracker is a durable Tracker backend. Useful when job records must
// survive a process restart; the HTTP server defaults to MemoryTracker.
type SQLiteTracker struct {
	db        *sql.DB
	retention time.Duration

	sweepStop chan struct{}
	sweepOnce sync.Once
}

// NewSQLite opens (and migrates) a sqlite-backed tracker at path.
func NewSQLite(path string, retention time.Duration) (*SQLiteTracker, error) {
	if retention <= 0 {
		retention = DefaultRetention
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, eris.Wrap(err, "jobs: open sqlite")
	}
	// sqlite handles one writer at a time.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(sqliteMigration); err != nil {
		db.Close()
		return nil, eris.Wrap(err, "jobs: migrate sqlite")
	}
	return &SQLiteTracker{db: db, retention: retention, sweepStop: make(chan struct{})}, nil
}

// StartSweeper launches the background goroutine that prunes terminal jobs
// past retention. Stopped by Close.
func (t *SQLiteTracker) StartSweeper(interval time.Duration) {
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

func (t *SQLiteTracker) Create(ctx context.Context) (*model.Job, error) {
	now := time.Now().UTC()
	job := model.Job{
		ID:        uuid.NewString(),
		Status:    model.JobPending,
		CreatedAt: now,
		UpdatedAt: now,
		Progress:  model.JobProgress{Percentage: 0, Message: "en cola"},
	}

	query, args, err := sq.Insert("jobs").
		Columns("id", "status", "created_at", "updated_at", "progress_pct", "progress_msg").
		Values(job.ID, string(job.Status), job.CreatedAt, job.UpdatedAt, 0, job.Progress.Message).
		ToSql()
	if err != nil {
		return nil, eris.Wrap(err, "jobs: build insert")
	}
	if _, err := t.db.ExecContext(ctx, query, args...); err != nil {
		return nil, eris.Wrap(err, "jobs: insert")
	}
	return &job, nil
}

func (t *SQLiteTracker) Get(ctx context.Context, jobID string) (*model.Job, error) {
	query, args, err := sq.Select(
		"id", "status", "created_at", "updated_at",
		"progress_pct", "progress_msg", "result", "error_type", "error_msg",
	).From("jobs").Where(sq.Eq{"id": jobID}).ToSql()
	if err != nil {
		return nil, eris.Wrap(err, "jobs: build select")
	}

	var (
		job                 model.Job
		status              string
		resultJSON          sql.NullString
		errType, errMessage sql.NullString
	)
	row := t.db.QueryRowContext(ctx, query, args...)
	err = row.Scan(&job.ID, &status, &job.CreatedAt, &job.UpdatedAt,
		&job.Progress.Percentage, &job.Progress.Message, &resultJSON, &errType, &errMessage)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, eris.Wrap(err, "jobs: scan")
	}

	job.Status = model.JobStatus(status)
	if resultJSON.Valid && resultJSON.String != "" {
		var result model.JobResult
		if err := json.Unmarshal([]byte(resultJSON.String), &result); err == nil {
			job.Result = &result
		}
	}
	if errType.Valid {
		job.Error = &model.JobError{Type: errType.String, Message: errMessage.String}
	}
	return &job, nil
}

func (t *SQLiteTracker) MarkProcessing(ctx context.Context, jobID string) error {
	return t.transition(ctx, jobID, sq.Update("jobs").
		Set("status", string(model.JobProcessing)).
		Set("progress_pct", 0).
		Set("progress_msg", "procesando"))
}

func (t *SQLiteTracker) SetProgress(ctx context.Context, jobID string, percentage int, message string) error {
	return t.transition(ctx, jobID, sq.Update("jobs").
		Set("progress_pct", percentage).
		Set("progress_msg", message))
}

func (t *SQLiteTracker) Complete(ctx context.Context, jobID string, result *model.JobResult) error {
	resultJSON, err := json.Marshal(result)
	if err != nil {
		return eris.Wrap(err, "jobs: marshal result")
	}
	return t.transition(ctx, jobID, sq.Update("jobs").
		Set("status", string(model.JobCompleted)).
		Set("progress_pct", 100).
		Set("progress_msg", "completado").
		Set("result", string(resultJSON)))
}

func (t *SQLiteTracker) Fail(ctx context.Context, jobID string, jobErr *model.JobError) error {
	builder := sq.Update("jobs").Set("status", string(model.JobFailed))
	if jobErr != nil {
		builder = builder.Set("error_type", jobErr.Type).Set("error_msg", jobErr.Message)
	}
	return t.transition(ctx, jobID, builder)
}

func (t *SQLiteTracker) Prune(ctx context.Context) (int, error) {
	cutoff := time.Now().UTC().Add(-t.retention)
	query, args, err := sq.Delete("jobs").
		Where(sq.Eq{"status": terminalStatuses}).
		Where(sq.Lt{"updated_at": cutoff}).
		ToSql()
	if err != nil {
		return 0, eris.Wrap(err, "jobs: build prune")
	}
	res, err := t.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, eris.Wrap(err, "jobs: prune")
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

func (t *SQLiteTracker) Close() error {
	t.sweepOnce.Do(func() { close(t.sweepStop) })
	return t.db.Close()
}

// transition applies an update only when the job is not terminal; a no-op
// update is disambiguated into ErrNotFound or ErrTerminalState.
func (t *SQLiteTracker) transition(ctx context.Context, jobID string, builder sq.UpdateBuilder) error {
	query, args, err := builder.
		Set("updated_at", time.Now().UTC()).
		Where(sq.Eq{"id": jobID}).
		Where(sq.NotEq{"status": terminalStatuses}).
		ToSql()
	if err != nil {
		return eris.Wrap(err, "jobs: build update")
	}

	res, err := t.db.ExecContext(ctx, query, args...)
	if err != nil {
		return eris.Wrap(err, "jobs: update")
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return nil
	}

	var exists int
	row := t.db.QueryRowContext(ctx, `SELECT 1 FROM jobs WHERE id = ?`, jobID)
	if scanErr := row.Scan(&exists); scanErr == sql.ErrNoRows {
		return ErrNotFound
	}
	return ErrTerminalState
}
