package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"logsift/internal/models"

	"github.com/google/uuid"
)

// ErrJobNotFound is returned when a job id does not exist.
var ErrJobNotFound = errors.New("job not found")

// SQLite TIMESTAMP format shared by job and record repos.
const tsLayout = "2006-01-02 15:04:05"

type JobSQLite struct {
	db *sql.DB
}

func NewJobSQLite(db *sql.DB) *JobSQLite { return &JobSQLite{db: db} }

var _ JobRepo = (*JobSQLite)(nil)

const (
	insertJobSQL = `
		INSERT INTO jobs (id, filename, status, processed_count, error, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	updateJobStatusSQL   = `UPDATE jobs SET status = ?, updated_at = ? WHERE id = ?`
	completeJobSQL       = `UPDATE jobs SET status = ?, processed_count = ?, updated_at = ? WHERE id = ?`
	failJobSQL           = `UPDATE jobs SET status = ?, error = ?, updated_at = ? WHERE id = ?`
	selectJobByIDSQL     = `SELECT id, filename, status, processed_count, error, created_at, updated_at FROM jobs WHERE id = ?`
)

// Create inserts a new job row. Empty ID, status and timestamps are defaulted.
func (r *JobSQLite) Create(ctx context.Context, j models.Job) error {
	if j.ID == "" {
		j.ID = uuid.NewString()
	}
	if j.Status == "" {
		j.Status = models.JobQueued
	}
	now := time.Now().UTC()
	if j.CreatedAt.IsZero() {
		j.CreatedAt = now
	}
	if j.UpdatedAt.IsZero() {
		j.UpdatedAt = now
	}

	_, err := r.db.ExecContext(ctx, insertJobSQL,
		j.ID,
		j.Filename,
		j.Status,
		j.ProcessedCount,
		j.Error,
		j.CreatedAt.UTC().Format(tsLayout),
		j.UpdatedAt.UTC().Format(tsLayout),
	)
	if err != nil {
		return fmt.Errorf("insert job %q: %w", j.ID, err)
	}
	return nil
}

func (r *JobSQLite) SetStatus(ctx context.Context, id, status string) error {
	res, err := r.db.ExecContext(ctx, updateJobStatusSQL, status, nowStamp(), id)
	if err != nil {
		return fmt.Errorf("update job %q status: %w", id, err)
	}
	return requireRow(res, id)
}

func (r *JobSQLite) Complete(ctx context.Context, id string, processedCount int) error {
	res, err := r.db.ExecContext(ctx, completeJobSQL, models.JobCompleted, processedCount, nowStamp(), id)
	if err != nil {
		return fmt.Errorf("complete job %q: %w", id, err)
	}
	return requireRow(res, id)
}

func (r *JobSQLite) Fail(ctx context.Context, id, reason string) error {
	res, err := r.db.ExecContext(ctx, failJobSQL, models.JobFailed, reason, nowStamp(), id)
	if err != nil {
		return fmt.Errorf("fail job %q: %w", id, err)
	}
	return requireRow(res, id)
}

func (r *JobSQLite) Get(ctx context.Context, id string) (models.Job, error) {
	var (
		j      models.Job
		errMsg sql.NullString
	)
	err := r.db.QueryRowContext(ctx, selectJobByIDSQL, id).Scan(
		&j.ID, &j.Filename, &j.Status, &j.ProcessedCount, &errMsg, &j.CreatedAt, &j.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Job{}, ErrJobNotFound
		}
		return models.Job{}, fmt.Errorf("select job %q: %w", id, err)
	}
	j.Error = errMsg.String
	j.CreatedAt = j.CreatedAt.UTC()
	j.UpdatedAt = j.UpdatedAt.UTC()
	return j, nil
}

func nowStamp() string {
	return time.Now().UTC().Format(tsLayout)
}

// requireRow maps "no rows updated" to ErrJobNotFound. Drivers that cannot
// report affected rows are treated as success.
func requireRow(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return nil
	}
	if n == 0 {
		return fmt.Errorf("job %q: %w", id, ErrJobNotFound)
	}
	return nil
}
