package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"logsift/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
)

func testCtx(t *testing.T) context.Context {
	t.Helper()
	c, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	t.Cleanup(cancel)
	return c
}

func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

func TestJobCreate_Defaults(t *testing.T) {
	t.Parallel()

	db, mock := newMockDB(t)
	repo := NewJobSQLite(db)

	// ID, status and timestamps are generated by the repo; match arg count
	// and the literal values we control.
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO jobs`)).
		WithArgs(sqlmock.AnyArg(), "app.log", models.JobQueued, 0, "", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.Create(testCtx(t), models.Job{Filename: "app.log"}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("mock expectations: %v", err)
	}
}

func TestJobComplete_NotFound(t *testing.T) {
	t.Parallel()

	db, mock := newMockDB(t)
	repo := NewJobSQLite(db)

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE jobs SET status = ?, processed_count = ?, updated_at = ? WHERE id = ?`)).
		WithArgs(models.JobCompleted, 42, sqlmock.AnyArg(), "missing").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Complete(testCtx(t), "missing", 42)
	if !errors.Is(err, ErrJobNotFound) {
		t.Fatalf("expected ErrJobNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("mock expectations: %v", err)
	}
}

func TestJobFail_WritesReason(t *testing.T) {
	t.Parallel()

	db, mock := newMockDB(t)
	repo := NewJobSQLite(db)

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE jobs SET status = ?, error = ?, updated_at = ? WHERE id = ?`)).
		WithArgs(models.JobFailed, "record missing required field(s): service", sqlmock.AnyArg(), "j1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.Fail(testCtx(t), "j1", "record missing required field(s): service"); err != nil {
		t.Fatalf("Fail: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("mock expectations: %v", err)
	}
}

func TestJobGet(t *testing.T) {
	t.Parallel()

	db, mock := newMockDB(t)
	repo := NewJobSQLite(db)

	created := time.Date(2024, time.December, 1, 3, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"id", "filename", "status", "processed_count", "error", "created_at", "updated_at"}).
		AddRow("j1", "app.log", models.JobCompleted, 128, nil, created, created.Add(time.Minute))
	mock.ExpectQuery(regexp.QuoteMeta(selectJobByIDSQL)).WithArgs("j1").WillReturnRows(rows)

	j, err := repo.Get(testCtx(t), "j1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if j.ID != "j1" || j.Status != models.JobCompleted || j.ProcessedCount != 128 || j.Error != "" {
		t.Fatalf("unexpected job: %+v", j)
	}

	mock.ExpectQuery(regexp.QuoteMeta(selectJobByIDSQL)).WithArgs("nope").WillReturnError(sql.ErrNoRows)
	if _, err := repo.Get(testCtx(t), "nope"); !errors.Is(err, ErrJobNotFound) {
		t.Fatalf("expected ErrJobNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("mock expectations: %v", err)
	}
}
