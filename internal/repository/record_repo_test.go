package repository

import (
	"errors"
	"regexp"
	"strings"
	"testing"
	"time"

	"logsift/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestBulkInsert_TransactionPerBatch(t *testing.T) {
	t.Parallel()

	db, mock := newMockDB(t)
	repo := NewRecordSQLite(db)

	mock.ExpectBegin()
	prep := mock.ExpectPrepare(regexp.QuoteMeta(`INSERT INTO log_records`))
	prep.ExpectExec().
		WithArgs(sqlmock.AnyArg(), "j1", "2024-12-01 03:17:44", "ERROR", "payment-svc",
			"DB conn failed", "unknown", sqlmock.AnyArg(), 1.0, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	prep.ExpectExec().
		WithArgs(sqlmock.AnyArg(), "j1", "2024-12-01 03:17:45", "INFO", "auth-svc",
			"User logged in", "unknown", sqlmock.AnyArg(), 0.0, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	records := []models.LogRecord{
		{
			JobID:        "j1",
			Timestamp:    time.Date(2024, time.December, 1, 3, 17, 44, 0, time.UTC),
			Level:        "ERROR",
			Service:      "payment-svc",
			Message:      "DB conn failed",
			Host:         "unknown",
			AnomalyScore: 1.0,
			RawLine:      "2024-12-01 03:17:44 ERROR payment-svc - DB conn failed",
		},
		{
			JobID:     "j1",
			Timestamp: time.Date(2024, time.December, 1, 3, 17, 45, 0, time.UTC),
			Level:     "INFO",
			Service:   "auth-svc",
			Message:   "User logged in",
			Host:      "unknown",
			RawLine:   "2024-12-01 03:17:45 INFO auth-svc - User logged in",
		},
	}
	if err := repo.BulkInsert(testCtx(t), records); err != nil {
		t.Fatalf("BulkInsert: %v", err)
	}
	for i, rec := range records {
		if rec.ID == "" {
			t.Errorf("record %d: id not assigned", i)
		}
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("mock expectations: %v", err)
	}
}

func TestBulkInsert_EmptyBatchIsNoop(t *testing.T) {
	t.Parallel()

	db, mock := newMockDB(t)
	repo := NewRecordSQLite(db)

	if err := repo.BulkInsert(testCtx(t), nil); err != nil {
		t.Fatalf("BulkInsert(nil): %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("no SQL should run for an empty batch: %v", err)
	}
}

func TestBulkInsert_RollsBackOnError(t *testing.T) {
	t.Parallel()

	db, mock := newMockDB(t)
	repo := NewRecordSQLite(db)

	mock.ExpectBegin()
	prep := mock.ExpectPrepare(regexp.QuoteMeta(`INSERT INTO log_records`))
	prep.ExpectExec().WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	err := repo.BulkInsert(testCtx(t), []models.LogRecord{
		{JobID: "j1", Timestamp: time.Now(), Level: "INFO", Service: "s", Message: "m", Host: "h", RawLine: "r"},
	})
	if err == nil || !strings.Contains(err.Error(), "disk full") {
		t.Fatalf("expected wrapped insert error, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("mock expectations: %v", err)
	}
}

func TestList_FilterConditions(t *testing.T) {
	t.Parallel()

	db, mock := newMockDB(t)
	repo := NewRecordSQLite(db)

	ts := time.Date(2024, time.December, 1, 3, 17, 44, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"id", "job_id", "ts", "level", "service", "message", "host", "trace_id", "anomaly_score", "raw_line"}).
		AddRow("r1", "j1", ts, "ERROR", "payment-svc", "DB conn failed", "unknown", nil, 1.0, "raw")

	mock.ExpectQuery(regexp.QuoteMeta(`WHERE ts >= ? AND level = ? AND anomaly_score >= ? ORDER BY ts ASC LIMIT ?`)).
		WithArgs("2024-12-01 00:00:00", "ERROR", 0.5, 10).
		WillReturnRows(rows)

	got, err := repo.List(testCtx(t), RecordFilter{
		From:     time.Date(2024, time.December, 1, 0, 0, 0, 0, time.UTC),
		Level:    "ERROR",
		MinScore: 0.5,
		Limit:    10,
	})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 1 || got[0].ID != "r1" || got[0].TraceID != "" {
		t.Fatalf("unexpected records: %+v", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("mock expectations: %v", err)
	}
}

func TestGetByIDs_EmptyShortCircuits(t *testing.T) {
	t.Parallel()

	db, mock := newMockDB(t)
	repo := NewRecordSQLite(db)

	got, err := repo.GetByIDs(testCtx(t), nil)
	if err != nil || got != nil {
		t.Fatalf("GetByIDs(nil) = %v, %v", got, err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("no SQL should run: %v", err)
	}
}

func TestAnalytics_Aggregates(t *testing.T) {
	t.Parallel()

	db, mock := newMockDB(t)
	repo := NewRecordSQLite(db)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM log_records`)).
		WithArgs(0.9).
		WillReturnRows(sqlmock.NewRows([]string{"total", "errors", "warns", "anomalies"}).AddRow(200, 40, 10, 7))
	mock.ExpectQuery(regexp.QuoteMeta(`GROUP BY service`)).
		WithArgs(topServicesLimit).
		WillReturnRows(sqlmock.NewRows([]string{"service", "c"}).
			AddRow("payment-svc", 120).
			AddRow("web-server", 80))
	mock.ExpectQuery(regexp.QuoteMeta(`GROUP BY hour`)).
		WillReturnRows(sqlmock.NewRows([]string{"hour", "count"}).
			AddRow(3, 150).
			AddRow(4, 50))

	got, err := repo.Analytics(testCtx(t), 0.9)
	if err != nil {
		t.Fatalf("Analytics: %v", err)
	}
	if got.TotalLogs != 200 || got.ErrorCount != 40 || got.WarnCount != 10 || got.AnomalyCount != 7 {
		t.Fatalf("unexpected totals: %+v", got)
	}
	if got.ErrorRate != 20.0 {
		t.Fatalf("ErrorRate = %v, want 20.0", got.ErrorRate)
	}
	if len(got.TopServices) != 2 || got.TopServices[0].Service != "payment-svc" {
		t.Fatalf("unexpected top services: %+v", got.TopServices)
	}
	if len(got.HourlyBreakdown) != 2 || got.HourlyBreakdown[0].Hour != 3 {
		t.Fatalf("unexpected hourly breakdown: %+v", got.HourlyBreakdown)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("mock expectations: %v", err)
	}
}
