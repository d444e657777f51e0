package repository

import (
	"context"
	"database/sql"
	"time"

	"logsift"
	"logsift/internal/models"
	"logsift/internal/repository/db"
)

type Authorization interface {
	Create(username, hash string) (int, error)
	GetByUsername(username string) (*models.User, error)
}

// JobRepo is the narrow "upsert job status" surface the pipeline needs.
type JobRepo interface {
	Create(ctx context.Context, j models.Job) error
	SetStatus(ctx context.Context, id, status string) error
	Complete(ctx context.Context, id string, processedCount int) error
	Fail(ctx context.Context, id, reason string) error
	Get(ctx context.Context, id string) (models.Job, error)
}

// RecordFilter narrows record listings. Zero values mean "no constraint".
type RecordFilter struct {
	From     time.Time // inclusive
	To       time.Time // inclusive
	Level    string
	Service  string
	MinScore float64
	Limit    int
}

// RecordRepo persists and queries parsed log records.
type RecordRepo interface {
	BulkInsert(ctx context.Context, records []models.LogRecord) error
	List(ctx context.Context, f RecordFilter) ([]models.LogRecord, error)
	GetByIDs(ctx context.Context, ids []string) ([]models.LogRecord, error)
	Analytics(ctx context.Context, anomalyThreshold float64) (logsift.AnalyticsResponse, error)
}

type Repository struct {
	Jobs    JobRepo
	Records RecordRepo
	Auth    Authorization
}

func NewRepository(sqlDB *sql.DB) *Repository {
	return &Repository{
		Jobs:    NewJobSQLite(sqlDB),
		Records: NewRecordSQLite(sqlDB),
		Auth:    NewUserRepository(sqlDB),
	}
}

// InitDB opens the SQLite file and ensures the schema exists.
func InitDB(path string) (*sql.DB, error) {
	return db.InitDB(path)
}
