package service

import (
	"context"

	"logsift"
	"logsift/internal/ai"
	"logsift/internal/logger"
	"logsift/internal/models"
	"logsift/internal/repository"
	"logsift/internal/worker"
)

// AnomalyFlagThreshold is the score at or above which a record counts as a
// flagged anomaly in analytics and assist candidate selection.
const AnomalyFlagThreshold = 0.9

type Authorization interface {
	SignUp(username, password string) (int, error)
	GenerateToken(username, password string) (string, error)
	ParseToken(accessToken string) (int, error)
}

// Ingest runs the parse→score→persist pipeline over one uploaded file.
type Ingest interface {
	ProcessFile(ctx context.Context, jobID, content string) (int, error)
}

// Jobs creates upload jobs and exposes their status.
type Jobs interface {
	Upload(ctx context.Context, filename, content string) (models.Job, error)
	Status(ctx context.Context, id string) (models.Job, error)
}

// LogQuery exposes filtered access to stored records.
type LogQuery interface {
	List(ctx context.Context, f LogFilter) ([]models.LogRecord, error)
}

// Analytics aggregates stored records into the overview response.
type Analytics interface {
	Overview(ctx context.Context) (logsift.AnalyticsResponse, error)
}

// Assist answers natural-language questions about the logs via similarity
// search plus a narrative analysis collaborator.
type Assist interface {
	Ask(ctx context.Context, req logsift.AskRequest) (logsift.AskResponse, error)
}

// TaskQueue decouples job creation from the worker runtime. *worker.Pool
// satisfies it.
type TaskQueue interface {
	Submit(t worker.Task) error
}

//
// Root Service aggregates all sub-services.
//

type Service struct {
	Ingest
	Jobs
	LogQuery
	Analytics
	Assist
	Authorization
}

// Deps carries everything the sub-services need. Embedder and Completer may
// be nil when the AI collaborators are not configured; Assist degrades
// accordingly.
type Deps struct {
	Repos      *repository.Repository
	Queue      TaskQueue
	Embedder   ai.Embedder
	Completer  ai.Completer
	Log        *logger.Logger
	SigningKey string
}

// NewService wires the repository layer and collaborators into concrete
// services.
func NewService(d Deps) *Service {
	return &Service{
		Ingest:        NewIngestService(d.Repos.Records, d.Log),
		Jobs:          NewJobsService(d.Repos.Jobs, d.Queue),
		LogQuery:      NewLogQueryService(d.Repos.Records),
		Analytics:     NewAnalyticsService(d.Repos.Records),
		Assist:        NewAssistService(d.Repos.Records, d.Embedder, d.Completer, d.Log),
		Authorization: NewAuthService(d.Repos.Auth, d.SigningKey),
	}
}
