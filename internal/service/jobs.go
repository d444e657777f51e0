package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"logsift/internal/models"
	"logsift/internal/repository"
	"logsift/internal/worker"

	"github.com/google/uuid"
)

var errEmptyUpload = errors.New("uploaded file is empty")

// JobsService creates jobs and hands them to the worker queue.
type JobsService struct {
	jobRepo repository.JobRepo
	queue   TaskQueue
}

func NewJobsService(jobRepo repository.JobRepo, queue TaskQueue) *JobsService {
	return &JobsService{jobRepo: jobRepo, queue: queue}
}

// Upload registers a queued job for the file and submits it for async
// processing. The returned job carries the id clients poll.
func (s *JobsService) Upload(ctx context.Context, filename, content string) (models.Job, error) {
	if len(content) == 0 {
		return models.Job{}, errEmptyUpload
	}

	now := time.Now().UTC()
	j := models.Job{
		ID:        uuid.NewString(),
		Filename:  filename,
		Status:    models.JobQueued,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.jobRepo.Create(ctx, j); err != nil {
		return models.Job{}, fmt.Errorf("create job: %w", err)
	}

	if err := s.queue.Submit(worker.Task{JobID: j.ID, Filename: filename, Content: content}); err != nil {
		// The job row exists; record why it will never run.
		if ferr := s.jobRepo.Fail(ctx, j.ID, err.Error()); ferr != nil {
			return models.Job{}, fmt.Errorf("enqueue job: %w (and recording failure: %v)", err, ferr)
		}
		return models.Job{}, fmt.Errorf("enqueue job: %w", err)
	}
	return j, nil
}

// Status returns the current job row.
func (s *JobsService) Status(ctx context.Context, id string) (models.Job, error) {
	return s.jobRepo.Get(ctx, id)
}
