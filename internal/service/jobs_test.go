package service

import (
	"context"
	"errors"
	"testing"

	"logsift/internal/models"
	"logsift/internal/worker"
)

type fakeJobRepo struct {
	created    []models.Job
	createErr  error
	failedID   string
	failReason string
	getResp    models.Job
	getErr     error
}

func (f *fakeJobRepo) Create(_ context.Context, j models.Job) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.created = append(f.created, j)
	return nil
}
func (f *fakeJobRepo) SetStatus(context.Context, string, string) error { return nil }
func (f *fakeJobRepo) Complete(context.Context, string, int) error     { return nil }
func (f *fakeJobRepo) Fail(_ context.Context, id, reason string) error {
	f.failedID = id
	f.failReason = reason
	return nil
}
func (f *fakeJobRepo) Get(context.Context, string) (models.Job, error) {
	return f.getResp, f.getErr
}

type fakeQueue struct {
	err  error
	got  []worker.Task
}

func (f *fakeQueue) Submit(t worker.Task) error {
	if f.err != nil {
		return f.err
	}
	f.got = append(f.got, t)
	return nil
}

func TestUpload_CreatesAndEnqueues(t *testing.T) {
	t.Parallel()

	repo := &fakeJobRepo{}
	q := &fakeQueue{}
	svc := NewJobsService(repo, q)

	j, err := svc.Upload(context.Background(), "app.log", "line\n")
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if j.ID == "" || j.Status != models.JobQueued || j.Filename != "app.log" {
		t.Fatalf("unexpected job: %+v", j)
	}
	if len(repo.created) != 1 || repo.created[0].ID != j.ID {
		t.Fatalf("job row not created: %+v", repo.created)
	}
	if len(q.got) != 1 || q.got[0].JobID != j.ID || q.got[0].Content != "line\n" {
		t.Fatalf("task not enqueued: %+v", q.got)
	}
}

func TestUpload_QueueFullFailsJob(t *testing.T) {
	t.Parallel()

	repo := &fakeJobRepo{}
	q := &fakeQueue{err: worker.ErrQueueFull}
	svc := NewJobsService(repo, q)

	_, err := svc.Upload(context.Background(), "app.log", "line")
	if !errors.Is(err, worker.ErrQueueFull) {
		t.Fatalf("expected ErrQueueFull, got %v", err)
	}
	if len(repo.created) != 1 {
		t.Fatal("job row should exist before enqueue")
	}
	if repo.failedID != repo.created[0].ID || repo.failReason == "" {
		t.Fatalf("job not marked failed: id=%q reason=%q", repo.failedID, repo.failReason)
	}
}

func TestUpload_EmptyContentRejected(t *testing.T) {
	t.Parallel()

	repo := &fakeJobRepo{}
	svc := NewJobsService(repo, &fakeQueue{})

	if _, err := svc.Upload(context.Background(), "empty.log", ""); err == nil {
		t.Fatal("expected error for empty upload")
	}
	if len(repo.created) != 0 {
		t.Fatal("no job row should be created for an empty upload")
	}
}
