package models

import "time"

// Job lifecycle statuses.
const (
	JobQueued     = "queued"
	JobProcessing = "processing"
	JobCompleted  = "completed"
	JobFailed     = "failed"
)

// Job tracks one uploaded log file through the async pipeline.
type Job struct {
	ID             string    `json:"job_id"`
	Filename       string    `json:"filename"`
	Status         string    `json:"status"` // queued | processing | completed | failed
	ProcessedCount int       `json:"processed_count"`
	Error          string    `json:"error,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}
