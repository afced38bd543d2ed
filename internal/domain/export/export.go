package export

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusReady      Status = "ready"
	StatusFailed     Status = "failed"
)

type Failure struct {
	URL    string `json:"url"`
	Reason string `json:"reason"`
}

// Job is a background archive build requested by a host.
type Job struct {
	ID           uuid.UUID  `json:"id"`
	WeddingID    string     `json:"wedding_id"`
	Status       Status     `json:"status"`
	ArchiveName  string     `json:"archive_name"`
	ArchiveURL   *string    `json:"archive_url"`
	TotalItems   int        `json:"total_items"`
	FailedItems  int        `json:"failed_items"`
	Failures     []Failure  `json:"failures"`
	ErrorMessage *string    `json:"error_message"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	CompletedAt  *time.Time `json:"completed_at"`
}

func (j *Job) Finished() bool {
	return j.Status == StatusReady || j.Status == StatusFailed
}

type Repository interface {
	Save(ctx context.Context, job *Job) error
	Update(ctx context.Context, job *Job) error
	FindByID(ctx context.Context, id uuid.UUID, weddingID string) (*Job, error)
	ListByWedding(ctx context.Context, weddingID string, limit int) ([]*Job, error)
}

// ProgressStore keeps the live 0-100 progress of running jobs.
type ProgressStore interface {
	SetProgress(ctx context.Context, id uuid.UUID, percent int) error
	GetProgress(ctx context.Context, id uuid.UUID) (int, error)
}
