package service

import (
	"context"

	"github.com/google/uuid"
)

const MemoryEventTypeSubmitted = "memory.submitted"

type MemoryEventPayload struct {
	EventType string `json:"event_type"`
	RecordID  string `json:"record_id"`
	Kind      string `json:"kind"`
	URL       string `json:"url"`
	GuestID   string `json:"guest_id"`
	WeddingID string `json:"wedding_id"`
	Bytes     int    `json:"bytes"`
}

type ExportRequestPayload struct {
	JobID     uuid.UUID `json:"job_id"`
	WeddingID string    `json:"wedding_id"`
}

type EventPublisher interface {
	PublishMemoryEvent(ctx context.Context, payload MemoryEventPayload) error
	PublishExportRequest(ctx context.Context, payload ExportRequestPayload) error
}
