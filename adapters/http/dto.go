package http

import (
	"time"

	"github.com/khoahotran/wedding-memories/internal/domain/export"
	"github.com/khoahotran/wedding-memories/internal/domain/memory"
)

// Session DTOs

type GuestSessionRequest struct {
	WeddingID string `json:"wedding_id" binding:"required"`
	PIN       string `json:"pin" binding:"required"`
	GuestName string `json:"guest_name"`
	GuestID   string `json:"guest_id"`
}

type GuestSessionResponse struct {
	AccessToken string        `json:"access_token"`
	Guest       *memory.Guest `json:"guest"`
	Wedding     *WeddingDTO   `json:"wedding"`
}

type HostSessionRequest struct {
	WeddingID string `json:"wedding_id" binding:"required"`
	Password  string `json:"password" binding:"required"`
}

// WeddingDTO leaves the PIN out.
type WeddingDTO struct {
	ID        string `json:"id"`
	BrideName string `json:"bride_name"`
	GroomName string `json:"groom_name"`
	Date      string `json:"date"`
	Location  string `json:"location"`
}

func ToWeddingDTO(w *memory.Wedding) *WeddingDTO {
	if w == nil {
		return nil
	}
	return &WeddingDTO{
		ID:        w.ID,
		BrideName: w.BrideName,
		GroomName: w.GroomName,
		Date:      w.Date,
		Location:  w.Location,
	}
}

// Capture DTOs

type SwitchModeRequest struct {
	Mode string `json:"mode" binding:"required,oneof=photo video audio"`
}

type CreateMessageRequest struct {
	Content string `json:"content" binding:"required"`
}

// Export DTOs

type ExportJobDTO struct {
	ID           string           `json:"id"`
	Status       string           `json:"status"`
	Progress     int              `json:"progress"`
	ArchiveName  string           `json:"archive_name"`
	ArchiveURL   *string          `json:"archive_url,omitempty"`
	TotalItems   int              `json:"total_items"`
	FailedItems  int              `json:"failed_items"`
	Failures     []export.Failure `json:"failures"`
	ErrorMessage *string          `json:"error_message,omitempty"`
	CreatedAt    time.Time        `json:"created_at"`
	CompletedAt  *time.Time       `json:"completed_at,omitempty"`
}

func ToExportJobDTO(j *export.Job, progress int) ExportJobDTO {
	failures := j.Failures
	if failures == nil {
		failures = []export.Failure{}
	}
	return ExportJobDTO{
		ID:           j.ID.String(),
		Status:       string(j.Status),
		Progress:     progress,
		ArchiveName:  j.ArchiveName,
		ArchiveURL:   j.ArchiveURL,
		TotalItems:   j.TotalItems,
		FailedItems:  j.FailedItems,
		Failures:     failures,
		ErrorMessage: j.ErrorMessage,
		CreatedAt:    j.CreatedAt,
		CompletedAt:  j.CompletedAt,
	}
}

type ShareResponse struct {
	Link string `json:"link"`
}
