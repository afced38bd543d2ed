package service

import (
	"context"
	"io"

	"github.com/khoahotran/wedding-memories/internal/domain/memory"
)

type UploadRequest struct {
	Kind      memory.Kind
	File      io.Reader
	Filename  string
	MimeType  string
	GuestID   string
	WeddingID string
	Duration  string
}

// MemoryAPI is the remote REST API that owns weddings, guests and memories.
type MemoryAPI interface {
	UploadMemory(ctx context.Context, req UploadRequest) (*memory.Record, error)
	CreateMessage(ctx context.Context, weddingID, guestID, content string) (*memory.Message, error)
	GetMemories(ctx context.Context, weddingID string) (*memory.Memories, error)
	GetWedding(ctx context.Context, weddingID string) (*memory.Wedding, error)
	VerifyPIN(ctx context.Context, weddingID, pin string) (bool, error)
	VerifyPassword(ctx context.Context, weddingID, password string) (bool, error)
	CreateGuest(ctx context.Context, weddingID, name string) (*memory.Guest, error)
	ListGuests(ctx context.Context, weddingID string) ([]*memory.Guest, error)
}
