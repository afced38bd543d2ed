package service

import (
	"context"
	"io"

	"github.com/khoahotran/wedding-memories/internal/domain/memory"
)

// PreviewStore holds local previews of pending assets until they are released.
type PreviewStore interface {
	Create(ctx context.Context, asset *memory.MediaAsset) (string, error)
	Open(ref string) (io.ReadCloser, string, error)
	Release(ref string) error
}
