package preview

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"github.com/khoahotran/wedding-memories/internal/application/service"
	"github.com/khoahotran/wedding-memories/internal/domain/memory"
	"github.com/khoahotran/wedding-memories/pkg/logger"
	"go.uber.org/zap"
)

const previewWidth = 800

type entry struct {
	path string
	mime string
}

// FilesystemStore spools previews of pending assets to a local directory.
// Photos are downscaled to a JPEG; recordings are kept as they are.
type FilesystemStore struct {
	dir    string
	logger logger.Logger

	mu      sync.Mutex
	entries map[string]entry
}

func NewFilesystemStore(dir string, log logger.Logger) (*FilesystemStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create preview dir: %w", err)
	}
	return &FilesystemStore{dir: dir, logger: log, entries: make(map[string]entry)}, nil
}

var _ service.PreviewStore = (*FilesystemStore)(nil)

func (s *FilesystemStore) Create(_ context.Context, asset *memory.MediaAsset) (string, error) {
	ref := uuid.NewString()
	e := entry{path: filepath.Join(s.dir, ref), mime: asset.MimeType}

	written := false
	if asset.Kind == memory.KindPhoto {
		if err := s.writeThumbnail(e.path, asset.Payload); err != nil {
			s.logger.Debug("Photo preview falls back to the original bytes", zap.Error(err))
		} else {
			e.mime = "image/jpeg"
			written = true
		}
	}
	if !written {
		if err := os.WriteFile(e.path, asset.Payload, 0o600); err != nil {
			return "", fmt.Errorf("write preview: %w", err)
		}
	}

	s.mu.Lock()
	s.entries[ref] = e
	s.mu.Unlock()
	return ref, nil
}

func (s *FilesystemStore) writeThumbnail(path string, payload []byte) error {
	img, err := imaging.Decode(bytes.NewReader(payload), imaging.AutoOrientation(true))
	if err != nil {
		return err
	}
	if img.Bounds().Dx() > previewWidth {
		img = imaging.Resize(img, previewWidth, 0, imaging.Lanczos)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return err
	}
	if err := imaging.Encode(f, img, imaging.JPEG, imaging.JPEGQuality(85)); err != nil {
		f.Close()
		os.Remove(path)
		return err
	}
	return f.Close()
}

func (s *FilesystemStore) Open(ref string) (io.ReadCloser, string, error) {
	s.mu.Lock()
	e, ok := s.entries[ref]
	s.mu.Unlock()
	if !ok {
		return nil, "", fmt.Errorf("preview %s not found", ref)
	}
	f, err := os.Open(e.path)
	if err != nil {
		return nil, "", err
	}
	return f, e.mime, nil
}

// Release deletes the preview. Unknown refs are ignored.
func (s *FilesystemStore) Release(ref string) error {
	s.mu.Lock()
	e, ok := s.entries[ref]
	delete(s.entries, ref)
	s.mu.Unlock()
	if !ok {
		return nil
	}
	if err := os.Remove(e.path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// Len reports how many previews are currently held.
func (s *FilesystemStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
