package preview

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"io"
	"os"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/khoahotran/wedding-memories/internal/domain/memory"
	"github.com/khoahotran/wedding-memories/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func jpegBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := imaging.New(w, h, color.NRGBA{R: 200, G: 100, B: 50, A: 255})
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, nil))
	return buf.Bytes()
}

func TestPhotoPreviewIsDownscaled(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFilesystemStore(dir, logger.NewNopLogger())
	require.NoError(t, err)

	ref, err := s.Create(t.Context(), &memory.MediaAsset{Kind: memory.KindPhoto, Payload: jpegBytes(t, 1920, 1080), MimeType: "image/jpeg"})
	require.NoError(t, err)

	rc, mime, err := s.Open(ref)
	require.NoError(t, err)
	defer rc.Close()
	assert.Equal(t, "image/jpeg", mime)

	cfg, _, err := image.DecodeConfig(rc)
	require.NoError(t, err)
	assert.Equal(t, 800, cfg.Width)
	assert.Equal(t, 450, cfg.Height)
}

func TestRecordingPreviewKeepsBytes(t *testing.T) {
	s, err := NewFilesystemStore(t.TempDir(), logger.NewNopLogger())
	require.NoError(t, err)

	ref, err := s.Create(t.Context(), &memory.MediaAsset{Kind: memory.KindAudio, Payload: []byte("webm"), MimeType: "audio/webm"})
	require.NoError(t, err)

	rc, mime, err := s.Open(ref)
	require.NoError(t, err)
	data, _ := io.ReadAll(rc)
	rc.Close()
	assert.Equal(t, "audio/webm", mime)
	assert.Equal(t, "webm", string(data))
}

func TestReleaseRemovesFile(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFilesystemStore(dir, logger.NewNopLogger())
	require.NoError(t, err)

	ref, err := s.Create(t.Context(), &memory.MediaAsset{Kind: memory.KindVideo, Payload: []byte("v"), MimeType: "video/webm"})
	require.NoError(t, err)
	require.Equal(t, 1, s.Len())

	require.NoError(t, s.Release(ref))
	require.NoError(t, s.Release(ref))
	assert.Equal(t, 0, s.Len())

	files, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, files)

	_, _, err = s.Open(ref)
	assert.Error(t, err)
}
