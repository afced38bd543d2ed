package submission

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/khoahotran/wedding-memories/internal/application/service"
	"github.com/khoahotran/wedding-memories/internal/domain/memory"
	"github.com/khoahotran/wedding-memories/pkg/apperror"
	"github.com/khoahotran/wedding-memories/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAPI struct {
	service.MemoryAPI

	mu       sync.Mutex
	uploads  []service.UploadRequest
	bodies   [][]byte
	messages []string
	err      error
}

func (f *fakeAPI) UploadMemory(_ context.Context, req service.UploadRequest) (*memory.Record, error) {
	body, _ := io.ReadAll(req.File)
	f.mu.Lock()
	defer f.mu.Unlock()
	f.uploads = append(f.uploads, req)
	f.bodies = append(f.bodies, body)
	if f.err != nil {
		return nil, f.err
	}
	return &memory.Record{ID: "r1", Kind: req.Kind, URL: "https://cdn/r1", GuestID: req.GuestID, WeddingID: req.WeddingID, Duration: req.Duration}, nil
}

func (f *fakeAPI) CreateMessage(_ context.Context, weddingID, guestID, content string) (*memory.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages = append(f.messages, content)
	return &memory.Message{ID: "m1", Content: content, GuestID: guestID, WeddingID: weddingID}, nil
}

type fixedDuration struct {
	d   time.Duration
	err error
}

func (f fixedDuration) Duration([]byte) (time.Duration, error) { return f.d, f.err }

type recordingPublisher struct {
	events chan service.MemoryEventPayload
}

func (p *recordingPublisher) PublishMemoryEvent(_ context.Context, e service.MemoryEventPayload) error {
	p.events <- e
	return nil
}

func (p *recordingPublisher) PublishExportRequest(context.Context, service.ExportRequestPayload) error {
	return nil
}

var guest = memory.CaptureContext{GuestID: "g1", WeddingID: "w1"}

func TestSubmitPhotoSendsOneUpload(t *testing.T) {
	api := &fakeAPI{}
	pub := &recordingPublisher{events: make(chan service.MemoryEventPayload, 1)}
	uc := NewSubmitUseCase(api, nil, pub, logger.NewNopLogger())

	asset := &memory.MediaAsset{Kind: memory.KindPhoto, Payload: []byte("jpeg"), MimeType: "image/jpeg", Filename: "photo.jpg"}
	rec, err := uc.Submit(t.Context(), asset, guest)
	require.NoError(t, err)
	assert.Equal(t, "r1", rec.ID)

	require.Len(t, api.uploads, 1)
	assert.Equal(t, memory.KindPhoto, api.uploads[0].Kind)
	assert.Equal(t, "photo.jpg", api.uploads[0].Filename)
	assert.Empty(t, api.uploads[0].Duration)
	assert.Equal(t, []byte("jpeg"), api.bodies[0])

	select {
	case e := <-pub.events:
		assert.Equal(t, service.MemoryEventTypeSubmitted, e.EventType)
		assert.Equal(t, "r1", e.RecordID)
	case <-time.After(time.Second):
		t.Fatal("memory event was not published")
	}
}

func TestSubmitAudioUsesContainerDuration(t *testing.T) {
	api := &fakeAPI{}
	uc := NewSubmitUseCase(api, fixedDuration{d: 12700 * time.Millisecond}, nil, logger.NewNopLogger())

	asset := &memory.MediaAsset{Kind: memory.KindAudio, Payload: []byte("webm"), MimeType: "audio/webm", Filename: "audio.webm", Duration: 3 * time.Second}
	_, err := uc.Submit(t.Context(), asset, guest)
	require.NoError(t, err)
	assert.Equal(t, "12s", api.uploads[0].Duration)
}

func TestSubmitAudioFallsBackToRecordedLength(t *testing.T) {
	api := &fakeAPI{}
	uc := NewSubmitUseCase(api, fixedDuration{err: errors.New("no duration")}, nil, logger.NewNopLogger())

	asset := &memory.MediaAsset{Kind: memory.KindAudio, Payload: []byte("webm"), Duration: 4 * time.Second}
	_, err := uc.Submit(t.Context(), asset, guest)
	require.NoError(t, err)
	assert.Equal(t, "4s", api.uploads[0].Duration)
}

func TestSubmitErrorIsReturnedVerbatim(t *testing.T) {
	uploadErr := apperror.NewUploadError(413, "File too large", nil)
	api := &fakeAPI{err: uploadErr}
	uc := NewSubmitUseCase(api, nil, nil, logger.NewNopLogger())

	_, err := uc.Submit(t.Context(), &memory.MediaAsset{Kind: memory.KindVideo, Payload: []byte("v")}, guest)
	assert.Same(t, uploadErr, err)
	assert.Len(t, api.uploads, 1)
}

func TestSubmitRejectsMissingContext(t *testing.T) {
	api := &fakeAPI{}
	uc := NewSubmitUseCase(api, nil, nil, logger.NewNopLogger())

	_, err := uc.Submit(t.Context(), &memory.MediaAsset{Kind: memory.KindPhoto, Payload: []byte("x")}, memory.CaptureContext{GuestID: "g"})
	assert.ErrorIs(t, err, apperror.ErrInvalidInput)
	assert.Empty(t, api.uploads)
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "0s", FormatDuration(400*time.Millisecond))
	assert.Equal(t, "61s", FormatDuration(61*time.Second))
	assert.Equal(t, "0s", FormatDuration(-time.Second))
}

func TestCreateMessageTrimsContent(t *testing.T) {
	api := &fakeAPI{}
	uc := NewCreateMessageUseCase(api, logger.NewNopLogger())

	msg, err := uc.Execute(t.Context(), CreateMessageInput{Capture: guest, Content: "  Felicidades!  "})
	require.NoError(t, err)
	assert.Equal(t, "Felicidades!", msg.Content)

	_, err = uc.Execute(t.Context(), CreateMessageInput{Capture: guest, Content: "   "})
	assert.ErrorIs(t, err, apperror.ErrInvalidInput)
	assert.Len(t, api.messages, 1)
}
