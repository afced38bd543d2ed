package capture

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"time"

	"github.com/khoahotran/wedding-memories/internal/application/service"
	"github.com/khoahotran/wedding-memories/internal/domain/memory"
	"github.com/khoahotran/wedding-memories/pkg/apperror"
)

var ErrSessionStopped = errors.New("recording session already stopped")

const chunkQueueSize = 64

// RecordingSession buffers the chunks of one video or audio recording.
// Append may be called from any goroutine; a single collector appends chunks
// to the buffer in the order Append accepted them.
type RecordingSession struct {
	kind      memory.Kind
	startedAt time.Time
	now       func() time.Time

	mu       sync.Mutex
	recorder service.Recorder
	stopping bool
	closed   bool

	chunks chan []byte
	done   chan struct{}
	buf    [][]byte
}

// StartRecording starts the platform recorder on an acquired handle.
func StartRecording(ctx context.Context, h *DeviceHandle) (*RecordingSession, error) {
	if h == nil || h.released {
		return nil, apperror.NewDeviceUnavailable("no active capture device", nil)
	}
	if !h.Kind.Recorded() {
		return nil, apperror.NewInvalidInput("photo capture does not record", nil)
	}

	s := newRecordingSession(h.Kind, time.Now)
	rec, err := h.stream.Record(ctx, func(chunk []byte) {
		_ = s.Append(chunk)
	})
	if err != nil {
		s.Abort()
		return nil, apperror.NewDeviceUnavailable("failed to start recorder", err)
	}

	s.mu.Lock()
	s.recorder = rec
	s.mu.Unlock()
	return s, nil
}

func newRecordingSession(kind memory.Kind, now func() time.Time) *RecordingSession {
	s := &RecordingSession{
		kind:      kind,
		startedAt: now(),
		now:       now,
		chunks:    make(chan []byte, chunkQueueSize),
		done:      make(chan struct{}),
	}
	go s.collect()
	return s
}

func (s *RecordingSession) collect() {
	defer close(s.done)
	for chunk := range s.chunks {
		s.buf = append(s.buf, chunk)
	}
}

// Append queues a copy of chunk. Empty chunks are ignored.
func (s *RecordingSession) Append(chunk []byte) error {
	if len(chunk) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSessionStopped
	}

	c := make([]byte, len(chunk))
	copy(c, chunk)
	s.chunks <- c
	return nil
}

// Stop finalizes the buffer into one asset. Calling it again returns nil, nil.
func (s *RecordingSession) Stop() (*memory.MediaAsset, error) {
	chunks, ok, stopErr := s.finish()
	if !ok {
		return nil, nil
	}

	payload := bytes.Join(chunks, nil)
	if len(payload) == 0 {
		if stopErr != nil {
			return nil, apperror.NewDeviceUnavailable("recorder failed", stopErr)
		}
		return nil, apperror.NewInvalidInput("recording is empty", nil)
	}

	return &memory.MediaAsset{
		Kind:     s.kind,
		Payload:  payload,
		MimeType: s.kind.RecordingMIME(),
		Filename: s.kind.RecordingFilename(),
		Duration: s.now().Sub(s.startedAt),
	}, nil
}

// Abort stops the recorder and drops everything buffered so far.
func (s *RecordingSession) Abort() {
	s.finish()
}

func (s *RecordingSession) finish() ([][]byte, bool, error) {
	s.mu.Lock()
	if s.stopping {
		s.mu.Unlock()
		return nil, false, nil
	}
	s.stopping = true
	rec := s.recorder
	s.mu.Unlock()

	// The recorder flushes its tail through Append, so the lock is not held here.
	var stopErr error
	if rec != nil {
		stopErr = rec.Stop()
	}

	s.mu.Lock()
	s.closed = true
	close(s.chunks)
	s.mu.Unlock()

	<-s.done
	chunks := s.buf
	s.buf = nil
	return chunks, true, stopErr
}
