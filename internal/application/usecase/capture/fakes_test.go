package capture

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/khoahotran/wedding-memories/internal/application/service"
	"github.com/khoahotran/wedding-memories/internal/domain/memory"
	"github.com/khoahotran/wedding-memories/pkg/logger"
)

func nopLogger() logger.Logger {
	return logger.NewNopLogger()
}

type fakeDevice struct {
	mu         sync.Mutex
	opened     []service.Constraints
	failStrict bool
	err        error
	streams    []*fakeStream
	frame      []byte
	tail       [][]byte
	frameErr   error
	recordErr  error
}

func (d *fakeDevice) Open(_ context.Context, c service.Constraints) (service.MediaStream, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.opened = append(d.opened, c)
	if d.err != nil {
		return nil, d.err
	}
	if d.failStrict && c.IdealWidth > 0 {
		return nil, service.ErrConstraintsUnsatisfiable
	}
	s := &fakeStream{frame: d.frame, tail: d.tail, frameErr: d.frameErr, recordErr: d.recordErr}
	d.streams = append(d.streams, s)
	return s, nil
}

func (d *fakeDevice) lastStream() *fakeStream {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.streams[len(d.streams)-1]
}

type fakeStream struct {
	mu        sync.Mutex
	frame     []byte
	tail      [][]byte
	frameErr  error
	recordErr error
	sink      func([]byte)
	closed    int
}

func (s *fakeStream) GrabFrame(context.Context) ([]byte, error) {
	if s.frameErr != nil {
		return nil, s.frameErr
	}
	return s.frame, nil
}

func (s *fakeStream) Record(_ context.Context, sink func([]byte)) (service.Recorder, error) {
	if s.recordErr != nil {
		return nil, s.recordErr
	}
	s.mu.Lock()
	s.sink = sink
	s.mu.Unlock()
	return &fakeRecorder{stream: s}, nil
}

func (s *fakeStream) emit(chunk []byte) {
	s.mu.Lock()
	sink := s.sink
	s.mu.Unlock()
	sink(chunk)
}

func (s *fakeStream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed++
	return nil
}

type fakeRecorder struct {
	stream *fakeStream
}

func (r *fakeRecorder) Stop() error {
	for _, c := range r.stream.tail {
		r.stream.emit(c)
	}
	return nil
}

type fakePreviews struct {
	mu       sync.Mutex
	next     int
	live     map[string][]byte
	released []string
}

func newFakePreviews() *fakePreviews {
	return &fakePreviews{live: make(map[string][]byte)}
}

func (p *fakePreviews) Create(_ context.Context, a *memory.MediaAsset) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.next++
	ref := fmt.Sprintf("preview-%d", p.next)
	p.live[ref] = a.Payload
	return ref, nil
}

func (p *fakePreviews) Open(ref string) (io.ReadCloser, string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	data, ok := p.live[ref]
	if !ok {
		return nil, "", errors.New("unknown preview")
	}
	return io.NopCloser(bytes.NewReader(data)), "application/octet-stream", nil
}

func (p *fakePreviews) Release(ref string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.live, ref)
	p.released = append(p.released, ref)
	return nil
}

func (p *fakePreviews) liveCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.live)
}

type fakeSubmitter struct {
	mu      sync.Mutex
	err     error
	calls   int
	last    *memory.MediaAsset
	started chan struct{}
	release chan struct{}
}

func (s *fakeSubmitter) Submit(_ context.Context, a *memory.MediaAsset, cc memory.CaptureContext) (*memory.Record, error) {
	s.mu.Lock()
	s.calls++
	s.last = a
	err := s.err
	started, release := s.started, s.release
	s.mu.Unlock()

	if started != nil {
		close(started)
	}
	if release != nil {
		<-release
	}
	if err != nil {
		return nil, err
	}
	return &memory.Record{ID: "rec-1", Kind: a.Kind, URL: "https://cdn/x", GuestID: cc.GuestID, WeddingID: cc.WeddingID}, nil
}
