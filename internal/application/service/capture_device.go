package service

import (
	"context"
	"errors"
)

var (
	// ErrConstraintsUnsatisfiable is returned by Open when the hardware cannot
	// honour the requested resolution or facing mode.
	ErrConstraintsUnsatisfiable = errors.New("capture constraints cannot be satisfied")
	ErrPermissionDenied         = errors.New("capture permission denied")
	ErrNoDevice                 = errors.New("no capture device found")
)

const FacingBack = "environment"

type Constraints struct {
	Video       bool
	Audio       bool
	FacingMode  string
	IdealWidth  int
	IdealHeight int
}

// Relaxed drops every preference the platform may be unable to honour.
func (c Constraints) Relaxed() Constraints {
	return Constraints{Video: c.Video, Audio: c.Audio}
}

// CaptureDevice opens camera and microphone streams.
type CaptureDevice interface {
	Open(ctx context.Context, c Constraints) (MediaStream, error)
}

type MediaStream interface {
	// GrabFrame returns the current camera frame encoded as JPEG.
	GrabFrame(ctx context.Context) ([]byte, error)
	// Record starts the platform recorder. Chunks are delivered to sink in
	// production order; the recorder flushes its tail before Stop returns.
	Record(ctx context.Context, sink func(chunk []byte)) (Recorder, error)
	// Close stops every track of the stream.
	Close() error
}

type Recorder interface {
	Stop() error
}
