package capture

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/khoahotran/wedding-memories/internal/application/service"
	"github.com/khoahotran/wedding-memories/internal/domain/memory"
	"github.com/khoahotran/wedding-memories/pkg/apperror"
	"github.com/khoahotran/wedding-memories/pkg/logger"
	"github.com/khoahotran/wedding-memories/pkg/metrics"
	"go.uber.org/zap"
)

const (
	idealWidth  = 1920
	idealHeight = 1080
)

// DeviceHandle is an owned camera/microphone stream. It must be handed back
// to DeviceAdapter.Release on every exit path.
type DeviceHandle struct {
	ID         uuid.UUID
	Kind       memory.Kind
	AcquiredAt time.Time
	Degraded   bool

	stream   service.MediaStream
	released bool
}

type DeviceStats struct {
	Acquired int
	Released int
}

type DeviceAdapter struct {
	device service.CaptureDevice
	logger logger.Logger

	mu       sync.Mutex
	current  *DeviceHandle
	acquired int
	released int
}

func NewDeviceAdapter(device service.CaptureDevice, log logger.Logger) *DeviceAdapter {
	return &DeviceAdapter{device: device, logger: log.With(zap.String("component", "device_adapter"))}
}

func ConstraintsFor(kind memory.Kind) service.Constraints {
	switch kind {
	case memory.KindAudio:
		return service.Constraints{Audio: true}
	case memory.KindVideo:
		return service.Constraints{Video: true, Audio: true, FacingMode: service.FacingBack, IdealWidth: idealWidth, IdealHeight: idealHeight}
	default:
		return service.Constraints{Video: true, FacingMode: service.FacingBack, IdealWidth: idealWidth, IdealHeight: idealHeight}
	}
}

func (a *DeviceAdapter) Acquire(ctx context.Context, kind memory.Kind) (*DeviceHandle, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.current != nil {
		metrics.RecordAcquisition(string(kind), "busy")
		return nil, apperror.NewDeviceUnavailable("device busy", nil)
	}

	c := ConstraintsFor(kind)
	degraded := false
	stream, err := a.device.Open(ctx, c)
	if errors.Is(err, service.ErrConstraintsUnsatisfiable) && c != c.Relaxed() {
		a.logger.Warn("Capture constraints not satisfiable, retrying without preferences", zap.String("kind", string(kind)))
		degraded = true
		stream, err = a.device.Open(ctx, c.Relaxed())
	}
	if err != nil {
		metrics.RecordAcquisition(string(kind), "error")
		a.logger.Warn("Failed to acquire capture device", zap.String("kind", string(kind)), zap.Error(err))
		return nil, apperror.NewDeviceUnavailable(describeDeviceError(err), err)
	}

	h := &DeviceHandle{
		ID:         uuid.New(),
		Kind:       kind,
		AcquiredAt: time.Now().UTC(),
		Degraded:   degraded,
		stream:     stream,
	}
	a.current = h
	a.acquired++
	metrics.RecordAcquisition(string(kind), "success")
	a.logger.Debug("Capture device acquired", zap.String("handle_id", h.ID.String()), zap.String("kind", string(kind)))
	return h, nil
}

// Release stops every track of the handle. Releasing nil or an already
// released handle does nothing.
func (a *DeviceAdapter) Release(h *DeviceHandle) {
	if h == nil {
		return
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if h.released {
		return
	}
	h.released = true
	if h.stream != nil {
		if err := h.stream.Close(); err != nil {
			a.logger.Warn("Capture stream did not close cleanly", zap.String("handle_id", h.ID.String()), zap.Error(err))
		}
	}
	a.released++
	if a.current == h {
		a.current = nil
	}
	a.logger.Debug("Capture device released", zap.String("handle_id", h.ID.String()))
}

func (a *DeviceAdapter) Stats() DeviceStats {
	a.mu.Lock()
	defer a.mu.Unlock()
	return DeviceStats{Acquired: a.acquired, Released: a.released}
}

// InUse reports whether a handle is currently outstanding.
func (a *DeviceAdapter) InUse() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.current != nil
}

func describeDeviceError(err error) string {
	switch {
	case errors.Is(err, service.ErrPermissionDenied):
		return "permission to use the camera or microphone was denied"
	case errors.Is(err, service.ErrNoDevice):
		return "no camera or microphone was found"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "device acquisition was interrupted"
	}
	return "failed to access the camera or microphone"
}
