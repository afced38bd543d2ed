package capture

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/khoahotran/wedding-memories/internal/application/service"
	"github.com/khoahotran/wedding-memories/internal/domain/memory"
	"github.com/khoahotran/wedding-memories/pkg/apperror"
	"github.com/khoahotran/wedding-memories/pkg/logger"
	"go.uber.org/zap"
)

type State string

const (
	StateIdle         State = "idle"
	StateDeviceActive State = "device_active"
	StateRecording    State = "recording"
	StatePreviewing   State = "previewing"
	StateSubmitting   State = "submitting"
	StateError        State = "error"
)

// Submitter uploads a pending asset for the capture context.
type Submitter interface {
	Submit(ctx context.Context, asset *memory.MediaAsset, cc memory.CaptureContext) (*memory.Record, error)
}

type SelectedFile struct {
	Filename string
	MimeType string
	Data     []byte
}

type PendingAsset struct {
	Kind       memory.Kind   `json:"kind"`
	MimeType   string        `json:"mime_type"`
	Filename   string        `json:"filename"`
	Size       int           `json:"size"`
	Duration   time.Duration `json:"duration"`
	HasPreview bool          `json:"has_preview"`
}

type Status struct {
	State      State          `json:"state"`
	Mode       memory.Kind    `json:"mode"`
	Pending    *PendingAsset  `json:"pending"`
	LastError  string         `json:"last_error,omitempty"`
	LastRecord *memory.Record `json:"last_record,omitempty"`
}

// Machine is the capture workflow of one guest. Transitions are serialized by
// mu; a submission runs outside the lock with StateSubmitting as the guard.
type Machine struct {
	captureCtx memory.CaptureContext
	devices    *DeviceAdapter
	previews   service.PreviewStore
	submitter  Submitter
	logger     logger.Logger

	mu         sync.Mutex
	state      State
	mode       memory.Kind
	handle     *DeviceHandle
	session    *RecordingSession
	pending    *memory.MediaAsset
	lastErr    error
	lastRecord *memory.Record
	closed     bool
}

func NewMachine(
	cc memory.CaptureContext,
	devices *DeviceAdapter,
	previews service.PreviewStore,
	submitter Submitter,
	log logger.Logger,
) *Machine {
	return &Machine{
		captureCtx: cc,
		devices:    devices,
		previews:   previews,
		submitter:  submitter,
		logger:     log.With(zap.String("guest_id", cc.GuestID), zap.String("wedding_id", cc.WeddingID)),
		state:      StateIdle,
		mode:       memory.KindPhoto,
	}
}

func (m *Machine) Acquire(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.guard("acquire", StateIdle, StateError); err != nil {
		return err
	}

	h, err := m.devices.Acquire(ctx, m.mode)
	if err != nil {
		m.fail(err)
		return err
	}
	m.handle = h
	m.lastErr = nil
	m.transition(StateDeviceActive)
	return nil
}

func (m *Machine) Snapshot(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.guard("take a snapshot", StateDeviceActive); err != nil {
		return err
	}
	if m.mode != memory.KindPhoto {
		return apperror.NewInvalidTransition(string(m.mode)+" mode", "take a snapshot")
	}

	frame, err := m.handle.stream.GrabFrame(ctx)
	m.releaseDevice()
	if err != nil {
		err = apperror.NewDeviceUnavailable("failed to capture a frame", err)
		m.fail(err)
		return err
	}

	m.setPending(ctx, &memory.MediaAsset{
		Kind:     memory.KindPhoto,
		Payload:  frame,
		MimeType: "image/jpeg",
		Filename: "photo.jpg",
	})
	m.transition(StatePreviewing)
	return nil
}

func (m *Machine) StartRecording(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.guard("start recording", StateDeviceActive); err != nil {
		return err
	}
	if !m.mode.Recorded() {
		return apperror.NewInvalidTransition(string(m.mode)+" mode", "start recording")
	}

	s, err := StartRecording(ctx, m.handle)
	if err != nil {
		m.releaseDevice()
		m.fail(err)
		return err
	}
	m.session = s
	m.transition(StateRecording)
	return nil
}

// StopRecording finalizes the recording. Outside StateRecording it does nothing.
func (m *Machine) StopRecording(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return errClosed("stop recording")
	}
	if m.state != StateRecording || m.session == nil {
		return nil
	}

	asset, err := m.session.Stop()
	m.session = nil
	m.releaseDevice()
	if err != nil {
		m.fail(err)
		return err
	}
	if asset == nil {
		m.transition(StateIdle)
		return nil
	}

	m.setPending(ctx, asset)
	m.transition(StatePreviewing)
	return nil
}

// SelectFile accepts an existing file instead of a device capture. A rejected
// file leaves the machine untouched.
func (m *Machine) SelectFile(ctx context.Context, f SelectedFile) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return errClosed("select a file")
	}
	if m.state == StateSubmitting {
		return apperror.NewBusy("a memory is being submitted")
	}

	mt := f.MimeType
	if mt == "" && len(f.Data) > 0 {
		mt = mimetype.Detect(f.Data).String()
	}
	mt, _, _ = strings.Cut(mt, ";")
	mt = strings.ToLower(strings.TrimSpace(mt))

	if err := memory.ValidateUpload(m.mode, mt, len(f.Data)); err != nil {
		return apperror.NewInvalidInput(err.Error(), err)
	}

	m.teardown()
	m.setPending(ctx, &memory.MediaAsset{
		Kind:     m.mode,
		Payload:  f.Data,
		MimeType: mt,
		Filename: f.Filename,
	})
	m.lastErr = nil
	m.transition(StatePreviewing)
	return nil
}

// Discard drops the pending asset and releases the device and preview.
func (m *Machine) Discard() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return errClosed("discard")
	}
	if m.state == StateSubmitting {
		return apperror.NewBusy("a memory is being submitted")
	}

	m.teardown()
	m.lastErr = nil
	m.transition(StateIdle)
	return nil
}

// SwitchMode tears everything down before entering idle in the new mode.
func (m *Machine) SwitchMode(kind memory.Kind) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return errClosed("switch mode")
	}
	if m.state == StateSubmitting {
		return apperror.NewBusy("a memory is being submitted")
	}

	m.teardown()
	m.mode = kind
	m.lastErr = nil
	m.transition(StateIdle)
	return nil
}

// Submit hands the pending asset to the submitter. On failure the asset is
// kept so the guest can retry or discard.
func (m *Machine) Submit(ctx context.Context) (*memory.Record, error) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil, errClosed("submit")
	}
	if m.state == StateSubmitting {
		m.mu.Unlock()
		return nil, apperror.NewBusy("a memory is being submitted")
	}
	if m.state != StatePreviewing || m.pending == nil {
		from := m.state
		m.mu.Unlock()
		return nil, apperror.NewInvalidTransition(string(from), "submit")
	}
	asset := m.pending
	cc := m.captureCtx
	m.transition(StateSubmitting)
	m.mu.Unlock()

	// An in-flight upload always runs to completion.
	rec, err := m.submitter.Submit(context.WithoutCancel(ctx), asset, cc)

	m.mu.Lock()
	defer m.mu.Unlock()

	if err != nil {
		m.lastErr = err
		m.transition(StatePreviewing)
		if m.closed {
			m.teardown()
			m.state = StateIdle
		}
		return nil, err
	}

	m.releasePreview(asset)
	m.pending = nil
	m.lastErr = nil
	m.lastRecord = rec
	m.transition(StateIdle)
	return rec, nil
}

// OpenPreview returns the local preview of the pending asset.
func (m *Machine) OpenPreview() (io.ReadCloser, string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.pending == nil || m.pending.Preview == "" {
		return nil, "", apperror.NewNotFound("preview", m.captureCtx.GuestID)
	}
	return m.previews.Open(m.pending.Preview)
}

// Close tears the machine down. During a submission the teardown happens
// when the submission settles.
func (m *Machine) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return
	}
	m.closed = true
	if m.state == StateSubmitting {
		return
	}
	m.teardown()
	m.state = StateIdle
}

// Submitting reports whether an upload is in flight.
func (m *Machine) Submitting() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state == StateSubmitting
}

func (m *Machine) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()

	st := Status{State: m.state, Mode: m.mode, LastRecord: m.lastRecord}
	if m.lastErr != nil {
		st.LastError = errorText(m.lastErr)
	}
	if a := m.pending; a != nil {
		st.Pending = &PendingAsset{
			Kind:       a.Kind,
			MimeType:   a.MimeType,
			Filename:   a.Filename,
			Size:       a.Size(),
			Duration:   a.Duration,
			HasPreview: a.Preview != "",
		}
	}
	return st
}

func (m *Machine) guard(action string, allowed ...State) error {
	if m.closed {
		return errClosed(action)
	}
	if m.state == StateSubmitting {
		return apperror.NewBusy("a memory is being submitted")
	}
	for _, s := range allowed {
		if m.state == s {
			return nil
		}
	}
	return apperror.NewInvalidTransition(string(m.state), action)
}

func (m *Machine) transition(to State) {
	if m.state != to {
		m.logger.Debug("Capture state changed", zap.String("from", string(m.state)), zap.String("to", string(to)), zap.String("mode", string(m.mode)))
	}
	m.state = to
}

// fail records err and enters StateError. The device is always released
// before the error is reported.
func (m *Machine) fail(err error) {
	m.releaseDevice()
	m.lastErr = err
	m.transition(StateError)
}

func (m *Machine) setPending(ctx context.Context, asset *memory.MediaAsset) {
	if m.pending != nil {
		m.releasePreview(m.pending)
	}
	if m.previews != nil {
		ref, err := m.previews.Create(ctx, asset)
		if err != nil {
			m.logger.Warn("Failed to create local preview", zap.String("kind", string(asset.Kind)), zap.Error(err))
		} else {
			asset.Preview = ref
		}
	}
	m.pending = asset
}

func (m *Machine) teardown() {
	if m.session != nil {
		m.session.Abort()
		m.session = nil
	}
	m.releaseDevice()
	if m.pending != nil {
		m.releasePreview(m.pending)
		m.pending = nil
	}
}

func (m *Machine) releaseDevice() {
	if m.handle != nil {
		m.devices.Release(m.handle)
		m.handle = nil
	}
}

func (m *Machine) releasePreview(a *memory.MediaAsset) {
	if a.Preview == "" || m.previews == nil {
		return
	}
	if err := m.previews.Release(a.Preview); err != nil {
		m.logger.Warn("Failed to release local preview", zap.String("preview", a.Preview), zap.Error(err))
	}
	a.Preview = ""
}

func errClosed(action string) error {
	return apperror.NewInvalidTransition("closed", action)
}

func errorText(err error) string {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		if appErr.Details != "" && !errors.Is(err, apperror.ErrUpload) {
			return appErr.Message + ": " + appErr.Details
		}
		return appErr.Message
	}
	return err.Error()
}
