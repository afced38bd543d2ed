package capture

import (
	"context"
	"sync"
	"time"

	"github.com/khoahotran/wedding-memories/internal/application/service"
	"github.com/khoahotran/wedding-memories/internal/domain/memory"
	"github.com/khoahotran/wedding-memories/pkg/logger"
	"go.uber.org/zap"
)

const minSweepInterval = time.Second

// Registry keeps one Machine per guest session. All machines share the same
// DeviceAdapter, so only one of them can hold the camera at a time. A session
// untouched for idleTimeout is closed by Sweep, which frees the device.
type Registry struct {
	devices     *DeviceAdapter
	previews    service.PreviewStore
	submitter   Submitter
	idleTimeout time.Duration
	logger      logger.Logger
	now         func() time.Time

	mu       sync.Mutex
	sessions map[memory.CaptureContext]*session
}

type session struct {
	machine  *Machine
	lastSeen time.Time
}

// NewRegistry builds a registry. A zero idleTimeout disables expiry.
func NewRegistry(devices *DeviceAdapter, previews service.PreviewStore, submitter Submitter, idleTimeout time.Duration, log logger.Logger) *Registry {
	return &Registry{
		devices:     devices,
		previews:    previews,
		submitter:   submitter,
		idleTimeout: idleTimeout,
		logger:      log,
		now:         time.Now,
		sessions:    make(map[memory.CaptureContext]*session),
	}
}

// Get returns the guest's machine, creating it on first use, and marks the
// session as active.
func (r *Registry) Get(cc memory.CaptureContext) *Machine {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[cc]
	if !ok {
		s = &session{machine: NewMachine(cc, r.devices, r.previews, r.submitter, r.logger)}
		r.sessions[cc] = s
		r.logger.Debug("Capture session opened", zap.String("guest_id", cc.GuestID), zap.String("wedding_id", cc.WeddingID))
	}
	s.lastSeen = r.now()
	return s.machine
}

// Remove closes and forgets the guest's machine.
func (r *Registry) Remove(cc memory.CaptureContext) {
	r.mu.Lock()
	s, ok := r.sessions[cc]
	delete(r.sessions, cc)
	r.mu.Unlock()

	if ok {
		s.machine.Close()
	}
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Sweep closes sessions idle for longer than the timeout. A session with an
// upload in flight is kept until the upload settles. It returns how many
// sessions were closed.
func (r *Registry) Sweep() int {
	if r.idleTimeout <= 0 {
		return 0
	}

	r.mu.Lock()
	deadline := r.now().Add(-r.idleTimeout)
	var expired []*session
	for cc, s := range r.sessions {
		if s.lastSeen.After(deadline) || s.machine.Submitting() {
			continue
		}
		delete(r.sessions, cc)
		expired = append(expired, s)
		r.logger.Info("Capture session expired", zap.String("guest_id", cc.GuestID), zap.String("wedding_id", cc.WeddingID))
	}
	r.mu.Unlock()

	for _, s := range expired {
		s.machine.Close()
	}
	return len(expired)
}

// Run sweeps idle sessions until ctx is done.
func (r *Registry) Run(ctx context.Context) {
	if r.idleTimeout <= 0 {
		return
	}
	interval := max(r.idleTimeout/4, minSweepInterval)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Sweep()
		}
	}
}

func (r *Registry) CloseAll() {
	r.mu.Lock()
	sessions := r.sessions
	r.sessions = make(map[memory.CaptureContext]*session)
	r.mu.Unlock()

	for _, s := range sessions {
		s.machine.Close()
	}
}
