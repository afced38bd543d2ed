package capture

import (
	"testing"
	"time"

	"github.com/khoahotran/wedding-memories/internal/domain/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestRegistry(dev *fakeDevice, sub *fakeSubmitter, idle time.Duration) (*Registry, *DeviceAdapter, *fakeClock) {
	adapter := NewDeviceAdapter(dev, nopLogger())
	reg := NewRegistry(adapter, newFakePreviews(), sub, idle, nopLogger())
	clock := &fakeClock{t: time.Date(2025, 6, 1, 20, 0, 0, 0, time.UTC)}
	reg.now = clock.now
	return reg, adapter, clock
}

var (
	guestGone = memory.CaptureContext{GuestID: "gone", WeddingID: "w1"}
	guestNext = memory.CaptureContext{GuestID: "next", WeddingID: "w1"}
)

func TestRegistryKeepsOneMachinePerGuest(t *testing.T) {
	reg, _, _ := newTestRegistry(&fakeDevice{frame: []byte{1}}, &fakeSubmitter{}, 0)

	assert.Same(t, reg.Get(guestGone), reg.Get(guestGone))
	assert.NotSame(t, reg.Get(guestGone), reg.Get(guestNext))
	assert.Equal(t, 2, reg.Len())
}

func TestRegistryMachinesShareTheDevice(t *testing.T) {
	reg, adapter, _ := newTestRegistry(&fakeDevice{frame: []byte{1}}, &fakeSubmitter{}, 0)

	first := reg.Get(guestGone)
	second := reg.Get(guestNext)

	require.NoError(t, first.Acquire(t.Context()))
	assert.Error(t, second.Acquire(t.Context()))

	reg.Remove(guestGone)
	assert.False(t, adapter.InUse())
	assert.Equal(t, 1, reg.Len())

	require.NoError(t, second.Acquire(t.Context()))
	reg.CloseAll()
	assert.False(t, adapter.InUse())
	assert.Zero(t, reg.Len())
}

func TestAbandonedSessionGivesTheDeviceBack(t *testing.T) {
	reg, adapter, clock := newTestRegistry(&fakeDevice{frame: []byte{1}}, &fakeSubmitter{}, 5*time.Minute)

	require.NoError(t, reg.Get(guestGone).Acquire(t.Context()))
	assert.Error(t, reg.Get(guestNext).Acquire(t.Context()))

	clock.advance(4 * time.Minute)
	assert.Zero(t, reg.Sweep())
	assert.True(t, adapter.InUse())
	reg.Get(guestNext)

	clock.advance(2 * time.Minute)
	assert.Equal(t, 1, reg.Sweep())
	assert.False(t, adapter.InUse())
	assert.Equal(t, 1, reg.Len())

	require.NoError(t, reg.Get(guestNext).Acquire(t.Context()))
	st := adapter.Stats()
	assert.Equal(t, 2, st.Acquired)
	assert.Equal(t, 1, st.Released)
}

func TestAbandonedRecordingIsStopped(t *testing.T) {
	dev := &fakeDevice{}
	reg, adapter, clock := newTestRegistry(dev, &fakeSubmitter{}, time.Minute)

	m := reg.Get(guestGone)
	require.NoError(t, m.SwitchMode(memory.KindVideo))
	require.NoError(t, m.Acquire(t.Context()))
	require.NoError(t, m.StartRecording(t.Context()))

	clock.advance(2 * time.Minute)
	assert.Equal(t, 1, reg.Sweep())

	assert.False(t, adapter.InUse())
	assert.Equal(t, 1, dev.lastStream().closed)
	assert.Zero(t, reg.Len())
}

func TestActivityKeepsSessionAlive(t *testing.T) {
	reg, adapter, clock := newTestRegistry(&fakeDevice{frame: []byte{1}}, &fakeSubmitter{}, time.Minute)

	require.NoError(t, reg.Get(guestGone).Acquire(t.Context()))
	for range 5 {
		clock.advance(50 * time.Second)
		reg.Get(guestGone)
		assert.Zero(t, reg.Sweep())
	}
	assert.True(t, adapter.InUse())
}

func TestSessionNotExpiredWhileSubmitting(t *testing.T) {
	sub := &fakeSubmitter{started: make(chan struct{}), release: make(chan struct{})}
	reg, adapter, clock := newTestRegistry(&fakeDevice{frame: []byte{1}}, sub, time.Minute)

	m := reg.Get(guestGone)
	require.NoError(t, m.Acquire(t.Context()))
	require.NoError(t, m.Snapshot(t.Context()))

	done := make(chan error, 1)
	go func() {
		_, err := m.Submit(t.Context())
		done <- err
	}()
	<-sub.started

	clock.advance(time.Hour)
	assert.Zero(t, reg.Sweep())
	assert.Equal(t, 1, reg.Len())

	close(sub.release)
	require.NoError(t, <-done)

	assert.Equal(t, 1, reg.Sweep())
	assert.Zero(t, reg.Len())
	assert.False(t, adapter.InUse())
}

func TestZeroTimeoutNeverExpires(t *testing.T) {
	reg, _, clock := newTestRegistry(&fakeDevice{frame: []byte{1}}, &fakeSubmitter{}, 0)

	reg.Get(guestGone)
	clock.advance(24 * time.Hour)
	assert.Zero(t, reg.Sweep())
	assert.Equal(t, 1, reg.Len())
}
