package capture

import (
	"testing"

	"github.com/khoahotran/wedding-memories/internal/application/service"
	"github.com/khoahotran/wedding-memories/internal/domain/memory"
	"github.com/khoahotran/wedding-memories/pkg/apperror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAcquireRequestsBackCameraFullHD(t *testing.T) {
	dev := &fakeDevice{}
	adapter := NewDeviceAdapter(dev, nopLogger())

	h, err := adapter.Acquire(t.Context(), memory.KindPhoto)
	require.NoError(t, err)
	defer adapter.Release(h)

	require.Len(t, dev.opened, 1)
	assert.Equal(t, service.Constraints{Video: true, FacingMode: "environment", IdealWidth: 1920, IdealHeight: 1080}, dev.opened[0])
	assert.False(t, h.Degraded)
}

func TestAcquireDegradesOnce(t *testing.T) {
	dev := &fakeDevice{failStrict: true}
	adapter := NewDeviceAdapter(dev, nopLogger())

	h, err := adapter.Acquire(t.Context(), memory.KindVideo)
	require.NoError(t, err)

	require.Len(t, dev.opened, 2)
	assert.Equal(t, service.Constraints{Video: true, Audio: true}, dev.opened[1])
	assert.True(t, h.Degraded)
}

func TestAcquireAudioOnlyMicrophone(t *testing.T) {
	dev := &fakeDevice{}
	adapter := NewDeviceAdapter(dev, nopLogger())

	_, err := adapter.Acquire(t.Context(), memory.KindAudio)
	require.NoError(t, err)
	assert.Equal(t, service.Constraints{Audio: true}, dev.opened[0])
}

func TestAcquireFailureIsDeviceUnavailable(t *testing.T) {
	adapter := NewDeviceAdapter(&fakeDevice{err: service.ErrPermissionDenied}, nopLogger())

	_, err := adapter.Acquire(t.Context(), memory.KindPhoto)
	assert.ErrorIs(t, err, apperror.ErrDeviceUnavailable)
	assert.False(t, adapter.InUse())
	assert.Equal(t, DeviceStats{}, adapter.Stats())
}

func TestDeviceIsExclusive(t *testing.T) {
	adapter := NewDeviceAdapter(&fakeDevice{}, nopLogger())

	h, err := adapter.Acquire(t.Context(), memory.KindPhoto)
	require.NoError(t, err)

	_, err = adapter.Acquire(t.Context(), memory.KindVideo)
	assert.ErrorIs(t, err, apperror.ErrDeviceUnavailable)

	adapter.Release(h)
	h2, err := adapter.Acquire(t.Context(), memory.KindVideo)
	require.NoError(t, err)
	adapter.Release(h2)
}

func TestReleaseIsIdempotent(t *testing.T) {
	dev := &fakeDevice{}
	adapter := NewDeviceAdapter(dev, nopLogger())

	h, err := adapter.Acquire(t.Context(), memory.KindPhoto)
	require.NoError(t, err)

	adapter.Release(h)
	adapter.Release(h)
	adapter.Release(nil)

	assert.Equal(t, DeviceStats{Acquired: 1, Released: 1}, adapter.Stats())
	assert.Equal(t, 1, dev.lastStream().closed)
}
