package capture

import (
	"sync"
	"testing"
	"time"

	"github.com/khoahotran/wedding-memories/internal/domain/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordingConcatenatesInArrivalOrder(t *testing.T) {
	s := newRecordingSession(memory.KindVideo, time.Now)

	require.NoError(t, s.Append([]byte("c1")))
	require.NoError(t, s.Append([]byte("c2")))
	require.NoError(t, s.Append([]byte("c3")))

	asset, err := s.Stop()
	require.NoError(t, err)
	assert.Equal(t, []byte("c1c2c3"), asset.Payload)
	assert.Equal(t, "video/webm", asset.MimeType)
	assert.Equal(t, "video.webm", asset.Filename)
}

func TestRecordingCopiesChunksAndIgnoresEmpty(t *testing.T) {
	s := newRecordingSession(memory.KindAudio, time.Now)

	chunk := []byte("ab")
	require.NoError(t, s.Append(chunk))
	chunk[0] = 'x'
	require.NoError(t, s.Append(nil))
	require.NoError(t, s.Append([]byte{}))

	asset, err := s.Stop()
	require.NoError(t, err)
	assert.Equal(t, []byte("ab"), asset.Payload)
	assert.Equal(t, "audio/webm", asset.MimeType)
}

func TestRecordingStopIsIdempotent(t *testing.T) {
	s := newRecordingSession(memory.KindAudio, time.Now)
	require.NoError(t, s.Append([]byte("a")))

	first, err := s.Stop()
	require.NoError(t, err)
	require.NotNil(t, first)

	second, err := s.Stop()
	assert.NoError(t, err)
	assert.Nil(t, second)

	assert.ErrorIs(t, s.Append([]byte("late")), ErrSessionStopped)
}

func TestRecordingDuration(t *testing.T) {
	start := time.Date(2025, 6, 1, 20, 0, 0, 0, time.UTC)
	now := start
	s := newRecordingSession(memory.KindAudio, func() time.Time { return now })
	require.NoError(t, s.Append([]byte("a")))

	now = start.Add(12 * time.Second)
	asset, err := s.Stop()
	require.NoError(t, err)
	assert.Equal(t, 12*time.Second, asset.Duration)
}

func TestRecordingEmptyIsRejected(t *testing.T) {
	s := newRecordingSession(memory.KindVideo, time.Now)
	_, err := s.Stop()
	assert.Error(t, err)
}

func TestRecordingConcurrentAppendKeepsEveryChunk(t *testing.T) {
	s := newRecordingSession(memory.KindVideo, time.Now)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = s.Append([]byte{'x'})
		}()
	}
	wg.Wait()

	asset, err := s.Stop()
	require.NoError(t, err)
	assert.Len(t, asset.Payload, 50)
}

func TestStartRecordingFlushesRecorderTail(t *testing.T) {
	dev := &fakeDevice{tail: [][]byte{[]byte("c3")}}
	adapter := NewDeviceAdapter(dev, nopLogger())

	h, err := adapter.Acquire(t.Context(), memory.KindVideo)
	require.NoError(t, err)

	s, err := StartRecording(t.Context(), h)
	require.NoError(t, err)

	stream := dev.lastStream()
	stream.emit([]byte("c1"))
	stream.emit([]byte("c2"))

	asset, err := s.Stop()
	require.NoError(t, err)
	assert.Equal(t, []byte("c1c2c3"), asset.Payload)
}
