package main

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"

	"github.com/khoahotran/wedding-memories/pkg/logger"
)

func countingHandler(failures int, err error) (messageHandler, *int) {
	calls := 0
	return func(context.Context, kafka.Message) error {
		calls++
		if calls <= failures {
			return err
		}
		return nil
	}, &calls
}

func TestHandleWithRetryRecoversFromTransientFailure(t *testing.T) {
	handle, calls := countingHandler(2, errors.New("db unavailable"))

	ok := handleWithRetry(t.Context(), logger.NewNopLogger(), kafka.Message{}, handle, []time.Duration{time.Millisecond, time.Millisecond, time.Millisecond})

	assert.True(t, ok)
	assert.Equal(t, 3, *calls)
}

func TestHandleWithRetryGivesUpAfterLastDelay(t *testing.T) {
	handle, calls := countingHandler(100, errors.New("db unavailable"))

	ok := handleWithRetry(t.Context(), logger.NewNopLogger(), kafka.Message{}, handle, []time.Duration{time.Millisecond, time.Millisecond})

	assert.True(t, ok)
	assert.Equal(t, 3, *calls)
}

func TestHandleWithRetryDoesNotRetryMalformedMessage(t *testing.T) {
	handle, calls := countingHandler(100, errSkip{errors.New("invalid json")})

	ok := handleWithRetry(t.Context(), logger.NewNopLogger(), kafka.Message{}, handle, []time.Duration{time.Millisecond})

	assert.True(t, ok)
	assert.Equal(t, 1, *calls)
}

func TestHandleWithRetryStopsOnShutdown(t *testing.T) {
	ctx, cancel := context.WithCancel(t.Context())
	handle := func(context.Context, kafka.Message) error {
		cancel()
		return errors.New("interrupted")
	}

	ok := handleWithRetry(ctx, logger.NewNopLogger(), kafka.Message{}, handle, []time.Duration{time.Hour})

	assert.False(t, ok)
}

func TestHandleWithRetryWaitIsCancellable(t *testing.T) {
	ctx, cancel := context.WithTimeout(t.Context(), 20*time.Millisecond)
	defer cancel()
	handle, _ := countingHandler(100, errors.New("db unavailable"))

	start := time.Now()
	ok := handleWithRetry(ctx, logger.NewNopLogger(), kafka.Message{}, handle, []time.Duration{time.Hour})

	assert.False(t, ok)
	assert.Less(t, time.Since(start), time.Minute)
}
