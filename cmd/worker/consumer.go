package main

import (
	"context"
	"errors"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/khoahotran/wedding-memories/pkg/logger"
)

// retryDelays are the waits between attempts of a failing message. The offset
// is committed only once the message is handled or the attempts run out, so
// a later commit on the partition never skips past a message still in flight.
var retryDelays = []time.Duration{time.Second, 5 * time.Second, 15 * time.Second}

// errSkip marks a message that can never be processed; it is committed and dropped.
type errSkip struct{ err error }

func (e errSkip) Error() string { return e.err.Error() }

type messageHandler func(context.Context, kafka.Message) error

func consume(ctx context.Context, log logger.Logger, brokers []string, topic, groupID string, handle messageHandler) {
	consumer := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  groupID,
		MinBytes: 10e3,
		MaxBytes: 10e6,
	})
	defer consumer.Close()

	log = log.With(zap.String("topic", topic))
	log.Info("Worker listening on topic")

	for {
		msg, err := consumer.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			log.Error("Failed to read message from Kafka", err)
			continue
		}

		log.Debug("Received message", zap.String("key", string(msg.Key)), zap.Int64("offset", msg.Offset))

		if !handleWithRetry(ctx, log, msg, handle, retryDelays) {
			// Shutting down: leave the offset uncommitted so the message is fetched again.
			return
		}
		commitMessage(log, consumer, msg)
	}
}

// handleWithRetry runs handle until it succeeds, reports a malformed message,
// or the delays are used up. It returns false only when ctx ends first.
func handleWithRetry(ctx context.Context, log logger.Logger, msg kafka.Message, handle messageHandler, delays []time.Duration) bool {
	key := zap.String("key", string(msg.Key))
	for attempt := 0; ; attempt++ {
		err := handle(ctx, msg)
		if err == nil {
			return true
		}

		var skip errSkip
		if errors.As(err, &skip) {
			log.Warn("Skipping malformed message", zap.Error(err), key)
			return true
		}
		if ctx.Err() != nil {
			return false
		}
		if attempt >= len(delays) {
			log.Error("Giving up on message", err, key, zap.Int("attempts", attempt+1))
			return true
		}

		log.Warn("Failed to process message, retrying", zap.Error(err), key, zap.Int("attempt", attempt+1), zap.Duration("backoff", delays[attempt]))
		timer := time.NewTimer(delays[attempt])
		select {
		case <-ctx.Done():
			timer.Stop()
			return false
		case <-timer.C:
		}
	}
}

func commitMessage(log logger.Logger, consumer *kafka.Reader, msg kafka.Message) {
	if err := consumer.CommitMessages(context.Background(), msg); err != nil {
		log.Error("Failed to commit message", err)
	}
}
