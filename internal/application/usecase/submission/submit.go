package submission

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/khoahotran/wedding-memories/internal/application/service"
	"github.com/khoahotran/wedding-memories/internal/domain/memory"
	"github.com/khoahotran/wedding-memories/pkg/apperror"
	"github.com/khoahotran/wedding-memories/pkg/logger"
	"github.com/khoahotran/wedding-memories/pkg/metrics"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("submission_usecase")

// SubmitUseCase uploads captured assets to the memory API. Every call makes
// exactly one upload request and never retries.
type SubmitUseCase struct {
	api       service.MemoryAPI
	durations service.DurationDecoder
	events    service.EventPublisher
	logger    logger.Logger
}

func NewSubmitUseCase(
	api service.MemoryAPI,
	d service.DurationDecoder,
	e service.EventPublisher,
	log logger.Logger,
) *SubmitUseCase {
	return &SubmitUseCase{api: api, durations: d, events: e, logger: log}
}

func (uc *SubmitUseCase) Submit(ctx context.Context, asset *memory.MediaAsset, cc memory.CaptureContext) (*memory.Record, error) {
	ctx, span := tracer.Start(ctx, "Submit")
	defer span.End()

	if asset == nil || len(asset.Payload) == 0 {
		return nil, apperror.NewInvalidInput("nothing to submit", nil)
	}
	if !cc.Valid() {
		return nil, apperror.NewInvalidInput("guest and wedding are required", nil)
	}
	span.SetAttributes(
		attribute.String("kind", string(asset.Kind)),
		attribute.Int("bytes", asset.Size()),
		attribute.String("wedding_id", cc.WeddingID),
	)

	req := service.UploadRequest{
		Kind:      asset.Kind,
		File:      bytes.NewReader(asset.Payload),
		Filename:  asset.Filename,
		MimeType:  asset.MimeType,
		GuestID:   cc.GuestID,
		WeddingID: cc.WeddingID,
	}
	if asset.Kind == memory.KindAudio {
		req.Duration = FormatDuration(uc.audioDuration(asset))
	}

	start := time.Now()
	rec, err := uc.api.UploadMemory(ctx, req)
	elapsed := time.Since(start).Seconds()
	if err != nil {
		metrics.RecordSubmission(string(asset.Kind), "error", asset.Size(), elapsed)
		uc.logger.Warn("Memory upload failed",
			zap.String("kind", string(asset.Kind)),
			zap.String("guest_id", cc.GuestID),
			zap.Error(err),
		)
		span.RecordError(err)
		return nil, err
	}
	metrics.RecordSubmission(string(asset.Kind), "success", asset.Size(), elapsed)
	uc.logger.Info("Memory submitted",
		zap.String("record_id", rec.ID),
		zap.String("kind", string(asset.Kind)),
		zap.String("guest_id", cc.GuestID),
	)

	if uc.events != nil {
		payload := service.MemoryEventPayload{
			EventType: service.MemoryEventTypeSubmitted,
			RecordID:  rec.ID,
			Kind:      string(asset.Kind),
			URL:       rec.URL,
			GuestID:   cc.GuestID,
			WeddingID: cc.WeddingID,
			Bytes:     asset.Size(),
		}
		go func() {
			if err := uc.events.PublishMemoryEvent(context.Background(), payload); err != nil {
				uc.logger.Error("Failed to publish Kafka 'memory.submitted' event", err, zap.String("record_id", payload.RecordID))
			}
		}()
	}

	return rec, nil
}

// audioDuration prefers the duration stored in the container and falls back
// to the wall-clock length of the recording.
func (uc *SubmitUseCase) audioDuration(asset *memory.MediaAsset) time.Duration {
	if uc.durations == nil {
		return asset.Duration
	}
	d, err := uc.durations.Duration(asset.Payload)
	if err != nil || d <= 0 {
		uc.logger.Debug("Container duration unavailable, using recorded length", zap.Error(err))
		return asset.Duration
	}
	return d
}

// FormatDuration renders whole seconds, e.g. "12s".
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	return fmt.Sprintf("%ds", int64(d/time.Second))
}
