package export

import (
	"context"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/khoahotran/wedding-memories/internal/application/service"
	"github.com/khoahotran/wedding-memories/internal/application/usecase/gallery"
	"github.com/khoahotran/wedding-memories/internal/domain/export"
	"github.com/khoahotran/wedding-memories/pkg/apperror"
	"github.com/khoahotran/wedding-memories/pkg/logger"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("export_usecase")

// Exporter builds a wedding archive.
type Exporter interface {
	ExportWedding(ctx context.Context, weddingID string, w io.Writer, progress gallery.ProgressFunc) (*gallery.ExportReport, error)
	ArchiveName(ctx context.Context, weddingID string) string
}

type RequestExportUseCase struct {
	repo     export.Repository
	exporter Exporter
	events   service.EventPublisher
	logger   logger.Logger
}

func NewRequestExportUseCase(r export.Repository, e Exporter, p service.EventPublisher, log logger.Logger) *RequestExportUseCase {
	return &RequestExportUseCase{repo: r, exporter: e, events: p, logger: log}
}

func (uc *RequestExportUseCase) Execute(ctx context.Context, weddingID string) (*export.Job, error) {
	ctx, span := tracer.Start(ctx, "RequestExport")
	defer span.End()

	if weddingID == "" {
		return nil, apperror.NewInvalidInput("wedding id is required", nil)
	}

	now := time.Now().UTC()
	job := &export.Job{
		ID:          uuid.New(),
		WeddingID:   weddingID,
		Status:      export.StatusPending,
		ArchiveName: uc.exporter.ArchiveName(ctx, weddingID),
		Failures:    []export.Failure{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	span.SetAttributes(attribute.String("job_id", job.ID.String()))

	if err := uc.repo.Save(ctx, job); err != nil {
		span.RecordError(err)
		return nil, err
	}

	payload := service.ExportRequestPayload{JobID: job.ID, WeddingID: weddingID}
	if err := uc.events.PublishExportRequest(ctx, payload); err != nil {
		uc.logger.Error("Failed to publish Kafka 'export.requested' event", err, zap.String("job_id", job.ID.String()))
		msg := "export could not be scheduled"
		job.Status = export.StatusFailed
		job.ErrorMessage = &msg
		job.UpdatedAt = time.Now().UTC()
		if uErr := uc.repo.Update(ctx, job); uErr != nil {
			uc.logger.Error("Failed to mark export job as failed", uErr, zap.String("job_id", job.ID.String()))
		}
		return nil, apperror.NewInternal(msg, err)
	}

	uc.logger.Info("Export requested", zap.String("job_id", job.ID.String()), zap.String("wedding_id", weddingID))
	return job, nil
}
