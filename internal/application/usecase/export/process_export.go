package export

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/khoahotran/wedding-memories/internal/application/service"
	"github.com/khoahotran/wedding-memories/internal/domain/export"
	"github.com/khoahotran/wedding-memories/pkg/logger"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

type ProcessExportUseCase struct {
	repo     export.Repository
	progress export.ProgressStore
	exporter Exporter
	uploader service.Uploader
	tempDir  string
	logger   logger.Logger
}

func NewProcessExportUseCase(
	r export.Repository,
	p export.ProgressStore,
	e Exporter,
	u service.Uploader,
	tempDir string,
	log logger.Logger,
) *ProcessExportUseCase {
	return &ProcessExportUseCase{repo: r, progress: p, exporter: e, uploader: u, tempDir: tempDir, logger: log}
}

// Execute builds the archive of a requested job and uploads it. A job that
// already finished is left alone so redelivered requests are harmless.
func (uc *ProcessExportUseCase) Execute(ctx context.Context, payload service.ExportRequestPayload) error {
	ctx, span := tracer.Start(ctx, "ProcessExport")
	defer span.End()
	span.SetAttributes(attribute.String("job_id", payload.JobID.String()))

	log := uc.logger.With(zap.String("job_id", payload.JobID.String()), zap.String("wedding_id", payload.WeddingID))

	job, err := uc.repo.FindByID(ctx, payload.JobID, payload.WeddingID)
	if err != nil {
		span.RecordError(err)
		return err
	}
	if job.Finished() {
		log.Info("Export job already finished, skipping")
		return nil
	}

	job.Status = export.StatusProcessing
	job.UpdatedAt = time.Now().UTC()
	if err := uc.repo.Update(ctx, job); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(uc.tempDir, "export-*.zip")
	if err != nil {
		return uc.fail(ctx, job, fmt.Errorf("create temp archive: %w", err))
	}
	defer func() {
		tmp.Close()
		os.Remove(tmp.Name())
	}()

	report, err := uc.exporter.ExportWedding(ctx, job.WeddingID, tmp, func(p int) {
		if err := uc.progress.SetProgress(ctx, job.ID, p); err != nil {
			log.Warn("Failed to store export progress", zap.Error(err))
		}
	})
	if err != nil {
		return uc.fail(ctx, job, err)
	}

	if _, err := tmp.Seek(0, io.SeekStart); err != nil {
		return uc.fail(ctx, job, fmt.Errorf("rewind temp archive: %w", err))
	}

	folder := fmt.Sprintf("weddings/%s/exports", job.WeddingID)
	url, err := uc.uploader.Upload(ctx, tmp, folder, job.ID.String())
	if err != nil {
		return uc.fail(ctx, job, err)
	}

	now := time.Now().UTC()
	job.Status = export.StatusReady
	job.ArchiveURL = &url
	job.TotalItems = report.Total
	job.FailedItems = len(report.Failures)
	job.Failures = make([]export.Failure, 0, len(report.Failures))
	for _, f := range report.Failures {
		job.Failures = append(job.Failures, export.Failure{URL: f.URL, Reason: f.Reason})
	}
	job.UpdatedAt = now
	job.CompletedAt = &now
	if err := uc.repo.Update(ctx, job); err != nil {
		span.RecordError(err)
		if derr := uc.uploader.Delete(context.WithoutCancel(ctx), folder+"/"+job.ID.String()); derr != nil {
			log.Warn("Failed to delete orphaned archive", zap.Error(derr))
		}
		job.ArchiveURL = nil
		return uc.fail(ctx, job, fmt.Errorf("save completed export: %w", err))
	}

	log.Info("Export job completed", zap.String("url", url), zap.Int("failed_items", job.FailedItems))
	return nil
}

func (uc *ProcessExportUseCase) fail(ctx context.Context, job *export.Job, cause error) error {
	uc.logger.Error("Export job failed", cause, zap.String("job_id", job.ID.String()))

	msg := cause.Error()
	now := time.Now().UTC()
	job.Status = export.StatusFailed
	job.ErrorMessage = &msg
	job.UpdatedAt = now
	job.CompletedAt = &now
	if err := uc.repo.Update(context.WithoutCancel(ctx), job); err != nil {
		uc.logger.Error("Failed to mark export job as failed", err, zap.String("job_id", job.ID.String()))
	}
	return cause
}
