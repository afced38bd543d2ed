package export

import (
	"context"

	"github.com/google/uuid"
	"github.com/khoahotran/wedding-memories/internal/domain/export"
	"github.com/khoahotran/wedding-memories/pkg/logger"
	"go.uber.org/zap"
)

type GetExportUseCase struct {
	repo     export.Repository
	progress export.ProgressStore
	logger   logger.Logger
}

func NewGetExportUseCase(r export.Repository, p export.ProgressStore, log logger.Logger) *GetExportUseCase {
	return &GetExportUseCase{repo: r, progress: p, logger: log}
}

type GetExportOutput struct {
	Job      *export.Job `json:"job"`
	Progress int         `json:"progress"`
}

func (uc *GetExportUseCase) Execute(ctx context.Context, id uuid.UUID, weddingID string) (*GetExportOutput, error) {
	job, err := uc.repo.FindByID(ctx, id, weddingID)
	if err != nil {
		return nil, err
	}

	out := &GetExportOutput{Job: job}
	switch job.Status {
	case export.StatusReady:
		out.Progress = 100
	case export.StatusProcessing:
		p, err := uc.progress.GetProgress(ctx, id)
		if err != nil {
			uc.logger.Warn("Failed to read export progress", zap.String("job_id", id.String()), zap.Error(err))
		}
		out.Progress = p
	}
	return out, nil
}

func (uc *GetExportUseCase) List(ctx context.Context, weddingID string, limit int) ([]*export.Job, error) {
	if limit <= 0 || limit > 50 {
		limit = 20
	}
	return uc.repo.ListByWedding(ctx, weddingID, limit)
}
