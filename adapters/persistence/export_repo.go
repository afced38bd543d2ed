package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/khoahotran/wedding-memories/internal/domain/export"
	"github.com/khoahotran/wedding-memories/pkg/apperror"
	"github.com/khoahotran/wedding-memories/pkg/logger"
	"go.uber.org/zap"
)

type postgresExportRepo struct {
	db     *pgxpool.Pool
	logger logger.Logger
}

func NewPostgresExportRepo(db *pgxpool.Pool, log logger.Logger) export.Repository {
	return &postgresExportRepo{db: db, logger: log}
}

var exportColumns = []string{
	"id", "wedding_id", "status", "archive_name", "archive_url",
	"total_items", "failed_items", "failures", "error_message",
	"created_at", "updated_at", "completed_at",
}

func scanJob(row pgx.Row) (*export.Job, error) {
	j := &export.Job{}
	var failures []byte

	err := row.Scan(
		&j.ID,
		&j.WeddingID,
		&j.Status,
		&j.ArchiveName,
		&j.ArchiveURL,
		&j.TotalItems,
		&j.FailedItems,
		&failures,
		&j.ErrorMessage,
		&j.CreatedAt,
		&j.UpdatedAt,
		&j.CompletedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(failures, &j.Failures); err != nil || j.Failures == nil {
		j.Failures = []export.Failure{}
	}
	return j, nil
}

func marshalFailures(f []export.Failure) ([]byte, error) {
	if f == nil {
		f = []export.Failure{}
	}
	return json.Marshal(f)
}

func (r *postgresExportRepo) Save(ctx context.Context, j *export.Job) error {
	failures, err := marshalFailures(j.Failures)
	if err != nil {
		return apperror.NewInternal("failed to encode export failures", err)
	}

	query, args, err := psql.Insert("export_jobs").
		Columns(exportColumns...).
		Values(
			j.ID, j.WeddingID, j.Status, j.ArchiveName, j.ArchiveURL,
			j.TotalItems, j.FailedItems, failures, j.ErrorMessage,
			j.CreatedAt, j.UpdatedAt, j.CompletedAt,
		).
		ToSql()
	if err != nil {
		return apperror.NewInternal("failed to build insert export query", err)
	}

	if _, err := r.db.Exec(ctx, query, args...); err != nil {
		r.logger.Error("Failed to insert export job", err, zap.String("job_id", j.ID.String()))
		return apperror.NewInternal("failed to save export job", err)
	}
	return nil
}

func (r *postgresExportRepo) Update(ctx context.Context, j *export.Job) error {
	failures, err := marshalFailures(j.Failures)
	if err != nil {
		return apperror.NewInternal("failed to encode export failures", err)
	}

	query, args, err := psql.Update("export_jobs").
		Set("status", j.Status).
		Set("archive_url", j.ArchiveURL).
		Set("total_items", j.TotalItems).
		Set("failed_items", j.FailedItems).
		Set("failures", failures).
		Set("error_message", j.ErrorMessage).
		Set("updated_at", j.UpdatedAt).
		Set("completed_at", j.CompletedAt).
		Where(sq.Eq{"id": j.ID}).
		ToSql()
	if err != nil {
		return apperror.NewInternal("failed to build update export query", err)
	}

	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to update export job", err, zap.String("job_id", j.ID.String()))
		return apperror.NewInternal("failed to update export job", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("export job", j.ID.String())
	}
	return nil
}

func (r *postgresExportRepo) FindByID(ctx context.Context, id uuid.UUID, weddingID string) (*export.Job, error) {
	query, args, err := psql.Select(exportColumns...).
		From("export_jobs").
		Where(sq.Eq{"id": id, "wedding_id": weddingID}).
		ToSql()
	if err != nil {
		return nil, apperror.NewInternal("failed to build select export query", err)
	}

	j, err := scanJob(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NewNotFound("export job", id.String())
		}
		return nil, apperror.NewInternal("failed to load export job", err)
	}
	return j, nil
}

func (r *postgresExportRepo) ListByWedding(ctx context.Context, weddingID string, limit int) ([]*export.Job, error) {
	query, args, err := psql.Select(exportColumns...).
		From("export_jobs").
		Where(sq.Eq{"wedding_id": weddingID}).
		OrderBy("created_at DESC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, apperror.NewInternal("failed to build list export query", err)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, apperror.NewInternal("failed to list export jobs", err)
	}
	defer rows.Close()

	jobs := make([]*export.Job, 0)
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, apperror.NewInternal("failed to scan export job", fmt.Errorf("row scan: %w", err))
		}
		jobs = append(jobs, j)
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.NewInternal("failed to iterate export jobs", err)
	}
	return jobs, nil
}
