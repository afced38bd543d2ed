package export

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/khoahotran/wedding-memories/internal/application/service"
	"github.com/khoahotran/wedding-memories/internal/application/usecase/gallery"
	"github.com/khoahotran/wedding-memories/internal/domain/export"
	"github.com/khoahotran/wedding-memories/internal/domain/memory"
	"github.com/khoahotran/wedding-memories/pkg/apperror"
	"github.com/khoahotran/wedding-memories/pkg/logger"
	"github.com/stretchr/testify/suite"
)

type memRepo struct {
	mu        sync.Mutex
	jobs      map[uuid.UUID]export.Job
	failReady bool
}

func (r *memRepo) Save(_ context.Context, j *export.Job) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.jobs[j.ID] = *j
	return nil
}

func (r *memRepo) Update(ctx context.Context, j *export.Job) error {
	if r.failReady && j.Status == export.StatusReady {
		return apperror.NewInternal("failed to update export job", errors.New("connection reset"))
	}
	return r.Save(ctx, j)
}

func (r *memRepo) FindByID(_ context.Context, id uuid.UUID, weddingID string) (*export.Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	j, ok := r.jobs[id]
	if !ok || j.WeddingID != weddingID {
		return nil, apperror.NewNotFound("export", id.String())
	}
	return &j, nil
}

func (r *memRepo) ListByWedding(_ context.Context, weddingID string, _ int) ([]*export.Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*export.Job
	for _, j := range r.jobs {
		if j.WeddingID == weddingID {
			out = append(out, &j)
		}
	}
	return out, nil
}

type memProgress struct {
	mu     sync.Mutex
	values map[uuid.UUID][]int
}

func (p *memProgress) SetProgress(_ context.Context, id uuid.UUID, v int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.values[id] = append(p.values[id], v)
	return nil
}

func (p *memProgress) GetProgress(_ context.Context, id uuid.UUID) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	v := p.values[id]
	if len(v) == 0 {
		return 0, nil
	}
	return v[len(v)-1], nil
}

type fakeExporter struct {
	err error
}

func (e *fakeExporter) ExportWedding(_ context.Context, _ string, w io.Writer, progress gallery.ProgressFunc) (*gallery.ExportReport, error) {
	if e.err != nil {
		return nil, e.err
	}
	progress(50)
	_, _ = io.WriteString(w, "PK-archive")
	progress(100)
	return &gallery.ExportReport{Total: 2, Added: 1, Failures: []gallery.ExportFailure{{Kind: memory.KindPhoto, URL: "u/2", Reason: "timeout"}}}, nil
}

func (e *fakeExporter) ArchiveName(context.Context, string) string {
	return "memorias-casamento-Ana-Rui.zip"
}

type fakeUploader struct {
	body     string
	folder   string
	publicID string
	deleted  []string
}

func (u *fakeUploader) Upload(_ context.Context, file io.Reader, folder, publicID string) (string, error) {
	b, err := io.ReadAll(file)
	if err != nil {
		return "", err
	}
	u.body, u.folder, u.publicID = string(b), folder, publicID
	return "https://res.cloudinary.com/demo/raw/upload/" + publicID, nil
}

func (u *fakeUploader) Delete(_ context.Context, publicID string) error {
	u.deleted = append(u.deleted, publicID)
	return nil
}

type fakePublisher struct {
	err      error
	requests []service.ExportRequestPayload
}

func (p *fakePublisher) PublishMemoryEvent(context.Context, service.MemoryEventPayload) error {
	return nil
}

func (p *fakePublisher) PublishExportRequest(_ context.Context, e service.ExportRequestPayload) error {
	if p.err != nil {
		return p.err
	}
	p.requests = append(p.requests, e)
	return nil
}

type ExportUseCaseTestSuite struct {
	suite.Suite
	repo      *memRepo
	progress  *memProgress
	exporter  *fakeExporter
	uploader  *fakeUploader
	publisher *fakePublisher

	request *RequestExportUseCase
	process *ProcessExportUseCase
	get     *GetExportUseCase
}

func (s *ExportUseCaseTestSuite) SetupTest() {
	log := logger.NewNopLogger()
	s.repo = &memRepo{jobs: map[uuid.UUID]export.Job{}}
	s.progress = &memProgress{values: map[uuid.UUID][]int{}}
	s.exporter = &fakeExporter{}
	s.uploader = &fakeUploader{}
	s.publisher = &fakePublisher{}

	s.request = NewRequestExportUseCase(s.repo, s.exporter, s.publisher, log)
	s.process = NewProcessExportUseCase(s.repo, s.progress, s.exporter, s.uploader, s.T().TempDir(), log)
	s.get = NewGetExportUseCase(s.repo, s.progress, log)
}

func (s *ExportUseCaseTestSuite) TestRequestThenProcess() {
	ctx := s.T().Context()

	job, err := s.request.Execute(ctx, "w1")
	s.Require().NoError(err)
	s.Equal(export.StatusPending, job.Status)
	s.Equal("memorias-casamento-Ana-Rui.zip", job.ArchiveName)
	s.Require().Len(s.publisher.requests, 1)

	s.Require().NoError(s.process.Execute(ctx, s.publisher.requests[0]))

	out, err := s.get.Execute(ctx, job.ID, "w1")
	s.Require().NoError(err)
	s.Equal(export.StatusReady, out.Job.Status)
	s.Equal(100, out.Progress)
	s.Require().NotNil(out.Job.ArchiveURL)
	s.Equal(2, out.Job.TotalItems)
	s.Equal(1, out.Job.FailedItems)
	s.Equal("u/2", out.Job.Failures[0].URL)

	s.Equal("PK-archive", s.uploader.body)
	s.Equal("weddings/w1/exports", s.uploader.folder)
	s.Equal(job.ID.String(), s.uploader.publicID)
	s.Equal([]int{50, 100}, s.progress.values[job.ID])
}

func (s *ExportUseCaseTestSuite) TestProcessFailureMarksJob() {
	ctx := s.T().Context()
	job, err := s.request.Execute(ctx, "w1")
	s.Require().NoError(err)

	s.exporter.err = errors.New("api down")
	s.Error(s.process.Execute(ctx, service.ExportRequestPayload{JobID: job.ID, WeddingID: "w1"}))

	out, err := s.get.Execute(ctx, job.ID, "w1")
	s.Require().NoError(err)
	s.Equal(export.StatusFailed, out.Job.Status)
	s.Require().NotNil(out.Job.ErrorMessage)
	s.Equal("api down", *out.Job.ErrorMessage)
}

func (s *ExportUseCaseTestSuite) TestRedeliveredRequestIsSkipped() {
	ctx := s.T().Context()
	job, err := s.request.Execute(ctx, "w1")
	s.Require().NoError(err)
	payload := service.ExportRequestPayload{JobID: job.ID, WeddingID: "w1"}

	s.Require().NoError(s.process.Execute(ctx, payload))
	s.uploader.body = ""
	s.Require().NoError(s.process.Execute(ctx, payload))
	s.Empty(s.uploader.body)
}

func (s *ExportUseCaseTestSuite) TestUnsavedCompletionDeletesArchiveAndFailsJob() {
	ctx := s.T().Context()
	job, err := s.request.Execute(ctx, "w1")
	s.Require().NoError(err)

	s.repo.failReady = true
	err = s.process.Execute(ctx, service.ExportRequestPayload{JobID: job.ID, WeddingID: "w1"})
	s.ErrorIs(err, apperror.ErrInternal)
	s.Equal([]string{"weddings/w1/exports/" + job.ID.String()}, s.uploader.deleted)

	out, err := s.get.Execute(ctx, job.ID, "w1")
	s.Require().NoError(err)
	s.Equal(export.StatusFailed, out.Job.Status)
	s.Nil(out.Job.ArchiveURL)
	s.Require().NotNil(out.Job.ErrorMessage)
	s.Contains(*out.Job.ErrorMessage, "save completed export")
	s.NotNil(out.Job.CompletedAt)
}

func (s *ExportUseCaseTestSuite) TestPublishFailureFailsJob() {
	s.publisher.err = errors.New("broker unavailable")

	_, err := s.request.Execute(s.T().Context(), "w1")
	s.ErrorIs(err, apperror.ErrInternal)

	jobs, err := s.get.List(s.T().Context(), "w1", 0)
	s.Require().NoError(err)
	s.Require().Len(jobs, 1)
	s.Equal(export.StatusFailed, jobs[0].Status)
}

func (s *ExportUseCaseTestSuite) TestOtherWeddingCannotReadJob() {
	job, err := s.request.Execute(s.T().Context(), "w1")
	s.Require().NoError(err)

	_, err = s.get.Execute(s.T().Context(), job.ID, "w2")
	s.ErrorIs(err, apperror.ErrNotFound)
}

func TestExportUseCaseTestSuite(t *testing.T) {
	suite.Run(t, new(ExportUseCaseTestSuite))
}
