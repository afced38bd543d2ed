package gallery

import (
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
	"golang.org/x/sync/errgroup"
)

var tracer = otel.Tracer("gallery_usecase")

const defaultProbeConcurrency = 8

type Config struct {
	ProbeConcurrency int
	ProbeCacheTTL    time.Duration
	// Location is used for the timestamps of the message transcript.
	Location *time.Location
}

// Gallery holds the reachable memories of one wedding.
type Gallery struct {
	WeddingID   string            `json:"wedding_id"`
	Photos      []*memory.Record  `json:"photos"`
	Videos      []*memory.Record  `json:"videos"`
	Audios      []*memory.Record  `json:"audios"`
	Messages    []*memory.Message `json:"messages"`
	Unreachable int               `json:"unreachable"`
	Warning     string            `json:"warning,omitempty"`
}

func (g *Gallery) Assets() []*memory.Record {
	m := memory.Memories{Photos: g.Photos, Videos: g.Videos, Audios: g.Audios}
	return m.Assets()
}

type GalleryUseCase struct {
	api     service.MemoryAPI
	fetcher service.AssetFetcher
	cache   service.ProbeCache
	cfg     Config
	logger  logger.Logger
}

func NewGalleryUseCase(
	api service.MemoryAPI,
	fetcher service.AssetFetcher,
	cache service.ProbeCache,
	cfg Config,
	log logger.Logger,
) *GalleryUseCase {
	if cfg.ProbeConcurrency <= 0 {
		cfg.ProbeConcurrency = defaultProbeConcurrency
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	return &GalleryUseCase{api: api, fetcher: fetcher, cache: cache, cfg: cfg, logger: log}
}

// Load fetches the wedding's memories and keeps only the assets whose URL
// currently resolves. Probes run concurrently; filtering happens after all of
// them settle.
func (uc *GalleryUseCase) Load(ctx context.Context, weddingID string) (*Gallery, error) {
	ctx, span := tracer.Start(ctx, "Load")
	defer span.End()
	span.SetAttributes(attribute.String("wedding_id", weddingID))

	if weddingID == "" {
		return nil, apperror.NewInvalidInput("wedding id is required", nil)
	}

	mem, err := uc.api.GetMemories(ctx, weddingID)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	groups := [][]*memory.Record{mem.Photos, mem.Videos, mem.Audios}
	reachable := make([][]bool, len(groups))

	var g errgroup.Group
	g.SetLimit(uc.cfg.ProbeConcurrency)
	for gi, records := range groups {
		reachable[gi] = make([]bool, len(records))
		for i, rec := range records {
			g.Go(func() error {
				reachable[gi][i] = uc.Probe(ctx, rec.URL)
				return nil
			})
		}
	}
	_ = g.Wait()

	out := &Gallery{WeddingID: weddingID, Messages: mem.Messages}
	kept := make([][]*memory.Record, len(groups))
	for gi, records := range groups {
		kept[gi] = make([]*memory.Record, 0, len(records))
		for i, rec := range records {
			if reachable[gi][i] {
				kept[gi] = append(kept[gi], rec)
				continue
			}
			out.Unreachable++
			uc.logger.Debug("Excluding unreachable asset", zap.Error(apperror.NewUnreachable(rec.URL, nil)))
		}
	}
	out.Photos, out.Videos, out.Audios = kept[0], kept[1], kept[2]
	if out.Messages == nil {
		out.Messages = []*memory.Message{}
	}

	if out.Unreachable > 0 {
		out.Warning = fmt.Sprintf("Alguns arquivos de mídia (%d) não puderam ser carregados. Isso pode ocorrer se os arquivos foram removidos do storage.", out.Unreachable)
		uc.logger.Warn("Some stored assets are unreachable", zap.String("wedding_id", weddingID), zap.Int("count", out.Unreachable))
	}
	span.SetAttributes(attribute.Int("unreachable", out.Unreachable))
	return out, nil
}

// Probe reports whether url currently resolves, consulting the cache first.
func (uc *GalleryUseCase) Probe(ctx context.Context, url string) bool {
	if url == "" {
		return false
	}
	if uc.cache != nil {
		ok, found, err := uc.cache.GetProbe(ctx, url)
		if err != nil {
			uc.logger.Warn("Probe cache lookup failed", zap.String("url", url), zap.Error(err))
		} else if found {
			metrics.RecordProbe(ok, true)
			return ok
		}
	}

	ok := uc.fetcher.Probe(ctx, url) == nil
	metrics.RecordProbe(ok, false)

	if uc.cache != nil && uc.cfg.ProbeCacheTTL > 0 {
		if err := uc.cache.SetProbe(ctx, url, ok, uc.cfg.ProbeCacheTTL); err != nil {
			uc.logger.Warn("Probe cache write failed", zap.String("url", url), zap.Error(err))
		}
	}
	return ok
}

// ArchiveName returns the download name of the wedding's archive.
func (uc *GalleryUseCase) ArchiveName(ctx context.Context, weddingID string) string {
	w, err := uc.api.GetWedding(ctx, weddingID)
	if err != nil {
		uc.logger.Warn("Failed to load wedding for archive name", zap.String("wedding_id", weddingID), zap.Error(err))
		return (*memory.Wedding)(nil).ArchiveName()
	}
	return w.ArchiveName()
}
