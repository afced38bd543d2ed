package main

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/khoahotran/wedding-memories/adapters/event"
	"github.com/khoahotran/wedding-memories/adapters/media_storage"
	"github.com/khoahotran/wedding-memories/adapters/memoryapi"
	"github.com/khoahotran/wedding-memories/adapters/persistence"
	"github.com/khoahotran/wedding-memories/internal/application/service"
	exportUC "github.com/khoahotran/wedding-memories/internal/application/usecase/export"
	galleryUC "github.com/khoahotran/wedding-memories/internal/application/usecase/gallery"
	"github.com/khoahotran/wedding-memories/internal/config"
	"github.com/khoahotran/wedding-memories/pkg/logger"
	"github.com/khoahotran/wedding-memories/pkg/tracing"
)

const serviceName = "wedding-memories-worker"

func main() {
	// Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("FATAL: cannot load config: %v", err)
	}

	appLogger := logger.NewZapLogger(cfg.App.Env, serviceName)
	appLogger.Info("Starting Wedding Memories Worker...")

	tp, err := tracing.NewTracerProvider(cfg, appLogger, serviceName)
	if err != nil {
		appLogger.Fatal("cannot init tracer", err)
	}
	defer tracing.Shutdown(context.Background(), tp, appLogger)

	// Database
	dbPool, err := persistence.NewPostgresPool(cfg, appLogger)
	if err != nil {
		appLogger.Fatal("cannot connect Postgres", err)
	}
	defer dbPool.Close()

	redisClient, err := persistence.NewRedisClient(cfg, appLogger)
	if err != nil {
		appLogger.Fatal("cannot connect Redis", err)
	}
	defer redisClient.Close()

	// Cloudinary Uploader
	uploader, err := media_storage.NewCloudinaryAdapter(cfg, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to initialize uploader", err)
	}

	// Repositories
	exportRepo := persistence.NewPostgresExportRepo(dbPool, appLogger)
	redisCache := persistence.NewRedisCache(redisClient)

	location, err := cfg.GalleryLocation()
	if err != nil {
		appLogger.Fatal("invalid gallery timezone", err, zap.String("timezone", cfg.Gallery.Timezone))
	}

	// Worker Use Cases
	galleryUseCase := galleryUC.NewGalleryUseCase(
		memoryapi.NewClient(cfg, appLogger),
		memoryapi.NewAssetFetcher(cfg.API.Timeout),
		redisCache,
		galleryUC.Config{
			ProbeConcurrency: cfg.Gallery.ProbeConcurrency,
			ProbeCacheTTL:    cfg.Gallery.ProbeCacheTTL,
			Location:         location,
		},
		appLogger,
	)
	processExportUC := exportUC.NewProcessExportUseCase(exportRepo, redisCache, galleryUseCase, uploader, os.TempDir(), appLogger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var wg sync.WaitGroup
	wg.Add(2)

	// Kafka Consumers
	go func() {
		defer wg.Done()
		consume(ctx, appLogger, cfg.Kafka.Brokers, event.TopicExportRequests, "export-processor-group", func(ctx context.Context, msg kafka.Message) error {
			var payload service.ExportRequestPayload
			if err := json.Unmarshal(msg.Value, &payload); err != nil {
				return errSkip{err}
			}
			return processExportUC.Execute(ctx, payload)
		})
	}()

	go func() {
		defer wg.Done()
		consume(ctx, appLogger, cfg.Kafka.Brokers, event.TopicMemoryEvents, "probe-warmer-group", func(ctx context.Context, msg kafka.Message) error {
			var payload service.MemoryEventPayload
			if err := json.Unmarshal(msg.Value, &payload); err != nil {
				return errSkip{err}
			}
			if payload.EventType != service.MemoryEventTypeSubmitted {
				return nil
			}
			// Newly submitted assets are probed once so the next gallery load hits the cache.
			galleryUseCase.Probe(ctx, payload.URL)
			return nil
		})
	}()

	wg.Wait()
	appLogger.Info("Worker stopped")
}
