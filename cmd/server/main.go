package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/khoahotran/wedding-memories/adapters/device"
	"github.com/khoahotran/wedding-memories/adapters/event"
	httpAdapter "github.com/khoahotran/wedding-memories/adapters/http"
	"github.com/khoahotran/wedding-memories/adapters/mediainfo"
	"github.com/khoahotran/wedding-memories/adapters/memoryapi"
	"github.com/khoahotran/wedding-memories/adapters/persistence"
	"github.com/khoahotran/wedding-memories/adapters/preview"
	authUC "github.com/khoahotran/wedding-memories/internal/application/usecase/auth"
	captureUC "github.com/khoahotran/wedding-memories/internal/application/usecase/capture"
	exportUC "github.com/khoahotran/wedding-memories/internal/application/usecase/export"
	galleryUC "github.com/khoahotran/wedding-memories/internal/application/usecase/gallery"
	shareUC "github.com/khoahotran/wedding-memories/internal/application/usecase/share"
	submissionUC "github.com/khoahotran/wedding-memories/internal/application/usecase/submission"
	"github.com/khoahotran/wedding-memories/internal/config"
	"github.com/khoahotran/wedding-memories/pkg/auth"
	"github.com/khoahotran/wedding-memories/pkg/logger"
	"github.com/khoahotran/wedding-memories/pkg/tracing"
)

const serviceName = "wedding-memories-api"

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("FATAL: cannot load config: %v", err)
	}

	appLogger := logger.NewZapLogger(cfg.App.Env, serviceName)
	appLogger.Info("Start Wedding Memories API Server...")

	tp, err := tracing.NewTracerProvider(cfg, appLogger, serviceName)
	if err != nil {
		appLogger.Fatal("cannot init tracer", err)
	}
	defer tracing.Shutdown(context.Background(), tp, appLogger)

	// Initialize dependencies
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

	kafkaClient, err := event.NewKafkaProducerClient(cfg, appLogger)
	if err != nil {
		appLogger.Fatal("cannot init Kafka", err)
	}
	defer kafkaClient.Close()

	// Repositories
	exportRepo := persistence.NewPostgresExportRepo(dbPool, appLogger)
	redisCache := persistence.NewRedisCache(redisClient)

	// Services
	jwtSvc := auth.NewJWTService(cfg.Auth.JWTSecret, cfg.Auth.TokenLifespan)
	memoryAPI := memoryapi.NewClient(cfg, appLogger)
	fetcher := memoryapi.NewAssetFetcher(cfg.API.Timeout)
	previews, err := preview.NewFilesystemStore(cfg.Capture.SpoolDir, appLogger)
	if err != nil {
		appLogger.Fatal("cannot init preview store", err)
	}
	camera := device.NewFFmpegDevice(cfg, appLogger)

	location, err := cfg.GalleryLocation()
	if err != nil {
		appLogger.Fatal("invalid gallery timezone", err, zap.String("timezone", cfg.Gallery.Timezone))
	}

	// Use Cases
	guestAccessUseCase := authUC.NewGuestAccessUseCase(memoryAPI, jwtSvc, appLogger)
	hostAccessUseCase := authUC.NewHostAccessUseCase(memoryAPI, jwtSvc, appLogger)
	submitUseCase := submissionUC.NewSubmitUseCase(memoryAPI, mediainfo.NewWebMDecoder(), kafkaClient, appLogger)
	createMessageUseCase := submissionUC.NewCreateMessageUseCase(memoryAPI, appLogger)
	galleryUseCase := galleryUC.NewGalleryUseCase(memoryAPI, fetcher, redisCache, galleryUC.Config{
		ProbeConcurrency: cfg.Gallery.ProbeConcurrency,
		ProbeCacheTTL:    cfg.Gallery.ProbeCacheTTL,
		Location:         location,
	}, appLogger)
	requestExportUseCase := exportUC.NewRequestExportUseCase(exportRepo, galleryUseCase, kafkaClient, appLogger)
	getExportUseCase := exportUC.NewGetExportUseCase(exportRepo, redisCache, appLogger)
	shareUseCase := shareUC.NewShareUseCase(memoryAPI, cfg.Share.BaseURL)

	registry := captureUC.NewRegistry(captureUC.NewDeviceAdapter(camera, appLogger), previews, submitUseCase, cfg.Capture.SessionIdleTimeout, appLogger)
	defer registry.CloseAll()

	// Abandoned capture sessions give the camera back
	sweepCtx, stopSweep := context.WithCancel(context.Background())
	defer stopSweep()
	go registry.Run(sweepCtx)

	// HTTP Handlers
	handlers := httpAdapter.Handlers{
		Auth:    httpAdapter.NewAuthHandler(guestAccessUseCase, hostAccessUseCase, appLogger),
		Capture: httpAdapter.NewCaptureHandler(registry, appLogger),
		Message: httpAdapter.NewMessageHandler(createMessageUseCase),
		Gallery: httpAdapter.NewGalleryHandler(galleryUseCase, appLogger),
		Export:  httpAdapter.NewExportHandler(requestExportUseCase, getExportUseCase),
		Share:   httpAdapter.NewShareHandler(shareUseCase),
	}

	// Setup Gin router
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery(), httpAdapter.ErrorMiddleware(appLogger))
	httpAdapter.RegisterRoutes(router, handlers,
		httpAdapter.GuestAuthMiddleware(jwtSvc, appLogger),
		httpAdapter.HostAuthMiddleware(jwtSvc, appLogger),
	)

	srv := &http.Server{
		Addr:    ":" + cfg.App.Port,
		Handler: router,
	}

	go func() {
		appLogger.Info("Server running", zap.String("port", cfg.App.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Fatal("Cannot run server", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	appLogger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		appLogger.Error("Server forced to shutdown", err)
	}
}
