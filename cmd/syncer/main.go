package main

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v3"

	"github.com/EpicAlbin03/hermitcraft/internal/app"
	"github.com/EpicAlbin03/hermitcraft/internal/config"
	"github.com/EpicAlbin03/hermitcraft/internal/handler"
	"github.com/EpicAlbin03/hermitcraft/internal/logging"
	"github.com/EpicAlbin03/hermitcraft/internal/metrics"
	"github.com/EpicAlbin03/hermitcraft/internal/router"
	"github.com/EpicAlbin03/hermitcraft/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Init("info", "hermitcraft-syncer").Fatal().Err(err).Msg("invalid configuration")
	}
	logger := logging.Init(cfg.LogLevel, "hermitcraft-syncer")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("startup failed")
	}
	defer a.Close()

	metrics.InitMetrics(a.Pool)

	workers := []*service.SyncWorker{
		service.NewSyncWorker("channels", cfg.ChannelSyncInterval, func(ctx context.Context) error {
			return a.ChannelTick(ctx, cfg.TaskName)
		}, logger),
		service.NewSyncWorker("live", cfg.LiveSyncInterval, func(ctx context.Context) error {
			return a.LiveTick(ctx, cfg.TaskName)
		}, logger),
		service.NewSyncWorker("videos", cfg.VideoSyncInterval, func(ctx context.Context) error {
			return a.VideoTick(ctx, service.VideoSyncOptions{
				TaskName:   cfg.TaskName,
				MaxResults: cfg.VideoSyncMaxResults,
			})
		}, logger),
	}
	if cfg.BackfillEnabled {
		workers = append(workers, service.NewSyncWorker("backfill", cfg.BackfillInterval, func(ctx context.Context) error {
			return a.VideoTick(ctx, service.VideoSyncOptions{
				TaskName:   cfg.TaskName,
				Backfill:   true,
				MaxResults: cfg.BackfillMaxResults,
			})
		}, logger))
	}

	var wg sync.WaitGroup
	for _, w := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			w.Start(ctx)
		}()
	}

	server := fiber.New(fiber.Config{
		AppName:      "hermitcraft-syncer",
		ServerHeader: "hermitcraft",
		ReadTimeout:  10 * time.Second,
	})
	limiter := router.Setup(server, &router.Handlers{
		Health: handler.NewHealthHandler(a.Pool, a.Cache.Client()),
		Sync:   handler.NewSyncHandler(a.Sync, a.Channels, cfg.VideoSyncMaxResults, logger),
	}, cfg.CORSOrigins, logger)
	defer limiter.Stop()

	go func() {
		logger.Info().Str("port", cfg.Port).Str("env", cfg.Environment).Msg("ops server starting")
		if err := server.Listen(":"+cfg.Port, fiber.ListenConfig{DisableStartupMessage: true}); err != nil {
			logger.Error().Err(err).Msg("ops server stopped")
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("shutting down")

	for _, w := range workers {
		w.Stop()
	}
	if err := server.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Warn().Err(err).Msg("ops server shutdown")
	}
	wg.Wait()
	logger.Info().Msg("shutdown complete")
}
