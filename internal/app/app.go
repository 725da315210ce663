// Package app wires the stores, platform clients and sync orchestrator
// shared by the syncer process and the admin CLI.
package app

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/EpicAlbin03/hermitcraft/internal/config"
	"github.com/EpicAlbin03/hermitcraft/internal/db"
	"github.com/EpicAlbin03/hermitcraft/internal/repository"
	"github.com/EpicAlbin03/hermitcraft/internal/service"
	"github.com/EpicAlbin03/hermitcraft/internal/twitch"
	"github.com/EpicAlbin03/hermitcraft/internal/youtube"
)

type App struct {
	Pool     *pgxpool.Pool
	Cache    *service.CacheService
	Quota    *service.QuotaLedger
	YouTube  *youtube.Client
	Twitch   *twitch.Client
	Channels *repository.ChannelRepo
	Videos   *repository.VideoRepo
	Sync     *service.SyncService

	logger zerolog.Logger
}

// New applies migrations, connects to Postgres and Redis, and builds the
// orchestrator. Redis is optional.
func New(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*App, error) {
	if err := db.Migrate(cfg.DatabaseURL); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}

	pool, err := db.NewPool(ctx, cfg.DatabaseURL, logger)
	if err != nil {
		return nil, err
	}

	cache := service.NewCacheService(cfg.RedisURL, logger)
	quota := service.NewQuotaLedger(cache.Client(), cfg.YouTubeDailyQuota, logger)

	yt, err := youtube.NewClient(ctx, youtube.Options{
		APIKey:            cfg.YouTubeAPIKey,
		RequestsPerSecond: cfg.YouTubeRPS,
		Timeout:           cfg.HTTPTimeout,
		Quota:             quota,
	})
	if err != nil {
		cache.Close()
		pool.Close()
		return nil, err
	}

	tw, err := twitch.NewClient(ctx, twitch.Options{
		ClientID:          cfg.TwitchClientID,
		ClientSecret:      cfg.TwitchClientSecret,
		RequestsPerSecond: cfg.TwitchRPS,
		Timeout:           cfg.HTTPTimeout,
	})
	if err != nil {
		cache.Close()
		pool.Close()
		return nil, err
	}

	channels := repository.NewChannelRepo(pool)
	videos := repository.NewVideoRepo(pool)

	return &App{
		Pool:     pool,
		Cache:    cache,
		Quota:    quota,
		YouTube:  yt,
		Twitch:   tw,
		Channels: channels,
		Videos:   videos,
		Sync:     service.NewSyncService(yt, tw, channels, videos, cache, logger),
		logger:   logger,
	}, nil
}

// Close releases Redis and the pool, in that order.
func (a *App) Close() {
	a.Cache.Close()
	a.Pool.Close()
}

// ChannelTick refreshes live status, then profile metadata for every
// stored channel using the live map from the same tick.
func (a *App) ChannelTick(ctx context.Context, task string) error {
	live, _, err := a.Sync.SyncLiveStatus(ctx, task)
	if err != nil {
		live = nil
	}
	descs, err := a.Channels.ListDescriptors(ctx)
	if err != nil {
		return fmt.Errorf("list channels: %w", err)
	}
	_, err = a.Sync.SyncChannels(ctx, descs, task, live)
	return err
}

// LiveTick refreshes live status only.
func (a *App) LiveTick(ctx context.Context, task string) error {
	_, _, err := a.Sync.SyncLiveStatus(ctx, task)
	return err
}

// VideoTick syncs videos for every stored channel. A backfill is skipped
// once the day's quota is spent so the feed runs keep their detail calls.
func (a *App) VideoTick(ctx context.Context, opts service.VideoSyncOptions) error {
	if opts.Backfill && a.Quota != nil {
		if left := a.Quota.Remaining(ctx); left <= 0 {
			a.logger.Warn().Str("task", opts.TaskName).Msg("daily quota spent, skipping backfill")
			return nil
		}
	}
	ids, err := a.Channels.ListChannelIDs(ctx)
	if err != nil {
		return fmt.Errorf("list channels: %w", err)
	}
	_, err = a.Sync.SyncVideos(ctx, ids, opts)
	return err
}
