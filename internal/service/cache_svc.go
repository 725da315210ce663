package service

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/EpicAlbin03/hermitcraft/internal/metrics"
)

// CacheService invalidates the read path's Redis entries after sync writes.
// A nil client turns every operation into a no-op.
type CacheService struct {
	rdb *redis.Client
}

// NewCacheService connects to Redis. If redisURL is empty or the connection
// fails, it returns a CacheService with a nil client.
func NewCacheService(redisURL string, logger zerolog.Logger) *CacheService {
	log := logger.With().Str("component", "redis").Logger()
	if redisURL == "" {
		log.Info().Msg("no URL configured, cache invalidation disabled")
		return &CacheService{}
	}

	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		log.Warn().Err(err).Msg("invalid URL, cache invalidation disabled")
		return &CacheService{}
	}

	rdb := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Warn().Err(err).Msg("connection failed, cache invalidation disabled")
		rdb.Close()
		return &CacheService{}
	}

	log.Info().Msg("connected, cache invalidation enabled")
	return &CacheService{rdb: rdb}
}

// Client returns the underlying Redis client (for health checks). May be nil.
func (c *CacheService) Client() *redis.Client {
	return c.rdb
}

// InvalidateChannel drops the cached channel document and bumps the
// version that keys the channel's cached video listings.
func (c *CacheService) InvalidateChannel(ctx context.Context, channelID string) error {
	if c.rdb == nil {
		return nil
	}
	pipe := c.rdb.TxPipeline()
	pipe.Del(ctx, channelKey(channelID))
	pipe.Incr(ctx, videosVersionKey(channelID))
	_, err := pipe.Exec(ctx)
	if err != nil {
		metrics.CacheInvalidations.WithLabelValues("error").Inc()
		return err
	}
	metrics.CacheInvalidations.WithLabelValues("ok").Inc()
	return nil
}

// Close shuts down the Redis connection.
func (c *CacheService) Close() error {
	if c.rdb == nil {
		return nil
	}
	return c.rdb.Close()
}

func channelKey(channelID string) string {
	return fmt.Sprintf("channel:%s", channelID)
}

func videosVersionKey(channelID string) string {
	return fmt.Sprintf("channel:%s:videos:version", channelID)
}
