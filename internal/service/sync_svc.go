package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/EpicAlbin03/hermitcraft/internal/metrics"
	"github.com/EpicAlbin03/hermitcraft/internal/model"
	"github.com/EpicAlbin03/hermitcraft/internal/youtube"
)

// DefaultConcurrency is the per-run fan-out ceiling for external calls.
const DefaultConcurrency = 5

// CatalogClient is the metered video-platform API plus its free feed.
type CatalogClient interface {
	GetChannelDetails(ctx context.Context, channelID string) (*youtube.ChannelDetails, error)
	GetBatchVideoDetails(ctx context.Context, videoIDs []string) (map[string]youtube.VideoDetails, error)
	GetVideoIDsFromUploadsPlaylist(ctx context.Context, channelID string, maxResults int) ([]string, error)
	GetRSSVideoIDs(ctx context.Context, channelID string) ([]string, error)
	AreVideosShorts(ctx context.Context, videoIDs []string, channelID string, maxResults int) (map[string]bool, error)
	IsVideoShort(ctx context.Context, videoID, channelID string) (bool, error)
}

// LiveClient answers batched "is this user live" lookups.
type LiveClient interface {
	AreChannelsLive(ctx context.Context, userIDs []string) (map[string]bool, error)
}

type ChannelStore interface {
	UpsertChannel(ctx context.Context, in model.ChannelUpsert) (model.UpsertOutcome, error)
	GetChannel(ctx context.Context, channelID string) (*model.Channel, error)
	ListChannelIDs(ctx context.Context) ([]string, error)
	ListDescriptors(ctx context.Context) ([]model.ChannelDescriptor, error)
	ListLiveLinks(ctx context.Context) ([]model.LiveLink, error)
	UpdateChannel(ctx context.Context, channelID string, patch model.ChannelPatch) error
}

type VideoStore interface {
	UpsertVideo(ctx context.Context, in model.VideoUpsert) (model.UpsertOutcome, error)
	GetVideo(ctx context.Context, videoID string) (*model.Video, error)
	GetVideoFlags(ctx context.Context, videoIDs []string) (map[string]model.VideoFlags, error)
	MarkVideosAsPrivate(ctx context.Context, videoIDs []string) (int64, error)
	SetVideoShort(ctx context.Context, videoID string, isShort bool) error
}

// CacheInvalidator drops read-path cache entries for a channel.
type CacheInvalidator interface {
	InvalidateChannel(ctx context.Context, channelID string) error
}

// SyncResult summarizes one run.
type SyncResult struct {
	RunID          string        `json:"runId"`
	Operation      string        `json:"operation"`
	Task           string        `json:"task"`
	Synced         int           `json:"synced"`
	Skipped        int           `json:"skipped"`
	Failed         int           `json:"failed"`
	MarkedPrivate  int64         `json:"markedPrivate"`
	FailedChannels int           `json:"failedChannels"`
	QuotaExceeded  bool          `json:"quotaExceeded,omitempty"`
	Elapsed        time.Duration `json:"elapsedMs"`
}

// SyncService decides what to fetch, reconciles it with stored state and
// writes it back. It holds no state between runs.
type SyncService struct {
	catalog     CatalogClient
	live        LiveClient
	channels    ChannelStore
	videos      VideoStore
	cache       CacheInvalidator
	logger      zerolog.Logger
	concurrency int
	now         func() time.Time
}

// NewSyncService wires the orchestrator. cache may be nil.
func NewSyncService(catalog CatalogClient, live LiveClient, channels ChannelStore, videos VideoStore, cache CacheInvalidator, logger zerolog.Logger) *SyncService {
	return &SyncService{
		catalog:     catalog,
		live:        live,
		channels:    channels,
		videos:      videos,
		cache:       cache,
		logger:      logger.With().Str("component", "sync").Logger(),
		concurrency: DefaultConcurrency,
		now:         time.Now,
	}
}

// run holds the per-invocation context shared by the stages of one sync.
type run struct {
	result *SyncResult
	start  time.Time
	log    zerolog.Logger
}

func (s *SyncService) begin(operation, task string) *run {
	id := uuid.NewString()
	r := &run{
		result: &SyncResult{RunID: id, Operation: operation, Task: task},
		start:  s.now(),
		log: s.logger.With().
			Str("operation", operation).
			Str("task", task).
			Str("run_id", id).
			Logger(),
	}
	r.log.Info().Msg("sync started")
	return r
}

// catalogFailure starts a log event for a failed call. Quota rejections
// are logged at error level and flagged on the result. Callers hold the
// run's mutex.
func (r *run) catalogFailure(err error) *zerolog.Event {
	var apiErr *youtube.APIError
	if !errors.As(err, &apiErr) {
		return r.log.Warn().Err(err)
	}

	var evt *zerolog.Event
	if apiErr.QuotaExceeded() {
		r.result.QuotaExceeded = true
		evt = r.log.Error().Bool("quota_exceeded", true)
	} else {
		evt = r.log.Warn()
	}
	if code := apiErr.StatusCode(); code != 0 {
		evt = evt.Int("status", code)
	}
	return evt.Err(err)
}

// finish stamps elapsed time, logs the summary line and exports counters.
// It runs whether or not items failed.
func (s *SyncService) finish(r *run, err error) {
	res := r.result
	res.Elapsed = s.now().Sub(r.start)

	status := "ok"
	evt := r.log.Info()
	if err != nil {
		status = "error"
		evt = r.log.Error().Err(err)
	} else if res.Failed > 0 || res.FailedChannels > 0 {
		status = "partial"
		evt = r.log.Warn()
	}
	evt.
		Int("synced", res.Synced).
		Int("skipped", res.Skipped).
		Int("failed", res.Failed).
		Int("failed_channels", res.FailedChannels).
		Int64("marked_private", res.MarkedPrivate).
		Bool("quota_exceeded", res.QuotaExceeded).
		Dur("elapsed", res.Elapsed).
		Msg("sync finished")

	metrics.SyncRuns.WithLabelValues(res.Operation, status).Inc()
	metrics.SyncDuration.WithLabelValues(res.Operation).Observe(res.Elapsed.Seconds())
	metrics.SyncItems.WithLabelValues(res.Operation, "synced").Add(float64(res.Synced))
	metrics.SyncItems.WithLabelValues(res.Operation, "skipped").Add(float64(res.Skipped))
	metrics.SyncItems.WithLabelValues(res.Operation, "failed").Add(float64(res.Failed))
	metrics.SyncItems.WithLabelValues(res.Operation, "marked_private").Add(float64(res.MarkedPrivate))
}

// forEachLimit runs fn for every item with at most limit in flight.
// fn handles its own errors; one item never stops the others.
func forEachLimit[T any](ctx context.Context, items []T, limit int, fn func(ctx context.Context, item T)) {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for _, item := range items {
		g.Go(func() error {
			fn(ctx, item)
			return nil
		})
	}
	_ = g.Wait()
}

func chunk[T any](items []T, size int) [][]T {
	var out [][]T
	for len(items) > size {
		out = append(out, items[:size:size])
		items = items[size:]
	}
	if len(items) > 0 {
		out = append(out, items)
	}
	return out
}

func (s *SyncService) invalidate(ctx context.Context, log zerolog.Logger, channelIDs ...string) {
	if s.cache == nil {
		return
	}
	for _, id := range channelIDs {
		if err := s.cache.InvalidateChannel(ctx, id); err != nil {
			log.Warn().Err(err).Str("channel_id", id).Msg("cache invalidation failed")
		}
	}
}

func failure(format string, err error, args ...any) *SyncFailure {
	return &SyncFailure{Context: fmt.Sprintf(format, args...), Err: err}
}
