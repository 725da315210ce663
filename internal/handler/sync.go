package handler

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v3"
	"github.com/rs/zerolog"

	"github.com/EpicAlbin03/hermitcraft/internal/middleware"
	"github.com/EpicAlbin03/hermitcraft/internal/model"
	"github.com/EpicAlbin03/hermitcraft/internal/repository"
	"github.com/EpicAlbin03/hermitcraft/internal/service"
)

// TaskName tags runs started over HTTP.
const TaskName = "HTTP"

// Syncer is the subset of *service.SyncService the triggers call.
type Syncer interface {
	SyncChannels(ctx context.Context, channels []model.ChannelDescriptor, taskName string, liveStatus map[string]bool) (*service.SyncResult, error)
	SyncChannel(ctx context.Context, d model.ChannelDescriptor, taskName string) (*service.SyncResult, error)
	SyncVideos(ctx context.Context, channelIDs []string, opts service.VideoSyncOptions) (*service.SyncResult, error)
	SyncVideo(ctx context.Context, videoID, taskName string) (model.UpsertOutcome, error)
	SyncLiveStatus(ctx context.Context, taskName string) (map[string]bool, *service.SyncResult, error)
}

// ChannelLister resolves which channels a trigger covers.
type ChannelLister interface {
	GetChannel(ctx context.Context, channelID string) (*model.Channel, error)
	ListChannelIDs(ctx context.Context) ([]string, error)
	ListDescriptors(ctx context.Context) ([]model.ChannelDescriptor, error)
}

type SyncHandler struct {
	svc               Syncer
	channels          ChannelLister
	defaultMaxResults int
	logger            zerolog.Logger
}

func NewSyncHandler(svc Syncer, channels ChannelLister, defaultMaxResults int, logger zerolog.Logger) *SyncHandler {
	return &SyncHandler{
		svc:               svc,
		channels:          channels,
		defaultMaxResults: defaultMaxResults,
		logger:            logger.With().Str("component", "sync_handler").Logger(),
	}
}

// SyncChannels handles POST /api/sync/channels.
func (h *SyncHandler) SyncChannels(c fiber.Ctx) error {
	descs, err := h.channels.ListDescriptors(c.Context())
	if err != nil {
		return h.internal(c, err, "Failed to list channels")
	}
	res, err := h.svc.SyncChannels(c.Context(), descs, TaskName, nil)
	if err != nil {
		return h.internal(c, err, "Channel sync failed")
	}
	return c.JSON(res)
}

// SyncChannel handles POST /api/sync/channels/:channelId. Unknown channels
// are synced from a bare descriptor, which inserts them.
func (h *SyncHandler) SyncChannel(c fiber.Ctx) error {
	channelID, msg := middleware.ValidateChannelID(c.Params("channelId"))
	if msg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_PARAM", msg)
	}

	desc := model.ChannelDescriptor{ChannelID: channelID}
	stored, err := h.channels.GetChannel(c.Context(), channelID)
	switch {
	case err == nil:
		desc = stored.Descriptor()
	case !errors.Is(err, repository.ErrNotFound):
		return h.internal(c, err, "Failed to load channel")
	}

	res, err := h.svc.SyncChannel(c.Context(), desc, TaskName)
	if err != nil {
		if service.IsNotFound(err) {
			return middleware.ErrorResponse(c, fiber.StatusNotFound, "NOT_FOUND", "Channel not found")
		}
		return h.internal(c, err, "Channel sync failed")
	}
	return c.JSON(res)
}

// SyncVideos handles POST /api/sync/videos?backfill=&maxResults=.
func (h *SyncHandler) SyncVideos(c fiber.Ctx) error {
	backfill, msg := middleware.ValidateBool("backfill", c.Query("backfill"))
	if msg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_PARAM", msg)
	}
	fallback := h.defaultMaxResults
	if backfill {
		fallback = 0
	}
	maxResults, msg := middleware.ValidateMaxResults(c.Query("maxResults"), fallback)
	if msg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_PARAM", msg)
	}

	ids, err := h.channels.ListChannelIDs(c.Context())
	if err != nil {
		return h.internal(c, err, "Failed to list channels")
	}
	res, err := h.svc.SyncVideos(c.Context(), ids, service.VideoSyncOptions{
		TaskName:   TaskName,
		Backfill:   backfill,
		MaxResults: maxResults,
	})
	if err != nil {
		return h.internal(c, err, "Video sync failed")
	}
	return c.JSON(res)
}

// SyncVideo handles POST /api/sync/videos/:videoId.
func (h *SyncHandler) SyncVideo(c fiber.Ctx) error {
	videoID, msg := middleware.ValidateVideoID(c.Params("videoId"))
	if msg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_PARAM", msg)
	}

	outcome, err := h.svc.SyncVideo(c.Context(), videoID, TaskName)
	if err != nil {
		if service.IsNotFound(err) {
			return middleware.ErrorResponse(c, fiber.StatusNotFound, "NOT_FOUND", "Video not found")
		}
		return h.internal(c, err, "Video sync failed")
	}
	return c.JSON(fiber.Map{"videoId": videoID, "outcome": outcome})
}

// SyncLive handles POST /api/sync/live.
func (h *SyncHandler) SyncLive(c fiber.Ctx) error {
	_, res, err := h.svc.SyncLiveStatus(c.Context(), TaskName)
	if err != nil {
		return h.internal(c, err, "Live status sync failed")
	}
	return c.JSON(res)
}

func (h *SyncHandler) internal(c fiber.Ctx, err error, message string) error {
	h.logger.Error().Err(err).Str("path", c.Path()).Msg(message)
	return middleware.ErrorResponse(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", message)
}
