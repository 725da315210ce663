package router

import (
	"github.com/gofiber/fiber/v3"
	recoverer "github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/rs/zerolog"

	"github.com/EpicAlbin03/hermitcraft/internal/handler"
	"github.com/EpicAlbin03/hermitcraft/internal/middleware"
)

// Handlers holds all handler instances needed by the router.
type Handlers struct {
	Health *handler.HealthHandler
	Sync   *handler.SyncHandler
}

// Setup configures the middleware stack and the ops routes. It returns the
// sync rate limiter so the caller can stop it on shutdown.
func Setup(app *fiber.App, h *Handlers, corsOrigins string, logger zerolog.Logger) *middleware.RateLimiter {
	app.Use(recoverer.New())
	app.Use(middleware.NewRequestLogger(logger))
	app.Use(handler.MetricsMiddleware())
	if cors := middleware.NewCORS(corsOrigins); cors != nil {
		app.Use(cors)
	}

	app.Get("/health/live", h.Health.Live)
	app.Get("/health/ready", h.Health.Ready)
	app.Get("/metrics", handler.MetricsHandler())

	limiter := middleware.NewSyncRateLimiter()
	sync := app.Group("/api/sync", limiter.Handler())
	sync.Post("/channels", h.Sync.SyncChannels)
	sync.Post("/channels/:channelId", h.Sync.SyncChannel)
	sync.Post("/videos", h.Sync.SyncVideos)
	sync.Post("/videos/:videoId", h.Sync.SyncVideo)
	sync.Post("/live", h.Sync.SyncLive)

	return limiter
}
