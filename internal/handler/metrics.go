package handler

import (
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"

	"github.com/EpicAlbin03/hermitcraft/internal/metrics"
)

// MetricsMiddleware records request duration and in-flight count.
func MetricsMiddleware() fiber.Handler {
	return func(c fiber.Ctx) error {
		if c.Path() == "/metrics" {
			return c.Next()
		}

		// Fiber's path and method are backed by the fasthttp buffer, which
		// handlers may reuse. Copy them before c.Next().
		endpoint := sanitizeEndpoint(string([]byte(c.Path())))
		method := string([]byte(c.Method()))

		metrics.RequestsInFlight.Inc()
		start := time.Now()

		err := c.Next()

		status := strconv.Itoa(c.Response().StatusCode())
		metrics.RequestDuration.WithLabelValues(endpoint, method, status).Observe(time.Since(start).Seconds())
		metrics.RequestsInFlight.Dec()

		return err
	}
}

// sanitizeEndpoint collapses id segments to keep label cardinality bounded.
func sanitizeEndpoint(path string) string {
	switch {
	case strings.HasPrefix(path, "/api/sync/channels/"):
		return "/api/sync/channels/:channelId"
	case strings.HasPrefix(path, "/api/sync/videos/"):
		return "/api/sync/videos/:videoId"
	case strings.HasPrefix(path, "/api/"), strings.HasPrefix(path, "/health/"):
		return path
	default:
		return "other"
	}
}

// MetricsHandler serves the Prometheus /metrics endpoint via Fiber.
func MetricsHandler() fiber.Handler {
	httpHandler := fasthttpadaptor.NewFastHTTPHandler(promhttp.Handler())
	return func(c fiber.Ctx) error {
		httpHandler(c.RequestCtx())
		return nil
	}
}
