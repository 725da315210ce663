package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
)

// NewCORS returns a CORS middleware for the ops surface, or nil when
// corsOrigins is empty. corsOrigins is a comma-separated list of allowed
// origins; "*" allows all.
func NewCORS(corsOrigins string) fiber.Handler {
	corsOrigins = strings.TrimSpace(corsOrigins)
	if corsOrigins == "" {
		return nil
	}

	origins := []string{"*"}
	if corsOrigins != "*" {
		origins = strings.Split(corsOrigins, ",")
		for i, o := range origins {
			origins[i] = strings.TrimSpace(o)
		}
	}

	return cors.New(cors.Config{
		AllowOrigins: origins,
		AllowMethods: []string{
			fiber.MethodGet,
			fiber.MethodPost,
			fiber.MethodOptions,
		},
		AllowHeaders: []string{
			"Origin",
			"Content-Type",
			"Accept",
		},
		ExposeHeaders: []string{
			"X-RateLimit-Limit",
			"X-RateLimit-Remaining",
			"X-RateLimit-Reset",
		},
		MaxAge: 3600,
	})
}
