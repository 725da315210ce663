package middleware

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v3"
)

// Field length limits matching the schema.
const (
	MaxVideoIDLen   = 16
	MaxChannelIDLen = 32
	MaxResultsLimit = 5000
)

var (
	// videoIDRe matches catalog video ids: alphanumeric, dash, underscore.
	videoIDRe = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)
	// channelIDRe matches channel ids and legacy usernames.
	channelIDRe = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)
)

// ErrorResponse writes the standard error body.
func ErrorResponse(c fiber.Ctx, status int, code, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"error": fiber.Map{
			"code":    code,
			"message": message,
		},
	})
}

// ValidateVideoID checks that a video id is well-formed and within schema
// limits. It returns the trimmed id or an error message.
func ValidateVideoID(id string) (string, string) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", "videoId is required"
	}
	if len(id) > MaxVideoIDLen {
		return "", "videoId must be at most 16 characters"
	}
	if !videoIDRe.MatchString(id) {
		return "", "videoId contains invalid characters"
	}
	return id, ""
}

// ValidateChannelID checks that a channel id is well-formed.
func ValidateChannelID(id string) (string, string) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", "channelId is required"
	}
	if len(id) > MaxChannelIDLen {
		return "", "channelId must be at most 32 characters"
	}
	if !channelIDRe.MatchString(id) {
		return "", "channelId contains invalid characters"
	}
	return id, ""
}

// ValidateMaxResults parses an optional maxResults query value. Empty means
// fallback.
func ValidateMaxResults(raw string, fallback int) (int, string) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback, ""
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, "maxResults must be a non-negative integer"
	}
	if n > MaxResultsLimit {
		return 0, "maxResults must be at most 5000"
	}
	return n, ""
}

// ValidateBool parses an optional boolean query value. Empty means false.
func ValidateBool(name, raw string) (bool, string) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return false, ""
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return false, name + " must be a boolean"
	}
	return b, ""
}
