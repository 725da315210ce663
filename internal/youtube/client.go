package youtube

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"time"

	"golang.org/x/time/rate"
	"google.golang.org/api/option"
	yt "google.golang.org/api/youtube/v3"

	"github.com/EpicAlbin03/hermitcraft/internal/metrics"
)

const (
	// MaxBatchSize is the most ids videos.list accepts in one call.
	MaxBatchSize = 50
	// FeedWindow is how many recent uploads the syndication feed carries.
	FeedWindow = 15

	pageSize = 50

	defaultFeedURL = "https://www.youtube.com/feeds/videos.xml"
	defaultTimeout = 30 * time.Second
)

var channelIDRegex = regexp.MustCompile(`^UC[a-zA-Z0-9_-]{22}$`)

// QuotaRecorder is told about every metered call.
type QuotaRecorder interface {
	Record(ctx context.Context, op string, units int64)
}

// Options configures a Client. Only APIKey is required.
type Options struct {
	APIKey string
	// RequestsPerSecond paces outbound calls; 0 disables pacing.
	RequestsPerSecond float64
	Timeout           time.Duration
	Quota             QuotaRecorder

	// Endpoint overrides the catalog API base URL.
	Endpoint string
	// FeedURL overrides the syndication feed URL.
	FeedURL string
	// FeedClient is used for feed requests.
	FeedClient *http.Client
}

// Client is the quota-aware catalog and feed client.
type Client struct {
	service    *yt.Service
	limiter    *rate.Limiter
	quota      QuotaRecorder
	timeout    time.Duration
	feedURL    string
	feedClient *http.Client
}

// NewClient builds a Client over the YouTube Data API v3.
func NewClient(ctx context.Context, opts Options) (*Client, error) {
	if opts.APIKey == "" {
		return nil, fmt.Errorf("youtube: api key required")
	}

	svcOpts := []option.ClientOption{option.WithAPIKey(opts.APIKey)}
	if opts.Endpoint != "" {
		svcOpts = append(svcOpts, option.WithEndpoint(opts.Endpoint))
	}
	service, err := yt.NewService(ctx, svcOpts...)
	if err != nil {
		return nil, fmt.Errorf("create youtube service: %w", err)
	}

	c := &Client{
		service:    service,
		limiter:    rate.NewLimiter(rate.Inf, 1),
		quota:      opts.Quota,
		timeout:    opts.Timeout,
		feedURL:    opts.FeedURL,
		feedClient: opts.FeedClient,
	}
	if opts.RequestsPerSecond > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), int(opts.RequestsPerSecond)+1)
	}
	if c.timeout <= 0 {
		c.timeout = defaultTimeout
	}
	if c.feedURL == "" {
		c.feedURL = defaultFeedURL
	}
	if c.feedClient == nil {
		c.feedClient = &http.Client{Timeout: c.timeout}
	}
	return c, nil
}

// metered paces, times out and accounts for one catalog call.
func (c *Client) metered(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return &APIError{Op: op, Err: err}
	}

	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	err := fn(callCtx)
	if c.quota != nil {
		c.quota.Record(ctx, op, 1)
	}

	status := "ok"
	if err != nil {
		status = "error"
	}
	metrics.ExternalRequests.WithLabelValues("youtube", op, status).Inc()
	return err
}

// IsCanonicalChannelID reports whether id has the UC-prefixed form that
// playlist ids can be derived from.
func IsCanonicalChannelID(id string) bool {
	return channelIDRegex.MatchString(id)
}

// ShortsPlaylistID derives a channel's shorts playlist id without an API
// call. ok is false for ids that are not in canonical form.
func ShortsPlaylistID(channelID string) (id string, ok bool) {
	if !IsCanonicalChannelID(channelID) {
		return "", false
	}
	return "UUSH" + channelID[2:], true
}

// UploadsPlaylistID derives a channel's uploads playlist id without an API
// call. ok is false for ids that are not in canonical form.
func UploadsPlaylistID(channelID string) (id string, ok bool) {
	if !IsCanonicalChannelID(channelID) {
		return "", false
	}
	return "UU" + channelID[2:], true
}
