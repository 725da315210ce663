package youtube

import (
	"context"
	"fmt"
	"html"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/EpicAlbin03/hermitcraft/internal/metrics"
)

// FeedEntry is one item of a channel's syndication feed.
type FeedEntry struct {
	VideoID      string
	ChannelID    string
	Title        string
	ThumbnailURL string
	PublishedAt  time.Time
	ViewCount    int64
	LikeCount    int64
}

var (
	entryRegex     = regexp.MustCompile(`(?s)<entry>(.*?)</entry>`)
	videoIDRegex   = regexp.MustCompile(`<yt:videoId>([^<]+)</yt:videoId>`)
	titleRegex     = regexp.MustCompile(`<title>([^<]+)</title>`)
	thumbnailRegex = regexp.MustCompile(`<media:thumbnail[^>]+url="([^"]+)"`)
	publishedRegex = regexp.MustCompile(`<published>([^<]+)</published>`)
	viewsRegex     = regexp.MustCompile(`<media:statistics[^>]+views="([^"]+)"`)
	likesRegex     = regexp.MustCompile(`<media:starRating[^>]+count="([^"]+)"`)
)

const maxFeedBytes = 4 << 20

// GetRSSVideos fetches and parses a channel's feed. The feed is not
// metered.
func (c *Client) GetRSSVideos(ctx context.Context, channelID string) ([]FeedEntry, error) {
	const op = "feed"

	u, err := url.Parse(c.feedURL)
	if err != nil {
		return nil, &APIError{Op: op, Err: err}
	}
	q := u.Query()
	q.Set("channel_id", channelID)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, &APIError{Op: op, Err: err}
	}

	resp, err := c.feedClient.Do(req)
	if err != nil {
		metrics.ExternalRequests.WithLabelValues("youtube", op, "error").Inc()
		return nil, &APIError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		metrics.ExternalRequests.WithLabelValues("youtube", op, "error").Inc()
		return nil, fmt.Errorf("%w: feed for channel %s", ErrNotFound, channelID)
	}
	if resp.StatusCode != http.StatusOK {
		metrics.ExternalRequests.WithLabelValues("youtube", op, "error").Inc()
		return nil, &APIError{Op: op, Err: fmt.Errorf("unexpected status %d", resp.StatusCode)}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxFeedBytes))
	if err != nil {
		metrics.ExternalRequests.WithLabelValues("youtube", op, "error").Inc()
		return nil, &APIError{Op: op, Err: err}
	}
	metrics.ExternalRequests.WithLabelValues("youtube", op, "ok").Inc()

	entries := ParseFeed(string(body))
	for i := range entries {
		entries[i].ChannelID = channelID
	}
	return entries, nil
}

// GetRSSVideoIDs returns the feed's video ids, newest first.
func (c *Client) GetRSSVideoIDs(ctx context.Context, channelID string) ([]string, error) {
	entries, err := c.GetRSSVideos(ctx, channelID)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		ids = append(ids, e.VideoID)
	}
	return ids, nil
}

// ParseFeed extracts entries from feed XML. Entries without a video id,
// title or publish time are dropped.
func ParseFeed(xml string) []FeedEntry {
	var entries []FeedEntry
	for _, m := range entryRegex.FindAllStringSubmatch(xml, -1) {
		block := m[1]

		id := firstMatch(videoIDRegex, block)
		title := firstMatch(titleRegex, block)
		published := firstMatch(publishedRegex, block)
		if id == "" || title == "" || published == "" {
			continue
		}
		publishedAt, err := time.Parse(time.RFC3339, strings.TrimSpace(published))
		if err != nil {
			continue
		}

		entries = append(entries, FeedEntry{
			VideoID:      strings.TrimSpace(id),
			Title:        html.UnescapeString(title),
			ThumbnailURL: html.UnescapeString(firstMatch(thumbnailRegex, block)),
			PublishedAt:  publishedAt.UTC(),
			ViewCount:    parseCount(firstMatch(viewsRegex, block)),
			LikeCount:    parseCount(firstMatch(likesRegex, block)),
		})
	}
	return entries
}

func firstMatch(re *regexp.Regexp, s string) string {
	m := re.FindStringSubmatch(s)
	if len(m) < 2 {
		return ""
	}
	return m[1]
}

func parseCount(s string) int64 {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || n < 0 {
		return 0
	}
	return n
}
