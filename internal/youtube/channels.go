package youtube

import (
	"context"
	"fmt"
	"time"

	yt "google.golang.org/api/youtube/v3"
)

// ChannelDetails is the profile returned by GetChannelDetails.
type ChannelDetails struct {
	ChannelID       string
	Name            string
	Handle          string
	Description     string
	AvatarURL       string
	BannerURL       string
	ViewCount       int64
	SubscriberCount int64
	VideoCount      int64
	JoinedAt        time.Time
}

// GetChannelDetails fetches one channel's profile and counters.
func (c *Client) GetChannelDetails(ctx context.Context, channelID string) (*ChannelDetails, error) {
	const op = "channels.list"

	var resp *yt.ChannelListResponse
	err := c.metered(ctx, op, func(ctx context.Context) error {
		var err error
		resp, err = c.service.Channels.List([]string{"id", "snippet", "statistics", "brandingSettings"}).
			Id(channelID).
			Context(ctx).
			Do()
		return err
	})
	if err != nil {
		return nil, &APIError{Op: op, Err: err}
	}
	if len(resp.Items) == 0 || resp.Items[0].Snippet == nil {
		return nil, fmt.Errorf("%w: channel %s", ErrNotFound, channelID)
	}

	item := resp.Items[0]
	d := &ChannelDetails{
		ChannelID:   item.Id,
		Name:        item.Snippet.Title,
		Handle:      item.Snippet.CustomUrl,
		Description: item.Snippet.Description,
		AvatarURL:   bestThumbnail(item.Snippet.Thumbnails),
		JoinedAt:    parseTime(item.Snippet.PublishedAt),
	}
	if d.ChannelID == "" {
		d.ChannelID = channelID
	}
	if item.Statistics != nil {
		d.ViewCount = int64(item.Statistics.ViewCount)
		d.SubscriberCount = int64(item.Statistics.SubscriberCount)
		d.VideoCount = int64(item.Statistics.VideoCount)
	}
	if item.BrandingSettings != nil && item.BrandingSettings.Image != nil {
		d.BannerURL = item.BrandingSettings.Image.BannerExternalUrl
	}
	return d, nil
}

// lookupUploadsPlaylist asks the API for the uploads playlist of a channel
// whose id cannot be rewritten locally.
func (c *Client) lookupUploadsPlaylist(ctx context.Context, channelID string) (string, error) {
	const op = "channels.list"

	var resp *yt.ChannelListResponse
	err := c.metered(ctx, op, func(ctx context.Context) error {
		var err error
		resp, err = c.service.Channels.List([]string{"contentDetails"}).
			Id(channelID).
			Context(ctx).
			Do()
		return err
	})
	if err != nil {
		return "", &APIError{Op: op, Err: err}
	}
	if len(resp.Items) == 0 || resp.Items[0].ContentDetails == nil ||
		resp.Items[0].ContentDetails.RelatedPlaylists == nil ||
		resp.Items[0].ContentDetails.RelatedPlaylists.Uploads == "" {
		return "", fmt.Errorf("%w: uploads playlist for channel %s", ErrNotFound, channelID)
	}
	return resp.Items[0].ContentDetails.RelatedPlaylists.Uploads, nil
}

// bestThumbnail picks the highest resolution available.
func bestThumbnail(t *yt.ThumbnailDetails) string {
	if t == nil {
		return ""
	}
	for _, th := range []*yt.Thumbnail{t.Maxres, t.Standard, t.High, t.Medium, t.Default} {
		if th != nil && th.Url != "" {
			return th.Url
		}
	}
	return ""
}

func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t.UTC()
}

func parseTimePtr(s string) *time.Time {
	t := parseTime(s)
	if t.IsZero() {
		return nil
	}
	return &t
}
