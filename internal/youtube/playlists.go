package youtube

import (
	"context"
	"errors"

	yt "google.golang.org/api/youtube/v3"
)

// GetVideoIDsFromUploadsPlaylist enumerates a channel's uploads newest
// first, 50 per page, until maxResults ids are collected or the playlist
// ends. maxResults <= 0 means no cap. The first FeedWindow ids are dropped
// from the result since the feed already covers them.
func (c *Client) GetVideoIDsFromUploadsPlaylist(ctx context.Context, channelID string, maxResults int) ([]string, error) {
	playlistID, ok := UploadsPlaylistID(channelID)
	if !ok {
		var err error
		if playlistID, err = c.lookupUploadsPlaylist(ctx, channelID); err != nil {
			return nil, err
		}
	}

	ids, err := c.listPlaylist(ctx, playlistID, maxResults)
	if err != nil {
		return nil, err
	}
	if len(ids) <= FeedWindow {
		return []string{}, nil
	}
	return ids[FeedWindow:], nil
}

// AreVideosShorts classifies videoIDs by membership in the channel's
// derived shorts playlist, enumerated up to maxResults items (<= 0 means
// the whole playlist). Non-canonical channel ids yield an empty map and no
// call. A missing shorts playlist means the channel has no shorts.
func (c *Client) AreVideosShorts(ctx context.Context, videoIDs []string, channelID string, maxResults int) (map[string]bool, error) {
	out := make(map[string]bool, len(videoIDs))
	playlistID, ok := ShortsPlaylistID(channelID)
	if !ok || len(videoIDs) == 0 {
		return out, nil
	}

	members, err := c.listPlaylist(ctx, playlistID, maxResults)
	if err != nil {
		var apiErr *APIError
		if !errors.As(err, &apiErr) || !isNotFound(apiErr.Err) {
			return nil, err
		}
		members = nil
	}

	set := make(map[string]struct{}, len(members))
	for _, id := range members {
		set[id] = struct{}{}
	}
	for _, id := range videoIDs {
		_, short := set[id]
		out[id] = short
	}
	return out, nil
}

// listPlaylist pages through playlistItems.list collecting video ids.
func (c *Client) listPlaylist(ctx context.Context, playlistID string, maxResults int) ([]string, error) {
	const op = "playlistItems.list"

	var ids []string
	pageToken := ""
	for {
		var resp *yt.PlaylistItemListResponse
		err := c.metered(ctx, op, func(ctx context.Context) error {
			call := c.service.PlaylistItems.List([]string{"contentDetails"}).
				PlaylistId(playlistID).
				MaxResults(pageSize).
				Context(ctx)
			if pageToken != "" {
				call = call.PageToken(pageToken)
			}
			var err error
			resp, err = call.Do()
			return err
		})
		if err != nil {
			return nil, &APIError{Op: op, Err: err}
		}

		for _, item := range resp.Items {
			if item != nil && item.ContentDetails != nil && item.ContentDetails.VideoId != "" {
				ids = append(ids, item.ContentDetails.VideoId)
			}
		}

		if maxResults > 0 && len(ids) >= maxResults {
			return ids[:maxResults], nil
		}
		pageToken = resp.NextPageToken
		if pageToken == "" {
			return ids, nil
		}
	}
}

// IsVideoShort checks one video against the channel's shorts playlist with
// a single filtered call. Non-canonical channel ids return false.
func (c *Client) IsVideoShort(ctx context.Context, videoID, channelID string) (bool, error) {
	const op = "playlistItems.list"

	playlistID, ok := ShortsPlaylistID(channelID)
	if !ok {
		return false, nil
	}

	var resp *yt.PlaylistItemListResponse
	err := c.metered(ctx, op, func(ctx context.Context) error {
		var err error
		resp, err = c.service.PlaylistItems.List([]string{"id"}).
			PlaylistId(playlistID).
			VideoId(videoID).
			MaxResults(1).
			Context(ctx).
			Do()
		return err
	})
	if err != nil {
		if isNotFound(err) {
			return false, nil
		}
		return false, &APIError{Op: op, Err: err}
	}
	return len(resp.Items) > 0, nil
}
