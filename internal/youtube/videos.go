package youtube

import (
	"context"
	"time"

	yt "google.golang.org/api/youtube/v3"

	"github.com/EpicAlbin03/hermitcraft/internal/model"
)

// VideoDetails is one item from a batched videos.list call.
type VideoDetails struct {
	VideoID                      string
	ChannelID                    string
	Title                        string
	ThumbnailURL                 string
	PublishedAt                  time.Time
	Duration                     string
	ViewCount                    int64
	LikeCount                    int64
	CommentCount                 int64
	PrivacyStatus                model.PrivacyStatus
	UploadStatus                 model.UploadStatus
	LivestreamType               model.LivestreamType
	LivestreamScheduledStartTime *time.Time
	LivestreamActualStartTime    *time.Time
	LivestreamConcurrentViewers  *int64
}

// Upsert converts the details into a store write.
func (d VideoDetails) Upsert(isShort bool) model.VideoUpsert {
	return model.VideoUpsert{
		VideoID:                      d.VideoID,
		ChannelID:                    d.ChannelID,
		Title:                        d.Title,
		ThumbnailURL:                 d.ThumbnailURL,
		PublishedAt:                  d.PublishedAt,
		Duration:                     d.Duration,
		ViewCount:                    d.ViewCount,
		LikeCount:                    d.LikeCount,
		CommentCount:                 d.CommentCount,
		IsShort:                      isShort,
		PrivacyStatus:                d.PrivacyStatus,
		UploadStatus:                 d.UploadStatus,
		LivestreamType:               d.LivestreamType,
		LivestreamScheduledStartTime: d.LivestreamScheduledStartTime,
		LivestreamActualStartTime:    d.LivestreamActualStartTime,
		LivestreamConcurrentViewers:  d.LivestreamConcurrentViewers,
	}
}

// GetBatchVideoDetails fetches up to MaxBatchSize videos in one call.
// Requested ids missing from the response are simply absent from the map.
func (c *Client) GetBatchVideoDetails(ctx context.Context, videoIDs []string) (map[string]VideoDetails, error) {
	const op = "videos.list"

	if len(videoIDs) > MaxBatchSize {
		return nil, &PreconditionError{Op: op, Limit: MaxBatchSize, Got: len(videoIDs)}
	}
	out := make(map[string]VideoDetails, len(videoIDs))
	if len(videoIDs) == 0 {
		return out, nil
	}

	var resp *yt.VideoListResponse
	err := c.metered(ctx, op, func(ctx context.Context) error {
		var err error
		resp, err = c.service.Videos.List([]string{"snippet", "statistics", "contentDetails", "status", "liveStreamingDetails"}).
			Id(videoIDs...).
			Context(ctx).
			Do()
		return err
	})
	if err != nil {
		return nil, &APIError{Op: op, Err: err}
	}

	for _, item := range resp.Items {
		if item == nil || item.Id == "" || item.Snippet == nil {
			continue
		}
		out[item.Id] = videoFromItem(item)
	}
	return out, nil
}

func videoFromItem(item *yt.Video) VideoDetails {
	d := VideoDetails{
		VideoID:        item.Id,
		ChannelID:      item.Snippet.ChannelId,
		Title:          item.Snippet.Title,
		ThumbnailURL:   bestThumbnail(item.Snippet.Thumbnails),
		PublishedAt:    parseTime(item.Snippet.PublishedAt),
		PrivacyStatus:  model.PrivacyPublic,
		UploadStatus:   model.UploadProcessed,
		LivestreamType: livestreamType(item.Snippet.LiveBroadcastContent, item.LiveStreamingDetails != nil),
	}
	if item.ContentDetails != nil {
		d.Duration = item.ContentDetails.Duration
	}
	if item.Statistics != nil {
		d.ViewCount = int64(item.Statistics.ViewCount)
		d.LikeCount = int64(item.Statistics.LikeCount)
		d.CommentCount = int64(item.Statistics.CommentCount)
	}
	if item.Status != nil {
		if item.Status.PrivacyStatus != "" {
			d.PrivacyStatus = model.PrivacyStatus(item.Status.PrivacyStatus)
		}
		if item.Status.UploadStatus != "" {
			d.UploadStatus = model.UploadStatus(item.Status.UploadStatus)
		}
	}
	if ls := item.LiveStreamingDetails; ls != nil {
		d.LivestreamScheduledStartTime = parseTimePtr(ls.ScheduledStartTime)
		d.LivestreamActualStartTime = parseTimePtr(ls.ActualStartTime)
		if ls.ConcurrentViewers > 0 {
			v := int64(ls.ConcurrentViewers)
			d.LivestreamConcurrentViewers = &v
		}
	}
	return d
}

// livestreamType maps snippet.liveBroadcastContent. A finished broadcast
// reports "none" but keeps its liveStreamingDetails.
func livestreamType(broadcast string, hasLiveDetails bool) model.LivestreamType {
	switch broadcast {
	case "live":
		return model.LivestreamLive
	case "upcoming":
		return model.LivestreamUpcoming
	}
	if hasLiveDetails {
		return model.LivestreamCompleted
	}
	return model.LivestreamNone
}
