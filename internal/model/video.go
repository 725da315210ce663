package model

import "time"

// PrivacyStatus mirrors the catalog's status.privacyStatus.
type PrivacyStatus string

const (
	PrivacyPublic   PrivacyStatus = "public"
	PrivacyUnlisted PrivacyStatus = "unlisted"
	PrivacyPrivate  PrivacyStatus = "private"
)

// UploadStatus mirrors the catalog's status.uploadStatus.
type UploadStatus string

const (
	UploadUploaded  UploadStatus = "uploaded"
	UploadProcessed UploadStatus = "processed"
	UploadFailed    UploadStatus = "failed"
	UploadRejected  UploadStatus = "rejected"
	UploadDeleted   UploadStatus = "deleted"
)

// Video is one row of the videos table.
type Video struct {
	VideoID                      string         `json:"videoId"`
	ChannelID                    string         `json:"channelId"`
	Title                        string         `json:"title"`
	ThumbnailURL                 string         `json:"thumbnailUrl"`
	PublishedAt                  time.Time      `json:"publishedAt"`
	Duration                     string         `json:"duration"`
	ViewCount                    int64          `json:"viewCount"`
	LikeCount                    int64          `json:"likeCount"`
	CommentCount                 int64          `json:"commentCount"`
	IsShort                      bool           `json:"isShort"`
	PrivacyStatus                PrivacyStatus  `json:"privacyStatus"`
	UploadStatus                 UploadStatus   `json:"uploadStatus"`
	LivestreamType               LivestreamType `json:"livestreamType"`
	LivestreamScheduledStartTime *time.Time     `json:"livestreamScheduledStartTime,omitempty"`
	LivestreamActualStartTime    *time.Time     `json:"livestreamActualStartTime,omitempty"`
	LivestreamConcurrentViewers  *int64         `json:"livestreamConcurrentViewers,omitempty"`
	CreatedAt                    time.Time      `json:"createdAt"`
	UpdatedAt                    time.Time      `json:"updatedAt"`
}

// VideoUpsert carries everything video sync writes. IsShort is only
// applied when the row is inserted.
type VideoUpsert struct {
	VideoID                      string
	ChannelID                    string
	Title                        string
	ThumbnailURL                 string
	PublishedAt                  time.Time
	Duration                     string
	ViewCount                    int64
	LikeCount                    int64
	CommentCount                 int64
	IsShort                      bool
	PrivacyStatus                PrivacyStatus
	UploadStatus                 UploadStatus
	LivestreamType               LivestreamType
	LivestreamScheduledStartTime *time.Time
	LivestreamActualStartTime    *time.Time
	LivestreamConcurrentViewers  *int64
}

// VideoFlags is the narrow projection used to split known from new ids.
type VideoFlags struct {
	IsShort        bool
	LivestreamType LivestreamType
	PrivacyStatus  PrivacyStatus
}
