package model

import "time"

// Link is one entry of a channel's ordered social links.
type Link struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

// Channel is one row of the channels table.
type Channel struct {
	ChannelID       string    `json:"channelId"`
	Name            string    `json:"name"`
	Handle          string    `json:"handle"`
	Description     string    `json:"description"`
	AvatarURL       string    `json:"avatarUrl"`
	BannerURL       string    `json:"bannerUrl"`
	ViewCount       int64     `json:"viewCount"`
	SubscriberCount int64     `json:"subscriberCount"`
	VideoCount      int64     `json:"videoCount"`
	JoinedAt        time.Time `json:"joinedAt"`
	TwitchUserID    *string   `json:"twitchUserId,omitempty"`
	TwitchUserLogin *string   `json:"twitchUserLogin,omitempty"`
	IsLive          bool      `json:"isLive"`
	LiveVideoID     *string   `json:"liveVideoId,omitempty"`
	Links           []Link    `json:"links"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// ChannelDescriptor is the input to channel sync: a platform channel id plus
// optional live-platform linkage and social links.
type ChannelDescriptor struct {
	ChannelID       string `json:"channelId"`
	Name            string `json:"name,omitempty"`
	TwitchUserID    string `json:"twitchUserId,omitempty"`
	TwitchUserLogin string `json:"twitchUserLogin,omitempty"`
	Links           []Link `json:"links,omitempty"`
}

// ChannelUpsert carries the columns written by channel metadata sync.
//
// Nil pointer fields are left untouched on update. IsLive and LiveVideoID are
// owned by the live-status and video sync paths, so channel sync normally
// leaves them nil.
type ChannelUpsert struct {
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
	TwitchUserID    *string
	TwitchUserLogin *string
	Links           []Link
	IsLive          *bool
	LiveVideoID     *string
}

// ChannelPatch is a partial update. Only non-nil fields are written.
type ChannelPatch struct {
	Name            *string
	Handle          *string
	Description     *string
	AvatarURL       *string
	BannerURL       *string
	TwitchUserID    *string
	TwitchUserLogin *string
	IsLive          *bool
	Links           []Link
}

// Empty reports whether the patch would change nothing.
func (p ChannelPatch) Empty() bool {
	return p.Name == nil && p.Handle == nil && p.Description == nil &&
		p.AvatarURL == nil && p.BannerURL == nil && p.TwitchUserID == nil &&
		p.TwitchUserLogin == nil && p.IsLive == nil && p.Links == nil
}

// LiveLink is the narrow projection used by live-status sync.
type LiveLink struct {
	ChannelID    string
	TwitchUserID string
	IsLive       bool
}

// UpsertOutcome reports what an upsert did.
type UpsertOutcome string

const (
	OutcomeInserted UpsertOutcome = "inserted"
	OutcomeUpdated  UpsertOutcome = "updated"
	OutcomeSkipped  UpsertOutcome = "skipped"
)

// Descriptor rebuilds the sync input for a stored channel.
func (c *Channel) Descriptor() ChannelDescriptor {
	d := ChannelDescriptor{ChannelID: c.ChannelID, Name: c.Name, Links: c.Links}
	if c.TwitchUserID != nil {
		d.TwitchUserID = *c.TwitchUserID
	}
	if c.TwitchUserLogin != nil {
		d.TwitchUserLogin = *c.TwitchUserLogin
	}
	return d
}
