package service

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/EpicAlbin03/hermitcraft/internal/model"
	"github.com/EpicAlbin03/hermitcraft/internal/twitch"
)

// SyncChannels refreshes profile metadata for every descriptor.
//
// liveStatus, keyed by Twitch user id, is the map returned by SyncLiveStatus
// earlier in the same tick. When nil, live status is resolved here with one
// batched lookup. Channels whose live status is unknown keep their stored
// is_live. A failing channel is counted and logged; the rest continue.
func (s *SyncService) SyncChannels(ctx context.Context, channels []model.ChannelDescriptor, taskName string, liveStatus map[string]bool) (*SyncResult, error) {
	r := s.begin("sync_channels", taskName)

	if liveStatus == nil {
		liveStatus = s.lookupLive(ctx, r.log, channels)
	}

	var mu sync.Mutex
	forEachLimit(ctx, channels, s.concurrency, func(ctx context.Context, d model.ChannelDescriptor) {
		err := s.syncOneChannel(ctx, r.log, d, liveStatus)

		mu.Lock()
		defer mu.Unlock()
		if err != nil {
			r.result.Failed++
			r.catalogFailure(err).Str("channel_id", d.ChannelID).Str("stage", "channel").Msg("channel sync failed")
			return
		}
		r.result.Synced++
	})

	s.finish(r, nil)
	return r.result, nil
}

// SyncChannel refreshes a single channel, resolving its live status first.
func (s *SyncService) SyncChannel(ctx context.Context, d model.ChannelDescriptor, taskName string) (*SyncResult, error) {
	r := s.begin("sync_channel", taskName)

	live := s.lookupLive(ctx, r.log, []model.ChannelDescriptor{d})
	if err := s.syncOneChannel(ctx, r.log, d, live); err != nil {
		r.result.Failed++
		f := failure("sync channel %s", err, d.ChannelID)
		s.finish(r, f)
		return r.result, f
	}
	r.result.Synced++
	s.finish(r, nil)
	return r.result, nil
}

func (s *SyncService) syncOneChannel(ctx context.Context, log zerolog.Logger, d model.ChannelDescriptor, liveStatus map[string]bool) error {
	details, err := s.catalog.GetChannelDetails(ctx, d.ChannelID)
	if err != nil {
		return failure("fetch channel %s", err, d.ChannelID)
	}

	in := model.ChannelUpsert{
		ChannelID:       d.ChannelID,
		Name:            details.Name,
		Handle:          details.Handle,
		Description:     details.Description,
		AvatarURL:       details.AvatarURL,
		BannerURL:       details.BannerURL,
		ViewCount:       details.ViewCount,
		SubscriberCount: details.SubscriberCount,
		VideoCount:      details.VideoCount,
		JoinedAt:        details.JoinedAt,
		Links:           d.Links,
	}
	if in.Name == "" {
		in.Name = d.Name
	}
	if d.TwitchUserID != "" {
		twitchID := d.TwitchUserID
		in.TwitchUserID = &twitchID
		if live, ok := liveStatus[d.TwitchUserID]; ok {
			in.IsLive = &live
		}
	}
	if d.TwitchUserLogin != "" {
		login := d.TwitchUserLogin
		in.TwitchUserLogin = &login
	}

	if _, err := s.channels.UpsertChannel(ctx, in); err != nil {
		return failure("store channel %s", err, d.ChannelID)
	}
	s.invalidate(ctx, log, d.ChannelID)
	return nil
}

// lookupLive resolves live status for every linked descriptor. A failed
// batch leaves its ids out of the map.
func (s *SyncService) lookupLive(ctx context.Context, log zerolog.Logger, channels []model.ChannelDescriptor) map[string]bool {
	out := make(map[string]bool)
	if s.live == nil {
		return out
	}

	var ids []string
	for _, d := range channels {
		if d.TwitchUserID != "" {
			ids = append(ids, d.TwitchUserID)
		}
	}
	for _, batch := range chunk(ids, twitch.MaxBatchSize) {
		live, err := s.live.AreChannelsLive(ctx, batch)
		if err != nil {
			log.Warn().Err(err).Int("user_ids", len(batch)).Str("stage", "live_lookup").Msg("live status unavailable, keeping stored values")
			continue
		}
		for id, v := range live {
			out[id] = v
		}
	}
	return out
}
