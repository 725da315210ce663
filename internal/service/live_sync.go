package service

import (
	"context"
	"sync"

	"github.com/EpicAlbin03/hermitcraft/internal/model"
	"github.com/EpicAlbin03/hermitcraft/internal/twitch"
)

// SyncLiveStatus reads every channel's Twitch linkage, checks liveness in
// batches and writes is_live where it changed. The returned map, keyed by
// Twitch user id, can be handed to SyncChannels in the same tick. Videos
// are never touched here.
func (s *SyncService) SyncLiveStatus(ctx context.Context, taskName string) (map[string]bool, *SyncResult, error) {
	r := s.begin("sync_live_status", taskName)

	links, err := s.channels.ListLiveLinks(ctx)
	if err != nil {
		f := failure("list live links", err)
		s.finish(r, f)
		return nil, r.result, f
	}

	ids := make([]string, 0, len(links))
	for _, l := range links {
		ids = append(ids, l.TwitchUserID)
	}

	status := make(map[string]bool, len(ids))
	for _, batch := range chunk(ids, twitch.MaxBatchSize) {
		live, err := s.live.AreChannelsLive(ctx, batch)
		if err != nil {
			r.result.Failed += len(batch)
			r.log.Warn().Err(err).Int("user_ids", len(batch)).Str("stage", "live_lookup").Msg("live lookup failed")
			continue
		}
		for id, v := range live {
			status[id] = v
		}
	}

	var mu sync.Mutex
	forEachLimit(ctx, links, s.concurrency, func(ctx context.Context, l model.LiveLink) {
		live, ok := status[l.TwitchUserID]
		if !ok {
			return
		}
		if live == l.IsLive {
			mu.Lock()
			r.result.Skipped++
			mu.Unlock()
			return
		}

		err := s.channels.UpdateChannel(ctx, l.ChannelID, model.ChannelPatch{IsLive: &live})
		if err == nil {
			s.invalidate(ctx, r.log, l.ChannelID)
		}

		mu.Lock()
		defer mu.Unlock()
		if err != nil {
			r.result.Failed++
			r.log.Warn().Err(err).Str("channel_id", l.ChannelID).Str("stage", "store").Msg("live status update failed")
			return
		}
		r.result.Synced++
		r.log.Info().Str("channel_id", l.ChannelID).Bool("is_live", live).Msg("live status changed")
	})

	s.finish(r, nil)
	return status, r.result, nil
}
