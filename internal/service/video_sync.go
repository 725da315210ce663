package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/EpicAlbin03/hermitcraft/internal/model"
	"github.com/EpicAlbin03/hermitcraft/internal/repository"
	"github.com/EpicAlbin03/hermitcraft/internal/youtube"
)

// Shorts classification in incremental mode only needs the newest page of
// the shorts playlist: unknown ids are recent uploads.
const incrementalShortsScan = 50

// VideoSyncOptions selects the candidate source for SyncVideos.
type VideoSyncOptions struct {
	TaskName string
	// Backfill enumerates the uploads playlist instead of reading the feed.
	Backfill bool
	// MaxResults caps candidates per channel; 0 means no cap.
	MaxResults int
}

type candidate struct {
	videoID   string
	channelID string
}

// SyncVideos refreshes videos for the given channels in five stages:
// collect candidate ids, split known from new ids, fetch details in
// batches (marking vanished known ids private), classify shorts for new
// ids only, then upsert everything that was fetched.
func (s *SyncService) SyncVideos(ctx context.Context, channelIDs []string, opts VideoSyncOptions) (*SyncResult, error) {
	op := "sync_videos"
	if opts.Backfill {
		op = "backfill_videos"
	}
	r := s.begin(op, opts.TaskName)
	res := r.result

	// Stage 1: candidates per channel.
	var mu sync.Mutex
	perChannel := make(map[string][]string, len(channelIDs))
	forEachLimit(ctx, channelIDs, s.concurrency, func(ctx context.Context, channelID string) {
		ids, err := s.collectCandidates(ctx, channelID, opts)

		mu.Lock()
		defer mu.Unlock()
		if err != nil {
			res.FailedChannels++
			r.catalogFailure(err).Str("channel_id", channelID).Str("stage", "collect").Msg("channel excluded from run")
			return
		}
		perChannel[channelID] = ids
	})

	var candidates []candidate
	seen := make(map[string]bool)
	for _, channelID := range channelIDs {
		for _, id := range perChannel[channelID] {
			if seen[id] {
				continue
			}
			seen[id] = true
			candidates = append(candidates, candidate{videoID: id, channelID: channelID})
		}
	}
	if len(candidates) == 0 {
		s.finish(r, nil)
		return res, nil
	}

	allIDs := make([]string, len(candidates))
	for i, c := range candidates {
		allIDs[i] = c.videoID
	}

	// Stage 2: known vs new.
	known, err := s.videos.GetVideoFlags(ctx, allIDs)
	if err != nil {
		f := failure("load video flags", err)
		s.finish(r, f)
		return res, f
	}

	// Stage 3: details in batches of 50.
	details := make(map[string]youtube.VideoDetails, len(allIDs))
	var vanished []string
	forEachLimit(ctx, chunk(allIDs, youtube.MaxBatchSize), s.concurrency, func(ctx context.Context, batch []string) {
		got, err := s.catalog.GetBatchVideoDetails(ctx, batch)

		mu.Lock()
		defer mu.Unlock()
		if err != nil {
			res.Failed += len(batch)
			r.catalogFailure(err).Int("videos", len(batch)).Str("stage", "details").Msg("video details batch failed")
			return
		}
		for _, id := range batch {
			d, ok := got[id]
			if !ok {
				if _, wasKnown := known[id]; wasKnown {
					vanished = append(vanished, id)
				}
				continue
			}
			details[id] = d
		}
	})

	touched := make(map[string]bool)
	if len(vanished) > 0 {
		n, err := s.videos.MarkVideosAsPrivate(ctx, vanished)
		if err != nil {
			res.Failed += len(vanished)
			r.log.Error().Err(err).Int("videos", len(vanished)).Str("stage", "mark_private").Msg("marking vanished videos private failed")
		} else {
			res.MarkedPrivate = n
			gone := make(map[string]bool, len(vanished))
			for _, id := range vanished {
				gone[id] = true
			}
			for _, c := range candidates {
				if gone[c.videoID] {
					touched[c.channelID] = true
				}
			}
		}
	}

	// Stage 4: shorts for new ids only, per channel.
	newByChannel := make(map[string][]string)
	for _, c := range candidates {
		if _, ok := details[c.videoID]; !ok {
			continue
		}
		if _, ok := known[c.videoID]; ok {
			continue
		}
		newByChannel[c.channelID] = append(newByChannel[c.channelID], c.videoID)
	}

	shortsLimit := incrementalShortsScan
	if opts.Backfill {
		shortsLimit = 0
	}
	isShort := make(map[string]bool, len(details))
	for id, f := range known {
		isShort[id] = f.IsShort
	}
	channelsWithNew := make([]string, 0, len(newByChannel))
	for ch := range newByChannel {
		channelsWithNew = append(channelsWithNew, ch)
	}
	forEachLimit(ctx, channelsWithNew, s.concurrency, func(ctx context.Context, channelID string) {
		ids := newByChannel[channelID]
		shorts, err := s.catalog.AreVideosShorts(ctx, ids, channelID, shortsLimit)
		if err != nil {
			r.log.Warn().Err(err).Str("channel_id", channelID).Str("stage", "shorts").Msg("shorts lookup failed, treating as regular videos")
			shorts = nil
		}

		mu.Lock()
		defer mu.Unlock()
		for _, id := range ids {
			isShort[id] = shorts[id]
		}
	})

	// Stage 5: upsert.
	ordered := make([]candidate, 0, len(details))
	for _, c := range candidates {
		if _, ok := details[c.videoID]; ok {
			ordered = append(ordered, c)
		}
	}
	forEachLimit(ctx, ordered, s.concurrency, func(ctx context.Context, c candidate) {
		d := details[c.videoID]
		in := d.Upsert(isShort[c.videoID])
		if in.ChannelID == "" {
			in.ChannelID = c.channelID
		}
		outcome, err := s.videos.UpsertVideo(ctx, in)

		mu.Lock()
		defer mu.Unlock()
		switch {
		case err != nil:
			res.Failed++
			r.log.Warn().Err(err).Str("video_id", c.videoID).Str("channel_id", in.ChannelID).Str("stage", "upsert").Msg("video upsert failed")
		case outcome == model.OutcomeSkipped:
			res.Skipped++
			r.log.Debug().Str("video_id", c.videoID).Str("duration", in.Duration).Msg("video skipped, no duration yet")
		default:
			res.Synced++
			touched[in.ChannelID] = true
		}
	})

	for ch := range touched {
		s.invalidate(ctx, r.log, ch)
	}

	s.finish(r, nil)
	return res, nil
}

func (s *SyncService) collectCandidates(ctx context.Context, channelID string, opts VideoSyncOptions) ([]string, error) {
	if opts.Backfill {
		return s.catalog.GetVideoIDsFromUploadsPlaylist(ctx, channelID, opts.MaxResults)
	}
	ids, err := s.catalog.GetRSSVideoIDs(ctx, channelID)
	if err != nil {
		return nil, err
	}
	if opts.MaxResults > 0 && len(ids) > opts.MaxResults {
		ids = ids[:opts.MaxResults]
	}
	return ids, nil
}

// SyncVideo refreshes one video. Shorts are classified only when the video
// is new to the store. A video the catalog no longer returns is marked
// private if it was known.
func (s *SyncService) SyncVideo(ctx context.Context, videoID, taskName string) (model.UpsertOutcome, error) {
	r := s.begin("sync_video", taskName)
	outcome, err := s.syncOneVideo(ctx, r, videoID)
	if err != nil {
		r.result.Failed++
	} else if outcome == model.OutcomeSkipped {
		r.result.Skipped++
	} else {
		r.result.Synced++
	}
	s.finish(r, err)
	return outcome, err
}

func (s *SyncService) syncOneVideo(ctx context.Context, r *run, videoID string) (model.UpsertOutcome, error) {
	known, err := s.videos.GetVideoFlags(ctx, []string{videoID})
	if err != nil {
		return "", failure("load video flags %s", err, videoID)
	}
	flags, isKnown := known[videoID]

	got, err := s.catalog.GetBatchVideoDetails(ctx, []string{videoID})
	if err != nil {
		return "", failure("fetch video %s", err, videoID)
	}
	d, ok := got[videoID]
	if !ok {
		if isKnown {
			n, err := s.videos.MarkVideosAsPrivate(ctx, []string{videoID})
			if err != nil {
				return "", failure("mark video %s private", err, videoID)
			}
			r.result.MarkedPrivate = n
		}
		return "", failure("fetch video %s", fmt.Errorf("%w: video %s", youtube.ErrNotFound, videoID), videoID)
	}

	short := flags.IsShort
	if !isKnown {
		short, err = s.catalog.IsVideoShort(ctx, videoID, d.ChannelID)
		if err != nil {
			r.log.Warn().Err(err).Str("video_id", videoID).Str("stage", "shorts").Msg("shorts lookup failed, treating as regular video")
			short = false
		}
	}

	outcome, err := s.videos.UpsertVideo(ctx, d.Upsert(short))
	if err != nil {
		return "", failure("store video %s", err, videoID)
	}
	if outcome != model.OutcomeSkipped {
		s.invalidate(ctx, r.log, d.ChannelID)
	}
	return outcome, nil
}

// ReclassifyShort recomputes is_short for a stored video. This is the only
// path that changes the flag after insert.
func (s *SyncService) ReclassifyShort(ctx context.Context, videoID string) (bool, error) {
	v, err := s.videos.GetVideo(ctx, videoID)
	if err != nil {
		return false, failure("load video %s", err, videoID)
	}
	short, err := s.catalog.IsVideoShort(ctx, videoID, v.ChannelID)
	if err != nil {
		return false, failure("classify video %s", err, videoID)
	}
	if short == v.IsShort {
		return short, nil
	}
	if err := s.videos.SetVideoShort(ctx, videoID, short); err != nil {
		return false, failure("store short flag %s", err, videoID)
	}
	s.logger.Info().Str("video_id", videoID).Bool("is_short", short).Msg("short classification changed")
	s.invalidate(ctx, s.logger, v.ChannelID)
	return short, nil
}

// IsNotFound reports whether err traces back to an entity missing at the
// source or in the store.
func IsNotFound(err error) bool {
	return errors.Is(err, youtube.ErrNotFound) || errors.Is(err, repository.ErrNotFound)
}
