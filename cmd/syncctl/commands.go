package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/EpicAlbin03/hermitcraft/internal/model"
	"github.com/EpicAlbin03/hermitcraft/internal/service"
	"github.com/EpicAlbin03/hermitcraft/internal/youtube"
)

func cmdSeed(args []string) error {
	fs := flag.NewFlagSet("seed", flag.ExitOnError)
	file := fs.String("file", "configs/channels.json", "JSON array of channel descriptors")
	videos := fs.Int("videos", 50, "Videos to store per channel, newest first (0 = all, -1 = skip)")
	fs.Parse(args)

	descs, err := loadDescriptors(*file)
	if err != nil {
		return err
	}

	e, err := setup()
	if err != nil {
		return err
	}
	defer e.Close()

	res, err := e.app.Sync.SyncChannels(e.ctx, descs, taskName, nil)
	if err != nil {
		return err
	}
	if err := printJSON(res); err != nil {
		return err
	}

	ids := make([]string, len(descs))
	for i, d := range descs {
		ids[i] = d.ChannelID
	}
	for _, opts := range seedRuns(*videos) {
		res, err = e.app.Sync.SyncVideos(e.ctx, ids, opts)
		if err != nil {
			return err
		}
		if err := printJSON(res); err != nil {
			return err
		}
	}
	return nil
}

// seedRuns splits a per-channel video count into a feed run for the newest
// uploads and, past the feed window, a backfill run for the older ones.
// The backfill enumeration skips the ids the feed already covered.
// n < 0 means no runs, n == 0 means every upload.
func seedRuns(n int) []service.VideoSyncOptions {
	if n < 0 {
		return nil
	}
	feed := service.VideoSyncOptions{TaskName: taskName, MaxResults: youtube.FeedWindow}
	if n > 0 && n <= youtube.FeedWindow {
		feed.MaxResults = n
		return []service.VideoSyncOptions{feed}
	}
	return []service.VideoSyncOptions{feed, {
		TaskName:   taskName,
		Backfill:   true,
		MaxResults: n,
	}}
}

func cmdBackfill(args []string) error {
	fs := flag.NewFlagSet("backfill", flag.ExitOnError)
	id := fs.String("id", "", "Channel id (default: every stored channel)")
	maxResults := fs.Int("max", 0, "Maximum uploads to enumerate per channel (0 = all)")
	fs.Parse(args)

	e, err := setup()
	if err != nil {
		return err
	}
	defer e.Close()

	ids := []string{*id}
	if *id == "" {
		ids, err = e.app.Channels.ListChannelIDs(e.ctx)
		if err != nil {
			return err
		}
	}
	res, err := e.app.Sync.SyncVideos(e.ctx, ids, service.VideoSyncOptions{
		TaskName:   taskName,
		Backfill:   true,
		MaxResults: *maxResults,
	})
	if err != nil {
		return err
	}
	return printJSON(res)
}

func cmdChannel(args []string) error {
	id, err := requireID("channel", args)
	if err != nil {
		return err
	}
	e, err := setup()
	if err != nil {
		return err
	}
	defer e.Close()

	desc := model.ChannelDescriptor{ChannelID: id}
	if stored, err := e.app.Channels.GetChannel(e.ctx, id); err == nil {
		desc = stored.Descriptor()
	} else if !service.IsNotFound(err) {
		return err
	}
	res, err := e.app.Sync.SyncChannel(e.ctx, desc, taskName)
	if err != nil {
		return err
	}
	return printJSON(res)
}

func cmdVideo(args []string) error {
	id, err := requireID("video", args)
	if err != nil {
		return err
	}
	e, err := setup()
	if err != nil {
		return err
	}
	defer e.Close()

	outcome, err := e.app.Sync.SyncVideo(e.ctx, id, taskName)
	if err != nil {
		return err
	}
	return printJSON(map[string]any{"videoId": id, "outcome": outcome})
}

func cmdReclassify(args []string) error {
	id, err := requireID("reclassify", args)
	if err != nil {
		return err
	}
	e, err := setup()
	if err != nil {
		return err
	}
	defer e.Close()

	short, err := e.app.Sync.ReclassifyShort(e.ctx, id)
	if err != nil {
		return err
	}
	return printJSON(map[string]any{"videoId": id, "isShort": short})
}

func cmdDeleteChannel(args []string) error {
	id, err := requireID("delete-channel", args)
	if err != nil {
		return err
	}
	e, err := setup()
	if err != nil {
		return err
	}
	defer e.Close()

	if err := e.app.Channels.DeleteChannel(e.ctx, id); err != nil {
		return err
	}
	if err := e.app.Cache.InvalidateChannel(e.ctx, id); err != nil {
		e.logger.Warn().Err(err).Str("channel_id", id).Msg("cache invalidation failed")
	}
	e.logger.Info().Str("channel_id", id).Msg("channel deleted")
	return nil
}

func cmdDeleteVideo(args []string) error {
	id, err := requireID("delete-video", args)
	if err != nil {
		return err
	}
	e, err := setup()
	if err != nil {
		return err
	}
	defer e.Close()

	v, err := e.app.Videos.GetVideo(e.ctx, id)
	if err != nil {
		return err
	}
	if err := e.app.Videos.DeleteVideo(e.ctx, id); err != nil {
		return err
	}
	if err := e.app.Cache.InvalidateChannel(e.ctx, v.ChannelID); err != nil {
		e.logger.Warn().Err(err).Str("channel_id", v.ChannelID).Msg("cache invalidation failed")
	}
	e.logger.Info().Str("video_id", id).Msg("video deleted")
	return nil
}

func cmdWipe(args []string) error {
	fs := flag.NewFlagSet("wipe", flag.ExitOnError)
	yes := fs.Bool("yes", false, "Confirm deleting every video and channel")
	fs.Parse(args)

	if !*yes {
		return errors.New("refusing to wipe without -yes")
	}

	e, err := setup()
	if err != nil {
		return err
	}
	defer e.Close()

	ids, err := e.app.Channels.ListChannelIDs(e.ctx)
	if err != nil {
		return err
	}
	videos, err := e.app.Videos.DeleteAllVideos(e.ctx)
	if err != nil {
		return err
	}
	channels, err := e.app.Channels.DeleteAllChannels(e.ctx)
	if err != nil {
		return err
	}
	for _, id := range ids {
		if err := e.app.Cache.InvalidateChannel(e.ctx, id); err != nil {
			e.logger.Warn().Err(err).Str("channel_id", id).Msg("cache invalidation failed")
		}
	}
	return printJSON(map[string]int64{"videosDeleted": videos, "channelsDeleted": channels})
}

func requireID(name string, args []string) (string, error) {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	id := fs.String("id", "", "Id to operate on")
	fs.Parse(args)
	if *id == "" {
		fs.Usage()
		return "", fmt.Errorf("%s: -id is required", name)
	}
	return *id, nil
}

// loadDescriptors reads a JSON array of channel descriptors, rejecting
// entries without a channel id and duplicate ids.
func loadDescriptors(path string) ([]model.ChannelDescriptor, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	var descs []model.ChannelDescriptor
	if err := json.Unmarshal(raw, &descs); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	seen := make(map[string]bool, len(descs))
	for i, d := range descs {
		if d.ChannelID == "" {
			return nil, fmt.Errorf("%s: entry %d has no channelId", path, i)
		}
		if seen[d.ChannelID] {
			return nil, fmt.Errorf("%s: duplicate channelId %s", path, d.ChannelID)
		}
		seen[d.ChannelID] = true
	}
	return descs, nil
}
