package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/EpicAlbin03/hermitcraft/internal/model"
	"github.com/EpicAlbin03/hermitcraft/internal/repository"
	"github.com/EpicAlbin03/hermitcraft/internal/youtube"
)

var errBoom = errors.New("boom")

type fakeCatalog struct {
	mu sync.Mutex

	channels     map[string]*youtube.ChannelDetails
	videos       map[string]youtube.VideoDetails
	feeds        map[string][]string
	uploads      map[string][]string
	shorts       map[string]bool
	feedErr      map[string]error
	shortsErr    error
	detailsErr   error
	channelErr   map[string]error
	shortsCalls  [][]string
	detailsCalls [][]string
	singleShort  []string
}

func newFakeCatalog() *fakeCatalog {
	return &fakeCatalog{
		channels:   make(map[string]*youtube.ChannelDetails),
		videos:     make(map[string]youtube.VideoDetails),
		feeds:      make(map[string][]string),
		uploads:    make(map[string][]string),
		shorts:     make(map[string]bool),
		feedErr:    make(map[string]error),
		channelErr: make(map[string]error),
	}
}

func (f *fakeCatalog) GetChannelDetails(_ context.Context, channelID string) (*youtube.ChannelDetails, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.channelErr[channelID]; err != nil {
		return nil, err
	}
	d, ok := f.channels[channelID]
	if !ok {
		return nil, youtube.ErrNotFound
	}
	cp := *d
	return &cp, nil
}

func (f *fakeCatalog) GetBatchVideoDetails(_ context.Context, ids []string) (map[string]youtube.VideoDetails, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.detailsCalls = append(f.detailsCalls, append([]string(nil), ids...))
	if f.detailsErr != nil {
		return nil, f.detailsErr
	}
	out := make(map[string]youtube.VideoDetails)
	for _, id := range ids {
		if d, ok := f.videos[id]; ok {
			out[id] = d
		}
	}
	return out, nil
}

func (f *fakeCatalog) GetVideoIDsFromUploadsPlaylist(_ context.Context, channelID string, max int) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ids := f.uploads[channelID]
	if max > 0 && len(ids) > max {
		ids = ids[:max]
	}
	return ids, nil
}

func (f *fakeCatalog) GetRSSVideoIDs(_ context.Context, channelID string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.feedErr[channelID]; err != nil {
		return nil, err
	}
	return f.feeds[channelID], nil
}

func (f *fakeCatalog) AreVideosShorts(_ context.Context, ids []string, _ string, _ int) (map[string]bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	sorted := append([]string(nil), ids...)
	sort.Strings(sorted)
	f.shortsCalls = append(f.shortsCalls, sorted)
	if f.shortsErr != nil {
		return nil, f.shortsErr
	}
	out := make(map[string]bool)
	for _, id := range ids {
		if f.shorts[id] {
			out[id] = true
		}
	}
	return out, nil
}

func (f *fakeCatalog) IsVideoShort(_ context.Context, videoID, _ string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.singleShort = append(f.singleShort, videoID)
	if f.shortsErr != nil {
		return false, f.shortsErr
	}
	return f.shorts[videoID], nil
}

type fakeLive struct {
	mu     sync.Mutex
	live   map[string]bool
	err    error
	calls  int
	called [][]string
}

func (f *fakeLive) AreChannelsLive(_ context.Context, ids []string) (map[string]bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.called = append(f.called, ids)
	if f.err != nil {
		return nil, f.err
	}
	out := make(map[string]bool, len(ids))
	for _, id := range ids {
		out[id] = f.live[id]
	}
	return out, nil
}

type fakeChannels struct {
	mu       sync.Mutex
	rows     map[string]*model.Channel
	upserts  []model.ChannelUpsert
	patches  map[string]model.ChannelPatch
	failFor  map[string]bool
	linksErr error
}

func newFakeChannels() *fakeChannels {
	return &fakeChannels{
		rows:    make(map[string]*model.Channel),
		patches: make(map[string]model.ChannelPatch),
		failFor: make(map[string]bool),
	}
}

func (f *fakeChannels) UpsertChannel(_ context.Context, in model.ChannelUpsert) (model.UpsertOutcome, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failFor[in.ChannelID] {
		return "", errBoom
	}
	f.upserts = append(f.upserts, in)
	row, ok := f.rows[in.ChannelID]
	outcome := model.OutcomeUpdated
	if !ok {
		row = &model.Channel{ChannelID: in.ChannelID}
		f.rows[in.ChannelID] = row
		outcome = model.OutcomeInserted
	}
	row.Name = in.Name
	if in.TwitchUserID != nil {
		row.TwitchUserID = in.TwitchUserID
	}
	if in.IsLive != nil {
		row.IsLive = *in.IsLive
	}
	return outcome, nil
}

func (f *fakeChannels) GetChannel(_ context.Context, id string) (*model.Channel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	row, ok := f.rows[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *row
	return &cp, nil
}

func (f *fakeChannels) ListChannelIDs(_ context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var ids []string
	for id := range f.rows {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func (f *fakeChannels) ListDescriptors(_ context.Context) ([]model.ChannelDescriptor, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.ChannelDescriptor
	for _, row := range f.rows {
		d := model.ChannelDescriptor{ChannelID: row.ChannelID, Name: row.Name}
		if row.TwitchUserID != nil {
			d.TwitchUserID = *row.TwitchUserID
		}
		out = append(out, d)
	}
	return out, nil
}

func (f *fakeChannels) ListLiveLinks(_ context.Context) ([]model.LiveLink, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.linksErr != nil {
		return nil, f.linksErr
	}
	var out []model.LiveLink
	for _, row := range f.rows {
		if row.TwitchUserID == nil {
			continue
		}
		out = append(out, model.LiveLink{ChannelID: row.ChannelID, TwitchUserID: *row.TwitchUserID, IsLive: row.IsLive})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ChannelID < out[j].ChannelID })
	return out, nil
}

func (f *fakeChannels) UpdateChannel(_ context.Context, id string, patch model.ChannelPatch) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failFor[id] {
		return errBoom
	}
	row, ok := f.rows[id]
	if !ok {
		return repository.ErrNotFound
	}
	f.patches[id] = patch
	if patch.IsLive != nil {
		row.IsLive = *patch.IsLive
	}
	return nil
}

func (f *fakeChannels) addLinked(channelID, twitchID string, live bool) {
	tid := twitchID
	f.rows[channelID] = &model.Channel{ChannelID: channelID, TwitchUserID: &tid, IsLive: live}
}

type fakeVideos struct {
	mu        sync.Mutex
	rows      map[string]*model.Video
	upserts   []model.VideoUpsert
	private   []string
	flagsErr  error
	upsertErr map[string]bool
}

func newFakeVideos() *fakeVideos {
	return &fakeVideos{rows: make(map[string]*model.Video), upsertErr: make(map[string]bool)}
}

func (f *fakeVideos) UpsertVideo(_ context.Context, in model.VideoUpsert) (model.UpsertOutcome, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.upsertErr[in.VideoID] {
		return "", errBoom
	}
	if in.Duration == "" || in.Duration == "P0D" || in.Duration == "PT0S" {
		return model.OutcomeSkipped, nil
	}
	f.upserts = append(f.upserts, in)
	row, ok := f.rows[in.VideoID]
	if !ok {
		f.rows[in.VideoID] = &model.Video{
			VideoID:        in.VideoID,
			ChannelID:      in.ChannelID,
			Title:          in.Title,
			Duration:       in.Duration,
			IsShort:        in.IsShort,
			PrivacyStatus:  in.PrivacyStatus,
			LivestreamType: in.LivestreamType,
		}
		return model.OutcomeInserted, nil
	}
	row.Title = in.Title
	row.Duration = in.Duration
	row.PrivacyStatus = in.PrivacyStatus
	row.LivestreamType = model.ResolveLivestreamType(row.LivestreamType, in.LivestreamType)
	return model.OutcomeUpdated, nil
}

func (f *fakeVideos) GetVideo(_ context.Context, id string) (*model.Video, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	row, ok := f.rows[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *row
	return &cp, nil
}

func (f *fakeVideos) GetVideoFlags(_ context.Context, ids []string) (map[string]model.VideoFlags, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.flagsErr != nil {
		return nil, f.flagsErr
	}
	out := make(map[string]model.VideoFlags)
	for _, id := range ids {
		if row, ok := f.rows[id]; ok {
			out[id] = model.VideoFlags{IsShort: row.IsShort, LivestreamType: row.LivestreamType, PrivacyStatus: row.PrivacyStatus}
		}
	}
	return out, nil
}

func (f *fakeVideos) MarkVideosAsPrivate(_ context.Context, ids []string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, id := range ids {
		row, ok := f.rows[id]
		if !ok || row.PrivacyStatus == model.PrivacyPrivate {
			continue
		}
		row.PrivacyStatus = model.PrivacyPrivate
		f.private = append(f.private, id)
		n++
	}
	return n, nil
}

func (f *fakeVideos) SetVideoShort(_ context.Context, id string, isShort bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	row, ok := f.rows[id]
	if !ok {
		return repository.ErrNotFound
	}
	row.IsShort = isShort
	return nil
}

func (f *fakeVideos) seed(id, channelID string, isShort bool) {
	f.rows[id] = &model.Video{
		VideoID:        id,
		ChannelID:      channelID,
		Duration:       "PT10M",
		IsShort:        isShort,
		PrivacyStatus:  model.PrivacyPublic,
		LivestreamType: model.LivestreamNone,
	}
}

type fakeCache struct {
	mu          sync.Mutex
	invalidated map[string]int
}

func (f *fakeCache) InvalidateChannel(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.invalidated == nil {
		f.invalidated = make(map[string]int)
	}
	f.invalidated[id]++
	return nil
}

func (f *fakeCache) count(id string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.invalidated[id]
}

type harness struct {
	svc      *SyncService
	catalog  *fakeCatalog
	live     *fakeLive
	channels *fakeChannels
	videos   *fakeVideos
	cache    *fakeCache
}

func newHarness() *harness {
	h := &harness{
		catalog:  newFakeCatalog(),
		live:     &fakeLive{live: make(map[string]bool)},
		channels: newFakeChannels(),
		videos:   newFakeVideos(),
		cache:    &fakeCache{},
	}
	h.svc = NewSyncService(h.catalog, h.live, h.channels, h.videos, h.cache, zerolog.Nop())
	return h
}

func video(id, channelID, duration string) youtube.VideoDetails {
	return youtube.VideoDetails{
		VideoID:        id,
		ChannelID:      channelID,
		Title:          "title " + id,
		PublishedAt:    time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		Duration:       duration,
		PrivacyStatus:  model.PrivacyPublic,
		UploadStatus:   model.UploadProcessed,
		LivestreamType: model.LivestreamNone,
	}
}
