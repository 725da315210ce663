package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v3"
	"github.com/rs/zerolog"

	"github.com/EpicAlbin03/hermitcraft/internal/model"
	"github.com/EpicAlbin03/hermitcraft/internal/repository"
	"github.com/EpicAlbin03/hermitcraft/internal/service"
	"github.com/EpicAlbin03/hermitcraft/internal/youtube"
)

type fakeSyncer struct {
	channelsDescs []model.ChannelDescriptor
	channelDesc   model.ChannelDescriptor
	videoIDs      []string
	videoOpts     service.VideoSyncOptions
	videoErr      error
	liveCalled    bool
}

func (f *fakeSyncer) SyncChannels(_ context.Context, descs []model.ChannelDescriptor, task string, _ map[string]bool) (*service.SyncResult, error) {
	f.channelsDescs = descs
	return &service.SyncResult{Operation: "sync_channels", Task: task, Synced: len(descs)}, nil
}

func (f *fakeSyncer) SyncChannel(_ context.Context, d model.ChannelDescriptor, task string) (*service.SyncResult, error) {
	f.channelDesc = d
	return &service.SyncResult{Operation: "sync_channel", Task: task, Synced: 1}, nil
}

func (f *fakeSyncer) SyncVideos(_ context.Context, ids []string, opts service.VideoSyncOptions) (*service.SyncResult, error) {
	f.videoIDs = ids
	f.videoOpts = opts
	return &service.SyncResult{Operation: "sync_videos", Task: opts.TaskName}, nil
}

func (f *fakeSyncer) SyncVideo(_ context.Context, videoID, _ string) (model.UpsertOutcome, error) {
	if f.videoErr != nil {
		return "", f.videoErr
	}
	return model.OutcomeInserted, nil
}

func (f *fakeSyncer) SyncLiveStatus(_ context.Context, task string) (map[string]bool, *service.SyncResult, error) {
	f.liveCalled = true
	return map[string]bool{}, &service.SyncResult{Operation: "sync_live_status", Task: task}, nil
}

type fakeLister struct {
	rows map[string]*model.Channel
	err  error
}

func (f *fakeLister) GetChannel(_ context.Context, id string) (*model.Channel, error) {
	if row, ok := f.rows[id]; ok {
		return row, nil
	}
	return nil, fmt.Errorf("get channel: %w", repository.ErrNotFound)
}

func (f *fakeLister) ListChannelIDs(_ context.Context) ([]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	var ids []string
	for id := range f.rows {
		ids = append(ids, id)
	}
	return ids, nil
}

func (f *fakeLister) ListDescriptors(_ context.Context) ([]model.ChannelDescriptor, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []model.ChannelDescriptor
	for _, row := range f.rows {
		out = append(out, row.Descriptor())
	}
	return out, nil
}

func newSyncApp(svc *fakeSyncer, lister *fakeLister) *fiber.App {
	app := fiber.New()
	h := NewSyncHandler(svc, lister, 50, zerolog.Nop())
	app.Post("/api/sync/channels", h.SyncChannels)
	app.Post("/api/sync/channels/:channelId", h.SyncChannel)
	app.Post("/api/sync/videos", h.SyncVideos)
	app.Post("/api/sync/videos/:videoId", h.SyncVideo)
	app.Post("/api/sync/live", h.SyncLive)
	return app
}

func do(t *testing.T, app *fiber.App, method, target string) (*http.Response, map[string]any) {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest(method, target, nil))
	if err != nil {
		t.Fatalf("%s %s: %v", method, target, err)
	}
	defer resp.Body.Close()
	var body map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&body)
	return resp, body
}

const grian = "UCR9Gcq0CMm6YgTzsDxAxjOQ"

func TestSyncChannel_UsesStoredLinkage(t *testing.T) {
	twitchID := "123"
	svc := &fakeSyncer{}
	lister := &fakeLister{rows: map[string]*model.Channel{
		grian: {ChannelID: grian, Name: "Grian", TwitchUserID: &twitchID},
	}}
	app := newSyncApp(svc, lister)

	resp, _ := do(t, app, http.MethodPost, "/api/sync/channels/"+grian)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if svc.channelDesc.TwitchUserID != "123" {
		t.Errorf("descriptor twitch id = %q, want 123", svc.channelDesc.TwitchUserID)
	}
}

func TestSyncChannel_UnknownChannelUsesBareDescriptor(t *testing.T) {
	svc := &fakeSyncer{}
	app := newSyncApp(svc, &fakeLister{rows: map[string]*model.Channel{}})

	resp, _ := do(t, app, http.MethodPost, "/api/sync/channels/"+grian)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if svc.channelDesc.ChannelID != grian {
		t.Errorf("channel id = %q", svc.channelDesc.ChannelID)
	}
}

func TestSyncChannel_InvalidID(t *testing.T) {
	app := newSyncApp(&fakeSyncer{}, &fakeLister{})

	resp, body := do(t, app, http.MethodPost, "/api/sync/channels/bad!id")
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
	errBody, _ := body["error"].(map[string]any)
	if errBody["code"] != "INVALID_PARAM" {
		t.Errorf("error code = %v", errBody["code"])
	}
}

func TestSyncVideos_ParsesQuery(t *testing.T) {
	svc := &fakeSyncer{}
	lister := &fakeLister{rows: map[string]*model.Channel{grian: {ChannelID: grian}}}
	app := newSyncApp(svc, lister)

	resp, body := do(t, app, http.MethodPost, "/api/sync/videos?backfill=true&maxResults=200")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if !svc.videoOpts.Backfill || svc.videoOpts.MaxResults != 200 || svc.videoOpts.TaskName != TaskName {
		t.Errorf("opts = %+v", svc.videoOpts)
	}
	if len(svc.videoIDs) != 1 {
		t.Errorf("channel ids = %v", svc.videoIDs)
	}
	if body["operation"] != "sync_videos" {
		t.Errorf("body = %v", body)
	}
}

func TestSyncVideos_DefaultMaxResults(t *testing.T) {
	svc := &fakeSyncer{}
	app := newSyncApp(svc, &fakeLister{rows: map[string]*model.Channel{}})

	do(t, app, http.MethodPost, "/api/sync/videos")
	if svc.videoOpts.Backfill || svc.videoOpts.MaxResults != 50 {
		t.Errorf("opts = %+v, want incremental with 50", svc.videoOpts)
	}
}

func TestSyncVideos_BadQuery(t *testing.T) {
	app := newSyncApp(&fakeSyncer{}, &fakeLister{})

	for _, q := range []string{"?backfill=maybe", "?maxResults=-5"} {
		resp, _ := do(t, app, http.MethodPost, "/api/sync/videos"+q)
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", q, resp.StatusCode)
		}
	}
}

func TestSyncVideos_ListFailure(t *testing.T) {
	app := newSyncApp(&fakeSyncer{}, &fakeLister{err: errors.New("db down")})

	resp, _ := do(t, app, http.MethodPost, "/api/sync/videos")
	if resp.StatusCode != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", resp.StatusCode)
	}
}

func TestSyncVideo_NotFound(t *testing.T) {
	svc := &fakeSyncer{videoErr: &service.SyncFailure{Context: "fetch video x", Err: youtube.ErrNotFound}}
	app := newSyncApp(svc, &fakeLister{})

	resp, _ := do(t, app, http.MethodPost, "/api/sync/videos/dQw4w9WgXcQ")
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
}

func TestSyncVideo_OK(t *testing.T) {
	app := newSyncApp(&fakeSyncer{}, &fakeLister{})

	resp, body := do(t, app, http.MethodPost, "/api/sync/videos/dQw4w9WgXcQ")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if body["outcome"] != string(model.OutcomeInserted) {
		t.Errorf("body = %v", body)
	}
}

func TestSyncLive(t *testing.T) {
	svc := &fakeSyncer{}
	app := newSyncApp(svc, &fakeLister{})

	resp, _ := do(t, app, http.MethodPost, "/api/sync/live")
	if resp.StatusCode != http.StatusOK || !svc.liveCalled {
		t.Errorf("status = %d, called = %v", resp.StatusCode, svc.liveCalled)
	}
}

type fakePinger struct{ err error }

func (f fakePinger) Ping(context.Context) error { return f.err }

func TestHealthReady(t *testing.T) {
	tests := []struct {
		name       string
		dbErr      error
		wantStatus int
		wantBody   string
	}{
		{"db up, redis disabled", nil, http.StatusOK, "healthy"},
		{"db down", errors.New("refused"), http.StatusServiceUnavailable, "unhealthy"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := fiber.New()
			h := NewHealthHandler(fakePinger{err: tt.dbErr}, nil)
			app.Get("/health/ready", h.Ready)

			resp, body := do(t, app, http.MethodGet, "/health/ready")
			if resp.StatusCode != tt.wantStatus {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.wantStatus)
			}
			if body["status"] != tt.wantBody {
				t.Errorf("body status = %v, want %s", body["status"], tt.wantBody)
			}
		})
	}
}

func TestSanitizeEndpoint(t *testing.T) {
	tests := map[string]string{
		"/api/sync/channels/UC123": "/api/sync/channels/:channelId",
		"/api/sync/videos/abc":     "/api/sync/videos/:videoId",
		"/api/sync/videos":         "/api/sync/videos",
		"/health/ready":            "/health/ready",
		"/random/probe":            "other",
	}
	for in, want := range tests {
		if got := sanitizeEndpoint(in); got != want {
			t.Errorf("sanitizeEndpoint(%q) = %q, want %q", in, got, want)
		}
	}
}
