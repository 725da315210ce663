package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/EpicAlbin03/hermitcraft/internal/model"
	"github.com/EpicAlbin03/hermitcraft/internal/youtube"
)

func TestSyncChannels_LooksUpLiveWhenMapIsNil(t *testing.T) {
	h := newHarness()
	h.catalog.channels[chanA] = &youtube.ChannelDetails{ChannelID: chanA, Name: "Grian"}
	h.catalog.channels[chanB] = &youtube.ChannelDetails{ChannelID: chanB, Name: "Mumbo"}
	h.live.live["111"] = true

	descs := []model.ChannelDescriptor{
		{ChannelID: chanA, TwitchUserID: "111", TwitchUserLogin: "grian"},
		{ChannelID: chanB},
	}
	res, err := h.svc.SyncChannels(context.Background(), descs, "test", nil)
	if err != nil {
		t.Fatalf("SyncChannels: %v", err)
	}
	if res.Synced != 2 {
		t.Errorf("synced = %d, want 2", res.Synced)
	}
	if h.live.calls != 1 {
		t.Errorf("live calls = %d, want 1", h.live.calls)
	}
	if !h.channels.rows[chanA].IsLive {
		t.Error("linked live channel not marked live")
	}
	for _, u := range h.channels.upserts {
		if u.ChannelID == chanB && u.IsLive != nil {
			t.Error("unlinked channel should leave is_live untouched")
		}
	}
}

func TestSyncChannels_UsesSuppliedLiveMap(t *testing.T) {
	h := newHarness()
	h.catalog.channels[chanA] = &youtube.ChannelDetails{ChannelID: chanA, Name: "Grian"}

	descs := []model.ChannelDescriptor{{ChannelID: chanA, TwitchUserID: "111"}}
	if _, err := h.svc.SyncChannels(context.Background(), descs, "test", map[string]bool{"111": true}); err != nil {
		t.Fatalf("SyncChannels: %v", err)
	}
	if h.live.calls != 0 {
		t.Errorf("live calls = %d, want 0", h.live.calls)
	}
	if !h.channels.rows[chanA].IsLive {
		t.Error("supplied live status not applied")
	}
}

func TestSyncChannels_LiveFailureKeepsStoredValue(t *testing.T) {
	h := newHarness()
	h.channels.addLinked(chanA, "111", true)
	h.catalog.channels[chanA] = &youtube.ChannelDetails{ChannelID: chanA, Name: "Grian"}
	h.live.err = errBoom

	res, err := h.svc.SyncChannels(context.Background(), []model.ChannelDescriptor{{ChannelID: chanA, TwitchUserID: "111"}}, "test", nil)
	if err != nil {
		t.Fatalf("SyncChannels: %v", err)
	}
	if res.Synced != 1 {
		t.Errorf("synced = %d, want 1", res.Synced)
	}
	if u := h.channels.upserts[0]; u.IsLive != nil {
		t.Errorf("is_live = %v, want nil when the live lookup failed", *u.IsLive)
	}
	if !h.channels.rows[chanA].IsLive {
		t.Error("stored is_live was overwritten")
	}
}

func TestSyncChannels_FailuresAreCounted(t *testing.T) {
	h := newHarness()
	h.catalog.channels[chanA] = &youtube.ChannelDetails{ChannelID: chanA, Name: "Grian"}
	h.catalog.channelErr[chanB] = errBoom

	res, err := h.svc.SyncChannels(context.Background(), []model.ChannelDescriptor{{ChannelID: chanA}, {ChannelID: chanB}}, "test", map[string]bool{})
	if err != nil {
		t.Fatalf("SyncChannels: %v", err)
	}
	if res.Synced != 1 || res.Failed != 1 {
		t.Errorf("result = %+v, want 1 synced and 1 failed", res)
	}
	if h.cache.count(chanA) != 1 || h.cache.count(chanB) != 0 {
		t.Error("only the stored channel should be invalidated")
	}
}

func TestSyncChannels_NameFallsBackToDescriptor(t *testing.T) {
	h := newHarness()
	h.catalog.channels[chanA] = &youtube.ChannelDetails{ChannelID: chanA}

	if _, err := h.svc.SyncChannels(context.Background(), []model.ChannelDescriptor{{ChannelID: chanA, Name: "Grian"}}, "test", map[string]bool{}); err != nil {
		t.Fatalf("SyncChannels: %v", err)
	}
	if got := h.channels.rows[chanA].Name; got != "Grian" {
		t.Errorf("name = %q, want Grian", got)
	}
}

func TestSyncChannels_LiveLookupBatchedByHundred(t *testing.T) {
	h := newHarness()
	var descs []model.ChannelDescriptor
	for i := 0; i < 150; i++ {
		id := fmt.Sprintf("UC%022d", i)
		h.catalog.channels[id] = &youtube.ChannelDetails{ChannelID: id, Name: id}
		descs = append(descs, model.ChannelDescriptor{ChannelID: id, TwitchUserID: fmt.Sprint(i)})
	}

	if _, err := h.svc.SyncChannels(context.Background(), descs, "test", nil); err != nil {
		t.Fatalf("SyncChannels: %v", err)
	}
	if h.live.calls != 2 {
		t.Errorf("live calls = %d, want 2", h.live.calls)
	}
}

func TestSyncChannel_NotFound(t *testing.T) {
	h := newHarness()

	res, err := h.svc.SyncChannel(context.Background(), model.ChannelDescriptor{ChannelID: chanA}, "manual")
	if !IsNotFound(err) {
		t.Fatalf("err = %v, want not found", err)
	}
	if res.Failed != 1 {
		t.Errorf("failed = %d, want 1", res.Failed)
	}
}
