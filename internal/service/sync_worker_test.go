package service

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestSyncWorker_TicksImmediatelyAndStops(t *testing.T) {
	var n atomic.Int32
	w := NewSyncWorker("test", 10*time.Millisecond, func(ctx context.Context) error {
		n.Add(1)
		return nil
	}, zerolog.Nop())

	done := make(chan struct{})
	go func() {
		w.Start(context.Background())
		close(done)
	}()

	deadline := time.After(2 * time.Second)
	for n.Load() < 3 {
		select {
		case <-deadline:
			t.Fatalf("ticks = %d, want at least 3", n.Load())
		case <-time.After(5 * time.Millisecond):
		}
	}

	w.Stop()
	w.Stop()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop")
	}
}

func TestSyncWorker_StopsOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	w := NewSyncWorker("test", time.Hour, func(ctx context.Context) error { return nil }, zerolog.Nop())

	done := make(chan struct{})
	go func() {
		w.Start(ctx)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop on cancel")
	}
}

func TestSyncWorker_RecoversPanic(t *testing.T) {
	w := NewSyncWorker("test", time.Hour, func(ctx context.Context) error {
		panic("bad tick")
	}, zerolog.Nop())

	if err := w.RunOnce(context.Background()); err == nil {
		t.Fatal("expected an error from a panicking tick")
	}
}

func TestSyncWorker_ReturnsJobError(t *testing.T) {
	w := NewSyncWorker("test", time.Hour, func(ctx context.Context) error { return errBoom }, zerolog.Nop())
	if err := w.RunOnce(context.Background()); err != errBoom {
		t.Errorf("err = %v, want errBoom", err)
	}
}
