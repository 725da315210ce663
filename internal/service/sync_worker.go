package service

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Job is one scheduled sync program.
type Job func(ctx context.Context) error

// SyncWorker runs a Job on a fixed interval. A failing or panicking tick is
// logged and the worker waits for the next one.
type SyncWorker struct {
	name     string
	interval time.Duration
	job      Job
	logger   zerolog.Logger
	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewSyncWorker creates a worker that ticks every interval.
func NewSyncWorker(name string, interval time.Duration, job Job, logger zerolog.Logger) *SyncWorker {
	return &SyncWorker{
		name:     name,
		interval: interval,
		job:      job,
		logger:   logger.With().Str("component", "worker").Str("worker", name).Logger(),
		stopCh:   make(chan struct{}),
	}
}

// Start runs one tick immediately, then every interval, until ctx is
// cancelled or Stop is called. It blocks.
func (w *SyncWorker) Start(ctx context.Context) {
	w.logger.Info().Dur("interval", w.interval).Msg("starting")

	w.tick(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.tick(ctx)
		case <-ctx.Done():
			w.logger.Info().Msg("stopping (context cancelled)")
			return
		case <-w.stopCh:
			w.logger.Info().Msg("stopping (stop signal)")
			return
		}
	}
}

// Stop signals the worker to stop. Safe to call more than once.
func (w *SyncWorker) Stop() {
	w.stopOnce.Do(func() { close(w.stopCh) })
}

// RunOnce executes a single tick synchronously.
func (w *SyncWorker) RunOnce(ctx context.Context) error {
	return w.tick(ctx)
}

func (w *SyncWorker) tick(ctx context.Context) (err error) {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	start := time.Now()
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic: %v", p)
			w.logger.Error().Interface("panic", p).Bytes("stack", debug.Stack()).Msg("tick panicked")
		}
		evt := w.logger.Info()
		if err != nil {
			evt = w.logger.Error().Err(err)
		}
		evt.Dur("duration", time.Since(start)).Msg("tick complete")
	}()

	return w.job(ctx)
}
