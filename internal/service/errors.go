package service

import "fmt"

// SyncFailure wraps a client or store error surfaced by the orchestrator
// with what it was doing at the time.
type SyncFailure struct {
	Context string
	Err     error
}

func (e *SyncFailure) Error() string {
	return fmt.Sprintf("sync: %s: %v", e.Context, e.Err)
}

func (e *SyncFailure) Unwrap() error { return e.Err }
