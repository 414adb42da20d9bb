package viewmodel

import (
	"context"
	"fmt"
	"sync"
)

// CleanupTracker counts the cleanups that are running so that shutdown can wait for
// them. Repositories sharing a tracker report to it through WithCleanupTracker.
type CleanupTracker struct {
	mu      sync.Mutex
	running int
	idle    chan struct{}
}

// NewCleanupTracker creates an idle tracker
func NewCleanupTracker() *CleanupTracker {
	return &CleanupTracker{}
}

func (t *CleanupTracker) start() {
	if t == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.running == 0 {
		t.idle = make(chan struct{})
	}
	t.running++
}

func (t *CleanupTracker) done() {
	if t == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.running--
	if t.running == 0 {
		close(t.idle)
	}
}

// Running returns the number of cleanups in progress
func (t *CleanupTracker) Running() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.running
}

// Wait blocks until no cleanup is running or ctx ends
func (t *CleanupTracker) Wait(ctx context.Context) error {
	t.mu.Lock()
	if t.running == 0 {
		t.mu.Unlock()
		return nil
	}
	idle := t.idle
	t.mu.Unlock()

	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("%d cleanups still running: %w", t.Running(), ctx.Err())
	}
}
