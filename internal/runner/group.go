package runner

import (
	"errors"
	"log/slog"
	"sync"
	"time"
)

// Group is the set of child processes owned by one orchestrator.
type Group struct {
	mu sync.Mutex
	// +checklocks:mu
	handles []Handle
}

// Add tracks h.
func (g *Group) Add(h Handle) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.handles = append(g.handles, h)
}

// Len returns the number of tracked handles.
func (g *Group) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.handles)
}

// Handles returns a snapshot of the tracked handles.
func (g *Group) Handles() []Handle {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]Handle(nil), g.handles...)
}

// StopAll sends a termination request to every tracked process, then waits
// for all of them concurrently, killing any that outlive timeout.
// Every child has been asked to terminate before StopAll waits on any.
func (g *Group) StopAll(timeout time.Duration) error {
	handles := g.Handles()

	var errs []error
	for _, h := range handles {
		slog.Info("stopping process", "label", h.Label(), "pid", h.Pid())
		if err := h.Terminate(); err != nil {
			slog.Warn("terminate failed", "label", h.Label(), "pid", h.Pid(), "error", err)
			errs = append(errs, err)
		}
	}

	var (
		wg sync.WaitGroup
		mu sync.Mutex
	)
	for _, h := range handles {
		h := h
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := h.AwaitExit(timeout); err != nil {
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	return errors.Join(errs...)
}
