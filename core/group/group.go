// Package group provides a keyed registry of tasks with spawn-on-demand:
// the first Get for a key creates the task, concurrent Gets for the same
// key are deduplicated, and Shutdown stops every member.
package group

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/H1ghBre4k3r/notizia/core/task"
)

// ErrClosed is returned by Get once the group has been shut down.
var ErrClosed = errors.New("group closed")

// SpawnFunc creates the task serving one key. It is called at most once per
// key at any given time.
type SpawnFunc[T any] func(key string) *task.TaskHandle[T]

// Options configures a Group. The zero value is usable.
type Options struct {
	Logger *slog.Logger
}

// Group is a registry of tasks addressed by key. All methods are safe for
// concurrent use.
type Group[T any] struct {
	log   *slog.Logger
	spawn SpawnFunc[T]

	sf singleflight.Group

	mu     sync.Mutex
	tasks  map[string]*task.TaskHandle[T]
	closed bool
}

// New creates a Group that spawns members with spawn.
func New[T any](opt Options, spawn SpawnFunc[T]) *Group[T] {
	if opt.Logger == nil {
		opt.Logger = slog.Default()
	}
	return &Group[T]{
		log:   opt.Logger,
		spawn: spawn,
		tasks: make(map[string]*task.TaskHandle[T]),
	}
}

// Get returns a reference to the task serving key, spawning it on first
// use. Concurrent Gets for the same key share a single spawn.
func (g *Group[T]) Get(key string) (task.TaskRef[T], error) {
	v, err, _ := g.sf.Do(key, func() (any, error) {
		g.mu.Lock()
		if g.closed {
			g.mu.Unlock()
			return nil, ErrClosed
		}
		if h, ok := g.tasks[key]; ok {
			g.mu.Unlock()
			return h, nil
		}
		g.mu.Unlock()

		h := g.spawn(key)

		g.mu.Lock()
		if g.closed {
			g.mu.Unlock()
			h.Kill()
			return nil, ErrClosed
		}
		g.tasks[key] = h
		g.mu.Unlock()

		g.log.Debug("task spawned", slog.String("key", key), slog.String("task", h.ID()))
		return h, nil
	})
	if err != nil {
		return task.TaskRef[T]{}, err
	}
	return v.(*task.TaskHandle[T]).This(), nil
}

// Lookup returns a reference to the task serving key without spawning.
func (g *Group[T]) Lookup(key string) (task.TaskRef[T], bool) {
	g.mu.Lock()
	h, ok := g.tasks[key]
	g.mu.Unlock()
	if !ok {
		return task.TaskRef[T]{}, false
	}
	return h.This(), true
}

// Remove detaches the task serving key from the group and hands its handle
// to the caller, who becomes responsible for shutting it down.
func (g *Group[T]) Remove(key string) (*task.TaskHandle[T], bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	h, ok := g.tasks[key]
	if ok {
		delete(g.tasks, key)
	}
	return h, ok
}

// Keys returns the keys currently served.
func (g *Group[T]) Keys() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	keys := make([]string, 0, len(g.tasks))
	for k := range g.tasks {
		keys = append(keys, k)
	}
	return keys
}

// Len returns the number of tasks currently registered.
func (g *Group[T]) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.tasks)
}

// Shutdown gracefully stops every member concurrently, each bounded by
// timeout, and returns the combined errors. The group refuses new Gets from
// the moment Shutdown starts.
//
// References handed out by Get keep their member's inbound channel open:
// callers must release them (or members must honor a stop message) for the
// graceful path to complete, otherwise members are killed at the deadline.
func (g *Group[T]) Shutdown(ctx context.Context, timeout time.Duration) error {
	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		return ErrClosed
	}
	g.closed = true
	handles := make(map[string]*task.TaskHandle[T], len(g.tasks))
	for k, h := range g.tasks {
		handles[k] = h
	}
	g.tasks = make(map[string]*task.TaskHandle[T])
	g.mu.Unlock()

	var (
		wg    sync.WaitGroup
		errMu sync.Mutex
		errs  []error
	)
	for key, h := range handles {
		wg.Add(1)
		go func(key string, h *task.TaskHandle[T]) {
			defer wg.Done()
			if _, err := h.Shutdown(ctx, timeout); err != nil {
				g.log.Warn("member shutdown failed",
					slog.String("key", key),
					slog.String("task", h.ID()),
					slog.Any("error", err),
				)
				errMu.Lock()
				errs = append(errs, err)
				errMu.Unlock()
			}
		}(key, h)
	}
	wg.Wait()

	return errors.Join(errs...)
}
