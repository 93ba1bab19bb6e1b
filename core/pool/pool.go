// Package pool provides a fixed-size set of worker tasks with key-affine
// routing: all messages for one key land on the same worker, so per-key
// FIFO survives fan-out, while distinct keys spread across the pool.
//
// Routing uses rendezvous hashing over the worker ids, which keeps the
// key-to-worker mapping stable for the lifetime of the pool.
package pool

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/H1ghBre4k3r/notizia/core/task"
	"github.com/H1ghBre4k3r/notizia/internal/hrw"
)

// Options configures a Pool. The zero value is usable.
type Options struct {
	// Context is the parent context for every worker.
	Context context.Context

	// Logger is handed to every worker.
	Logger *slog.Logger

	// Metrics is handed to every worker.
	Metrics task.Metrics

	// Name prefixes worker ids and seeds the routing hash so two pools
	// hashing the same keys do not shadow each other. Generated when
	// empty.
	Name string
}

// Pool runs size copies of one run routine and routes messages to them by
// key. The worker set is fixed at construction.
type Pool[T any] struct {
	name    string
	workers []*task.TaskHandle[T]
	ids     []string
}

// New spawns size workers executing run. size defaults to GOMAXPROCS when
// zero or negative.
func New[T any](opt Options, size int, run func(*task.Context[T])) *Pool[T] {
	if size <= 0 {
		size = runtime.GOMAXPROCS(0)
	}
	if opt.Name == "" {
		opt.Name = "pool-" + gonanoid.Must(6)
	}

	p := &Pool[T]{
		name:    opt.Name,
		workers: make([]*task.TaskHandle[T], size),
		ids:     make([]string, size),
	}
	for i := range p.workers {
		id := fmt.Sprintf("%s-%d", opt.Name, i)
		p.workers[i] = task.Spawn(task.Options{
			Context: opt.Context,
			Logger:  opt.Logger,
			ID:      id,
			Metrics: opt.Metrics,
		}, run)
		p.ids[i] = id
	}
	return p
}

// Size returns the number of workers.
func (p *Pool[T]) Size() int { return len(p.workers) }

// Route delivers msg to the worker owning key.
func (p *Pool[T]) Route(key string, msg T) error {
	return p.worker(key).Send(msg)
}

// Addr returns a send endpoint pinned to the worker owning key, usable as
// the target of task.Call and task.Cast.
func (p *Pool[T]) Addr(key string) task.Addr[T] {
	return keyAddr[T]{h: p.worker(key)}
}

// Broadcast delivers msg to every worker and returns the combined send
// errors.
func (p *Pool[T]) Broadcast(msg T) error {
	var errs []error
	for _, w := range p.workers {
		if err := w.Send(msg); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Shutdown gracefully stops every worker concurrently, each bounded by
// timeout, and returns the combined errors.
func (p *Pool[T]) Shutdown(ctx context.Context, timeout time.Duration) error {
	var (
		wg    sync.WaitGroup
		errMu sync.Mutex
		errs  []error
	)
	for _, w := range p.workers {
		wg.Add(1)
		go func(w *task.TaskHandle[T]) {
			defer wg.Done()
			if _, err := w.Shutdown(ctx, timeout); err != nil {
				errMu.Lock()
				errs = append(errs, err)
				errMu.Unlock()
			}
		}(w)
	}
	wg.Wait()
	return errors.Join(errs...)
}

func (p *Pool[T]) worker(key string) *task.TaskHandle[T] {
	// ids is never empty: New enforces size >= 1.
	idx, _ := hrw.Pick(key, p.ids, p.name)
	return p.workers[idx]
}

type keyAddr[T any] struct {
	h *task.TaskHandle[T]
}

func (a keyAddr[T]) Send(msg T) error { return a.h.Send(msg) }
