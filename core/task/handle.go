package task

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// TaskHandle is the owning controller returned by Spawn. It holds the send
// side of the task's inbox and the awaitable result of its execution.
//
// Join, Kill and Shutdown consume the handle: whichever runs first wins and
// any later one fails with ErrHandleConsumed. Send and This stay usable
// until the handle's sender reference is gone.
type TaskHandle[T any] struct {
	id     string
	sender *Sender[T]
	rx     *Receiver[T]

	cancel   context.CancelFunc
	killed   chan struct{}
	killOnce sync.Once
	consumed atomic.Bool

	done   chan struct{}
	result TerminateReason // valid once done is closed

	metrics Metrics
}

// ID returns the task's identifier (Options.ID or a generated one).
func (h *TaskHandle[T]) ID() string { return h.id }

// Send enqueues msg on the task's inbox. It never blocks. Fails with a
// SendError carrying msg once the task has terminated or the handle's
// sender side has been released by Shutdown.
func (h *TaskHandle[T]) Send(msg T) error {
	err := h.sender.Send(msg)
	h.metrics.MessageSent(h.id, err == nil)
	if err == nil {
		h.metrics.MailboxDepth(h.id, h.sender.q.depth())
	}
	return err
}

// This produces a cloneable, send-only reference sharing the task's inbox.
func (h *TaskHandle[T]) This() TaskRef[T] {
	return TaskRef[T]{sender: h.sender.clone()}
}

// Done is closed once the lifecycle driver has published the task's
// termination reason. It does not consume the handle.
func (h *TaskHandle[T]) Done() <-chan struct{} { return h.done }

// Join awaits task completion without signaling shutdown: the inbound
// channel stays open and the task keeps receiving. Returns the reason the
// task terminated with, ErrTaskKilled if the task was killed first, or
// ctx.Err() if ctx ends before the task does.
func (h *TaskHandle[T]) Join(ctx context.Context) (TerminateReason, error) {
	if !h.consume() {
		return TerminateReason{}, ErrHandleConsumed
	}
	select {
	case <-h.done:
		// A kill that raced completion still wins: the handle was
		// invalidated and the termination hook was skipped.
		select {
		case <-h.killed:
			return TerminateReason{}, ErrTaskKilled
		default:
		}
		return h.result, nil
	case <-h.killed:
		return TerminateReason{}, ErrTaskKilled
	case <-ctx.Done():
		return TerminateReason{}, ctx.Err()
	}
}

// Kill unconditionally aborts the task: its context is cancelled, buffered
// messages are discarded, further sends fail, and the termination hook is
// NOT invoked. This is the only non-graceful exit path.
func (h *TaskHandle[T]) Kill() {
	h.consumed.Store(true)
	h.kill()
}

func (h *TaskHandle[T]) kill() {
	h.killOnce.Do(func() {
		close(h.killed)
		h.rx.teardown()
		h.cancel()
		h.sender.Release()
		h.metrics.TaskKilled(h.id)
	})
}

// Shutdown initiates graceful shutdown and awaits completion for at most
// timeout.
//
// The handle's sender reference is released first. If no TaskRef clones
// remain, the inbound channel closes and the task's next Recv reports
// ErrMailboxClosed. Live refs keep the channel open, so tasks that hand out
// refs must honor an explicit stop message instead.
//
// On success the reason the task actually terminated with is returned,
// which may itself be a panic reason if the task had already failed. On
// deadline expiry the task is killed and ErrShutdownTimeout is returned.
func (h *TaskHandle[T]) Shutdown(ctx context.Context, timeout time.Duration) (TerminateReason, error) {
	if !h.consume() {
		return TerminateReason{}, ErrHandleConsumed
	}

	h.sender.Release()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-h.done:
		return h.result, nil
	case <-h.killed:
		return TerminateReason{}, ErrTaskKilled
	case <-ctx.Done():
		return TerminateReason{}, ctx.Err()
	case <-timer.C:
		h.kill()
		return TerminateReason{}, ErrShutdownTimeout
	}
}

func (h *TaskHandle[T]) consume() bool {
	return h.consumed.CompareAndSwap(false, true)
}

var _ Addr[struct{}] = (*TaskHandle[struct{}])(nil)
