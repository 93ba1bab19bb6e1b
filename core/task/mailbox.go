package task

import (
	"context"
	"errors"
	"sync"
	"time"
)

// Mailbox is the single-consumer receive endpoint of one task.
//
// The receive endpoint lives in a guarded slot. Recv takes it out of the
// slot, awaits the next message with no lock held, then puts it back
// (take–await–restore). Holding the lock across the await would block every
// producer's closure detection, and the endpoint itself must never be
// awaited from two points of suspension at once: a concurrent Recv that
// finds the slot empty fails with ErrMailboxPoisoned instead of silently
// blocking or corrupting state.
//
// A Mailbox is created empty and bound to its endpoint exactly once, during
// task setup. It is never rebound.
type Mailbox[T any] struct {
	mu sync.Mutex
	rx *Receiver[T]
}

// NewMailbox creates an empty, unbound mailbox. Recv fails with
// ErrMailboxPoisoned until Bind is called.
func NewMailbox[T any]() *Mailbox[T] {
	return &Mailbox[T]{}
}

// Bind attaches the receive endpoint. Called once during task setup; a
// second Bind on an already-bound mailbox is a no-op.
func (m *Mailbox[T]) Bind(rx *Receiver[T]) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.rx == nil {
		m.rx = rx
	}
}

// Recv awaits the next message.
//
// Returns ErrMailboxClosed once every sender reference has been released
// and the buffer is drained; run loops should treat that as the normal stop
// signal. Returns ErrMailboxPoisoned if the mailbox was never bound or a
// concurrent Recv currently has the endpoint taken. Returns ctx.Err() when
// ctx ends first.
func (m *Mailbox[T]) Recv(ctx context.Context) (T, error) {
	var zero T

	m.mu.Lock()
	rx := m.rx
	m.rx = nil
	m.mu.Unlock()
	if rx == nil {
		return zero, ErrMailboxPoisoned
	}

	// Await with no lock held.
	msg, err := rx.recv(ctx)

	// Restore the endpoint even after closure so a second Recv
	// deterministically reports ErrMailboxClosed again.
	m.mu.Lock()
	m.rx = rx
	m.mu.Unlock()

	return msg, err
}

// RecvTimeout awaits the next message for at most d. A deadline expiry is
// reported as ErrRecvTimeout; all other failure modes match Recv.
func (m *Mailbox[T]) RecvTimeout(ctx context.Context, d time.Duration) (T, error) {
	rctx, cancel := context.WithTimeout(ctx, d)
	defer cancel()

	msg, err := m.Recv(rctx)
	if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
		return msg, ErrRecvTimeout
	}
	return msg, err
}
