package task

import (
	"context"
	"sync"
	"time"
)

// DefaultCallTimeout bounds a Call when no WithCallTimeout option is given.
const DefaultCallTimeout = 5 * time.Second

// Addr is anything that can deliver a message to a task's inbox: a
// *TaskHandle, a TaskRef, or a router in front of several tasks.
type Addr[T any] interface {
	Send(msg T) error
}

// Reply is the single-use reply channel embedded in a call request. The
// callee either answers with Send or declines with Close; only the first of
// the two takes effect. Each call owns a private Reply, so replies never
// interleave across calls and a late reply cannot corrupt a later call.
type Reply[R any] struct {
	ch   chan R
	once *sync.Once
}

func newReply[R any]() Reply[R] {
	return Reply[R]{ch: make(chan R, 1), once: new(sync.Once)}
}

// Send delivers the reply value. It never blocks, even when the caller has
// already given up.
func (r Reply[R]) Send(v R) {
	r.once.Do(func() {
		r.ch <- v
		close(r.ch)
	})
}

// Close declines the request without a value; the caller observes
// ErrCallClosed.
func (r Reply[R]) Close() {
	r.once.Do(func() { close(r.ch) })
}

// CallOption configures a single Call.
type CallOption func(*callOpts)

type callOpts struct {
	timeout time.Duration
}

// WithCallTimeout overrides DefaultCallTimeout for one call.
func WithCallTimeout(d time.Duration) CallOption {
	return func(o *callOpts) { o.timeout = d }
}

// Call sends a request built by build and awaits the reply, bounded by the
// call timeout.
//
// build receives the call's private Reply and must embed it in the outbound
// message. Errors, in the order they are evaluated:
//
//   - the send itself fails: the SendError is returned as-is, since the
//     request can never have been processed;
//   - the callee closes the reply channel without answering: ErrCallClosed;
//   - the deadline elapses first: ErrCallTimeout;
//   - ctx ends first: ctx.Err().
//
// Concurrent calls against the same target are fully independent.
func Call[T any, R any](ctx context.Context, target Addr[T], build func(Reply[R]) T, opts ...CallOption) (R, error) {
	var zero R

	co := callOpts{timeout: DefaultCallTimeout}
	for _, o := range opts {
		o(&co)
	}

	reply := newReply[R]()
	if err := target.Send(build(reply)); err != nil {
		return zero, err
	}

	timer := time.NewTimer(co.timeout)
	defer timer.Stop()

	select {
	case v, ok := <-reply.ch:
		if !ok {
			return zero, ErrCallClosed
		}
		return v, nil
	case <-timer.C:
		return zero, ErrCallTimeout
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

// Cast sends msg without waiting for any response. It is exactly Send,
// named for symmetry with Call.
func Cast[T any](target Addr[T], msg T) error {
	return target.Send(msg)
}
