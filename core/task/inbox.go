package task

import (
	"context"
	"sync"
)

// inbox is the unbounded multi-producer single-consumer queue behind a
// task's mailbox. Sends never block; the buffer grows as needed.
//
// The producer side is reference counted: the TaskHandle owns one reference
// and every TaskRef clone owns another. Releasing the last reference closes
// the inbox; the consumer drains whatever is still buffered and then
// observes ErrMailboxClosed. The consumer side is torn down when the task
// terminates, after which sends fail with SendError.
type inbox[T any] struct {
	mu      sync.Mutex
	buf     []T
	senders int
	closed  bool // all sender references released
	gone    bool // consumer (task) terminated
	notify  chan struct{}
}

// NewInbox creates the endpoint pair feeding one task's mailbox. Spawn wires
// this up automatically; direct use is only needed when driving a Mailbox
// by hand.
func NewInbox[T any]() (*Sender[T], *Receiver[T]) {
	q := &inbox[T]{
		senders: 1,
		notify:  make(chan struct{}, 1),
	}
	return &Sender[T]{q: q}, &Receiver[T]{q: q}
}

// pulse wakes the consumer if it is parked. The channel has capacity one,
// so a pulse issued between the consumer's state check and its park is
// never lost.
func (q *inbox[T]) pulse() {
	select {
	case q.notify <- struct{}{}:
	default:
	}
}

func (q *inbox[T]) depth() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.buf)
}

// Sender is the producer endpoint of a task inbox. Senders sharing one
// inbox are created with clone and individually released; the inbox closes
// when the last one is gone.
type Sender[T any] struct {
	q        *inbox[T]
	once     sync.Once
	released bool // guarded by q.mu
}

// Send enqueues msg. It never blocks. Once the receiving task has
// terminated, or this sender reference has been released, it fails with a
// SendError carrying msg.
func (s *Sender[T]) Send(msg T) error {
	q := s.q
	q.mu.Lock()
	if q.gone || q.closed || s.released {
		q.mu.Unlock()
		return &SendError[T]{Msg: msg}
	}
	q.buf = append(q.buf, msg)
	q.mu.Unlock()
	q.pulse()
	return nil
}

// clone acquires another sender reference on the same inbox.
func (s *Sender[T]) clone() *Sender[T] {
	q := s.q
	q.mu.Lock()
	q.senders++
	q.mu.Unlock()
	return &Sender[T]{q: q}
}

// Release drops this sender reference. The last release closes the inbox.
// Idempotent.
func (s *Sender[T]) Release() {
	s.once.Do(func() {
		q := s.q
		q.mu.Lock()
		s.released = true
		q.senders--
		last := q.senders == 0 && !q.closed
		if last {
			q.closed = true
		}
		q.mu.Unlock()
		if last {
			q.pulse()
		}
	})
}

// Receiver is the consumer endpoint of a task inbox. It is bound into a
// Mailbox once; all receiving goes through Mailbox.Recv.
type Receiver[T any] struct {
	q *inbox[T]
}

// recv pops the next message, parking on the notify channel while the
// buffer is empty. Buffered messages are drained before closure is
// reported.
func (r *Receiver[T]) recv(ctx context.Context) (T, error) {
	var zero T
	q := r.q
	for {
		q.mu.Lock()
		if len(q.buf) > 0 {
			msg := q.buf[0]
			q.buf = q.buf[1:]
			q.mu.Unlock()
			return msg, nil
		}
		if q.closed || q.gone {
			q.mu.Unlock()
			return zero, ErrMailboxClosed
		}
		q.mu.Unlock()

		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-q.notify:
		}
	}
}

// teardown marks the consumer as gone and discards buffered messages.
// Called by the lifecycle driver after the run routine returns, and by
// Kill. Idempotent.
func (r *Receiver[T]) teardown() {
	q := r.q
	q.mu.Lock()
	q.gone = true
	q.buf = nil
	q.mu.Unlock()
	q.pulse()
}
