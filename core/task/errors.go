package task

import "errors"

var (
	// ErrMailboxClosed signals that the inbox is exhausted: every sender
	// reference has been released and the buffer is drained. Run loops
	// should treat this as the normal stop signal, not as a failure.
	ErrMailboxClosed = errors.New("mailbox closed")

	// ErrMailboxPoisoned signals programmer error: Recv was called before
	// the mailbox was bound, or while another Recv had the endpoint taken.
	ErrMailboxPoisoned = errors.New("mailbox poisoned")

	// ErrRecvTimeout is returned by the bounded receive variant when no
	// message arrives before the deadline.
	ErrRecvTimeout = errors.New("receive timeout")

	// ErrDisconnected is the match target for SendError: the receiving
	// task has terminated and will never consume the message.
	ErrDisconnected = errors.New("task disconnected")

	// ErrCallTimeout signals that no reply arrived before the call deadline.
	ErrCallTimeout = errors.New("call timeout")

	// ErrCallClosed signals that the callee released the reply channel
	// without sending a value.
	ErrCallClosed = errors.New("reply channel closed")

	// ErrShutdownTimeout signals that the task did not terminate within the
	// shutdown deadline and was forcibly killed.
	ErrShutdownTimeout = errors.New("shutdown timeout exceeded")

	// ErrTaskKilled signals that the task was aborted via Kill.
	ErrTaskKilled = errors.New("task killed")

	// ErrHandleConsumed signals that Join, Kill or Shutdown was already
	// called on this handle.
	ErrHandleConsumed = errors.New("task handle already consumed")
)

// SendError is returned when a message cannot be delivered because the
// receiving task is gone. It carries the undelivered message so the caller
// can recover or log it.
//
// Matches ErrDisconnected via errors.Is.
type SendError[T any] struct {
	// Msg is the message that could not be delivered.
	Msg T
}

func (e *SendError[T]) Error() string { return "task disconnected" }

func (e *SendError[T]) Unwrap() error { return ErrDisconnected }
