package task

import (
	"context"
	"log/slog"
	"time"
)

// Context is the capability struct handed to a task's run routine: its
// mailbox, a way to mint references to itself, its logger and its id. It
// embeds the task's context.Context, which ends when the task is killed or
// the parent context from Options ends.
//
// Passing this explicitly at spawn time replaces any ambient task-local
// lookup: a run routine can never observe an unbound mailbox.
type Context[T any] struct {
	context.Context

	id      string
	log     *slog.Logger
	mailbox *Mailbox[T]
	sender  *Sender[T]
	metrics Metrics
}

// ID returns the running task's identifier.
func (c *Context[T]) ID() string { return c.id }

// Log returns the task's logger, pre-annotated with the task id.
func (c *Context[T]) Log() *slog.Logger { return c.log }

// Mailbox returns the task's own mailbox.
func (c *Context[T]) Mailbox() *Mailbox[T] { return c.mailbox }

// Self mints a fresh send-only reference to the running task, for handing
// to other tasks so they can message back. The ref keeps the task's inbound
// channel open until released.
func (c *Context[T]) Self() TaskRef[T] {
	return TaskRef[T]{sender: c.sender.clone()}
}

// Recv awaits the next message from the task's mailbox. Returns
// ErrMailboxClosed as the normal stop signal, or the task context's error
// when the task is killed.
func (c *Context[T]) Recv() (T, error) {
	msg, err := c.mailbox.Recv(c)
	if err == nil {
		c.metrics.MailboxDepth(c.id, c.sender.q.depth())
	}
	return msg, err
}

// RecvTimeout awaits the next message for at most d, reporting a deadline
// expiry as ErrRecvTimeout.
func (c *Context[T]) RecvTimeout(d time.Duration) (T, error) {
	msg, err := c.mailbox.RecvTimeout(c, d)
	if err == nil {
		c.metrics.MailboxDepth(c.id, c.sender.q.depth())
	}
	return msg, err
}
