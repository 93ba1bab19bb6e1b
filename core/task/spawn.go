package task

import (
	"context"
	"log/slog"
	"runtime/debug"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// Options configures a spawned task. The zero value is usable: background
// context, default logger, generated id, no termination hook, no metrics.
type Options struct {
	// Context is the parent of the task's own context. Cancelling it
	// cancels the task the same way Kill does, except the termination
	// hook still runs.
	Context context.Context

	// Logger receives the driver's lifecycle records and is exposed to
	// the run routine via Context.Log, annotated with the task id.
	Logger *slog.Logger

	// ID identifies the task in logs and metrics. Generated when empty.
	ID string

	// Terminate is the optional termination hook. It is invoked exactly
	// once with the computed TerminateReason after the run routine
	// returns or panics, but never after Kill. A panic inside the hook
	// is caught and logged; it cannot alter the reason.
	Terminate func(reason TerminateReason)

	// Metrics receives runtime instrumentation. Defaults to NopMetrics.
	Metrics Metrics
}

// Spawn starts a new task executing run on its own goroutine and returns
// the owning handle.
//
// The driver sequences every execution identically: it binds the freshly
// created receive endpoint into the task's mailbox, runs the run routine
// under panic containment, computes the TerminateReason, invokes the
// termination hook under a second independent containment boundary, and
// publishes the reason to Join/Shutdown. A panic never crosses the task
// boundary.
func Spawn[T any](opt Options, run func(*Context[T])) *TaskHandle[T] {
	if opt.Context == nil {
		opt.Context = context.Background()
	}
	if opt.Logger == nil {
		opt.Logger = slog.Default()
	}
	if opt.ID == "" {
		opt.ID = "task-" + gonanoid.Must(8)
	}
	if opt.Metrics == nil {
		opt.Metrics = NopMetrics()
	}

	tx, rx := NewInbox[T]()

	mb := NewMailbox[T]()
	mb.Bind(rx)

	ctx, cancel := context.WithCancel(opt.Context)

	h := &TaskHandle[T]{
		id:      opt.ID,
		sender:  tx,
		rx:      rx,
		cancel:  cancel,
		killed:  make(chan struct{}),
		done:    make(chan struct{}),
		metrics: opt.Metrics,
	}

	tc := &Context[T]{
		Context: ctx,
		id:      opt.ID,
		log:     opt.Logger.With(slog.String("task", opt.ID)),
		mailbox: mb,
		sender:  tx,
		metrics: opt.Metrics,
	}

	go h.drive(tc, opt.Terminate, run)

	return h
}

// drive is the lifecycle driver: one invocation per task execution.
func (h *TaskHandle[T]) drive(tc *Context[T], hook func(TerminateReason), run func(*Context[T])) {
	defer close(h.done)
	defer h.cancel()

	h.metrics.TaskStarted(h.id)
	timer := h.metrics.RunDuration()

	reason := h.contained(tc, run)

	timer.ObserveDuration()

	// The task no longer receives; senders observe disconnection from here
	// on. Safe after Kill too: teardown is idempotent.
	h.rx.teardown()

	select {
	case <-h.killed:
		// Kill skips the termination hook.
	default:
		if hook != nil {
			h.invokeHook(tc.log, hook, reason)
		}
	}

	h.metrics.TaskTerminated(h.id, reason.IsPanic())
	tc.log.Debug("task terminated", slog.String("reason", reason.String()))

	h.result = reason
}

// contained executes the run routine, converting a panic into a
// TerminateReason instead of letting it cross the task boundary.
func (h *TaskHandle[T]) contained(tc *Context[T], run func(*Context[T])) (reason TerminateReason) {
	defer func() {
		if r := recover(); r != nil {
			reason = Panicked(panicMessage(r))
			tc.log.Error("task panicked",
				slog.Any("recovered", r),
				slog.String("stack", string(debug.Stack())),
			)
		}
	}()
	run(tc)
	return Normal()
}

// invokeHook runs the termination hook under its own containment boundary.
// The hook always observes the fully-determined reason, and a defective
// hook can never mask the real outcome of the run routine.
func (h *TaskHandle[T]) invokeHook(log *slog.Logger, hook func(TerminateReason), reason TerminateReason) {
	defer func() {
		if r := recover(); r != nil {
			h.metrics.HookPanic(h.id)
			log.Warn("terminate hook panicked", slog.String("panic", panicMessage(r)))
		}
	}()
	hook(reason)
}
