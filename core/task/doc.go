// Package task provides a lightweight actor-style task runtime: independent
// units of concurrent execution that communicate exclusively through typed
// mailboxes, with structured lifecycle hooks, graceful and forced shutdown,
// and a call/cast request-response protocol on top of fire-and-forget
// messaging.
//
// # Spawning
//
// A task is a run routine plus an optional termination hook:
//
//	handle := task.Spawn(task.Options{
//	    Terminate: func(reason task.TerminateReason) {
//	        // flush buffers, close files, ...
//	    },
//	}, func(tc *task.Context[Signal]) {
//	    for {
//	        msg, err := tc.Recv()
//	        if err != nil {
//	            return // ErrMailboxClosed is the normal stop signal
//	        }
//	        _ = msg
//	    }
//	})
//
// The run routine receives a [Context] carrying the task's mailbox, logger
// and self-reference; there is no ambient task-local state. A panic in the
// run routine is contained at the task boundary and surfaces as
// TerminateReason.Panicked to the hook and to Join/Shutdown; it never
// crashes the process.
//
// # Handles and references
//
//   - [TaskHandle]: owning controller with Send, Join, Kill, Shutdown, This.
//     Join, Kill and Shutdown consume the handle.
//   - [TaskRef]: cheap send-only reference, cloned freely and handed to
//     other tasks. A live ref keeps the task's inbound channel open, so
//     Shutdown alone does not guarantee closure; tasks that hand out refs
//     must honor an explicit stop message.
//
// # Receiving
//
// Mailbox.Recv implements the take–await–restore pattern: the receive
// endpoint is taken out of a guarded slot, awaited with no lock held, and
// restored afterwards. The lock is never held across the suspension point;
// a concurrent Recv observes ErrMailboxPoisoned instead of blocking
// forever. Messages from one sender arrive in send order; no ordering is
// guaranteed across senders.
//
// # Call and cast
//
// [Cast] is fire-and-forget send. [Call] layers request-response on top
// using a private single-use [Reply] channel and a deadline:
//
//	count, err := task.Call(ctx, handle, func(r task.Reply[int]) CounterMsg {
//	    return CounterMsg{Get: &GetCount{ReplyTo: r}}
//	})
package task
