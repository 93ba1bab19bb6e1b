package task

// TaskRef is a cheap, send-only reference to a task's inbox. Unlike a
// TaskHandle it cannot join, kill or shut the task down.
//
// Every TaskRef holds one sender reference on the inbox. A live ref keeps
// the inbound channel open even after the owning TaskHandle has released
// its side during Shutdown, so tasks that hand out refs (including refs to
// themselves obtained via Context.Self) must honor an explicit stop message
// rather than relying on channel closure alone.
type TaskRef[T any] struct {
	sender *Sender[T]
}

// Send enqueues msg on the referenced task's inbox. It never blocks. Fails
// with a SendError carrying msg once the task has terminated.
func (r TaskRef[T]) Send(msg T) error {
	return r.sender.Send(msg)
}

// Clone acquires a new reference to the same task. Each clone must be
// released independently.
func (r TaskRef[T]) Clone() TaskRef[T] {
	return TaskRef[T]{sender: r.sender.clone()}
}

// Release drops this reference's hold on the inbound channel. The channel
// closes once the handle and every ref have released theirs. Idempotent;
// Send through a released ref fails with a SendError.
func (r TaskRef[T]) Release() {
	r.sender.Release()
}

var _ Addr[struct{}] = TaskRef[struct{}]{}
