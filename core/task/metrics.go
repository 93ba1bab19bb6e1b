package task

import "github.com/H1ghBre4k3r/notizia/core/metrics"

// Metrics defines the instrumentation hooks of the task runtime. All
// methods must be safe for concurrent use.
type Metrics interface {
	// Lifecycle
	TaskStarted(taskID string)
	TaskTerminated(taskID string, panicked bool)
	TaskKilled(taskID string)
	HookPanic(taskID string)
	RunDuration() metrics.Timer

	// Messaging
	MessageSent(taskID string, ok bool)
	MailboxDepth(taskID string, depth int)
}

// nopMetrics is a no-op implementation of Metrics.
type nopMetrics struct{}

func (nopMetrics) TaskStarted(string)          {}
func (nopMetrics) TaskTerminated(string, bool) {}
func (nopMetrics) TaskKilled(string)           {}
func (nopMetrics) HookPanic(string)            {}
func (nopMetrics) RunDuration() metrics.Timer  { return metrics.NopTimer() }

func (nopMetrics) MessageSent(string, bool) {}
func (nopMetrics) MailboxDepth(string, int) {}

// NopMetrics returns a no-op Metrics implementation.
func NopMetrics() Metrics { return nopMetrics{} }
