package task

import "fmt"

// TerminateReason classifies how a task's run routine ended. It is computed
// exactly once per task execution, by the lifecycle driver, and delivered
// both to the task's termination hook and to whoever joins the task.
type TerminateReason struct {
	panicked bool
	message  string
}

// Normal is the reason for a run routine that returned without panicking.
func Normal() TerminateReason {
	return TerminateReason{}
}

// Panicked is the reason for a run routine that panicked, carrying the
// best-effort text of the panic payload.
func Panicked(message string) TerminateReason {
	return TerminateReason{panicked: true, message: message}
}

// IsPanic reports whether the run routine panicked.
func (r TerminateReason) IsPanic() bool { return r.panicked }

// PanicMessage returns the extracted panic payload text; empty for a normal
// termination.
func (r TerminateReason) PanicMessage() string { return r.message }

func (r TerminateReason) String() string {
	if r.panicked {
		return fmt.Sprintf("panicked: %s", r.message)
	}
	return "normal termination"
}

// panicMessage extracts readable text from a recovered panic payload,
// falling back to a fixed string for unrecognized payload types.
func panicMessage(recovered any) string {
	switch v := recovered.(type) {
	case string:
		return v
	case error:
		return v.Error()
	case fmt.Stringer:
		return v.String()
	default:
		return "unknown panic"
	}
}
