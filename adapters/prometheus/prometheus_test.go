package prometheus

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTaskMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewTaskMetrics(reg)

	require.NotNil(t, m)

	// Lifecycle
	m.TaskStarted("task-1")
	m.TaskTerminated("task-1", false)
	m.TaskStarted("task-2")
	m.TaskTerminated("task-2", true)
	m.TaskKilled("task-2")
	m.HookPanic("task-2")

	timer := m.RunDuration()
	assert.NotNil(t, timer)
	timer.ObserveDuration()

	// Messaging
	m.MessageSent("task-1", true)
	m.MessageSent("task-1", false)
	m.MailboxDepth("task-1", 7)

	// Verify everything registered and collects
	families, err := reg.Gather()
	require.NoError(t, err)

	names := make(map[string]bool, len(families))
	for _, f := range families {
		names[f.GetName()] = true
	}

	expected := []string{
		"notizia_tasks_started_total",
		"notizia_tasks_running",
		"notizia_task_terminations_total",
		"notizia_task_kills_total",
		"notizia_task_hook_panics_total",
		"notizia_task_run_duration_seconds",
		"notizia_task_messages_total",
		"notizia_task_mailbox_depth",
	}
	for _, name := range expected {
		assert.True(t, names[name], "missing metric family %s", name)
	}
}

func TestNewTaskMetrics_duplicate_registration_panics(t *testing.T) {
	reg := prometheus.NewRegistry()
	NewTaskMetrics(reg)

	assert.Panics(t, func() {
		NewTaskMetrics(reg)
	})
}
