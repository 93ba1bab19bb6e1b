// Package prometheus provides the Prometheus implementation of the task
// runtime's metrics interface.
package prometheus

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/H1ghBre4k3r/notizia/core/metrics"
	"github.com/H1ghBre4k3r/notizia/core/task"
)

// Default histogram buckets for duration metrics (in seconds).
var defaultBuckets = []float64{
	.001, .0025, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10,
}

// taskMetrics implements task.Metrics using Prometheus.
type taskMetrics struct {
	tasksStarted prometheus.Counter
	tasksRunning prometheus.Gauge
	terminations *prometheus.CounterVec
	kills        prometheus.Counter
	hookPanics   prometheus.Counter
	runDuration  prometheus.Histogram

	messagesSent *prometheus.CounterVec
	mailboxDepth *prometheus.GaugeVec
}

// NewTaskMetrics creates a Prometheus implementation of task.Metrics and
// registers its collectors with reg.
func NewTaskMetrics(reg prometheus.Registerer) task.Metrics {
	m := &taskMetrics{
		tasksStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "notizia_tasks_started_total",
			Help: "Total number of tasks spawned",
		}),

		tasksRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "notizia_tasks_running",
			Help: "Number of tasks currently executing",
		}),

		terminations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "notizia_task_terminations_total",
			Help: "Total number of task terminations by reason",
		}, []string{"reason"}),

		kills: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "notizia_task_kills_total",
			Help: "Total number of forced task aborts",
		}),

		hookPanics: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "notizia_task_hook_panics_total",
			Help: "Total number of panics inside termination hooks",
		}),

		runDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "notizia_task_run_duration_seconds",
			Help:    "Run routine duration in seconds",
			Buckets: defaultBuckets,
		}),

		messagesSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "notizia_task_messages_total",
			Help: "Total number of messages sent through task handles",
		}, []string{"success"}),

		mailboxDepth: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "notizia_task_mailbox_depth",
			Help: "Current mailbox queue depth",
		}, []string{"task_id"}),
	}

	reg.MustRegister(
		m.tasksStarted,
		m.tasksRunning,
		m.terminations,
		m.kills,
		m.hookPanics,
		m.runDuration,
		m.messagesSent,
		m.mailboxDepth,
	)

	return m
}

func (m *taskMetrics) TaskStarted(string) {
	m.tasksStarted.Inc()
	m.tasksRunning.Inc()
}

func (m *taskMetrics) TaskTerminated(_ string, panicked bool) {
	m.tasksRunning.Dec()
	reason := "normal"
	if panicked {
		reason = "panic"
	}
	m.terminations.WithLabelValues(reason).Inc()
}

func (m *taskMetrics) TaskKilled(string) {
	m.kills.Inc()
}

func (m *taskMetrics) HookPanic(string) {
	m.hookPanics.Inc()
}

func (m *taskMetrics) RunDuration() metrics.Timer {
	return metrics.NewTimer(m.runDuration)
}

func (m *taskMetrics) MessageSent(_ string, ok bool) {
	m.messagesSent.WithLabelValues(boolToStr(ok)).Inc()
}

func (m *taskMetrics) MailboxDepth(taskID string, depth int) {
	m.mailboxDepth.WithLabelValues(taskID).Set(float64(depth))
}

var _ task.Metrics = (*taskMetrics)(nil)

func boolToStr(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
