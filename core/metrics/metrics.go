// Package metrics provides abstract instrumentation interfaces so the
// runtime packages stay decoupled from any concrete backend (Prometheus,
// StatsD, ...).
package metrics

import "time"

// Timer measures the duration of an operation. Call ObserveDuration when
// the operation completes to record the elapsed time.
type Timer interface {
	// ObserveDuration records the elapsed time since the timer was created.
	ObserveDuration()
}

// Observer receives duration samples, typically backed by a histogram.
type Observer interface {
	Observe(seconds float64)
}

// NewTimer returns a Timer recording into obs.
func NewTimer(obs Observer) Timer {
	return &timer{obs: obs, start: time.Now()}
}

type timer struct {
	obs   Observer
	start time.Time
}

func (t *timer) ObserveDuration() {
	t.obs.Observe(time.Since(t.start).Seconds())
}

// nopTimer is a no-op implementation of Timer.
type nopTimer struct{}

func (nopTimer) ObserveDuration() {}

// NopTimer returns a no-op Timer.
func NopTimer() Timer { return nopTimer{} }
