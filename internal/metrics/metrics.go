// Package metrics is the process-wide metrics facade used by the extractor.
//
// Core code calls the package-level helpers; a concrete Backend (for example
// internal/metrics/datadog) is installed once at startup with SetBackend. The
// default backend discards everything, so library code and tests never need
// to configure metrics.
package metrics

import (
	"sync"
	"time"
)

// Metric names. Backends ignore names they do not know.
const (
	// StepTotal counts pipeline steps; labels: step, status.
	StepTotal = "reviews_step_total"
	// StepDurationSeconds observes step durations; labels: step, status.
	StepDurationSeconds = "reviews_step_duration_seconds"
	// RecordsTotal counts records; label kind (extracted, csv, json, stored).
	RecordsTotal = "reviews_records_total"
	// FieldMatchesTotal counts selector matches; label field.
	FieldMatchesTotal = "reviews_field_matches_total"
)

// Labels are metric dimensions.
type Labels map[string]string

// Backend receives metric events.
type Backend interface {
	IncCounter(name string, delta float64, labels Labels)
	ObserveHistogram(name string, value float64, labels Labels)
	Flush() error
}

type nopBackend struct{}

func (nopBackend) IncCounter(string, float64, Labels)       {}
func (nopBackend) ObserveHistogram(string, float64, Labels) {}
func (nopBackend) Flush() error                             { return nil }

var (
	mu      sync.RWMutex
	backend Backend = nopBackend{}
)

// SetBackend installs b as the process-wide backend. A nil b restores the
// no-op backend.
func SetBackend(b Backend) {
	mu.Lock()
	defer mu.Unlock()
	if b == nil {
		b = nopBackend{}
	}
	backend = b
}

func current() Backend {
	mu.RLock()
	defer mu.RUnlock()
	return backend
}

// IncCounter forwards to the installed backend.
func IncCounter(name string, delta float64, labels Labels) {
	current().IncCounter(name, delta, labels)
}

// ObserveHistogram forwards to the installed backend.
func ObserveHistogram(name string, value float64, labels Labels) {
	current().ObserveHistogram(name, value, labels)
}

// Flush forwards to the installed backend.
func Flush() error {
	return current().Flush()
}

// RecordStep counts one step outcome and its duration since start.
func RecordStep(step string, start time.Time, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	l := Labels{"step": step, "status": status}
	IncCounter(StepTotal, 1, l)
	ObserveHistogram(StepDurationSeconds, time.Since(start).Seconds(), l)
}
