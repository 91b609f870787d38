package metrics

import (
	"sync"
	"time"
)

// Package metrics provides a small instrumentation surface with a no-op
// default and a Prometheus backed implementation enabled from config.

// Recorder defines the metrics surface used across the codebase.
type Recorder interface {
	IncAPICallTotal(op string, success bool)
	ObserveAPICallSeconds(op string, success bool, seconds float64)
	IncPollTickTotal(loop string, result string)
	IncEventTotal(event string, success bool)
}

type noopRecorder struct{}

func (n *noopRecorder) IncAPICallTotal(string, bool)                {}
func (n *noopRecorder) ObserveAPICallSeconds(string, bool, float64) {}
func (n *noopRecorder) IncPollTickTotal(string, string)             {}
func (n *noopRecorder) IncEventTotal(string, bool)                  {}

var (
	recMu    sync.RWMutex
	recorder Recorder = &noopRecorder{}
)

// Default returns the current recorder.
func Default() Recorder {
	recMu.RLock()
	defer recMu.RUnlock()
	return recorder
}

// SetRecorder swaps the global recorder implementation. A nil recorder
// restores the no-op default.
func SetRecorder(r Recorder) {
	recMu.Lock()
	defer recMu.Unlock()
	if r == nil {
		r = &noopRecorder{}
	}
	recorder = r
}

// TimeAPICall times one backend API call.
//
//	done := metrics.TimeAPICall("upload_file")
//	err := ...
//	done(err == nil)
func TimeAPICall(op string) func(success bool) {
	start := time.Now()
	return func(success bool) {
		dur := time.Since(start).Seconds()
		Default().IncAPICallTotal(op, success)
		Default().ObserveAPICallSeconds(op, success, dur)
	}
}
