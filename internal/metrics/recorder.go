package metrics

import "time"

// ResultLabel enumerates generation outcomes for counters.
type ResultLabel string

const (
	ResultSuccess  ResultLabel = "success"
	ResultFailed   ResultLabel = "failed"
	ResultCanceled ResultLabel = "canceled"
)

// Recorder defines observability hooks for a generation run. Implementations
// must be safe for concurrent use: per-file hooks fire from worker goroutines.
type Recorder interface {
	ObserveStageDuration(stage string, d time.Duration)
	ObserveGenerateDuration(d time.Duration)
	IncGenerateOutcome(result ResultLabel)
	IncContent(kind string)
	IncFileError(stage string)
	SetWorkers(n int)
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveStageDuration(string, time.Duration) {}
func (NoopRecorder) ObserveGenerateDuration(time.Duration)      {}
func (NoopRecorder) IncGenerateOutcome(ResultLabel)             {}
func (NoopRecorder) IncContent(string)                          {}
func (NoopRecorder) IncFileError(string)                        {}
func (NoopRecorder) SetWorkers(int)                             {}
