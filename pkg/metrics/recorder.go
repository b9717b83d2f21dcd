package metrics

import "time"

// OutcomeLabel enumerates build outcomes.
type OutcomeLabel string

const (
	OutcomeSuccess  OutcomeLabel = "success"
	OutcomeFailed   OutcomeLabel = "failed"
	OutcomeCanceled OutcomeLabel = "canceled"
)

// UnhandledRule is the rule label recorded for paths no rule matched.
const UnhandledRule = "unhandled"

// Recorder receives build observations.
type Recorder interface {
	ObserveBuildDuration(d time.Duration)
	IncBuildOutcome(outcome OutcomeLabel)
	IncDispatch(rule string)
	ObserveStepDuration(loader string, d time.Duration, success bool)
	AddOutputBytes(kind string, n int)
}

// NoopRecorder discards everything.
type NoopRecorder struct{}

func (NoopRecorder) ObserveBuildDuration(time.Duration)              {}
func (NoopRecorder) IncBuildOutcome(OutcomeLabel)                    {}
func (NoopRecorder) IncDispatch(string)                              {}
func (NoopRecorder) ObserveStepDuration(string, time.Duration, bool) {}
func (NoopRecorder) AddOutputBytes(string, int)                      {}
