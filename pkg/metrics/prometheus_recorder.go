package metrics

import (
	"sync"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

// PrometheusRecorder implements Recorder with Prometheus collectors.
type PrometheusRecorder struct {
	once          sync.Once
	registry      *prom.Registry
	buildDuration prom.Histogram
	buildOutcome  *prom.CounterVec
	dispatches    *prom.CounterVec
	stepDuration  *prom.HistogramVec
	outputBytes   *prom.CounterVec
}

// NewPrometheusRecorder creates the collectors and registers them with reg,
// or with a fresh registry when reg is nil.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{registry: reg}
	pr.once.Do(func() {
		pr.buildDuration = prom.NewHistogram(prom.HistogramOpts{
			Namespace: "bundl",
			Name:      "build_duration_seconds",
			Help:      "Duration of complete builds",
			Buckets:   prom.DefBuckets,
		})
		pr.buildOutcome = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "bundl",
			Name:      "build_outcomes_total",
			Help:      "Builds by outcome",
		}, []string{"outcome"})
		pr.dispatches = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "bundl",
			Name:      "dispatches_total",
			Help:      "Files dispatched per rule",
		}, []string{"rule"})
		pr.stepDuration = prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: "bundl",
			Name:      "step_duration_seconds",
			Help:      "Duration of pipeline steps",
			Buckets:   []float64{.0005, .001, .005, .01, .05, .1, .5, 1, 5},
		}, []string{"loader", "result"})
		pr.outputBytes = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "bundl",
			Name:      "output_bytes_total",
			Help:      "Bytes written to the output directory by kind",
		}, []string{"kind"})
		reg.MustRegister(pr.buildDuration, pr.buildOutcome, pr.dispatches, pr.stepDuration, pr.outputBytes)
	})
	return pr
}

// Registry returns the registry the collectors live in.
func (p *PrometheusRecorder) Registry() *prom.Registry {
	return p.registry
}

func (p *PrometheusRecorder) ObserveBuildDuration(d time.Duration) {
	if p == nil || p.buildDuration == nil {
		return
	}
	p.buildDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncBuildOutcome(outcome OutcomeLabel) {
	if p == nil || p.buildOutcome == nil {
		return
	}
	p.buildOutcome.WithLabelValues(string(outcome)).Inc()
}

func (p *PrometheusRecorder) IncDispatch(rule string) {
	if p == nil || p.dispatches == nil {
		return
	}
	p.dispatches.WithLabelValues(rule).Inc()
}

func (p *PrometheusRecorder) ObserveStepDuration(loader string, d time.Duration, success bool) {
	if p == nil || p.stepDuration == nil {
		return
	}
	res := "failed"
	if success {
		res = "success"
	}
	p.stepDuration.WithLabelValues(loader, res).Observe(d.Seconds())
}

func (p *PrometheusRecorder) AddOutputBytes(kind string, n int) {
	if p == nil || p.outputBytes == nil || n <= 0 {
		return
	}
	p.outputBytes.WithLabelValues(kind).Add(float64(n))
}

// WriteTextfile writes the current values in the text exposition format,
// atomically, for node_exporter's textfile collector.
func (p *PrometheusRecorder) WriteTextfile(path string) error {
	return prom.WriteToTextfile(path, p.registry)
}
