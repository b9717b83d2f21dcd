package metrics

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNoopRecorder(t *testing.T) {
	var r Recorder = NoopRecorder{}
	assert.NotPanics(t, func() {
		r.ObserveBuildDuration(time.Second)
		r.IncBuildOutcome(OutcomeSuccess)
		r.IncDispatch("css")
		r.ObserveStepDuration("css-loader", time.Millisecond, true)
		r.AddOutputBytes("js", 10)
	})
}

func TestPrometheusRecorder(t *testing.T) {
	reg := prom.NewRegistry()
	pr := NewPrometheusRecorder(reg)

	pr.ObserveBuildDuration(500 * time.Millisecond)
	pr.IncBuildOutcome(OutcomeSuccess)
	pr.IncDispatch("images")
	pr.IncDispatch("images")
	pr.IncDispatch(UnhandledRule)
	pr.ObserveStepDuration("url-loader", 2*time.Millisecond, true)
	pr.ObserveStepDuration("sass-loader", 2*time.Millisecond, false)
	pr.AddOutputBytes("asset", 4096)
	pr.AddOutputBytes("asset", -1)

	assert.Equal(t, 2.0, testutil.ToFloat64(pr.dispatches.WithLabelValues("images")))
	assert.Equal(t, 1.0, testutil.ToFloat64(pr.dispatches.WithLabelValues(UnhandledRule)))
	assert.Equal(t, 1.0, testutil.ToFloat64(pr.buildOutcome.WithLabelValues("success")))
	assert.Equal(t, 4096.0, testutil.ToFloat64(pr.outputBytes.WithLabelValues("asset")))
	assert.Equal(t, 2, testutil.CollectAndCount(pr.stepDuration))

	mfs, err := reg.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, mfs)
	assert.Same(t, reg, pr.Registry())
}

func TestPrometheusRecorder_NilSafe(t *testing.T) {
	var pr *PrometheusRecorder
	assert.NotPanics(t, func() {
		pr.IncDispatch("css")
		pr.ObserveBuildDuration(time.Second)
	})
}

func TestWriteTextfile(t *testing.T) {
	pr := NewPrometheusRecorder(nil)
	pr.IncBuildOutcome(OutcomeFailed)

	path := filepath.Join(t.TempDir(), "bundl.prom")
	require.NoError(t, pr.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `bundl_build_outcomes_total{outcome="failed"} 1`)
}
