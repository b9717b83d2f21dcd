// Package metrics records build observations.
//
// Components take a Recorder and default to NoopRecorder, so no call site
// needs a nil check. The CLI swaps in a PrometheusRecorder when
// --metrics-file is given and writes a node_exporter textfile snapshot
// after each build.
package metrics
