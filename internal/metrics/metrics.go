// Package metrics keeps per-run prometheus metrics on a private registry and
// writes them in the node_exporter textfile format at the end of a run.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder holds the run's collectors. The zero value is not usable; a nil
// *Recorder ignores every call so callers need no guards.
type Recorder struct {
	reg *prometheus.Registry

	info           *prometheus.GaugeVec
	stageDuration  *prometheus.GaugeVec
	stageFailures  *prometheus.CounterVec
	filesWritten   *prometheus.CounterVec
	rowsWritten    *prometheus.CounterVec
	bytesWritten   *prometheus.CounterVec
	lastRunSuccess prometheus.Gauge
	lastRunTime    prometheus.Gauge
}

// New registers all collectors on a fresh registry.
func New(version string) *Recorder {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)

	r := &Recorder{
		reg: reg,
		info: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "metamirror_info",
				Help: "Build information",
			},
			[]string{"version"},
		),
		stageDuration: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "metamirror_stage_duration_seconds",
				Help: "Wall time of the last execution of each stage",
			},
			[]string{"stage"},
		),
		stageFailures: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "metamirror_stage_failures_total",
				Help: "Stage failures by error class",
			},
			[]string{"stage", "code"}, // code=network/tool/io/data/cancel/unknown
		),
		filesWritten: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "metamirror_files_written_total",
				Help: "Files produced by each stage",
			},
			[]string{"stage"},
		),
		rowsWritten: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "metamirror_rows_written_total",
				Help: "Rows written to columnar batches by document type",
			},
			[]string{"doc_type"},
		),
		bytesWritten: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "metamirror_bytes_written_total",
				Help: "Bytes written by each stage",
			},
			[]string{"stage"},
		),
		lastRunSuccess: f.NewGauge(prometheus.GaugeOpts{
			Name: "metamirror_last_run_success",
			Help: "1 if the last run finished without error, 0 otherwise",
		}),
		lastRunTime: f.NewGauge(prometheus.GaugeOpts{
			Name: "metamirror_last_run_timestamp_seconds",
			Help: "Unix time the last run finished",
		}),
	}
	r.info.WithLabelValues(version).Set(1)
	return r
}

// Registry exposes the private registry, for tests and custom gatherers.
func (r *Recorder) Registry() *prometheus.Registry { return r.reg }

// StageDone records a stage's duration and, when code is non-empty, a failure.
func (r *Recorder) StageDone(stage string, d time.Duration, code string) {
	if r == nil {
		return
	}
	r.stageDuration.WithLabelValues(stage).Set(d.Seconds())
	if code != "" {
		r.stageFailures.WithLabelValues(stage, code).Inc()
	}
}

// FileWritten counts one output file of stage.
func (r *Recorder) FileWritten(stage string, bytes int64) {
	if r == nil {
		return
	}
	r.filesWritten.WithLabelValues(stage).Inc()
	r.bytesWritten.WithLabelValues(stage).Add(float64(bytes))
}

// RowsWritten counts rows written for a document type.
func (r *Recorder) RowsWritten(docType string, rows int64) {
	if r == nil {
		return
	}
	r.rowsWritten.WithLabelValues(docType).Add(float64(rows))
}

// RunDone records the run outcome.
func (r *Recorder) RunDone(ok bool, at time.Time) {
	if r == nil {
		return
	}
	if ok {
		r.lastRunSuccess.Set(1)
	} else {
		r.lastRunSuccess.Set(0)
	}
	r.lastRunTime.Set(float64(at.Unix()))
}

// WriteFile writes every metric to path in the textfile format. The file is
// written atomically (temp file plus rename).
func (r *Recorder) WriteFile(path string) error {
	if r == nil || path == "" {
		return nil
	}
	return prometheus.WriteToTextfile(path, r.reg)
}
