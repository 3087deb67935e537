package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Run holds the collectors for one generation run. Each run gets its own
// registry so the textfile contains only this run's series.
type Run struct {
	registry *prometheus.Registry

	labelsRendered prometheus.Counter
	pagesGenerated prometheus.Counter
	idsBySource    *prometheus.CounterVec
	stageDuration  *prometheus.HistogramVec
	outputBytes    prometheus.Gauge
	lastSuccess    prometheus.Gauge
	runsTotal      *prometheus.CounterVec
}

// NewRun registers a fresh set of collectors.
func NewRun() *Run {
	r := &Run{
		registry: prometheus.NewRegistry(),
		labelsRendered: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "qrlabels",
			Name:      "labels_rendered_total",
			Help:      "Total QR labels placed on sheets",
		}),
		pagesGenerated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "qrlabels",
			Name:      "pages_generated_total",
			Help:      "Total label sheets written",
		}),
		idsBySource: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "qrlabels",
			Name:      "asset_ids_total",
			Help:      "Asset IDs by source (explicit, padding)",
		}, []string{"source"}),
		stageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "qrlabels",
			Name:      "stage_duration_seconds",
			Help:      "Duration of generation stages",
			Buckets:   prometheus.DefBuckets,
		}, []string{"stage"}),
		outputBytes: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "qrlabels",
			Name:      "output_bytes",
			Help:      "Size of the written PDF",
		}),
		lastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "qrlabels",
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last successful run",
		}),
		runsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "qrlabels",
			Name:      "runs_total",
			Help:      "Runs by result (success, failure)",
		}, []string{"result"}),
	}
	r.registry.MustRegister(r.labelsRendered, r.pagesGenerated, r.idsBySource, r.stageDuration, r.outputBytes, r.lastSuccess, r.runsTotal)
	return r
}

// Registry exposes the underlying registry.
func (r *Run) Registry() *prometheus.Registry { return r.registry }

func (r *Run) ObserveIDs(explicit, padding int) {
	r.idsBySource.WithLabelValues("explicit").Add(float64(explicit))
	r.idsBySource.WithLabelValues("padding").Add(float64(padding))
}

func (r *Run) ObserveDocument(pages, labels int, bytes int64) {
	r.pagesGenerated.Add(float64(pages))
	r.labelsRendered.Add(float64(labels))
	r.outputBytes.Set(float64(bytes))
}

func (r *Run) ObserveStage(stage string, d time.Duration) {
	r.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

// Finish records the run result.
func (r *Run) Finish(err error) {
	if err != nil {
		r.runsTotal.WithLabelValues("failure").Inc()
		return
	}
	r.runsTotal.WithLabelValues("success").Inc()
	r.lastSuccess.SetToCurrentTime()
}

// WriteTextfile writes the run's metrics for node-exporter's textfile collector.
func (r *Run) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, r.registry)
}
