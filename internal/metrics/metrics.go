// Package metrics exposes dataset load metrics to Prometheus.
//
// A nil *Recorder is valid and records nothing, so loaders and CLIs can run
// without a registry.
package metrics

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Load outcome labels
const (
	StatusOK        = "ok"
	StatusUnchanged = "unchanged"
	StatusError     = "error"
)

// Recorder owns the collectors of one process
type Recorder struct {
	reg *prometheus.Registry

	loads         *prometheus.CounterVec   // atlas_loads_total
	tableFailures *prometheus.CounterVec   // atlas_table_failures_total
	loadDuration  *prometheus.HistogramVec // atlas_load_duration_seconds
	cities        prometheus.Gauge         // atlas_cities
	lastLoad      prometheus.Gauge         // atlas_last_load_timestamp_seconds
}

// NewRecorder registers the atlas collectors on a fresh registry
func NewRecorder() (*Recorder, error) {
	reg := prometheus.NewRegistry()

	loads := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "atlas_loads_total",
			Help: "Dataset loads, partitioned by outcome (ok, unchanged, error).",
		},
		[]string{"status"},
	)
	tableFailures := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "atlas_table_failures_total",
			Help: "Tables that could not be fetched or parsed and were treated as empty.",
		},
		[]string{"table"},
	)
	loadDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "atlas_load_duration_seconds",
			Help:    "Duration of a full dataset load in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
		},
		[]string{"status"},
	)
	cities := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "atlas_cities",
		Help: "Number of city aggregates in the published snapshot.",
	})
	lastLoad := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "atlas_last_load_timestamp_seconds",
		Help: "Unix time of the last published snapshot.",
	})

	for name, c := range map[string]prometheus.Collector{
		"loads counter":         loads,
		"table failure counter": tableFailures,
		"load histogram":        loadDuration,
		"cities gauge":          cities,
		"last load gauge":       lastLoad,
	} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("metrics: register %s: %w", name, err)
		}
	}

	return &Recorder{
		reg:           reg,
		loads:         loads,
		tableFailures: tableFailures,
		loadDuration:  loadDuration,
		cities:        cities,
		lastLoad:      lastLoad,
	}, nil
}

// ObserveLoad records one load attempt
func (r *Recorder) ObserveLoad(status string, d time.Duration) {
	if r == nil {
		return
	}
	r.loads.WithLabelValues(status).Inc()
	r.loadDuration.WithLabelValues(status).Observe(d.Seconds())
}

// TableFailed counts a table degraded to empty
func (r *Recorder) TableFailed(table string) {
	if r == nil {
		return
	}
	r.tableFailures.WithLabelValues(table).Inc()
}

// Published records the size and time of a newly published snapshot
func (r *Recorder) Published(cities int, at time.Time) {
	if r == nil {
		return
	}
	r.cities.Set(float64(cities))
	r.lastLoad.Set(float64(at.Unix()))
}

// Registry returns the underlying registry (for tests and extra collectors)
func (r *Recorder) Registry() *prometheus.Registry {
	return r.reg
}

// Handler serves the registry in the Prometheus exposition format
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{})
}
