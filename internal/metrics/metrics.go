// Package metrics exposes reconciliation counters for Prometheus.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"heat_sequencing/internal/models"
)

const namespace = "heatseq"

const (
	OutcomeAccepted = "accepted"
	OutcomeExcluded = "excluded"
)

// Recorder holds the collectors of one registry.
type Recorder struct {
	gatherer prometheus.Gatherer

	batches  prometheus.Counter
	heats    *prometheus.CounterVec
	errors   *prometheus.CounterVec
	duration prometheus.Histogram
}

// New registers the collectors on reg. A nil reg gets a fresh registry.
func New(reg *prometheus.Registry) *Recorder {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	r := &Recorder{
		gatherer: reg,
		batches: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "batches_total",
			Help:      "Reconciled batches.",
		}),
		heats: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "heats_total",
			Help:      "Heats seen, by outcome.",
		}, []string{"outcome"}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "validation_errors_total",
			Help:      "Validation errors reported, by kind.",
		}, []string{"kind"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "reconcile_duration_seconds",
			Help:      "Time spent reconciling one batch.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 8),
		}),
	}
	reg.MustRegister(r.batches, r.heats, r.errors, r.duration)

	for _, kind := range models.Kinds {
		r.errors.WithLabelValues(string(kind))
	}
	r.heats.WithLabelValues(OutcomeAccepted)
	r.heats.WithLabelValues(OutcomeExcluded)
	return r
}

// ObserveBatch records the outcome of one reconciled batch.
func (r *Recorder) ObserveBatch(b models.Batch, took time.Duration) {
	r.batches.Inc()
	r.heats.WithLabelValues(OutcomeAccepted).Add(float64(b.HeatCount))
	r.heats.WithLabelValues(OutcomeExcluded).Add(float64(b.ExcludedCount))
	for _, e := range b.Errors {
		r.errors.WithLabelValues(string(e.Kind)).Inc()
	}
	r.duration.Observe(took.Seconds())
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.gatherer, promhttp.HandlerOpts{})
}
