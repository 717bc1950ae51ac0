// Package metrics provides Prometheus metrics for the personalization and
// regeneration pipelines.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "hotpot"

// Metrics holds every counter the pipelines report to. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	Lookups            *prometheus.CounterVec
	LookupAttempts     prometheus.Counter
	Navigations        *prometheus.CounterVec
	GenerationFailures *prometheus.CounterVec
	Regenerations      *prometheus.CounterVec
	StageDuration      *prometheus.HistogramVec
}

// New creates and registers the metrics on reg. A nil reg uses the default
// registerer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		Lookups: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "template_lookups_total",
			Help:      "Template store lookups by result (hit, miss, error)",
		}, []string{"result"}),
		LookupAttempts: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "template_lookup_attempts_total",
			Help:      "Individual template store get calls, retries included",
		}),
		Navigations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "navigations_total",
			Help:      "Navigations by displayed outcome (personalized, cached, live)",
		}, []string{"outcome"}),
		GenerationFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "generation_failures_total",
			Help:      "Personalization failures by stage",
		}, []string{"stage"}),
		Regenerations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "regenerations_total",
			Help:      "Screenshot regenerations by result (success, failure)",
		}, []string{"result"}),
		StageDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Duration of pipeline stages",
			Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60, 120},
		}, []string{"stage"}),
	}
}

func (m *Metrics) Lookup(result string) {
	if m == nil {
		return
	}
	m.Lookups.WithLabelValues(result).Inc()
}

func (m *Metrics) LookupAttempt() {
	if m == nil {
		return
	}
	m.LookupAttempts.Inc()
}

func (m *Metrics) Navigation(outcome string) {
	if m == nil {
		return
	}
	m.Navigations.WithLabelValues(outcome).Inc()
}

func (m *Metrics) GenerationFailure(stage string) {
	if m == nil {
		return
	}
	m.GenerationFailures.WithLabelValues(stage).Inc()
}

func (m *Metrics) Regeneration(result string) {
	if m == nil {
		return
	}
	m.Regenerations.WithLabelValues(result).Inc()
}

// Observe records how long stage took since start.
func (m *Metrics) Observe(stage string, start time.Time) {
	if m == nil {
		return
	}
	m.StageDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
}
