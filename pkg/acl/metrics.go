package acl

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus metrics for the access-control core.
type Metrics struct {
	EvaluationsTotal    *prometheus.CounterVec
	EvaluationDuration  *prometheus.HistogramVec
	EvaluationErrors    prometheus.Counter
	GrantMutationsTotal *prometheus.CounterVec
	GrantsPurgedTotal   prometheus.Counter
	DeniedTotal         *prometheus.CounterVec
}

// NewMetrics creates and registers the access-control metrics. Pass nil to
// register on the default registerer.
func NewMetrics(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		EvaluationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "access_evaluations_total",
				Help: "Permission evaluations by resource type and resolved level",
			},
			[]string{"resource_type", "level"},
		),
		EvaluationDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "access_evaluation_duration_seconds",
				Help:    "Permission evaluation duration",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"resource_type"},
		),
		EvaluationErrors: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "access_evaluation_errors_total",
				Help: "Permission evaluations that failed with a storage error",
			},
		),
		GrantMutationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "access_grant_mutations_total",
				Help: "Grant mutations by action (upsert, delete, make_private)",
			},
			[]string{"action"},
		),
		GrantsPurgedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "access_grants_purged_total",
				Help: "Expired grants removed by the janitor",
			},
		),
		DeniedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "access_denied_total",
				Help: "Require calls rejected, by resource type",
			},
			[]string{"resource_type"},
		),
	}

	var registerer prometheus.Registerer = prometheus.DefaultRegisterer
	if registry != nil {
		registerer = registry
	}
	registerer.MustRegister(
		m.EvaluationsTotal,
		m.EvaluationDuration,
		m.EvaluationErrors,
		m.GrantMutationsTotal,
		m.GrantsPurgedTotal,
		m.DeniedTotal,
	)

	return m
}

// observeEvaluation records a completed evaluation. Nil-safe so callers can
// run without metrics wired.
func (m *Metrics) observeEvaluation(typ ResourceType, level Level, start time.Time, err error) {
	if m == nil {
		return
	}
	if err != nil {
		// Caller mistakes (unknown resource type) are not storage failures.
		if IsStorage(err) {
			m.EvaluationErrors.Inc()
		}
		return
	}
	m.EvaluationsTotal.WithLabelValues(string(typ), level.String()).Inc()
	m.EvaluationDuration.WithLabelValues(string(typ)).Observe(time.Since(start).Seconds())
}

func (m *Metrics) observeMutation(action string) {
	if m == nil {
		return
	}
	m.GrantMutationsTotal.WithLabelValues(action).Inc()
}

func (m *Metrics) observeDenied(typ ResourceType) {
	if m == nil {
		return
	}
	m.DeniedTotal.WithLabelValues(string(typ)).Inc()
}

func (m *Metrics) observePurged(count int64) {
	if m == nil {
		return
	}
	m.GrantsPurgedTotal.Add(float64(count))
}
