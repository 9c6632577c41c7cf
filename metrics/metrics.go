// Package metrics instruments repositories and executers with Prometheus
// collectors.
package metrics

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "rulekit"

// Result label values.
const (
	ResultOK      = "ok"
	ResultError   = "error"
	ResultMatched = "matched"
	ResultNoMatch = "no_match"
)

// Metrics contains the rule engine collectors.
type Metrics struct {
	RepositoryCalls    *prometheus.CounterVec
	RepositoryDuration *prometheus.HistogramVec
	Evaluations        *prometheus.CounterVec
	EvaluationDuration prometheus.Histogram
	Rules              prometheus.Gauge
}

// NewMetrics creates unregistered collectors.
func NewMetrics() *Metrics {
	return &Metrics{
		RepositoryCalls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "repository",
				Name:      "calls_total",
				Help:      "Total number of repository calls",
			},
			[]string{"operation", "result"},
		),

		RepositoryDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "repository",
				Name:      "duration_seconds",
				Help:      "Repository call duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"operation"},
		),

		Evaluations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "executer",
				Name:      "evaluations_total",
				Help:      "Total number of evaluated facts (matched, no_match)",
			},
			[]string{"result"},
		),

		EvaluationDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "executer",
				Name:      "evaluation_duration_seconds",
				Help:      "Fact evaluation duration in seconds",
				Buckets:   prometheus.ExponentialBuckets(0.00001, 4, 10),
			},
		),

		Rules: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "executer",
				Name:      "rules",
				Help:      "Number of rules held by the executer",
			},
		),
	}
}

// Register adds every collector to reg.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{
		m.RepositoryCalls,
		m.RepositoryDuration,
		m.Evaluations,
		m.EvaluationDuration,
		m.Rules,
	} {
		if err := reg.Register(c); err != nil {
			return fmt.Errorf("register collector: %w", err)
		}
	}
	return nil
}

// NewRegistry creates a registry holding the rule engine collectors plus
// Go runtime and process metrics.
func NewRegistry() (*prometheus.Registry, *Metrics) {
	reg := prometheus.NewRegistry()
	m := NewMetrics()
	if err := m.Register(reg); err != nil {
		// Fresh registry and fresh collectors cannot collide.
		panic(err)
	}
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg, m
}

// Handler serves reg in the Prometheus exposition format.
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
}

// RecordRepositoryCall counts one repository call and its duration.
func (m *Metrics) RecordRepositoryCall(operation string, err error, duration time.Duration) {
	result := ResultOK
	if err != nil {
		result = ResultError
	}
	m.RepositoryCalls.WithLabelValues(operation, result).Inc()
	m.RepositoryDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordEvaluation counts one evaluated fact.
func (m *Metrics) RecordEvaluation(matched bool, duration time.Duration) {
	result := ResultNoMatch
	if matched {
		result = ResultMatched
	}
	m.Evaluations.WithLabelValues(result).Inc()
	m.EvaluationDuration.Observe(duration.Seconds())
}

// SetRuleCount updates the rule gauge.
func (m *Metrics) SetRuleCount(n int) {
	m.Rules.Set(float64(n))
}
