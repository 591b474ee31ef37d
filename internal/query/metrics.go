package query

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors for query execution. A nil *Metrics
// is valid and records nothing.
type Metrics struct {
	executed *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewMetrics builds the collectors and registers them with reg (skipped when
// reg is nil).
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		executed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dbcore",
			Subsystem: "query",
			Name:      "executed_total",
			Help:      "Queries executed, by engine and outcome.",
		}, []string{"engine", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "dbcore",
			Subsystem: "query",
			Name:      "duration_seconds",
			Help:      "Wall-clock query duration, by engine.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"engine"}),
	}
	if reg != nil {
		reg.MustRegister(m.executed, m.duration)
	}
	return m
}

// observe records one execution.
func (m *Metrics) observe(engine string, duration time.Duration, failed bool) {
	if m == nil {
		return
	}
	outcome := "success"
	if failed {
		outcome = "failure"
	}
	m.executed.WithLabelValues(engine, outcome).Inc()
	m.duration.WithLabelValues(engine).Observe(duration.Seconds())
}
