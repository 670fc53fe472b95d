// Package prometheus exports resolver metrics through client_golang.
package prometheus

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/reoring/verskema"
)

// Collector implements verskema.MetricsCollector.
type Collector struct {
	records *prometheus.CounterVec
	latency prometheus.Histogram
	steps   prometheus.Histogram
}

var _ verskema.MetricsCollector = (*Collector)(nil)

// New creates a Collector and registers it with reg. A nil reg uses
// prometheus.DefaultRegisterer.
func New(namespace string, reg prometheus.Registerer) (*Collector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	c := &Collector{
		records: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_total",
			Help:      "Records handled by the resolver, by outcome code and matched version.",
		}, []string{"outcome", "matched"}),
		latency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "resolve_duration_seconds",
			Help:      "Time spent decoding and migrating one record.",
			Buckets:   prometheus.DefBuckets,
		}),
		steps: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "migration_steps",
			Help:      "Migration steps applied per resolved record.",
			Buckets:   prometheus.LinearBuckets(0, 1, 8),
		}),
	}
	for _, col := range []prometheus.Collector{c.records, c.latency, c.steps} {
		if err := reg.Register(col); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// RecordResolve implements verskema.MetricsCollector.
func (c *Collector) RecordResolve(matched verskema.Tag, steps int, d time.Duration, err error) {
	c.latency.Observe(d.Seconds())
	if err != nil {
		outcome := verskema.CodeOf(err)
		if outcome == "" {
			outcome = "error"
		}
		c.records.WithLabelValues(outcome, "").Inc()
		return
	}
	c.records.WithLabelValues("ok", matched.String()).Inc()
	c.steps.Observe(float64(steps))
}
