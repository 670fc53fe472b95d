package verskema

import (
	"sync/atomic"
	"time"
)

// MetricsCollector receives one call per resolved record.
// Implement this interface to integrate with monitoring systems; see
// metrics/prometheus for a client_golang implementation.
type MetricsCollector interface {
	// RecordResolve is called after each Resolve, Upgrade or Detect call.
	// matched is zero and steps is -1 when no version matched.
	RecordResolve(matched Tag, steps int, d time.Duration, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordResolve(Tag, int, time.Duration, error) {}

// BasicMetricsCollector keeps in-memory counters.
// Useful for debugging and tests without external dependencies.
type BasicMetricsCollector struct {
	Resolved     atomic.Int64
	Migrated     atomic.Int64 // Records that needed at least one step.
	Steps        atomic.Int64
	Faults       atomic.Int64
	Unrecognized atomic.Int64
	TotalNanos   atomic.Int64
}

func (c *BasicMetricsCollector) RecordResolve(_ Tag, steps int, d time.Duration, err error) {
	c.TotalNanos.Add(int64(d))
	switch CodeOf(err) {
	case "":
		if err != nil {
			c.Faults.Add(1)
			return
		}
	case CodeUnrecognizedFormat:
		c.Unrecognized.Add(1)
		return
	default:
		c.Faults.Add(1)
		return
	}
	c.Resolved.Add(1)
	if steps > 0 {
		c.Migrated.Add(1)
		c.Steps.Add(int64(steps))
	}
}
