package streamflow

import (
	"sync"
	"sync/atomic"
)

// MetricKind tags which shape a MetricValue snapshot carries.
type MetricKind int

const (
	// MetricCounter is a monotonically increasing unsigned count.
	MetricCounter MetricKind = iota
	// MetricGauge is a signed point-in-time value.
	MetricGauge
	// MetricTimer is a sum-of-durations plus an observation count, so a
	// caller can derive an average.
	MetricTimer
)

// MetricValue is one named entry in a Metrics.Snapshot().
//
//nolint:govet // fieldalignment: struct layout optimized for readability
type MetricValue struct {
	Kind         MetricKind
	CounterValue uint64
	GaugeValue   int64
	TimerSumUs   int64 // sum of observed durations, microseconds
	TimerCount   int64
}

// Counter is a lock-free, monotonically increasing count, built on
// sync/atomic exactly as the teacher's Monitor tracks throughput.
type Counter struct {
	value atomic.Uint64
}

// Inc increments the counter by 1.
func (c *Counter) Inc() { c.value.Add(1) }

// Add increments the counter by delta.
func (c *Counter) Add(delta uint64) { c.value.Add(delta) }

// Value returns the current count.
func (c *Counter) Value() uint64 { return c.value.Load() }

// Gauge is a lock-free signed point-in-time value.
type Gauge struct {
	value atomic.Int64
}

// Set stores v as the gauge's current value.
func (g *Gauge) Set(v int64) { g.value.Store(v) }

// Add adjusts the gauge's current value by delta.
func (g *Gauge) Add(delta int64) { g.value.Add(delta) }

// Value returns the gauge's current value.
func (g *Gauge) Value() int64 { return g.value.Load() }

// Timer accumulates a sum of observed durations (microseconds) and an
// observation count, so Snapshot can report both total time and average.
type Timer struct {
	sumUs atomic.Int64
	count atomic.Int64
}

// Observe records one duration observation, in microseconds.
func (t *Timer) Observe(microseconds int64) {
	t.sumUs.Add(microseconds)
	t.count.Add(1)
}

// SumMicros returns the accumulated sum of observed durations.
func (t *Timer) SumMicros() int64 { return t.sumUs.Load() }

// Count returns the number of observations recorded.
func (t *Timer) Count() int64 { return t.count.Load() }

// Metrics is a named registry of Counters, Gauges, and Timers for one
// pipeline run. Every accessor lazily creates the named metric on first
// use, so callers never need a separate registration step.
type Metrics struct {
	mu       sync.Mutex
	counters map[string]*Counter
	gauges   map[string]*Gauge
	timers   map[string]*Timer
}

// NewMetrics creates an empty registry.
func NewMetrics() *Metrics {
	return &Metrics{
		counters: make(map[string]*Counter),
		gauges:   make(map[string]*Gauge),
		timers:   make(map[string]*Timer),
	}
}

// Counter returns the named Counter, creating it if necessary.
func (m *Metrics) Counter(name string) *Counter {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.counters[name]
	if !ok {
		c = &Counter{}
		m.counters[name] = c
	}
	return c
}

// Gauge returns the named Gauge, creating it if necessary.
func (m *Metrics) Gauge(name string) *Gauge {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.gauges[name]
	if !ok {
		g = &Gauge{}
		m.gauges[name] = g
	}
	return g
}

// Timer returns the named Timer, creating it if necessary.
func (m *Metrics) Timer(name string) *Timer {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.timers[name]
	if !ok {
		t = &Timer{}
		m.timers[name] = t
	}
	return t
}

// Snapshot produces an immutable map of every metric currently registered.
func (m *Metrics) Snapshot() map[string]MetricValue {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make(map[string]MetricValue, len(m.counters)+len(m.gauges)+len(m.timers))
	for name, c := range m.counters {
		out[name] = MetricValue{Kind: MetricCounter, CounterValue: c.Value()}
	}
	for name, g := range m.gauges {
		out[name] = MetricValue{Kind: MetricGauge, GaugeValue: g.Value()}
	}
	for name, t := range m.timers {
		out[name] = MetricValue{Kind: MetricTimer, TimerSumUs: t.SumMicros(), TimerCount: t.Count()}
	}
	return out
}

// Standard metric names the runtime populates per spec.md §7.
const (
	MetricRecordsProcessed = "records_processed"
	MetricRecordsFailed    = "records_failed"
	MetricStageElapsed     = "stage_elapsed"
	MetricRecordsDropped   = "records_dropped"
)
