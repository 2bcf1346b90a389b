package streamflow

import "testing"

func TestCounterIncAdd(t *testing.T) {
	m := NewMetrics()
	c := m.Counter("records_processed")
	c.Inc()
	c.Add(4)

	if got := c.Value(); got != 5 {
		t.Errorf("Value() = %d, want 5", got)
	}
}

func TestGaugeSetAdd(t *testing.T) {
	m := NewMetrics()
	g := m.Gauge("fan_out")
	g.Set(10)
	g.Add(-3)

	if got := g.Value(); got != 7 {
		t.Errorf("Value() = %d, want 7", got)
	}
}

func TestTimerObserve(t *testing.T) {
	m := NewMetrics()
	tm := m.Timer("stage_elapsed")
	tm.Observe(100)
	tm.Observe(300)

	if got := tm.SumMicros(); got != 400 {
		t.Errorf("SumMicros() = %d, want 400", got)
	}
	if got := tm.Count(); got != 2 {
		t.Errorf("Count() = %d, want 2", got)
	}
}

func TestMetricsSnapshotIsolated(t *testing.T) {
	m := NewMetrics()
	m.Counter("a").Inc()

	snap := m.Snapshot()
	if snap["a"].CounterValue != 1 {
		t.Fatalf("snapshot a = %+v, want CounterValue 1", snap["a"])
	}

	m.Counter("a").Inc()
	if snap["a"].CounterValue != 1 {
		t.Errorf("earlier snapshot mutated after later writes: %+v", snap["a"])
	}

	snap2 := m.Snapshot()
	if snap2["a"].CounterValue != 2 {
		t.Errorf("new snapshot a = %+v, want CounterValue 2", snap2["a"])
	}
}

func TestMetricsLazyCreation(t *testing.T) {
	m := NewMetrics()
	snap := m.Snapshot()
	if len(snap) != 0 {
		t.Fatalf("fresh registry snapshot = %+v, want empty", snap)
	}

	m.Gauge("pending")
	snap = m.Snapshot()
	if _, ok := snap["pending"]; !ok {
		t.Errorf("accessing Gauge(\"pending\") should register it even without Set")
	}
}
