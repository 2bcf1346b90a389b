// Package streamflow provides a Flink-inspired, embeddable stream
// processing engine: describe a dataflow as a source, a chain of
// operators, an optional windowed aggregation, and a sink, then run it
// concurrently with bounded buffering, retries, backpressure, and
// watermark-driven window triggering.
package streamflow

import "github.com/zoobzio/clockz"

// Clock provides time operations for deterministic testing. Every
// suspension point in the runtime (watermark ticks, retry backoff,
// backpressure throttling, window boundary timers) goes through a Clock
// so tests can drive time with clockz.NewFakeClock() instead of sleeping.
type Clock = clockz.Clock

// ClockTimer represents a single event timer. It is named apart from the
// metrics Timer declared in metrics.go.
type ClockTimer = clockz.Timer

// Ticker delivers ticks at intervals.
type Ticker = clockz.Ticker

// RealClock is the default Clock using standard wall-clock time.
var RealClock Clock = clockz.RealClock
