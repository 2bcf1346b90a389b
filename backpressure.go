package streamflow

import (
	"sync/atomic"
	"time"
)

// BackpressureStrategy decides, given the pipeline's current downstream
// fan-out load, whether the runtime should brake and for how long.
type BackpressureStrategy interface {
	ShouldApply(load int64) bool
	Backoff() (time.Duration, bool)
}

// BlockBackpressure applies backpressure whenever there is any downstream
// fan-out at all.
type BlockBackpressure struct{}

// ShouldApply reports true iff load is positive.
func (BlockBackpressure) ShouldApply(load int64) bool { return load > 0 }

// Backoff reports no fixed wait; the caller should simply retry the same
// step (the queue itself is the brake).
func (BlockBackpressure) Backoff() (time.Duration, bool) { return 0, false }

// DropOldestBackpressure is a buffer-admission policy rather than an
// upstream brake: it never asks the runtime to pause, because
// RuntimeContext's channel admission drops the oldest buffered element to
// make room instead. See DESIGN.md for why this differs from Block.
type DropOldestBackpressure struct{}

// ShouldApply always reports false; dropping happens at buffer admission.
func (DropOldestBackpressure) ShouldApply(_ int64) bool { return false }

// Backoff reports no backoff is ever needed.
func (DropOldestBackpressure) Backoff() (time.Duration, bool) { return 0, false }

// DropNewestBackpressure mirrors DropOldestBackpressure, discarding the
// incoming element instead of the buffer's oldest.
type DropNewestBackpressure struct{}

// ShouldApply always reports false; dropping happens at buffer admission.
func (DropNewestBackpressure) ShouldApply(_ int64) bool { return false }

// Backoff reports no backoff is ever needed.
func (DropNewestBackpressure) Backoff() (time.Duration, bool) { return 0, false }

// ThrottleBackpressure applies backpressure whenever the current load is
// at or above High. Low is carried but not consulted: neither this
// strategy nor BackpressureController applies hysteresis. Backoff always
// returns the same fixed wait.
type ThrottleBackpressure struct {
	High int64
	Low  int64
	Wait time.Duration
}

// ShouldApply reports true iff load has reached High.
func (t ThrottleBackpressure) ShouldApply(load int64) bool { return load >= t.High }

// Backoff returns the configured wait.
func (t ThrottleBackpressure) Backoff() (time.Duration, bool) { return t.Wait, true }

// BackpressureController tracks the pipeline's current downstream fan-out
// load and consults a BackpressureStrategy to decide when the linear
// runtime should brake before polling the source again.
type BackpressureController struct {
	strategy BackpressureStrategy
	load     atomic.Int64
}

// NewBackpressureController creates a controller applying strategy.
func NewBackpressureController(strategy BackpressureStrategy) *BackpressureController {
	return &BackpressureController{strategy: strategy}
}

// UpdateLoad records the current downstream fan-out size.
func (bc *BackpressureController) UpdateLoad(n int) {
	bc.load.Store(int64(n))
}

// ShouldApplyBackpressure reports whether the runtime should brake before
// its next poll, per the configured strategy and the last recorded load.
func (bc *BackpressureController) ShouldApplyBackpressure() bool {
	return bc.strategy.ShouldApply(bc.load.Load())
}

// GetBackoff returns the strategy's backoff duration, if any.
func (bc *BackpressureController) GetBackoff() (time.Duration, bool) {
	return bc.strategy.Backoff()
}
