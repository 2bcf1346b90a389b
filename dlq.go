package streamflow

import (
	"context"
	"sync"
	"time"
)

// FailedRecord pairs a record that exhausted its retry budget with the
// error that caused the last attempt to fail and when that happened.
type FailedRecord[T any] struct {
	Record    Record[T]
	Err       error
	Stage     string
	Timestamp time.Time
}

// DeadLetterSink receives records a Pipeline or RuntimeContext could not
// deliver after exhausting a RetryStrategy. It wraps an ordinary Sink[T]
// so failed records land wherever a caller already has sink plumbing
// (a file, a topic, an in-memory collector for tests) rather than forcing
// a bespoke failure-handling surface.
type DeadLetterSink[T any] struct {
	inner Sink[FailedRecord[T]]
	mu    sync.Mutex
}

// NewDeadLetterSink wraps inner as a dead-letter destination.
func NewDeadLetterSink[T any](inner Sink[FailedRecord[T]]) *DeadLetterSink[T] {
	return &DeadLetterSink[T]{inner: inner}
}

// Init initialises the wrapped sink.
func (d *DeadLetterSink[T]) Init(ctx context.Context) error { return d.inner.Init(ctx) }

// Reject writes a failed record to the wrapped sink, serializing access
// since the runtime may call Reject from several retry-exhaustion sites
// concurrently under parallel mode.
func (d *DeadLetterSink[T]) Reject(ctx context.Context, record Record[T], stage string, cause error) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.inner.Write(ctx, Record[FailedRecord[T]]{
		Data: FailedRecord[T]{
			Record:    record,
			Err:       cause,
			Stage:     stage,
			Timestamp: time.Now(),
		},
		TimestampMillis: record.TimestampMillis,
	})
}

// Flush flushes the wrapped sink.
func (d *DeadLetterSink[T]) Flush(ctx context.Context) error { return d.inner.Flush(ctx) }

// Close closes the wrapped sink.
func (d *DeadLetterSink[T]) Close(ctx context.Context) error { return d.inner.Close(ctx) }
