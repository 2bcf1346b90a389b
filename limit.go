package streamflow

import (
	"context"
	"sync/atomic"
)

// Limit is a stateful filter carrying a decrementing counter: it admits
// the first n inputs and rejects the rest. Unlike WindowLimit it has no
// window-key concept, so it applies across the whole non-windowed stream.
type Limit[T any] struct {
	name      string
	remaining atomic.Int64
}

// NewLimit creates a Limit operator admitting the first n records.
func NewLimit[T any](name string, n int) *Limit[T] {
	l := &Limit[T]{name: name}
	l.remaining.Store(int64(n))
	return l
}

// Init is a no-op.
func (l *Limit[T]) Init(_ context.Context) error { return nil }

// Process admits the record if the counter is still positive, atomically
// decrementing it; once exhausted every later record is dropped.
func (l *Limit[T]) Process(_ context.Context, record Record[T]) ([]Record[T], error) {
	for {
		remaining := l.remaining.Load()
		if remaining <= 0 {
			return nil, nil
		}
		if l.remaining.CompareAndSwap(remaining, remaining-1) {
			return []Record[T]{record}, nil
		}
	}
}

// Close is a no-op.
func (l *Limit[T]) Close(_ context.Context) error { return nil }

// Name returns the operator's descriptive name.
func (l *Limit[T]) Name() string { return l.name }
