package streamflow

import "context"

// WindowReduceFunc folds an entire window's buffered values into a single
// result.
type WindowReduceFunc[T, R any] func(values []T) R

// WindowReduce buffers records per window key and, on every input,
// recomputes the fold over the window's current contents and emits the
// result. Unlike WindowAggregator it keeps every raw value (not just a
// running accumulator), which lets OnWindowTrigger emit a genuinely final
// fold and then evict the window's state. A window (other than Global,
// which never expires) is evicted once key + size + AllowLateness <= now.
type WindowReduce[T, R any] struct {
	name   string
	cfg    WindowConfig
	fold   WindowReduceFunc[T, R]
	buffer *KeyedStateBackend[uint64, []T]
}

// NewWindowReduce creates a WindowReduce operator.
func NewWindowReduce[T, R any](name string, cfg WindowConfig, fold WindowReduceFunc[T, R]) *WindowReduce[T, R] {
	return &WindowReduce[T, R]{
		name:   name,
		cfg:    cfg,
		fold:   fold,
		buffer: NewKeyedStateBackend[uint64, []T](cloneSlice[T]),
	}
}

// Init is a no-op; state is created empty by the constructor.
func (w *WindowReduce[T, R]) Init(_ context.Context) error { return nil }

// Process appends the record to every window it belongs to and emits the
// recomputed fold for each of those windows.
func (w *WindowReduce[T, R]) Process(_ context.Context, record Record[T]) ([]Record[R], error) {
	keys := w.cfg.Type.WindowKeys(record.TimestampMillis)
	out := make([]Record[R], 0, len(keys))
	for _, key := range keys {
		values := append(w.buffer.GetOr(key, nil), record.Data)
		w.buffer.Set(key, values)
		out = append(out, DeriveRecord(record, w.fold(values)))
	}
	return out, nil
}

// OnWindowTrigger evicts every window (other than Global) whose deadline
// has passed, emitting one final fold per evicted window.
func (w *WindowReduce[T, R]) OnWindowTrigger(_ context.Context, nowMillis int64) ([]Record[R], error) {
	var out []Record[R]
	for _, key := range w.buffer.Keys() {
		if !w.cfg.Type.Expired(key, w.cfg.AllowLateness, nowMillis) {
			continue
		}
		values, ok := w.buffer.Get(key)
		if !ok {
			continue
		}
		out = append(out, Record[R]{
			Data:            w.fold(values),
			TimestampMillis: nowMillis,
		})
		w.buffer.Delete(key)
	}
	return out, nil
}

// Close is a no-op; buffered state is reclaimed with the operator.
func (w *WindowReduce[T, R]) Close(_ context.Context) error { return nil }

// Name returns the operator's descriptive name.
func (w *WindowReduce[T, R]) Name() string { return w.name }

func cloneSlice[T any](s []T) []T {
	out := make([]T, len(s))
	copy(out, s)
	return out
}
