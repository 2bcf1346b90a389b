package streamflow

import "context"

// WindowSkipper buffers records per window and, on each input, emits the
// buffer from position n onward — so the first n outputs in any window are
// the empty sequence, and every output after that grows by one element.
type WindowSkipper[T any] struct {
	name  string
	cfg   WindowConfig
	n     int
	state *KeyedStateBackend[uint64, []T]
}

// NewWindowSkipper creates a WindowSkipper operator.
func NewWindowSkipper[T any](name string, cfg WindowConfig, n int) *WindowSkipper[T] {
	return &WindowSkipper[T]{
		name:  name,
		cfg:   cfg,
		n:     n,
		state: NewKeyedStateBackend[uint64, []T](cloneSlice[T]),
	}
}

// Init is a no-op; state is created empty by the constructor.
func (w *WindowSkipper[T]) Init(_ context.Context) error { return nil }

// Process appends the record to its window's buffer and emits the buffer
// sliced from position n onward.
func (w *WindowSkipper[T]) Process(_ context.Context, record Record[T]) ([]Record[[]T], error) {
	keys := w.cfg.Type.WindowKeys(record.TimestampMillis)
	out := make([]Record[[]T], 0, len(keys))
	for _, key := range keys {
		values := append(w.state.GetOr(key, nil), record.Data)
		w.state.Set(key, values)
		tail := values
		if w.n < len(values) {
			tail = values[w.n:]
		} else {
			tail = nil
		}
		out = append(out, DeriveRecord(record, cloneSlice(tail)))
	}
	return out, nil
}

// OnWindowTrigger evicts every window (other than Global) whose deadline
// has passed. It emits nothing; the sliced tail was already emitted on
// every Process call.
func (w *WindowSkipper[T]) OnWindowTrigger(_ context.Context, nowMillis int64) ([]Record[[]T], error) {
	for _, key := range w.state.Keys() {
		if w.cfg.Type.Expired(key, w.cfg.AllowLateness, nowMillis) {
			w.state.Delete(key)
		}
	}
	return nil, nil
}

// Close is a no-op; window state is reclaimed with the operator.
func (w *WindowSkipper[T]) Close(_ context.Context) error { return nil }

// Name returns the operator's descriptive name.
func (w *WindowSkipper[T]) Name() string { return w.name }
