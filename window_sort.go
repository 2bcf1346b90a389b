package streamflow

import (
	"context"
	"sort"
)

// WindowSorter maintains a per-window sorted vector and, on each input,
// binary-inserts the new value and emits a clone of the full vector ordered
// by cmp (negative if a sorts before b).
type WindowSorter[T any] struct {
	name  string
	cfg   WindowConfig
	cmp   func(a, b T) int
	state *KeyedStateBackend[uint64, []T]
}

// NewWindowSorter creates a WindowSorter operator.
func NewWindowSorter[T any](name string, cfg WindowConfig, cmp func(a, b T) int) *WindowSorter[T] {
	return &WindowSorter[T]{
		name:  name,
		cfg:   cfg,
		cmp:   cmp,
		state: NewKeyedStateBackend[uint64, []T](cloneSlice[T]),
	}
}

// Init is a no-op; state is created empty by the constructor.
func (w *WindowSorter[T]) Init(_ context.Context) error { return nil }

// Process binary-inserts the record into its window's sorted vector and
// emits a clone of the result.
func (w *WindowSorter[T]) Process(_ context.Context, record Record[T]) ([]Record[[]T], error) {
	keys := w.cfg.Type.WindowKeys(record.TimestampMillis)
	out := make([]Record[[]T], 0, len(keys))
	for _, key := range keys {
		values := w.state.GetOr(key, nil)
		idx := sort.Search(len(values), func(i int) bool { return w.cmp(values[i], record.Data) >= 0 })
		values = append(values, record.Data)
		copy(values[idx+1:], values[idx:])
		values[idx] = record.Data
		w.state.Set(key, values)
		out = append(out, DeriveRecord(record, cloneSlice(values)))
	}
	return out, nil
}

// OnWindowTrigger evicts every window (other than Global) whose deadline
// has passed. It emits nothing; the sorted vector was already emitted on
// every Process call.
func (w *WindowSorter[T]) OnWindowTrigger(_ context.Context, nowMillis int64) ([]Record[[]T], error) {
	for _, key := range w.state.Keys() {
		if w.cfg.Type.Expired(key, w.cfg.AllowLateness, nowMillis) {
			w.state.Delete(key)
		}
	}
	return nil, nil
}

// Close is a no-op; window state is reclaimed with the operator.
func (w *WindowSorter[T]) Close(_ context.Context) error { return nil }

// Name returns the operator's descriptive name.
func (w *WindowSorter[T]) Name() string { return w.name }

// TimestampOrder selects ascending or descending ordering for
// WindowTimestampSorter.
type TimestampOrder int

const (
	// TimestampAscending orders earliest-first.
	TimestampAscending TimestampOrder = iota
	// TimestampDescending orders latest-first.
	TimestampDescending
)

// WindowTimestampSorter is WindowSorter specialised to order buffered
// records by their own event-time timestamp rather than an arbitrary
// comparator over their payload.
type WindowTimestampSorter[T any] struct {
	inner *WindowSorter[Record[T]]
	name  string
}

// NewWindowTimestampSorter creates a WindowTimestampSorter operator.
func NewWindowTimestampSorter[T any](name string, cfg WindowConfig, order TimestampOrder) *WindowTimestampSorter[T] {
	cmp := func(a, b Record[T]) int {
		switch {
		case a.TimestampMillis < b.TimestampMillis:
			return -1
		case a.TimestampMillis > b.TimestampMillis:
			return 1
		default:
			return 0
		}
	}
	if order == TimestampDescending {
		asc := cmp
		cmp = func(a, b Record[T]) int { return -asc(a, b) }
	}
	return &WindowTimestampSorter[T]{
		name:  name,
		inner: NewWindowSorter[Record[T]](name, cfg, cmp),
	}
}

// Init delegates to the inner WindowSorter.
func (w *WindowTimestampSorter[T]) Init(ctx context.Context) error { return w.inner.Init(ctx) }

// Process wraps each input record (payload and timestamp together) so the
// inner sorter's comparator can order by timestamp, and returns the inner
// sorter's output as is: each emitted vector holds whole Record[T] values.
func (w *WindowTimestampSorter[T]) Process(ctx context.Context, record Record[T]) ([]Record[[]Record[T]], error) {
	return w.inner.Process(ctx, DeriveRecord(record, record))
}

// OnWindowTrigger delegates to the inner WindowSorter's eviction.
func (w *WindowTimestampSorter[T]) OnWindowTrigger(ctx context.Context, nowMillis int64) ([]Record[[]Record[T]], error) {
	return w.inner.OnWindowTrigger(ctx, nowMillis)
}

// Close delegates to the inner WindowSorter.
func (w *WindowTimestampSorter[T]) Close(ctx context.Context) error { return w.inner.Close(ctx) }

// Name returns the operator's descriptive name.
func (w *WindowTimestampSorter[T]) Name() string { return w.name }
