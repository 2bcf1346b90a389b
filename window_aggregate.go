package streamflow

import "context"

// WindowAccumulateFunc folds one record's payload into a window's running
// accumulator, returning the updated accumulator.
type WindowAccumulateFunc[T, A any] func(acc A, data T) A

// WindowAggregator performs incremental, per-window-key stateful
// aggregation. Unlike a batch aggregation that emits once per closed
// window, it emits on every input: for each window key the input's
// timestamp belongs to, it reads the current accumulator (or the initial
// value if this is the first record in that window), folds the input in,
// stores the result, and emits a record carrying the new accumulator. A
// downstream consumer therefore observes a running aggregate per window,
// not a one-shot summary.
//
// All of the derived combinators (Distinct, TopK, Tail, windowed Sort, ...)
// are built on top of WindowAggregator with a specific accumulator type and
// fold function; see combinators.go.
type WindowAggregator[T, A any] struct {
	name    string
	cfg     WindowConfig
	initial A
	fold    WindowAccumulateFunc[T, A]
	state   *KeyedStateBackend[uint64, A]
}

// NewWindowAggregator creates a WindowAggregator. clone copies an
// accumulator out of and into the keyed state backend; pass nil if A is
// safe to share by value (no internal pointers/slices the caller mutates).
func NewWindowAggregator[T, A any](name string, cfg WindowConfig, initial A, fold WindowAccumulateFunc[T, A], clone func(A) A) *WindowAggregator[T, A] {
	return &WindowAggregator[T, A]{
		name:    name,
		cfg:     cfg,
		initial: initial,
		fold:    fold,
		state:   NewKeyedStateBackend[uint64, A](clone),
	}
}

// Init is a no-op; state is created empty by the constructor.
func (w *WindowAggregator[T, A]) Init(_ context.Context) error { return nil }

// Process updates and emits the accumulator for every window key the
// record's timestamp belongs to.
func (w *WindowAggregator[T, A]) Process(_ context.Context, record Record[T]) ([]Record[A], error) {
	keys := w.cfg.Type.WindowKeys(record.TimestampMillis)
	out := make([]Record[A], 0, len(keys))
	for _, key := range keys {
		acc := w.state.GetOr(key, w.initial)
		acc = w.fold(acc, record.Data)
		w.state.Set(key, acc)
		out = append(out, DeriveRecord(record, acc))
	}
	return out, nil
}

// OnWindowTrigger evicts every window (other than Global) whose deadline
// has passed. It emits nothing: WindowAggregator already emitted the
// running accumulator on every Process call, so eviction here only
// reclaims state, mirroring WindowReduce's deadline check without
// re-emitting a value nobody asked for.
func (w *WindowAggregator[T, A]) OnWindowTrigger(_ context.Context, nowMillis int64) ([]Record[A], error) {
	for _, key := range w.state.Keys() {
		if w.cfg.Type.Expired(key, w.cfg.AllowLateness, nowMillis) {
			w.state.Delete(key)
		}
	}
	return nil, nil
}

// Close is a no-op; accumulator state is reclaimed with the operator.
func (w *WindowAggregator[T, A]) Close(_ context.Context) error { return nil }

// Name returns the operator's descriptive name.
func (w *WindowAggregator[T, A]) Name() string { return w.name }
