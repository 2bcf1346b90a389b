package streamflow

import "context"

// windowPredicateState tracks the sticky boolean a WindowAny/WindowAll
// window has settled into, plus the timestamp of the first record the
// window ever saw (used as every emitted record's timestamp).
type windowPredicateState struct {
	settled     bool
	firstMillis int64
}

// WindowAny emits, for every input, whether any record observed so far in
// that input's window satisfies pred. Once a window has emitted true it is
// sticky: every later input in that window also emits true without
// re-evaluating pred.
type WindowAny[T any] struct {
	name  string
	cfg   WindowConfig
	pred  func(T) bool
	state *KeyedStateBackend[uint64, windowPredicateState]
}

// NewWindowAny creates a WindowAny operator.
func NewWindowAny[T any](name string, cfg WindowConfig, pred func(T) bool) *WindowAny[T] {
	return &WindowAny[T]{
		name:  name,
		cfg:   cfg,
		pred:  pred,
		state: NewKeyedStateBackend[uint64, windowPredicateState](nil),
	}
}

// Init is a no-op; state is created empty by the constructor.
func (w *WindowAny[T]) Init(_ context.Context) error { return nil }

// Process evaluates the sticky-true predicate for every window key the
// record belongs to.
func (w *WindowAny[T]) Process(_ context.Context, record Record[T]) ([]Record[bool], error) {
	keys := w.cfg.Type.WindowKeys(record.TimestampMillis)
	out := make([]Record[bool], 0, len(keys))
	for _, key := range keys {
		st, ok := w.state.Get(key)
		if !ok {
			st = windowPredicateState{firstMillis: record.TimestampMillis}
		}
		if !st.settled && w.pred(record.Data) {
			st.settled = true
		}
		w.state.Set(key, st)
		out = append(out, Record[bool]{Data: st.settled, TimestampMillis: st.firstMillis})
	}
	return out, nil
}

// OnWindowTrigger evicts every window (other than Global) whose deadline
// has passed. It emits nothing; the sticky result was already emitted on
// every Process call.
func (w *WindowAny[T]) OnWindowTrigger(_ context.Context, nowMillis int64) ([]Record[bool], error) {
	for _, key := range w.state.Keys() {
		if w.cfg.Type.Expired(key, w.cfg.AllowLateness, nowMillis) {
			w.state.Delete(key)
		}
	}
	return nil, nil
}

// Close is a no-op; window state is reclaimed with the operator.
func (w *WindowAny[T]) Close(_ context.Context) error { return nil }

// Name returns the operator's descriptive name.
func (w *WindowAny[T]) Name() string { return w.name }

// WindowAll emits, for every input, whether every record observed so far
// in that input's window satisfies pred. Once a window has emitted false
// it is sticky: every later input in that window also emits false without
// re-evaluating pred.
type WindowAll[T any] struct {
	name  string
	cfg   WindowConfig
	pred  func(T) bool
	state *KeyedStateBackend[uint64, windowPredicateState]
}

// NewWindowAll creates a WindowAll operator.
func NewWindowAll[T any](name string, cfg WindowConfig, pred func(T) bool) *WindowAll[T] {
	return &WindowAll[T]{
		name:  name,
		cfg:   cfg,
		pred:  pred,
		state: NewKeyedStateBackend[uint64, windowPredicateState](nil),
	}
}

// Init is a no-op; state is created empty by the constructor.
func (w *WindowAll[T]) Init(_ context.Context) error { return nil }

// Process evaluates the sticky-false predicate for every window key the
// record belongs to.
func (w *WindowAll[T]) Process(_ context.Context, record Record[T]) ([]Record[bool], error) {
	keys := w.cfg.Type.WindowKeys(record.TimestampMillis)
	out := make([]Record[bool], 0, len(keys))
	for _, key := range keys {
		st, ok := w.state.Get(key)
		if !ok {
			st = windowPredicateState{firstMillis: record.TimestampMillis}
		}
		// Reuse settled to mean "has broken" (stuck at false) here.
		if !st.settled && !w.pred(record.Data) {
			st.settled = true
		}
		w.state.Set(key, st)
		out = append(out, Record[bool]{Data: !st.settled, TimestampMillis: st.firstMillis})
	}
	return out, nil
}

// OnWindowTrigger evicts every window (other than Global) whose deadline
// has passed. It emits nothing; the sticky result was already emitted on
// every Process call.
func (w *WindowAll[T]) OnWindowTrigger(_ context.Context, nowMillis int64) ([]Record[bool], error) {
	for _, key := range w.state.Keys() {
		if w.cfg.Type.Expired(key, w.cfg.AllowLateness, nowMillis) {
			w.state.Delete(key)
		}
	}
	return nil, nil
}

// Close is a no-op; window state is reclaimed with the operator.
func (w *WindowAll[T]) Close(_ context.Context) error { return nil }

// Name returns the operator's descriptive name.
func (w *WindowAll[T]) Name() string { return w.name }
