package streamflow

import "context"

// DataStream is the fluent entry point for building a pipeline: a source
// plus a chain of same-type operators. Go generics don't allow a generic
// method to introduce new type parameters, so operations that change the
// payload type (Map, FlatMap, Transform, Window) are free functions rather
// than methods: each wraps the current (source + operator chain) into a
// TransformSource and returns a new DataStream over the result type, with
// an empty operator vector, exactly as spec.md describes.
type DataStream[T any] struct {
	source   Source[T]
	ops      []Operator[T, T]
	parallel *ParallelConfig
}

// FromSource starts a DataStream pulling from source.
func FromSource[T any](source Source[T]) *DataStream[T] {
	return &DataStream[T]{source: source}
}

// Filter appends a same-type filtering operator to the chain.
func (ds *DataStream[T]) Filter(name string, predicate func(T) bool) *DataStream[T] {
	ds.ops = append(ds.ops, NewFilterOperator(name, predicate))
	return ds
}

// Limit appends the non-windowed first-n-admitted operator to the chain.
func (ds *DataStream[T]) Limit(name string, n int) *DataStream[T] {
	ds.ops = append(ds.ops, NewLimit[T](name, n))
	return ds
}

// WithParallelConfig attaches parallel-mode execution settings; a nil
// receiver config means the pipeline runs in linear mode.
func (ds *DataStream[T]) WithParallelConfig(cfg ParallelConfig) *DataStream[T] {
	ds.parallel = &cfg
	return ds
}

// opsCopy returns a defensive copy of the current operator chain so the
// returned slice can be embedded in a TransformSource without aliasing
// this DataStream's future appends.
func (ds *DataStream[T]) opsCopy() []Operator[T, T] {
	out := make([]Operator[T, T], len(ds.ops))
	copy(out, ds.ops)
	return out
}

// Map applies fn to every record, producing a DataStream[Out].
func Map[In, Out any](ds *DataStream[In], name string, fn func(In) Out) *DataStream[Out] {
	return Transform[In, Out](ds, NewMapOperator(name, fn))
}

// FlatMap applies fn to every record and flattens the results, producing a
// DataStream[Out].
func FlatMap[In, Out any](ds *DataStream[In], name string, fn func(In) []Out) *DataStream[Out] {
	return Transform[In, Out](ds, NewFlatMapOperator(name, fn))
}

// Transform wraps ds's current source and operator chain into a
// TransformSource trailed by op, producing a DataStream[Out] with a fresh,
// empty operator vector. Every type-changing combinator (Map, FlatMap,
// the windowed combinators) is built on top of this.
func Transform[In, Out any](ds *DataStream[In], op Operator[In, Out]) *DataStream[Out] {
	ts := NewTransformSource[In, Out](ds.source, ds.opsCopy(), op)
	return &DataStream[Out]{source: ts, parallel: ds.parallel}
}

// Window opens a WindowedStream over ds using cfg to assign window keys.
func Window[T any](ds *DataStream[T], cfg WindowConfig) *WindowedStream[T] {
	return &WindowedStream[T]{stream: ds, cfg: cfg}
}

// ToSource finalises the DataStream into a single Source[T], fusing its
// operator chain via an identity-trailed TransformSource. DataStream.Sink
// calls this to obtain the one logical source it hands to Pipeline or
// RuntimeContext.
func (ds *DataStream[T]) ToSource() Source[T] {
	if len(ds.ops) == 0 {
		return ds.source
	}
	return NewTransformSource[T, T](ds.source, ds.opsCopy(), IdentityOperator[T]())
}

// Sink drives ds to completion against sink using the given execution
// options, returning once the source reaches EOF.
func (ds *DataStream[T]) Sink(ctx context.Context, sink Sink[T], opts PipelineOptions) (*PipelineResult, error) {
	if ds.parallel != nil {
		rc := NewRuntimeContext(ds.ToSource(), nil, sink, *ds.parallel, opts)
		return rc.Execute(ctx)
	}
	p := NewPipeline(ds.ToSource(), sink, opts)
	return p.Execute(ctx)
}

// WindowedStream holds a DataStream awaiting a window combinator. All
// window combinators build a windowed operator over cfg and pass it
// through Transform, producing the downstream DataStream.
type WindowedStream[T any] struct {
	stream *DataStream[T]
	cfg    WindowConfig
}

// WindowAggregate applies a WindowAggregator over ws, producing a
// DataStream[A] of running accumulators.
func WindowAggregate[T, A any](ws *WindowedStream[T], name string, initial A, fold WindowAccumulateFunc[T, A], clone func(A) A) *DataStream[A] {
	return Transform[T, A](ws.stream, NewWindowAggregator(name, ws.cfg, initial, fold, clone))
}

// WindowReduceStream applies a WindowReduce over ws, producing a
// DataStream[R] of recomputed folds.
func WindowReduceStream[T, R any](ws *WindowedStream[T], name string, fold WindowReduceFunc[T, R]) *DataStream[R] {
	return Transform[T, R](ws.stream, NewWindowReduce(name, ws.cfg, fold))
}

// WindowAnyStream applies WindowAny over ws, producing a DataStream[bool].
func WindowAnyStream[T any](ws *WindowedStream[T], name string, pred func(T) bool) *DataStream[bool] {
	return Transform[T, bool](ws.stream, NewWindowAny(name, ws.cfg, pred))
}

// WindowAllStream applies WindowAll over ws, producing a DataStream[bool].
func WindowAllStream[T any](ws *WindowedStream[T], name string, pred func(T) bool) *DataStream[bool] {
	return Transform[T, bool](ws.stream, NewWindowAll(name, ws.cfg, pred))
}

// WindowSortStream applies WindowSorter over ws, producing a
// DataStream[[]T] of the current sorted window contents on every input.
func WindowSortStream[T any](ws *WindowedStream[T], name string, cmp func(a, b T) int) *DataStream[[]T] {
	return Transform[T, []T](ws.stream, NewWindowSorter(name, ws.cfg, cmp))
}

// WindowTimestampSortStream applies WindowTimestampSorter over ws.
func WindowTimestampSortStream[T any](ws *WindowedStream[T], name string, order TimestampOrder) *DataStream[[]Record[T]] {
	return Transform[T, []Record[T]](ws.stream, NewWindowTimestampSorter[T](name, ws.cfg, order))
}

// WindowSkipStream applies WindowSkipper over ws.
func WindowSkipStream[T any](ws *WindowedStream[T], name string, n int) *DataStream[[]T] {
	return Transform[T, []T](ws.stream, NewWindowSkipper[T](name, ws.cfg, n))
}

// DistinctStream applies the Distinct combinator over ws.
func DistinctStream[T comparable](ws *WindowedStream[T], name string) *DataStream[[]T] {
	return Transform[T, []T](ws.stream, Distinct[T](name, ws.cfg))
}

// DistinctByKeyStream applies the DistinctByKey combinator over ws.
func DistinctByKeyStream[T any, K comparable](ws *WindowedStream[T], name string, keyFn func(T) K) *DataStream[[]T] {
	return Transform[T, []T](ws.stream, DistinctByKey(name, ws.cfg, keyFn))
}

// TopKStream applies the TopK combinator over ws.
func TopKStream[T any](ws *WindowedStream[T], name string, k int, less func(a, b T) bool) *DataStream[[]T] {
	return Transform[T, []T](ws.stream, TopK(name, ws.cfg, k, less))
}

// TopKByKeyStream applies the TopKByKey combinator over ws.
func TopKByKeyStream[T any, K comparable](ws *WindowedStream[T], name string, k int, keyFn func(T) K, keyLess func(a, b K) bool) *DataStream[[]T] {
	return Transform[T, []T](ws.stream, TopKByKey(name, ws.cfg, k, keyFn, keyLess))
}

// TailStream applies the Tail combinator over ws.
func TailStream[T any](ws *WindowedStream[T], name string, n int) *DataStream[[]T] {
	return Transform[T, []T](ws.stream, Tail[T](name, ws.cfg, n))
}

// WindowLimitStream applies the WindowLimit combinator over ws.
func WindowLimitStream[T any](ws *WindowedStream[T], name string, n int) *DataStream[[]T] {
	return Transform[T, []T](ws.stream, WindowLimit[T](name, ws.cfg, n))
}

// SortStream applies the Sort combinator over ws.
func SortStream[T any](ws *WindowedStream[T], name string, less func(a, b T) bool) *DataStream[[]T] {
	return Transform[T, []T](ws.stream, Sort(name, ws.cfg, less))
}
