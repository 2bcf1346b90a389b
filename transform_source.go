package streamflow

import "context"

// TransformSource fuses an upstream Source[T], a chain of T→T operators,
// and a trailing T→R operator into a single Source[R]. The runtime then
// sees one logical pull instead of a chain of stages, which is what makes
// linear-mode execution a single-task loop.
type TransformSource[T, R any] struct {
	upstream Source[T]
	ops      []Operator[T, T]
	trailing Operator[T, R]
	buffer   []Record[R]

	handler  *ErrorHandler
	metrics  *Metrics
	onFailed func(ctx context.Context, stage string, record Record[any], err error)
}

// NewTransformSource creates a TransformSource. When the chain has no
// type-changing final operator, pass IdentityOperator[T]() as trailing.
// Operator failures are retried with NoRetry and reported nowhere until
// configureErrorHandling wires in the pipeline's actual retry strategy and
// failure callback.
func NewTransformSource[T, R any](upstream Source[T], ops []Operator[T, T], trailing Operator[T, R]) *TransformSource[T, R] {
	return &TransformSource[T, R]{
		upstream: upstream,
		ops:      ops,
		trailing: trailing,
		handler:  NewErrorHandler(NoRetry{}, RealClock),
		metrics:  NewMetrics(),
	}
}

// errorHandlingConfigurable is implemented by sources that need the
// runtime's retry strategy, metrics registry, and failure callback pushed
// into them after construction, since a DataStream builds its fused
// TransformSource chain long before PipelineOptions is known at .Sink().
type errorHandlingConfigurable interface {
	configureErrorHandling(handler *ErrorHandler, metrics *Metrics, onFailed func(ctx context.Context, stage string, record Record[any], err error))
}

// configureErrorHandling installs the runtime's retry handler, metrics, and
// failure callback, then propagates the same configuration to the upstream
// source if it is itself a fused TransformSource. A DataStream chains
// Map/FlatMap/Window calls into nested TransformSources, so without this
// recursive push only the outermost stage would retry correctly.
func (ts *TransformSource[T, R]) configureErrorHandling(handler *ErrorHandler, metrics *Metrics, onFailed func(ctx context.Context, stage string, record Record[any], err error)) {
	ts.handler = handler
	ts.metrics = metrics
	ts.onFailed = onFailed
	if configurable, ok := ts.upstream.(errorHandlingConfigurable); ok {
		configurable.configureErrorHandling(handler, metrics, onFailed)
	}
}

// reportFailure counts a retries-exhausted operator failure and forwards it
// to the configured callback, erasing the record's payload type so a single
// callback shape works across every stage of a fused chain regardless of
// the intermediate types flowing through it.
func (ts *TransformSource[T, R]) reportFailure(ctx context.Context, stage string, record Record[T], err error) {
	ts.metrics.Counter(MetricRecordsFailed).Inc()
	if ts.onFailed != nil {
		ts.onFailed(ctx, stage, Record[any]{Data: record.Data, TimestampMillis: record.TimestampMillis}, err)
	}
}

// IdentityOperator returns a trailing operator that passes its input
// through unchanged, for building a TransformSource whose T→T chain has
// no type-changing final stage.
func IdentityOperator[T any]() Operator[T, T] {
	return identityOperator[T]{}
}

type identityOperator[T any] struct{}

func (identityOperator[T]) Init(_ context.Context) error { return nil }
func (identityOperator[T]) Process(_ context.Context, record Record[T]) ([]Record[T], error) {
	return []Record[T]{record}, nil
}
func (identityOperator[T]) Close(_ context.Context) error { return nil }
func (identityOperator[T]) Name() string                  { return "identity" }

// Init initialises the upstream source, every T→T operator, and the
// trailing operator, in that order.
func (ts *TransformSource[T, R]) Init(ctx context.Context) error {
	if err := ts.upstream.Init(ctx); err != nil {
		return err
	}
	for _, op := range ts.ops {
		if err := op.Init(ctx); err != nil {
			return err
		}
	}
	return ts.trailing.Init(ctx)
}

// Next implements the fusion pull loop: drain the internal buffer first;
// otherwise pull from upstream, thread the record through every T→T
// operator (a record filtered to the empty set at any stage restarts the
// pull), then through the trailing operator, reverse the result into the
// buffer, and pop its top.
//
// A non-EOF/non-Wait error from upstream.Next is a genuine source fault and
// is returned as-is. An error from op.Process or trailing.Process is an
// operator fault: it is retried through the configured strategy, and on
// exhaustion the single offending record is dropped from the batch - it
// never aborts the pull loop, since one bad record must not fail the
// pipeline.
func (ts *TransformSource[T, R]) Next(ctx context.Context) (Record[R], error) {
	for {
		if n := len(ts.buffer); n > 0 {
			next := ts.buffer[n-1]
			ts.buffer = ts.buffer[:n-1]
			return next, nil
		}

		record, err := ts.upstream.Next(ctx)
		if err != nil {
			var zero Record[R]
			return zero, err
		}

		current := []Record[T]{record}
		for _, op := range ts.ops {
			next := make([]Record[T], 0, len(current))
			for _, c := range current {
				var out []Record[T]
				err := ts.handler.Retry(ctx, func() error {
					results, err := op.Process(ctx, c)
					if err != nil {
						return err
					}
					out = results
					return nil
				})
				if err != nil {
					ts.reportFailure(ctx, op.Name(), c, err)
					continue
				}
				next = append(next, out...)
			}
			current = next
			if len(current) == 0 {
				break
			}
		}
		if len(current) == 0 {
			continue
		}

		var results []Record[R]
		for _, c := range current {
			var out []Record[R]
			err := ts.handler.Retry(ctx, func() error {
				res, err := ts.trailing.Process(ctx, c)
				if err != nil {
					return err
				}
				out = res
				return nil
			})
			if err != nil {
				ts.reportFailure(ctx, ts.trailing.Name(), c, err)
				continue
			}
			results = append(results, out...)
		}

		if len(results) == 0 {
			continue
		}
		for i, j := 0, len(results)-1; i < j; i, j = i+1, j-1 {
			results[i], results[j] = results[j], results[i]
		}
		ts.buffer = results
	}
}

// OnWindowTrigger forwards the watermark tick to the trailing operator if
// it holds windowed state, and is a no-op otherwise. This is what lets
// Pipeline - which only ever sees the single fused Source[R] a
// TransformSource produces - reach a windowed operator buried at the end
// of the chain without knowing it's there. Operators in the T→T chain are
// never triggered.
func (ts *TransformSource[T, R]) OnWindowTrigger(ctx context.Context, nowMillis int64) ([]Record[R], error) {
	triggerable, ok := ts.trailing.(WindowTriggerable[R])
	if !ok {
		return nil, nil
	}
	return triggerable.OnWindowTrigger(ctx, nowMillis)
}

// Close closes the trailing operator, every T→T operator, and the
// upstream source, in that order, returning the first error encountered
// but still attempting every Close.
func (ts *TransformSource[T, R]) Close(ctx context.Context) error {
	var first error
	if err := ts.trailing.Close(ctx); err != nil && first == nil {
		first = err
	}
	for i := len(ts.ops) - 1; i >= 0; i-- {
		if err := ts.ops[i].Close(ctx); err != nil && first == nil {
			first = err
		}
	}
	if err := ts.upstream.Close(ctx); err != nil && first == nil {
		first = err
	}
	return first
}
