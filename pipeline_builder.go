package streamflow

import "context"

// PipelineBuilder is the fluent entry point for assembling a Pipeline or
// RuntimeContext without going through DataStream: Source, AddOperator,
// Sink, Window, Parallel, WithRetryStrategy, and WithBackpressureStrategy
// each return the builder so calls chain, and Execute runs the assembled
// pipeline to completion.
//
// Unlike DataStream's free-function combinators (Map, FlatMap, Window...),
// a builder method cannot introduce a new type parameter - a method on
// PipelineBuilder[T] is stuck with T for its whole chain. AddOperator is
// therefore limited to T→T operators, and Window only configures watermark
// cadence rather than installing a type-changing windowed operator; reach
// for DataStream when the chain needs to change types.
//
//nolint:govet // fieldalignment: struct layout optimized for readability
type PipelineBuilder[T any] struct {
	source   Source[T]
	ops      []Operator[T, T]
	sink     Sink[T]
	parallel *ParallelConfig
	opts     PipelineOptions
}

// NewPipelineBuilder creates an empty PipelineBuilder.
func NewPipelineBuilder[T any]() *PipelineBuilder[T] {
	return &PipelineBuilder[T]{}
}

// Source sets the upstream source.
func (b *PipelineBuilder[T]) Source(s Source[T]) *PipelineBuilder[T] {
	b.source = s
	return b
}

// AddOperator appends a T→T operator to the chain, applied in call order.
func (b *PipelineBuilder[T]) AddOperator(op Operator[T, T]) *PipelineBuilder[T] {
	b.ops = append(b.ops, op)
	return b
}

// Sink sets the terminal sink.
func (b *PipelineBuilder[T]) Sink(k Sink[T]) *PipelineBuilder[T] {
	b.sink = k
	return b
}

// Window sets the watermark tick cadence from cfg.WatermarkDelay. It does
// not install a windowed operator. Operators added via AddOperator are
// fused ahead of an identity trailing operator, and the fused source
// forwards watermark ticks only to its trailing operator, so a windowed
// operator added here is never sent OnWindowTrigger; DataStream's Window
// combinators install the windowed operator as the trailing one.
func (b *PipelineBuilder[T]) Window(cfg WindowConfig) *PipelineBuilder[T] {
	if cfg.WatermarkDelay > 0 {
		b.opts.WatermarkDelay = cfg.WatermarkDelay
	}
	return b
}

// Parallel switches execution to parallel mode under cfg; omit this call
// for single-task linear mode.
func (b *PipelineBuilder[T]) Parallel(cfg ParallelConfig) *PipelineBuilder[T] {
	b.parallel = &cfg
	return b
}

// WithRetryStrategy sets the RetryStrategy applied to both operator and
// sink failures.
func (b *PipelineBuilder[T]) WithRetryStrategy(rs RetryStrategy) *PipelineBuilder[T] {
	b.opts.RetryStrategy = rs
	return b
}

// WithBackpressureStrategy sets the BackpressureStrategy: the upstream
// brake in linear mode, and the inter-stage admission policy in parallel
// mode.
func (b *PipelineBuilder[T]) WithBackpressureStrategy(bs BackpressureStrategy) *PipelineBuilder[T] {
	b.opts.BackpressureStrategy = bs
	return b
}

// WithClock overrides the clock driving retry backoff and watermark ticks;
// tests use this to inject a fake clock.
func (b *PipelineBuilder[T]) WithClock(clock Clock) *PipelineBuilder[T] {
	b.opts.Clock = clock
	return b
}

// WithMetrics overrides the metrics registry, letting a caller share one
// registry across several pipelines.
func (b *PipelineBuilder[T]) WithMetrics(metrics *Metrics) *PipelineBuilder[T] {
	b.opts.Metrics = metrics
	return b
}

// WithOnFailedRecord sets the callback invoked when a record exhausts its
// retry budget at any stage (operator or sink).
func (b *PipelineBuilder[T]) WithOnFailedRecord(fn func(ctx context.Context, stage string, record Record[any], err error)) *PipelineBuilder[T] {
	b.opts.OnFailedRecord = fn
	return b
}

// Execute fuses the operator chain onto the source via TransformSource and
// runs it to completion: parallel mode if Parallel was called, linear mode
// otherwise.
func (b *PipelineBuilder[T]) Execute(ctx context.Context) (*PipelineResult, error) {
	source := b.source
	if len(b.ops) > 0 {
		source = NewTransformSource[T, T](b.source, b.ops, IdentityOperator[T]())
	}

	if b.parallel != nil {
		rc := NewRuntimeContext[T](source, nil, b.sink, *b.parallel, b.opts)
		return rc.Execute(ctx)
	}
	p := NewPipeline[T](source, b.sink, b.opts)
	return p.Execute(ctx)
}
