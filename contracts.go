package streamflow

import "context"

// Source produces the records a DataStream pulls from. Sources are
// single-consumer: both Pipeline and RuntimeContext call Next from a
// single goroutine, so implementations don't need their own
// synchronization unless they share state with something else.
//
// Next returns the next record, or a *StreamError of kind KindEOF when the
// source is exhausted (equivalent to returning "no more data"), or kind
// KindWait when no data is available yet and the caller should sleep for
// Delay before calling again without that counting as a failure. Any other
// error is fatal and aborts the pipeline.
type Source[T any] interface {
	Init(ctx context.Context) error
	Next(ctx context.Context) (Record[T], error)
	Close(ctx context.Context) error
}

// Sink consumes the records that survive a DataStream's operator chain.
// Write must be safe to call more than once for the same record: the
// runtime may retry a failed write under a RetryStrategy. Flush must
// durably push any buffered output; Close implies a final flush.
type Sink[T any] interface {
	Init(ctx context.Context) error
	Write(ctx context.Context, record Record[T]) error
	Flush(ctx context.Context) error
	Close(ctx context.Context) error
}

// Operator transforms one record into zero, one, or many output records.
// Filter returns zero records to drop an input; Map returns exactly one;
// FlatMap and multi-window fan-out return many.
type Operator[In, Out any] interface {
	Init(ctx context.Context) error
	Process(ctx context.Context, record Record[In]) ([]Record[Out], error)
	Close(ctx context.Context) error

	// Name identifies the operator for metrics and error reporting.
	Name() string
}

// WindowTriggerable is implemented by operators that hold windowed state.
// The linear runtime (Pipeline) calls OnWindowTrigger whenever the
// watermark advances; RuntimeContext never calls it. The operator returns any records for windows that are now expired (past
// their WindowConfig.AllowLateness deadline) and evicts that state.
// Operators that don't hold windowed state simply don't implement this
// interface - the runtime type-asserts for it rather than requiring every
// Operator to provide a no-op.
type WindowTriggerable[Out any] interface {
	OnWindowTrigger(ctx context.Context, nowMillis int64) ([]Record[Out], error)
}
