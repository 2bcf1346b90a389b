package streamflow

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"
)

// ParallelConfig configures parallel-mode execution: how many workers run
// each stage, how deep the inter-stage buffers are, and whether order
// across workers is worth preserving.
type ParallelConfig struct {
	// Parallelism is the number of worker goroutines per stage.
	Parallelism int
	// BufferSize is the capacity of each inter-stage channel.
	BufferSize int
	// PreserveOrder is advisory only: the runtime does not install a
	// reordering fence, so downstream order may interleave across workers
	// even when this is true.
	PreserveOrder bool
}

func (cfg ParallelConfig) defaulted() ParallelConfig {
	if cfg.Parallelism <= 0 {
		cfg.Parallelism = 1
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 1
	}
	return cfg
}

// RuntimeContext drives a Source[T] through zero or more same-type
// Operator stages to a Sink[T], running Parallelism workers per stage
// connected by bounded channels, per spec.md §4.8's parallel mode. Each
// stage's workers share one inbound channel and fan results into the
// next stage's inbound channel; the final stage writes to sink.
type RuntimeContext[T any] struct {
	source Source[T]
	ops    []Operator[T, T]
	sink   Sink[T]
	cfg    ParallelConfig
	opts   PipelineOptions

	handler *ErrorHandler
	status  PipelineStatus
}

// NewRuntimeContext creates a parallel-mode runtime. ops may be nil, in
// which case the source is expected to already carry the full operator
// chain (as DataStream.ToSource fuses it) and workers pull directly from
// source to sink. If source was built by fusing an operator chain through
// TransformSource, its operators are wired to run under the same retry
// strategy, metrics registry, and failure callback as the runtime itself.
func NewRuntimeContext[T any](source Source[T], ops []Operator[T, T], sink Sink[T], cfg ParallelConfig, opts PipelineOptions) *RuntimeContext[T] {
	opts = opts.defaulted()
	handler := NewErrorHandler(opts.RetryStrategy, opts.Clock)
	if configurable, ok := source.(errorHandlingConfigurable); ok {
		configurable.configureErrorHandling(handler, opts.Metrics, opts.OnFailedRecord)
	}
	return &RuntimeContext[T]{
		source:  source,
		ops:     ops,
		sink:    sink,
		cfg:     cfg.defaulted(),
		opts:    opts,
		handler: handler,
		status:  StatusReady,
	}
}

// Status returns the runtime's current lifecycle status.
func (rc *RuntimeContext[T]) Status() PipelineStatus { return rc.status }

// Execute initialises every stage, runs the worker pools to completion,
// and flushes/closes the sink. It returns once the source is exhausted
// (Completed) or a fatal error occurs anywhere in the chain (Failed).
func (rc *RuntimeContext[T]) Execute(ctx context.Context) (*PipelineResult, error) {
	if err := rc.source.Init(ctx); err != nil {
		rc.status = StatusFailed
		return rc.result(err), err
	}
	for _, op := range rc.ops {
		if err := op.Init(ctx); err != nil {
			rc.status = StatusFailed
			return rc.result(err), err
		}
	}
	if err := rc.sink.Init(ctx); err != nil {
		rc.status = StatusFailed
		return rc.result(err), err
	}

	rc.status = StatusRunning
	group, groupCtx := errgroup.WithContext(ctx)

	stages := len(rc.ops) + 1
	queues := make([]chan Record[T], stages)
	for i := range queues {
		queues[i] = make(chan Record[T], rc.cfg.BufferSize)
	}

	group.Go(func() error {
		return rc.runSource(groupCtx, queues[0])
	})

	for i, op := range rc.ops {
		rc.runStage(group, groupCtx, op, queues[i], queues[i+1])
	}

	rc.runSink(group, groupCtx, queues[stages-1])

	err := group.Wait()
	_ = rc.sink.Flush(ctx)
	_ = rc.sink.Close(ctx)
	for _, op := range rc.ops {
		_ = op.Close(ctx)
	}

	if err != nil {
		rc.status = StatusFailed
		return rc.result(err), err
	}
	rc.status = StatusCompleted
	return rc.result(nil), nil
}

// runSource pulls from the source until EOF, admitting each record into
// out under the configured BackpressureStrategy, then closes out.
func (rc *RuntimeContext[T]) runSource(ctx context.Context, out chan Record[T]) error {
	defer close(out)
	defer func() { _ = rc.source.Close(ctx) }()

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		record, err := rc.source.Next(ctx)
		if IsEOF(err) {
			return nil
		}
		if delay, waiting := IsWait(err); waiting {
			select {
			case <-rc.opts.Clock.After(delay):
			case <-ctx.Done():
				return nil
			}
			continue
		}
		if err != nil {
			return err
		}

		rc.admit(ctx, out, record)
	}
}

// runStage spawns Parallelism workers processing in from op and admitting
// results into out, then closes out once every worker has drained in.
func (rc *RuntimeContext[T]) runStage(group *errgroup.Group, ctx context.Context, op Operator[T, T], in <-chan Record[T], out chan Record[T]) {
	var wg sync.WaitGroup
	wg.Add(rc.cfg.Parallelism)

	for w := 0; w < rc.cfg.Parallelism; w++ {
		group.Go(func() error {
			defer wg.Done()
			for record := range in {
				results, err := rc.processWithRetry(ctx, op, record)
				if err != nil {
					rc.opts.Metrics.Counter(MetricRecordsFailed).Inc()
					if rc.opts.OnFailedRecord != nil {
						rc.opts.OnFailedRecord(ctx, op.Name(), Record[any]{Data: record.Data, TimestampMillis: record.TimestampMillis}, err)
					}
					continue
				}
				for _, result := range results {
					rc.admit(ctx, out, result)
				}
			}
			return nil
		})
	}

	group.Go(func() error {
		wg.Wait()
		close(out)
		return nil
	})
}

// processWithRetry runs op.Process under the configured RetryStrategy.
func (rc *RuntimeContext[T]) processWithRetry(ctx context.Context, op Operator[T, T], record Record[T]) ([]Record[T], error) {
	var results []Record[T]
	err := rc.handler.Retry(ctx, func() error {
		out, err := op.Process(ctx, record)
		if err != nil {
			return err
		}
		results = out
		return nil
	})
	return results, err
}

// runSink spawns Parallelism workers writing in to the sink under the
// configured RetryStrategy.
func (rc *RuntimeContext[T]) runSink(group *errgroup.Group, ctx context.Context, in <-chan Record[T]) {
	for w := 0; w < rc.cfg.Parallelism; w++ {
		group.Go(func() error {
			for record := range in {
				err := rc.handler.Retry(ctx, func() error {
					return rc.sink.Write(ctx, record)
				})
				if err != nil {
					rc.opts.Metrics.Counter(MetricRecordsFailed).Inc()
					if rc.opts.OnFailedRecord != nil {
						rc.opts.OnFailedRecord(ctx, "sink", Record[any]{Data: record.Data, TimestampMillis: record.TimestampMillis}, err)
					}
					continue
				}
				rc.opts.Metrics.Counter(MetricRecordsProcessed).Inc()
			}
			return nil
		})
	}
}

// admit pushes record into out per the configured BackpressureStrategy:
// Block sends (or abandons the record if ctx is cancelled first), while
// DropOldest/DropNewest implement lossy buffer-admission policies on the
// channel itself rather than pausing upstream, per the teacher's dropping
// and sliding buffer processors.
func (rc *RuntimeContext[T]) admit(ctx context.Context, out chan Record[T], record Record[T]) {
	switch rc.opts.BackpressureStrategy.(type) {
	case DropNewestBackpressure:
		select {
		case out <- record:
		case <-ctx.Done():
		default:
			rc.opts.Metrics.Counter(MetricRecordsDropped).Inc()
		}
	case DropOldestBackpressure:
		select {
		case out <- record:
		case <-ctx.Done():
		default:
			select {
			case <-out:
			default:
			}
			select {
			case out <- record:
			case <-ctx.Done():
			}
			rc.opts.Metrics.Counter(MetricRecordsDropped).Inc()
		}
	default:
		select {
		case out <- record:
		case <-ctx.Done():
		}
	}
}

func (rc *RuntimeContext[T]) result(err error) *PipelineResult {
	return &PipelineResult{
		Status:  rc.status,
		Metrics: rc.opts.Metrics.Snapshot(),
		Err:     err,
	}
}
