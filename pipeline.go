package streamflow

import (
	"context"
	"time"
)

// PipelineStatus reports a Pipeline's lifecycle, monotonic except that
// Failed is terminal: Ready -> Running -> Completed, or Running -> Failed.
type PipelineStatus int

const (
	// StatusReady means Init has not yet run.
	StatusReady PipelineStatus = iota
	// StatusRunning means Execute is driving the source loop.
	StatusRunning
	// StatusCompleted means the source reached EOF and everything was
	// flushed and closed cleanly.
	StatusCompleted
	// StatusFailed is terminal: the source raised a fatal (non-EOF,
	// non-Wait) error.
	StatusFailed
)

// String renders the status for logging.
func (s PipelineStatus) String() string {
	switch s {
	case StatusReady:
		return "ready"
	case StatusRunning:
		return "running"
	case StatusCompleted:
		return "completed"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// PipelineOptions configures a single Pipeline or RuntimeContext run:
// retry/backpressure policy, windowed-operator trigger cadence, and where
// records go once they exhaust their retry budget.
//
//nolint:govet // fieldalignment: struct layout optimized for readability
type PipelineOptions struct {
	RetryStrategy        RetryStrategy
	BackpressureStrategy BackpressureStrategy
	WatermarkDelay       time.Duration
	Clock                Clock
	Metrics              *Metrics
	OnFailedRecord       func(ctx context.Context, stage string, record Record[any], err error)
}

// defaulted fills in the zero-value fields of opts with the spec's
// defaults: no retry, blocking backpressure, real wall-clock time, a
// fresh metrics registry, and a 100ms watermark tick.
func (opts PipelineOptions) defaulted() PipelineOptions {
	if opts.RetryStrategy == nil {
		opts.RetryStrategy = NoRetry{}
	}
	if opts.BackpressureStrategy == nil {
		opts.BackpressureStrategy = BlockBackpressure{}
	}
	if opts.Clock == nil {
		opts.Clock = RealClock
	}
	if opts.Metrics == nil {
		opts.Metrics = NewMetrics()
	}
	if opts.WatermarkDelay <= 0 {
		opts.WatermarkDelay = 100 * time.Millisecond
	}
	return opts
}

// PipelineResult summarises a completed or failed Pipeline run.
type PipelineResult struct {
	Status  PipelineStatus
	Metrics map[string]MetricValue
	Err     error
}

// Pipeline drives a single fused Source[T] to a Sink[T] on one task:
// linear mode, per spec.md §4.8. Suitable whenever the operator chain has
// already been fused through TransformSource, which is the common case
// DataStream builds.
type Pipeline[T any] struct {
	source    Source[T]
	sink      Sink[T]
	opts      PipelineOptions
	handler   *ErrorHandler
	bp        *BackpressureController
	status    PipelineStatus
	watermark AtomicTime
}

// NewPipeline creates a linear-mode Pipeline over source and sink. If
// source was built by fusing an operator chain through TransformSource,
// its operators are wired to run under the same retry strategy, metrics
// registry, and failure callback as the pipeline itself.
func NewPipeline[T any](source Source[T], sink Sink[T], opts PipelineOptions) *Pipeline[T] {
	opts = opts.defaulted()
	handler := NewErrorHandler(opts.RetryStrategy, opts.Clock)
	if configurable, ok := source.(errorHandlingConfigurable); ok {
		configurable.configureErrorHandling(handler, opts.Metrics, opts.OnFailedRecord)
	}
	return &Pipeline[T]{
		source:  source,
		sink:    sink,
		opts:    opts,
		handler: handler,
		bp:      NewBackpressureController(opts.BackpressureStrategy),
		status:  StatusReady,
	}
}

// Status returns the pipeline's current lifecycle status.
func (p *Pipeline[T]) Status() PipelineStatus { return p.status }

// Execute initialises the source and sink, then loops: poll the source on
// a select racing a 100ms watermark ticker, write each survivor to the
// sink under the retry strategy, and on watermark tick advance the
// watermark and trigger any WindowTriggerable operator fused into the
// source. It returns once the source reaches EOF (Completed) or a fatal
// source error occurs (Failed).
func (p *Pipeline[T]) Execute(ctx context.Context) (*PipelineResult, error) {
	if err := p.source.Init(ctx); err != nil {
		p.status = StatusFailed
		return p.result(err), err
	}
	if err := p.sink.Init(ctx); err != nil {
		p.status = StatusFailed
		return p.result(err), err
	}

	p.status = StatusRunning
	ticker := p.opts.Clock.NewTicker(p.opts.WatermarkDelay)
	defer ticker.Stop()

	var lastWatermark int64

	for {
		select {
		case <-ctx.Done():
			p.finish(ctx)
			p.status = StatusFailed
			return p.result(ctx.Err()), ctx.Err()

		case <-ticker.C():
			now := p.watermarkMillis()
			if now-lastWatermark >= p.opts.WatermarkDelay.Milliseconds() {
				lastWatermark = now
				if triggerable, ok := p.source.(WindowTriggerable[T]); ok {
					records, err := triggerable.OnWindowTrigger(ctx, now)
					if err == nil {
						for _, record := range records {
							p.writeWithRetry(ctx, record, "window-trigger")
						}
					}
				}
			}

		default:
			if p.bp.ShouldApplyBackpressure() {
				if delay, ok := p.bp.GetBackoff(); ok {
					select {
					case <-p.opts.Clock.After(delay):
					case <-ctx.Done():
					}
				}
				// The brake has been honoured for the last observed load;
				// clear it so the next pass polls the source again.
				p.bp.UpdateLoad(0)
				continue
			}

			start := p.opts.Clock.Now()
			record, err := p.source.Next(ctx)
			p.opts.Metrics.Timer(MetricStageElapsed).Observe(p.opts.Clock.Now().Sub(start).Microseconds())

			if IsEOF(err) {
				p.finish(ctx)
				p.status = StatusCompleted
				return p.result(nil), nil
			}
			if delay, waiting := IsWait(err); waiting {
				select {
				case <-p.opts.Clock.After(delay):
				case <-ctx.Done():
				}
				continue
			}
			if err != nil {
				p.finish(ctx)
				p.status = StatusFailed
				return p.result(err), err
			}

			p.watermark.Advance(time.UnixMilli(record.TimestampMillis))
			p.bp.UpdateLoad(1)
			p.writeWithRetry(ctx, record, "sink")
		}
	}
}

// watermarkMillis returns the greater of wall-clock time and the event-time
// watermark (the latest record timestamp seen so far, delayed by
// WatermarkDelay to tolerate out-of-order arrival). Wall-clock time alone
// keeps window triggers firing on schedule even when the source stalls
// between records, as a processing-time trigger does; the event-time
// watermark lets replayed or historically-timestamped data expire windows
// by its own clock rather than waiting on ingestion speed.
func (p *Pipeline[T]) watermarkMillis() int64 {
	wallClock := p.opts.Clock.Now().UnixMilli()
	observed := p.watermark.Load()
	if observed.IsZero() {
		return wallClock
	}
	if eventWatermark := observed.UnixMilli() - p.opts.WatermarkDelay.Milliseconds(); eventWatermark > wallClock {
		return eventWatermark
	}
	return wallClock
}

// writeWithRetry writes record to the sink under the configured
// RetryStrategy; on exhaustion it increments records_failed, reports the
// failure via OnFailedRecord if set, and drops the record rather than
// aborting the pipeline.
func (p *Pipeline[T]) writeWithRetry(ctx context.Context, record Record[T], stage string) {
	err := p.handler.Retry(ctx, func() error {
		return p.sink.Write(ctx, record)
	})
	if err != nil {
		p.opts.Metrics.Counter(MetricRecordsFailed).Inc()
		if p.opts.OnFailedRecord != nil {
			p.opts.OnFailedRecord(ctx, stage, Record[any]{Data: record.Data, TimestampMillis: record.TimestampMillis}, err)
		}
		return
	}
	p.opts.Metrics.Counter(MetricRecordsProcessed).Inc()
}

// finish flushes and closes the sink and closes the source, best-effort.
func (p *Pipeline[T]) finish(ctx context.Context) {
	_ = p.sink.Flush(ctx)
	_ = p.sink.Close(ctx)
	_ = p.source.Close(ctx)
}

func (p *Pipeline[T]) result(err error) *PipelineResult {
	return &PipelineResult{
		Status:  p.status,
		Metrics: p.opts.Metrics.Snapshot(),
		Err:     err,
	}
}
