package streamflow

import (
	"context"
	"errors"
	"testing"
)

func TestDeadLetterSinkCapturesFailure(t *testing.T) {
	ctx := context.Background()
	inner := NewCollectionSink[FailedRecord[int]]()
	dlq := NewDeadLetterSink[int](inner)
	if err := dlq.Init(ctx); err != nil {
		t.Fatalf("Init error: %v", err)
	}

	cause := errors.New("boom")
	if err := dlq.Reject(ctx, Record[int]{Data: 7, TimestampMillis: 100}, "map", cause); err != nil {
		t.Fatalf("Reject error: %v", err)
	}

	items := inner.Items()
	if len(items) != 1 {
		t.Fatalf("captured %d failures, want 1", len(items))
	}
	if items[0].Record.Data != 7 || items[0].Stage != "map" || !errors.Is(items[0].Err, cause) {
		t.Errorf("captured = %+v, want Record.Data=7 Stage=map Err=%v", items[0], cause)
	}
}

// TestDeadLetterSinkReachableFromOnFailedRecord confirms a DeadLetterSink
// can actually be wired to a Pipeline's retry-exhaustion callback: the
// callback carries a Record[any], which DeadLetterSink[any] accepts
// directly without any type assertion on the caller's part.
func TestDeadLetterSinkReachableFromOnFailedRecord(t *testing.T) {
	ctx := context.Background()
	src := NewCollectionSource(RealClock, []int{1})
	sink := &alwaysFailSink{}

	inner := NewCollectionSink[FailedRecord[any]]()
	dlq := NewDeadLetterSink[any](inner)
	if err := dlq.Init(ctx); err != nil {
		t.Fatalf("dlq Init error: %v", err)
	}

	p := NewPipeline[int](src, sink, PipelineOptions{
		Clock:         RealClock,
		RetryStrategy: NoRetry{},
		OnFailedRecord: func(ctx context.Context, stage string, record Record[any], err error) {
			if rejectErr := dlq.Reject(ctx, record, stage, err); rejectErr != nil {
				t.Errorf("Reject error: %v", rejectErr)
			}
		},
	})

	if _, err := p.Execute(ctx); err != nil {
		t.Fatalf("Execute error: %v", err)
	}

	items := inner.Items()
	if len(items) != 1 {
		t.Fatalf("dlq captured %d records, want 1", len(items))
	}
	if items[0].Record.Data != 1 || items[0].Stage != "sink" {
		t.Errorf("captured = %+v, want Record.Data=1 Stage=sink", items[0])
	}
}
