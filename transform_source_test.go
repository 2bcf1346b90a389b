package streamflow

import (
	"context"
	"errors"
	"testing"
	"time"
)

// sliceSource is a minimal Source[T] backed by an in-memory slice, used by
// the tests in this file as a stand-in upstream.
type sliceSource[T any] struct {
	items []T
	pos   int
}

func newSliceSource[T any](items ...T) *sliceSource[T] {
	return &sliceSource[T]{items: items}
}

func (s *sliceSource[T]) Init(_ context.Context) error { return nil }

func (s *sliceSource[T]) Next(_ context.Context) (Record[T], error) {
	if s.pos >= len(s.items) {
		var zero Record[T]
		return zero, NewEOFError("sliceSource")
	}
	item := s.items[s.pos]
	s.pos++
	return Record[T]{Data: item, TimestampMillis: int64(s.pos)}, nil
}

func (s *sliceSource[T]) Close(_ context.Context) error { return nil }

func TestTransformSourceFusesFilterAndMap(t *testing.T) {
	ctx := context.Background()
	upstream := newSliceSource(1, 2, 3, 4, 5, 6)
	evens := NewFilterOperator("evens", func(x int) bool { return x%2 == 0 })
	doubler := NewMapOperator("double", func(x int) int { return x * 2 })

	ts := NewTransformSource[int, int](upstream, []Operator[int, int]{evens, doubler}, IdentityOperator[int]())
	if err := ts.Init(ctx); err != nil {
		t.Fatalf("Init error: %v", err)
	}

	var got []int
	for {
		record, err := ts.Next(ctx)
		if IsEOF(err) {
			break
		}
		if err != nil {
			t.Fatalf("Next error: %v", err)
		}
		got = append(got, record.Data)
	}

	want := []int{4, 8, 12}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("got[%d] = %d, want %d", i, got[i], want[i])
		}
	}
}

// flakyOperator fails on a chosen input value until failsRemaining is
// exhausted, then succeeds; every other input always succeeds.
type flakyOperator struct {
	name           string
	failOn         int
	failsRemaining int
}

func (f *flakyOperator) Init(_ context.Context) error { return nil }

func (f *flakyOperator) Process(_ context.Context, record Record[int]) ([]Record[int], error) {
	if record.Data == f.failOn && f.failsRemaining > 0 {
		f.failsRemaining--
		return nil, errors.New("flaky failure")
	}
	return []Record[int]{record}, nil
}

func (f *flakyOperator) Close(_ context.Context) error { return nil }
func (f *flakyOperator) Name() string                  { return f.name }

// TestTransformSourceSkipsRecordAfterOperatorRetryExhaustion confirms an
// operator failure never aborts Next as if it were a source fault: with the
// default NoRetry handler the offending record is dropped from the batch
// and the pull loop moves on to the next upstream record.
func TestTransformSourceSkipsRecordAfterOperatorRetryExhaustion(t *testing.T) {
	ctx := context.Background()
	upstream := newSliceSource(1, 2, 3, 4)
	flaky := &flakyOperator{name: "flaky", failOn: 3, failsRemaining: 100}

	var failedStages []string
	var failedRecords []any
	ts := NewTransformSource[int, int](upstream, []Operator[int, int]{flaky}, IdentityOperator[int]())
	ts.configureErrorHandling(NewErrorHandler(NoRetry{}, RealClock), NewMetrics(), func(_ context.Context, stage string, record Record[any], _ error) {
		failedStages = append(failedStages, stage)
		failedRecords = append(failedRecords, record.Data)
	})
	if err := ts.Init(ctx); err != nil {
		t.Fatalf("Init error: %v", err)
	}

	var got []int
	for {
		record, err := ts.Next(ctx)
		if IsEOF(err) {
			break
		}
		if err != nil {
			t.Fatalf("Next returned an operator error instead of skipping: %v", err)
		}
		got = append(got, record.Data)
	}

	want := []int{1, 2, 4}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("got[%d] = %d, want %d", i, got[i], want[i])
		}
	}
	if len(failedStages) != 1 || failedStages[0] != "flaky" {
		t.Errorf("failedStages = %v, want [flaky]", failedStages)
	}
	if len(failedRecords) != 1 || failedRecords[0] != 3 {
		t.Errorf("failedRecords = %v, want [3]", failedRecords)
	}
}

// TestTransformSourceRetriesOperatorBeforeSkipping confirms a configured
// retry strategy is actually exercised: a record that fails twice but
// succeeds on its third attempt survives rather than being skipped.
func TestTransformSourceRetriesOperatorBeforeSkipping(t *testing.T) {
	ctx := context.Background()
	upstream := newSliceSource(1, 2, 3)
	flaky := &flakyOperator{name: "flaky", failOn: 2, failsRemaining: 2}

	failures := 0
	ts := NewTransformSource[int, int](upstream, []Operator[int, int]{flaky}, IdentityOperator[int]())
	ts.configureErrorHandling(
		NewErrorHandler(FixedRetry{DelayDuration: time.Microsecond, MaxAttempts: 5}, RealClock),
		NewMetrics(),
		func(_ context.Context, _ string, _ Record[any], _ error) { failures++ },
	)
	if err := ts.Init(ctx); err != nil {
		t.Fatalf("Init error: %v", err)
	}

	var got []int
	for {
		record, err := ts.Next(ctx)
		if IsEOF(err) {
			break
		}
		if err != nil {
			t.Fatalf("Next error: %v", err)
		}
		got = append(got, record.Data)
	}

	want := []int{1, 2, 3}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("got[%d] = %d, want %d", i, got[i], want[i])
		}
	}
	if failures != 0 {
		t.Errorf("failures = %d, want 0 (retry should have recovered before exhaustion)", failures)
	}
}

func TestTransformSourceBuffersMultiRecordFanout(t *testing.T) {
	ctx := context.Background()
	upstream := newSliceSource(1, 2)
	duplicate := NewFlatMapOperator("dup", func(x int) []int { return []int{x, x} })

	ts := NewTransformSource[int, int](upstream, nil, duplicate)
	if err := ts.Init(ctx); err != nil {
		t.Fatalf("Init error: %v", err)
	}

	var got []int
	for i := 0; i < 4; i++ {
		record, err := ts.Next(ctx)
		if err != nil {
			t.Fatalf("Next error: %v", err)
		}
		got = append(got, record.Data)
	}

	want := []int{1, 1, 2, 2}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("got[%d] = %d, want %d", i, got[i], want[i])
		}
	}
}
