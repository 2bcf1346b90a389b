package streamflow

import (
	"context"
	"testing"
)

func TestPipelineBuilderLinearChainDeliversAllRecords(t *testing.T) {
	ctx := context.Background()
	src := NewCollectionSource(RealClock, []int{1, 2, 3, 4})
	sink := NewCollectionSink[int]()
	evens := NewFilterOperator("evens", func(x int) bool { return x%2 == 0 })

	result, err := NewPipelineBuilder[int]().
		Source(src).
		AddOperator(evens).
		Sink(sink).
		WithRetryStrategy(NoRetry{}).
		WithClock(RealClock).
		Execute(ctx)
	if err != nil {
		t.Fatalf("Execute error: %v", err)
	}
	if result.Status != StatusCompleted {
		t.Fatalf("status = %v, want Completed", result.Status)
	}

	got := sink.Items()
	want := []int{2, 4}
	if len(got) != len(want) {
		t.Fatalf("items = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("got[%d] = %d, want %d", i, got[i], want[i])
		}
	}
}

func TestPipelineBuilderParallelModeDeliversAllRecords(t *testing.T) {
	ctx := context.Background()
	src := NewCollectionSource(RealClock, []int{1, 2, 3, 4, 5})
	sink := NewCollectionSink[int]()
	doubler := NewMapOperator("double", func(x int) int { return x * 2 })

	result, err := NewPipelineBuilder[int]().
		Source(src).
		AddOperator(doubler).
		Sink(sink).
		Parallel(ParallelConfig{Parallelism: 2, BufferSize: 4}).
		WithClock(RealClock).
		Execute(ctx)
	if err != nil {
		t.Fatalf("Execute error: %v", err)
	}
	if result.Status != StatusCompleted {
		t.Fatalf("status = %v, want Completed", result.Status)
	}

	sum := 0
	for _, v := range sink.Items() {
		sum += v
	}
	if want := 2 * (1 + 2 + 3 + 4 + 5); sum != want {
		t.Errorf("sum of delivered items = %d, want %d", sum, want)
	}
}

func TestPipelineBuilderWindowConfiguresWatermarkCadence(t *testing.T) {
	b := NewPipelineBuilder[int]().Window(WindowConfig{Type: Tumbling(0)})
	if b.opts.WatermarkDelay != 0 {
		t.Errorf("WatermarkDelay = %v, want 0 (zero cfg.WatermarkDelay must not override the default)", b.opts.WatermarkDelay)
	}

	b = NewPipelineBuilder[int]().Window(WindowConfig{Type: Tumbling(0), WatermarkDelay: 250})
	if b.opts.WatermarkDelay != 250 {
		t.Errorf("WatermarkDelay = %v, want 250", b.opts.WatermarkDelay)
	}
}
