package streamflow

import (
	"context"
	"testing"
)

func intCmp(a, b int) int { return a - b }

func TestWindowSorterBinaryInsertsMaintainOrder(t *testing.T) {
	ctx := context.Background()
	cfg := WindowConfig{Type: Global()}
	ws := NewWindowSorter[int]("sort", cfg, intCmp)

	inputs := []int{5, 1, 3, 2, 4}
	var last []int
	for _, x := range inputs {
		out, err := ws.Process(ctx, Record[int]{Data: x})
		if err != nil {
			t.Fatalf("Process error: %v", err)
		}
		last = out[0].Data
	}

	want := []int{1, 2, 3, 4, 5}
	if len(last) != len(want) {
		t.Fatalf("final sorted vector = %v, want %v", last, want)
	}
	for i := range want {
		if last[i] != want[i] {
			t.Errorf("last[%d] = %d, want %d", i, last[i], want[i])
		}
	}
}

func TestWindowTimestampSorterDescending(t *testing.T) {
	ctx := context.Background()
	cfg := WindowConfig{Type: Global()}
	wts := NewWindowTimestampSorter[string]("sort-ts-desc", cfg, TimestampDescending)

	records := []Record[string]{
		{Data: "a", TimestampMillis: 100},
		{Data: "b", TimestampMillis: 300},
		{Data: "c", TimestampMillis: 200},
	}
	var last []Record[string]
	for _, r := range records {
		out, err := wts.Process(ctx, r)
		if err != nil {
			t.Fatalf("Process error: %v", err)
		}
		last = out[0].Data
	}

	wantOrder := []string{"b", "c", "a"}
	if len(last) != len(wantOrder) {
		t.Fatalf("final vector = %v, want length %d", last, len(wantOrder))
	}
	for i, want := range wantOrder {
		if last[i].Data != want {
			t.Errorf("last[%d].Data = %q, want %q", i, last[i].Data, want)
		}
	}
}
