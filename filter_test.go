package streamflow

import (
	"context"
	"testing"
)

// TestFilterOperatorEvens is the "Filter evens" literal scenario from
// spec.md §8: input [1,2,3,4,5], filter(x%2==0), expected [2,4].
func TestFilterOperatorEvens(t *testing.T) {
	ctx := context.Background()
	evens := NewFilterOperator("evens", func(n int) bool { return n%2 == 0 })

	var got []int
	for _, x := range []int{1, 2, 3, 4, 5} {
		out, err := evens.Process(ctx, Record[int]{Data: x})
		if err != nil {
			t.Fatalf("Process(%d) error: %v", x, err)
		}
		for _, r := range out {
			got = append(got, r.Data)
		}
	}

	want := []int{2, 4}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("got[%d] = %d, want %d", i, got[i], want[i])
		}
	}
}

// TestFilterOperatorSubset checks spec property 2: output multiset is a
// subset of the input multiset with order preserved.
func TestFilterOperatorSubset(t *testing.T) {
	ctx := context.Background()
	positives := NewFilterOperator("positives", func(n int) bool { return n > 0 })

	xs := []int{-2, 3, -1, 4, 0, 5}
	var got []int
	for _, x := range xs {
		out, err := positives.Process(ctx, Record[int]{Data: x})
		if err != nil {
			t.Fatalf("Process(%d) error: %v", x, err)
		}
		for _, r := range out {
			got = append(got, r.Data)
		}
	}

	want := []int{3, 4, 5}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("got[%d] = %d, want %d", i, got[i], want[i])
		}
	}
}

func TestFilterOperatorDefaultName(t *testing.T) {
	f := NewFilterOperator("custom", func(int) bool { return true })
	if f.Name() != "custom" {
		t.Errorf("Name() = %q, want %q", f.Name(), "custom")
	}
}
