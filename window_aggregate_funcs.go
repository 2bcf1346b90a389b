package streamflow

import "fmt"

// Common WindowAccumulateFunc implementations for WindowAggregator,
// covering the running statistics spec.md's aggregation family is meant to
// support (sums, counts, averages, min/max) without every caller having to
// write its own fold function.

// SumFold returns a fold that sums numeric values.
func SumFold[T ~int | ~int32 | ~int64 | ~float32 | ~float64]() WindowAccumulateFunc[T, T] {
	return func(sum T, item T) T { return sum + item }
}

// CountFold returns a fold that counts records.
func CountFold[T any]() WindowAccumulateFunc[T, int] {
	return func(count int, _ T) int { return count + 1 }
}

// Average is the running-average accumulator produced by AverageFold.
type Average struct {
	Sum   float64
	Count int
}

// Value returns the computed average, or 0 if no values have been folded.
func (a Average) Value() float64 {
	if a.Count == 0 {
		return 0
	}
	return a.Sum / float64(a.Count)
}

// AverageFold returns a fold that maintains a running average.
func AverageFold[T ~int | ~int32 | ~int64 | ~float32 | ~float64]() WindowAccumulateFunc[T, Average] {
	return func(avg Average, item T) Average {
		avg.Sum += float64(item)
		avg.Count++
		return avg
	}
}

// MinMax is the running min/max accumulator produced by MinMaxFold.
type MinMax[T comparable] struct {
	Min   T
	Max   T
	Count int
}

// String renders the accumulator for debugging.
func (mm MinMax[T]) String() string {
	return fmt.Sprintf("Min: %v, Max: %v, Count: %d", mm.Min, mm.Max, mm.Count)
}

// MinMaxFold returns a fold that tracks the minimum and maximum values
// seen so far.
func MinMaxFold[T ~int | ~int32 | ~int64 | ~float32 | ~float64]() WindowAccumulateFunc[T, MinMax[T]] {
	return func(mm MinMax[T], item T) MinMax[T] {
		if mm.Count == 0 {
			return MinMax[T]{Min: item, Max: item, Count: 1}
		}
		if item < mm.Min {
			mm.Min = item
		}
		if item > mm.Max {
			mm.Max = item
		}
		mm.Count++
		return mm
	}
}
