package streamflow

import (
	"container/heap"
	"context"
	"sort"
)

// Combinators derived from WindowAggregator, each supplying a specific
// accumulator type and fold function rather than a bespoke operator. A
// combinator whose emitted type equals its accumulator type (Distinct,
// Tail, WindowLimit) returns the *WindowAggregator directly; one that must
// project a richer accumulator down to its emitted vector (DistinctByKey,
// TopK, TopKByKey, Sort) returns a *projectedAggregator wrapping it. Both
// satisfy the Operator[T, R] contract.

// Distinct returns a WindowAggregator whose accumulator is the set of
// distinct values seen so far in the window, materialised to a vector on
// every emit.
func Distinct[T comparable](name string, cfg WindowConfig) *WindowAggregator[T, []T] {
	fold := func(acc []T, item T) []T {
		for _, v := range acc {
			if v == item {
				return acc
			}
		}
		return append(acc, item)
	}
	return NewWindowAggregator[T, []T](name, cfg, nil, fold, cloneSlice[T])
}

// distinctByKeyState is the accumulator DistinctByKey folds into: the set
// of keys admitted so far, and the vector of values in first-occurrence
// order.
type distinctByKeyState[T any, K comparable] struct {
	seen   map[K]struct{}
	values []T
}

func cloneDistinctByKeyState[T any, K comparable](s distinctByKeyState[T, K]) distinctByKeyState[T, K] {
	seen := make(map[K]struct{}, len(s.seen))
	for k := range s.seen {
		seen[k] = struct{}{}
	}
	return distinctByKeyState[T, K]{seen: seen, values: cloneSlice(s.values)}
}

// DistinctByKey returns a WindowAggregator that keeps the first value seen
// per key (extracted by keyFn) and emits the vector of admitted values in
// first-occurrence order on every input.
func DistinctByKey[T any, K comparable](name string, cfg WindowConfig, keyFn func(T) K) *projectedAggregator[T, distinctByKeyState[T, K], []T] {
	initial := distinctByKeyState[T, K]{seen: make(map[K]struct{})}
	fold := func(acc distinctByKeyState[T, K], item T) distinctByKeyState[T, K] {
		k := keyFn(item)
		if _, ok := acc.seen[k]; ok {
			return acc
		}
		acc.seen[k] = struct{}{}
		acc.values = append(acc.values, item)
		return acc
	}
	inner := NewWindowAggregator[T, distinctByKeyState[T, K]](name, cfg, initial, fold, cloneDistinctByKeyState[T, K])
	return projectAggregator[T, distinctByKeyState[T, K], []T](inner, func(s distinctByKeyState[T, K]) []T {
		return s.values
	})
}

// minHeap is a container/heap.Interface over comparable-by-less values,
// used by TopK to track the k largest elements seen so far with a
// min-heap of size k (so the smallest of the current top-k sits at the
// root and is the one evicted on overflow).
type minHeap[T any] struct {
	items []T
	less  func(a, b T) bool
}

func (h *minHeap[T]) Len() int            { return len(h.items) }
func (h *minHeap[T]) Less(i, j int) bool  { return h.less(h.items[i], h.items[j]) }
func (h *minHeap[T]) Swap(i, j int)       { h.items[i], h.items[j] = h.items[j], h.items[i] }
func (h *minHeap[T]) Push(x interface{})  { h.items = append(h.items, x.(T)) }
func (h *minHeap[T]) Pop() interface{} {
	old := h.items
	n := len(old)
	item := old[n-1]
	h.items = old[:n-1]
	return item
}

// topKState is TopK's accumulator: a min-heap of at most k elements.
type topKState[T any] struct {
	heap *minHeap[T]
	k    int
}

func cloneTopKState[T any](s topKState[T]) topKState[T] {
	items := cloneSlice(s.heap.items)
	return topKState[T]{heap: &minHeap[T]{items: items, less: s.heap.less}, k: s.k}
}

// TopK returns a WindowAggregator that keeps the k largest values seen so
// far (ordered by less, where less(a, b) reports whether a ranks below b)
// and emits them sorted descending on every input.
func TopK[T any](name string, cfg WindowConfig, k int, less func(a, b T) bool) *projectedAggregator[T, topKState[T], []T] {
	initial := topKState[T]{heap: &minHeap[T]{less: less}, k: k}
	fold := func(acc topKState[T], item T) topKState[T] {
		if acc.heap.Len() < acc.k {
			heap.Push(acc.heap, item)
			return acc
		}
		if acc.heap.Len() > 0 && less(acc.heap.items[0], item) {
			heap.Pop(acc.heap)
			heap.Push(acc.heap, item)
		}
		return acc
	}
	inner := NewWindowAggregator[T, topKState[T]](name, cfg, initial, fold, cloneTopKState[T])
	return projectAggregator[T, topKState[T], []T](inner, func(s topKState[T]) []T {
		out := cloneSlice(s.heap.items)
		sort.Slice(out, func(i, j int) bool { return less(out[j], out[i]) })
		return out
	})
}

// topKByKeyState is TopKByKey's accumulator: a min-heap of the keys whose
// bucket is currently retained, plus the map from key to bucket contents.
// On overflow the minimum key's bucket loses its oldest element and, once
// empty, its key is dropped from the heap entirely.
type topKByKeyState[T any, K comparable] struct {
	heap    *minHeap[K]
	buckets map[K][]T
	k       int
}

func cloneTopKByKeyState[T any, K comparable](s topKByKeyState[T, K]) topKByKeyState[T, K] {
	items := cloneSlice(s.heap.items)
	buckets := make(map[K][]T, len(s.buckets))
	for k, v := range s.buckets {
		buckets[k] = cloneSlice(v)
	}
	return topKByKeyState[T, K]{heap: &minHeap[K]{items: items, less: s.heap.less}, buckets: buckets, k: s.k}
}

// TopKByKey returns a WindowAggregator that buckets values by keyFn, with
// keys ranked by keyLess (keyLess(a, b) reports whether key a ranks below
// key b). The first k distinct keys are admitted freely; after that a new
// key is admitted only if it outranks the minimum-ranked key, and
// admitting it drops the oldest element of the minimum-ranked bucket. That
// key leaves only once its bucket is empty, so more than k keys can be
// retained at once. It emits,
// on every input, the buckets walked from highest-ranked key to lowest,
// concatenated in that order.
func TopKByKey[T any, K comparable](name string, cfg WindowConfig, k int, keyFn func(T) K, keyLess func(a, b K) bool) *projectedAggregator[T, topKByKeyState[T, K], []T] {
	initial := topKByKeyState[T, K]{heap: &minHeap[K]{less: keyLess}, buckets: make(map[K][]T), k: k}
	fold := func(acc topKByKeyState[T, K], item T) topKByKeyState[T, K] {
		key := keyFn(item)
		if bucket, ok := acc.buckets[key]; ok {
			acc.buckets[key] = append(bucket, item)
			return acc
		}
		if acc.heap.Len() < acc.k {
			heap.Push(acc.heap, key)
			acc.buckets[key] = []T{item}
			return acc
		}
		if acc.heap.Len() == 0 || !keyLess(key, acc.heap.items[0]) {
			// New key doesn't outrank the current minimum; drop it.
			return acc
		}
		minKey := acc.heap.items[0]
		bucket := acc.buckets[minKey]
		if len(bucket) > 0 {
			bucket = bucket[1:]
		}
		if len(bucket) == 0 {
			heap.Pop(acc.heap)
			delete(acc.buckets, minKey)
		} else {
			acc.buckets[minKey] = bucket
		}
		heap.Push(acc.heap, key)
		acc.buckets[key] = []T{item}
		return acc
	}
	inner := NewWindowAggregator[T, topKByKeyState[T, K]](name, cfg, initial, fold, cloneTopKByKeyState[T, K])
	return projectAggregator[T, topKByKeyState[T, K], []T](inner, func(s topKByKeyState[T, K]) []T {
		keys := cloneSlice(s.heap.items)
		sort.Slice(keys, func(i, j int) bool { return keyLess(keys[j], keys[i]) })
		var out []T
		for _, key := range keys {
			out = append(out, s.buckets[key]...)
		}
		return out
	})
}

// Tail returns a WindowAggregator whose accumulator is a bounded deque of
// at most n values: oldest dropped on overflow, materialised to a vector
// in insertion order on every emit.
func Tail[T any](name string, cfg WindowConfig, n int) *WindowAggregator[T, []T] {
	fold := func(acc []T, item T) []T {
		acc = append(acc, item)
		if len(acc) > n {
			acc = acc[len(acc)-n:]
		}
		return acc
	}
	return NewWindowAggregator[T, []T](name, cfg, nil, fold, cloneSlice[T])
}

// WindowLimit returns a WindowAggregator whose accumulator is a vector
// capped at n values: once full, further inputs are folded in as no-ops so
// the emitted vector never grows past n.
func WindowLimit[T any](name string, cfg WindowConfig, n int) *WindowAggregator[T, []T] {
	fold := func(acc []T, item T) []T {
		if len(acc) >= n {
			return acc
		}
		return append(acc, item)
	}
	return NewWindowAggregator[T, []T](name, cfg, nil, fold, cloneSlice[T])
}

// Sort returns a WindowAggregator whose accumulator is the full vector of
// values seen so far in the window, re-sorted by less on every emit. For
// large windows WindowSorter's binary-insert is more efficient; Sort is
// the direct spec.md "sort_by with the derived comparator" reading.
func Sort[T any](name string, cfg WindowConfig, less func(a, b T) bool) *projectedAggregator[T, []T, []T] {
	fold := func(acc []T, item T) []T { return append(acc, item) }
	inner := NewWindowAggregator[T, []T](name, cfg, nil, fold, cloneSlice[T])
	return projectAggregator[T, []T, []T](inner, func(s []T) []T {
		out := cloneSlice(s)
		sort.Slice(out, func(i, j int) bool { return less(out[i], out[j]) })
		return out
	})
}

// projectAggregator wraps a WindowAggregator[T, A] to expose its output as
// R by applying project to the raw accumulator on every emit, without
// re-deriving the fold logic. It satisfies the same shape a hand-written
// R-valued aggregator would (Init/Process/Close/Name).
type projectedAggregator[T, A, R any] struct {
	inner   *WindowAggregator[T, A]
	project func(A) R
}

func projectAggregator[T, A, R any](inner *WindowAggregator[T, A], project func(A) R) *projectedAggregator[T, A, R] {
	return &projectedAggregator[T, A, R]{inner: inner, project: project}
}

// Init delegates to the wrapped WindowAggregator.
func (p *projectedAggregator[T, A, R]) Init(ctx context.Context) error { return p.inner.Init(ctx) }

// Process runs the wrapped WindowAggregator and projects each resulting
// accumulator down to R.
func (p *projectedAggregator[T, A, R]) Process(ctx context.Context, record Record[T]) ([]Record[R], error) {
	accs, err := p.inner.Process(ctx, record)
	if err != nil {
		return nil, err
	}
	out := make([]Record[R], len(accs))
	for i, acc := range accs {
		out[i] = DeriveRecord(acc, p.project(acc.Data))
	}
	return out, nil
}

// OnWindowTrigger delegates to the wrapped WindowAggregator's eviction;
// a projection never re-derives an expired accumulator so there is
// nothing to project here.
func (p *projectedAggregator[T, A, R]) OnWindowTrigger(ctx context.Context, nowMillis int64) ([]Record[R], error) {
	if _, err := p.inner.OnWindowTrigger(ctx, nowMillis); err != nil {
		return nil, err
	}
	return nil, nil
}

// Close delegates to the wrapped WindowAggregator.
func (p *projectedAggregator[T, A, R]) Close(ctx context.Context) error { return p.inner.Close(ctx) }

// Name delegates to the wrapped WindowAggregator.
func (p *projectedAggregator[T, A, R]) Name() string { return p.inner.Name() }
