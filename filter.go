package streamflow

import "context"

// FilterOperator selectively passes records based on a predicate. Records
// for which the predicate returns true are forwarded unchanged; the rest
// are discarded.
type FilterOperator[T any] struct {
	name      string
	predicate func(T) bool
}

// NewFilterOperator creates an Operator that keeps only records whose
// payload satisfies predicate. The predicate should be pure and
// deterministic for predictable filtering behavior.
func NewFilterOperator[T any](name string, predicate func(T) bool) *FilterOperator[T] {
	return &FilterOperator[T]{name: name, predicate: predicate}
}

// Init is a no-op; FilterOperator carries no state to initialize.
func (f *FilterOperator[T]) Init(_ context.Context) error { return nil }

// Process emits [record] if the predicate holds, else [].
func (f *FilterOperator[T]) Process(_ context.Context, record Record[T]) ([]Record[T], error) {
	if f.predicate(record.Data) {
		return []Record[T]{record}, nil
	}
	return nil, nil
}

// Close is a no-op; FilterOperator carries no resources to release.
func (f *FilterOperator[T]) Close(_ context.Context) error { return nil }

// Name returns the operator's descriptive name.
func (f *FilterOperator[T]) Name() string { return f.name }
