package streamflow

import "context"

// MapOperator transforms each record from one type to another using a pure
// mapping function. It always emits exactly one output record per input,
// carrying the input's timestamp forward unless the function re-stamps it.
type MapOperator[In, Out any] struct {
	name string
	fn   func(In) Out
}

// NewMapOperator creates an Operator that applies fn to every record's
// payload, deriving the output record's timestamp from the input.
func NewMapOperator[In, Out any](name string, fn func(In) Out) *MapOperator[In, Out] {
	return &MapOperator[In, Out]{name: name, fn: fn}
}

// Init is a no-op; MapOperator carries no state to initialize.
func (m *MapOperator[In, Out]) Init(_ context.Context) error { return nil }

// Process emits [Record(fn(data), ts)].
func (m *MapOperator[In, Out]) Process(_ context.Context, record Record[In]) ([]Record[Out], error) {
	return []Record[Out]{DeriveRecord(record, m.fn(record.Data))}, nil
}

// Close is a no-op; MapOperator carries no resources to release.
func (m *MapOperator[In, Out]) Close(_ context.Context) error { return nil }

// Name returns the operator's descriptive name.
func (m *MapOperator[In, Out]) Name() string { return m.name }
