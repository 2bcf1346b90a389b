package streamflow

// Record is the unit of flow through a pipeline: a payload plus the
// event-time timestamp (milliseconds since the Unix epoch) it carries.
// Records are value-semantic; operators that fan out a record clone the
// payload rather than sharing a handle to it.
type Record[T any] struct {
	Data            T
	TimestampMillis int64
}

// NewRecord creates a Record stamped with the current wall-clock time.
// Sources use this to mint the first record for a raw item.
func NewRecord[T any](clock Clock, data T) Record[T] {
	return Record[T]{
		Data:            data,
		TimestampMillis: clock.Now().UnixMilli(),
	}
}

// DeriveRecord creates a Record from another value, carrying the parent's
// timestamp. Operators use this for every output that doesn't explicitly
// re-stamp its event time.
func DeriveRecord[In, Out any](parent Record[In], data Out) Record[Out] {
	return Record[Out]{
		Data:            data,
		TimestampMillis: parent.TimestampMillis,
	}
}

// WithTimestamp returns a copy of the record re-stamped with the given
// event-time timestamp.
func (r Record[T]) WithTimestamp(millis int64) Record[T] {
	r.TimestampMillis = millis
	return r
}
