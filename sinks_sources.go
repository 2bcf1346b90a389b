package streamflow

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"time"
)

// CollectionSource is an in-memory source over a fixed slice of items,
// wrapping each with the current clock time on Next. It is the reference
// implementation of the "Collection" source adapter.
type CollectionSource[T any] struct {
	clock Clock
	items []T
	pos   int
}

// NewCollectionSource creates a CollectionSource over items.
func NewCollectionSource[T any](clock Clock, items []T) *CollectionSource[T] {
	return &CollectionSource[T]{clock: clock, items: items}
}

// Init is a no-op.
func (s *CollectionSource[T]) Init(_ context.Context) error { return nil }

// Next returns the next item wrapped with the current clock time, or EOF
// once the slice is exhausted.
func (s *CollectionSource[T]) Next(_ context.Context) (Record[T], error) {
	if s.pos >= len(s.items) {
		var zero Record[T]
		return zero, NewEOFError("collection-source")
	}
	item := s.items[s.pos]
	s.pos++
	return NewRecord(s.clock, item), nil
}

// Close is a no-op.
func (s *CollectionSource[T]) Close(_ context.Context) error { return nil }

// CSVSource emits one record per CSV line.
type CSVSource interface {
	Source[[]string]
}

// FileCSVSource is the reference CSVSource implementation, reading lines
// from an io.Reader via encoding/csv. No ecosystem CSV library appears
// anywhere in the retrieved pack, so the standard library is the only
// grounded choice here (see DESIGN.md).
type FileCSVSource struct {
	clock  Clock
	reader *csv.Reader
	closer io.Closer
}

// NewFileCSVSource creates a FileCSVSource reading from r. If r also
// implements io.Closer, Close closes it.
func NewFileCSVSource(clock Clock, r io.Reader) *FileCSVSource {
	fs := &FileCSVSource{clock: clock, reader: csv.NewReader(r)}
	if closer, ok := r.(io.Closer); ok {
		fs.closer = closer
	}
	return fs
}

// Init is a no-op.
func (s *FileCSVSource) Init(_ context.Context) error { return nil }

// Next returns the next CSV record, or EOF/IO errors as appropriate.
func (s *FileCSVSource) Next(_ context.Context) (Record[[]string], error) {
	fields, err := s.reader.Read()
	if err == io.EOF {
		var zero Record[[]string]
		return zero, NewEOFError("file-csv-source")
	}
	if err != nil {
		var zero Record[[]string]
		return zero, NewIOError("file-csv-source", err)
	}
	return NewRecord(s.clock, fields), nil
}

// Close closes the underlying reader, if closeable.
func (s *FileCSVSource) Close(_ context.Context) error {
	if s.closer != nil {
		return s.closer.Close()
	}
	return nil
}

// HTTPSource describes a source that pulls records from an HTTP
// endpoint. It has no reference implementation here: exercising it
// deterministically would require live network access the test suite
// cannot provide.
type HTTPSource[T any] interface {
	Source[T]
}

// GitHubArchiveSource describes a source that reads gzipped JSON-lines
// archives over HTTP or from a local file, iterating an [start, end] hour
// range and advancing through the gharchive.org URL template. Like
// HTTPSource it has no reference body here.
type GitHubArchiveSource interface {
	Source[[]byte]
}

// ConsoleSink writes each record to w with a leading timestamp.
type ConsoleSink[T any] struct {
	w io.Writer
}

// NewConsoleSink creates a ConsoleSink writing to w.
func NewConsoleSink[T any](w io.Writer) *ConsoleSink[T] {
	return &ConsoleSink[T]{w: w}
}

// Init is a no-op.
func (s *ConsoleSink[T]) Init(_ context.Context) error { return nil }

// Write prints the record's timestamp and data.
func (s *ConsoleSink[T]) Write(_ context.Context, record Record[T]) error {
	_, err := fmt.Fprintf(s.w, "[%d] %v\n", record.TimestampMillis, record.Data)
	if err != nil {
		return NewIOError("console-sink", err)
	}
	return nil
}

// Flush is a no-op; console writes are unbuffered.
func (s *ConsoleSink[T]) Flush(_ context.Context) error { return nil }

// Close is a no-op.
func (s *ConsoleSink[T]) Close(_ context.Context) error { return nil }

// CollectionSink appends every written record's data, in order, to an
// in-memory slice. Safe for concurrent Write calls from parallel mode.
type CollectionSink[T any] struct {
	mu    sync.Mutex
	items []T
}

// NewCollectionSink creates an empty CollectionSink.
func NewCollectionSink[T any]() *CollectionSink[T] {
	return &CollectionSink[T]{}
}

// Init is a no-op.
func (s *CollectionSink[T]) Init(_ context.Context) error { return nil }

// Write appends record.Data.
func (s *CollectionSink[T]) Write(_ context.Context, record Record[T]) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = append(s.items, record.Data)
	return nil
}

// Flush is a no-op; CollectionSink has no buffering beyond the slice
// itself.
func (s *CollectionSink[T]) Flush(_ context.Context) error { return nil }

// Close is a no-op.
func (s *CollectionSink[T]) Close(_ context.Context) error { return nil }

// Items returns a snapshot of everything written so far.
func (s *CollectionSink[T]) Items() []T {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneSlice(s.items)
}

// BufferedSink wraps another Sink[T], batching writes and flushing either
// once the batch reaches size or interval elapses, whichever comes first.
// The interval trigger runs on a background goroutine started by Init and
// stopped by Close, following the teacher's Aggregate ticker pattern.
type BufferedSink[T any] struct {
	inner    Sink[T]
	clock    Clock
	size     int
	interval time.Duration

	mu     sync.Mutex
	buffer []Record[T]

	stopCh chan struct{}
	doneCh chan struct{}
}

// NewBufferedSink creates a BufferedSink flushing inner every size writes
// or every interval, whichever comes first. interval <= 0 disables the
// time-based trigger.
func NewBufferedSink[T any](inner Sink[T], clock Clock, size int, interval time.Duration) *BufferedSink[T] {
	return &BufferedSink[T]{inner: inner, clock: clock, size: size, interval: interval}
}

// Init initialises the wrapped sink and, if an interval is configured,
// starts the background flush ticker.
func (s *BufferedSink[T]) Init(ctx context.Context) error {
	if err := s.inner.Init(ctx); err != nil {
		return err
	}
	if s.interval <= 0 {
		return nil
	}

	s.stopCh = make(chan struct{})
	s.doneCh = make(chan struct{})
	ticker := s.clock.NewTicker(s.interval)
	go func() {
		defer close(s.doneCh)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C():
				_ = s.Flush(ctx)
			case <-s.stopCh:
				return
			}
		}
	}()
	return nil
}

// Write buffers record, flushing immediately if the batch is now full.
func (s *BufferedSink[T]) Write(ctx context.Context, record Record[T]) error {
	s.mu.Lock()
	s.buffer = append(s.buffer, record)
	full := len(s.buffer) >= s.size
	s.mu.Unlock()

	if full {
		return s.Flush(ctx)
	}
	return nil
}

// Flush writes every buffered record to the wrapped sink and clears the
// buffer.
func (s *BufferedSink[T]) Flush(ctx context.Context) error {
	s.mu.Lock()
	pending := s.buffer
	s.buffer = nil
	s.mu.Unlock()

	for _, record := range pending {
		if err := s.inner.Write(ctx, record); err != nil {
			return err
		}
	}
	return s.inner.Flush(ctx)
}

// Close stops the background flush ticker, flushes any remaining
// buffered records, and closes the wrapped sink.
func (s *BufferedSink[T]) Close(ctx context.Context) error {
	if s.stopCh != nil {
		close(s.stopCh)
		<-s.doneCh
	}
	if err := s.Flush(ctx); err != nil {
		return err
	}
	return s.inner.Close(ctx)
}

// FileSink writes records to a file in some serialization.
type FileSink[T any] interface {
	Sink[T]
}

// PlainFileSink writes each record's data as one line via fmt.Fprintln.
type PlainFileSink[T any] struct {
	w io.Writer
}

// NewPlainFileSink creates a PlainFileSink writing to w.
func NewPlainFileSink[T any](w io.Writer) *PlainFileSink[T] {
	return &PlainFileSink[T]{w: w}
}

// Init is a no-op.
func (s *PlainFileSink[T]) Init(_ context.Context) error { return nil }

// Write prints record.Data followed by a newline.
func (s *PlainFileSink[T]) Write(_ context.Context, record Record[T]) error {
	if _, err := fmt.Fprintln(s.w, record.Data); err != nil {
		return NewIOError("plain-file-sink", err)
	}
	return nil
}

// Flush is a no-op unless w buffers internally.
func (s *PlainFileSink[T]) Flush(_ context.Context) error { return nil }

// Close closes w if it implements io.Closer.
func (s *PlainFileSink[T]) Close(_ context.Context) error {
	if closer, ok := s.w.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

// JSONLFileSink writes each record's data as one JSON object per line.
type JSONLFileSink[T any] struct {
	enc *json.Encoder
	w   io.Writer
}

// NewJSONLFileSink creates a JSONLFileSink writing to w.
func NewJSONLFileSink[T any](w io.Writer) *JSONLFileSink[T] {
	return &JSONLFileSink[T]{enc: json.NewEncoder(w), w: w}
}

// Init is a no-op.
func (s *JSONLFileSink[T]) Init(_ context.Context) error { return nil }

// Write encodes record.Data as one JSON line.
func (s *JSONLFileSink[T]) Write(_ context.Context, record Record[T]) error {
	if err := s.enc.Encode(record.Data); err != nil {
		return NewSerializationError("jsonl-file-sink", err)
	}
	return nil
}

// Flush is a no-op unless w buffers internally.
func (s *JSONLFileSink[T]) Flush(_ context.Context) error { return nil }

// Close closes w if it implements io.Closer.
func (s *JSONLFileSink[T]) Close(_ context.Context) error {
	if closer, ok := s.w.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

// TelegramSink describes a sink that posts each record to the Telegram
// bot HTTP API, optionally via an HTTPS proxy. It has no reference
// implementation here: exercising it deterministically would require
// live HTTP access the test suite cannot provide.
type TelegramSink interface {
	Sink[string]
}
