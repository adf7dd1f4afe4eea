package logging

import (
	"context"
	"io"
	"log/slog"
	"slices"
	"sync"
)

// Renders a record into a single output line.
type Formatter interface {
	Format(r slog.Record, groups []string, attrs []slog.Attr) []byte
}

// Shared, mutable sink state. All handlers derived through WithAttrs and
// WithGroup point at the same sink.
type sink struct {
	mu        sync.Mutex
	level     slog.LevelVar
	formatter Formatter
	stream    io.Writer
	flushed   bool
	pending   []entry
}

// A record held back until the handler is flushed.
type entry struct {
	record slog.Record
	groups []string
	attrs  []slog.Attr
}

// An slog.Handler whose level, formatter and stream can be changed after
// loggers have been created from it.
type Handler struct {
	sink   *sink
	groups []string
	attrs  []slog.Attr
}

// Creates a buffering handler at info level with a plain formatter.
func NewHandler() Handler {
	return Handler{sink: &sink{formatter: NewPrettyFormatter(false)}}
}

// Sets the minimum level for records that are written.
func (h Handler) SetLevel(level slog.Level) {
	h.sink.level.Set(level)
}

// Replaces the formatter.
func (h Handler) SetFormatter(f Formatter) {
	h.sink.mu.Lock()
	defer h.sink.mu.Unlock()
	h.sink.formatter = f
}

// Replaces the output stream.
func (h Handler) SetStream(w io.Writer) {
	h.sink.mu.Lock()
	defer h.sink.mu.Unlock()
	h.sink.stream = w
}

// Writes buffered records that pass the current level and switches the
// handler to direct output. Calling Flush again is a no-op.
func (h Handler) Flush() {
	h.sink.mu.Lock()
	defer h.sink.mu.Unlock()

	if h.sink.flushed {
		return
	}
	h.sink.flushed = true

	for _, e := range h.sink.pending {
		if e.record.Level >= h.sink.level.Level() {
			h.sink.write(e)
		}
	}
	h.sink.pending = nil
}

// Enabled reports whether records at level would be written. Before Flush
// every record is accepted so that nothing is lost to a level that is about
// to be lowered.
func (h Handler) Enabled(_ context.Context, level slog.Level) bool {
	h.sink.mu.Lock()
	flushed := h.sink.flushed
	h.sink.mu.Unlock()

	return !flushed || level >= h.sink.level.Level()
}

// Handle formats and writes the record, or buffers it before Flush.
func (h Handler) Handle(_ context.Context, r slog.Record) error {
	e := entry{record: r.Clone(), groups: h.groups, attrs: h.attrs}

	h.sink.mu.Lock()
	defer h.sink.mu.Unlock()

	if !h.sink.flushed {
		h.sink.pending = append(h.sink.pending, e)
		return nil
	}
	return h.sink.write(e)
}

// WithAttrs returns a handler that adds attrs to every record.
func (h Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	h.attrs = append(slices.Clip(h.attrs), attrs...)
	return h
}

// WithGroup returns a handler that qualifies subsequent attributes with name.
func (h Handler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	h.groups = append(slices.Clip(h.groups), name)
	return h
}

// Must be called with mu held.
func (s *sink) write(e entry) error {
	if s.stream == nil {
		return nil
	}
	_, err := s.stream.Write(s.formatter.Format(e.record, e.groups, e.attrs))
	return err
}
