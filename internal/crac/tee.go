package crac

import (
	"bytes"
	"io"
	"sync"
)

// Fan-out writer. Every write is appended to the capture buffer and then
// forwarded to each sink in order.
//
// Safe for concurrent use, since builders and runners write stdout and
// stderr from separate goroutines.
type Tee struct {
	mu      sync.Mutex
	capture bytes.Buffer
	sinks   []io.Writer
}

// Creates a new [Tee] forwarding to sinks. Nil sinks are ignored.
func NewTee(sinks ...io.Writer) *Tee {
	t := &Tee{}
	for _, s := range sinks {
		if s != nil {
			t.sinks = append(t.sinks, s)
		}
	}
	return t
}

// Write captures p and forwards it to every sink. A failing sink does not
// stop the others; the first sink error is returned.
func (t *Tee) Write(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.capture.Write(p)

	var first error
	for _, s := range t.sinks {
		if _, err := s.Write(p); err != nil && first == nil {
			first = err
		}
	}
	return len(p), first
}

// Returns everything written so far.
func (t *Tee) Transcript() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.capture.String()
}
