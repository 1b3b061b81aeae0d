package diagnostics

import (
	"io"
	"sync"
)

// SerializedWriter wraps an io.Writer (the process's diagnostic stream) with
// a single mutex so that concurrent workers' diagnostic lines are never
// interleaved, per spec.md §5 ("Diagnostic output to the process's standard
// error/out is serialized by a lock so messages from different workers do
// not interleave").
type SerializedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

// NewSerializedWriter wraps w for serialized access.
func NewSerializedWriter(w io.Writer) *SerializedWriter {
	return &SerializedWriter{w: w}
}

// Write implements io.Writer under the shared lock.
func (s *SerializedWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(p)
}
