// Package log provides the nodupe debug log.
//
// Records are buffered in memory until the destination is known: SetFile
// flushes the buffer to a file, SetFile("") drops it. Mirror additionally
// copies every record to another writer, which is how --verbose shows debug
// output on stderr.
package log

import (
	"io"
	"os"
	"sync"
)

// maxBuffered caps the in-memory buffer kept before SetFile is called.
const maxBuffered = 1 << 20

// Sink is the io.Writer every logger in this package writes to.
type Sink struct {
	mu      sync.Mutex
	file    *os.File
	mirror  io.Writer
	buffer  []byte
	discard bool
}

var sink = &Sink{}

// Write implements io.Writer.
func (s *Sink) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.mirror != nil {
		_, _ = s.mirror.Write(p)
	}

	switch {
	case s.file != nil:
		n, err := s.file.Write(p)
		_ = s.file.Sync()
		return n, err
	case s.discard:
		return len(p), nil
	}

	if len(s.buffer)+len(p) > maxBuffered {
		// Oldest records go first.
		drop := min(len(s.buffer), len(s.buffer)+len(p)-maxBuffered)
		s.buffer = s.buffer[drop:]
	}
	s.buffer = append(s.buffer, p...)
	return len(p), nil
}

// SetFile routes records to path, creating it if needed and appending
// otherwise. Buffered records are flushed to it. An empty path discards
// buffered and future records.
func SetFile(path string) error {
	sink.mu.Lock()
	defer sink.mu.Unlock()

	if sink.file != nil {
		_ = sink.file.Close()
		sink.file = nil
	}

	if path == "" {
		sink.discard = true
		sink.buffer = nil
		return nil
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600) //nolint:gosec
	if err != nil {
		sink.discard = true
		sink.buffer = nil
		return err
	}

	sink.file = f
	sink.discard = false
	if len(sink.buffer) > 0 {
		_, _ = f.Write(sink.buffer)
		_ = f.Sync()
		sink.buffer = nil
	}
	return nil
}

// Mirror copies every future record to w. A nil w stops mirroring.
// Records can be written from any goroutine, so w must be safe for
// concurrent use when anything else writes to it; see SyncWriter.
func Mirror(w io.Writer) {
	sink.mu.Lock()
	defer sink.mu.Unlock()
	sink.mirror = w
}

// Close closes the debug log file if open.
func Close() error {
	sink.mu.Lock()
	defer sink.mu.Unlock()

	if sink.file == nil {
		return nil
	}
	err := sink.file.Close()
	sink.file = nil
	return err
}

// SyncWriter serializes writes to an underlying writer.
type SyncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

// NewSyncWriter wraps w. Wrapping a *SyncWriter returns it unchanged.
func NewSyncWriter(w io.Writer) *SyncWriter {
	if sw, ok := w.(*SyncWriter); ok {
		return sw
	}
	return &SyncWriter{w: w}
}

// Write implements io.Writer.
func (s *SyncWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(p)
}
