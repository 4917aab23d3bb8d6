package sink

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// ErrorSink appends one human-readable line per failed entry to the error
// log file. Workers share a single sink; the mutex keeps concurrent lines
// from interleaving.
type ErrorSink struct {
	mu sync.Mutex
	f  *os.File
}

// NewErrorSink opens (creating if needed) the error log for appending.
func NewErrorSink(path string) (*ErrorSink, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create error log folder: %w", err)
		}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open error log: %w", err)
	}
	return &ErrorSink{f: f}, nil
}

// Report appends one failure line.
func (s *ErrorSink) Report(sourcePath string, reason string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintf(s.f, "%s - %s: %s\n", time.Now().Format("2006-01-02 15:04:05"), sourcePath, reason)
}

// Close flushes and closes the log.
func (s *ErrorSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.f.Close()
}
