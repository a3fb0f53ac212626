package sink

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"swapscope/internal/model"
)

// JSONL writes one JSON object per record, one record per line.
type JSONL struct {
	mu     sync.Mutex
	w      *bufio.Writer
	closer io.Closer
}

// NewJSONL writes records to w.
func NewJSONL(w io.Writer) *JSONL {
	return &JSONL{w: bufio.NewWriter(w)}
}

// OpenJSONL appends records to the file at path; "-" selects stdout.
func OpenJSONL(path string) (*JSONL, error) {
	if path == "-" || path == "" {
		return NewJSONL(os.Stdout), nil
	}

	dir := filepath.Dir(path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create output dir: %w", err)
		}
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open output file: %w", err)
	}
	s := NewJSONL(file)
	s.closer = file
	return s, nil
}

// Emit appends the record and flushes, so a line is never split across watchers.
func (s *JSONL) Emit(_ context.Context, record model.PriceRecord) error {
	line, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal price record: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.w.Write(line); err != nil {
		return fmt.Errorf("write price record: %w", err)
	}
	if err := s.w.WriteByte('\n'); err != nil {
		return fmt.Errorf("write newline: %w", err)
	}
	if err := s.w.Flush(); err != nil {
		return fmt.Errorf("flush output: %w", err)
	}
	return nil
}

// Close flushes and closes the underlying file, if any.
func (s *JSONL) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.w.Flush(); err != nil {
		return err
	}
	if s.closer != nil {
		return s.closer.Close()
	}
	return nil
}
