package diag

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"
)

// Entry is one client-reported error.
type Entry struct {
	Message    string
	URL        string
	Line       string
	ReportedAt time.Time
}

// Sink appends client error entries to a diagnostic log.
type Sink interface {
	Append(ctx context.Context, entry Entry) error
}

// FileSink appends formatted lines to an append-only file. It exists for the
// dashboard's window.onerror reports; a broken sink must never affect the
// ingestion or query paths.
type FileSink struct {
	mu   sync.Mutex
	path string
}

// NewFileSink constructs a file sink.
func NewFileSink(path string) (*FileSink, error) {
	if path == "" {
		return nil, errors.New("diag sink: empty path")
	}
	return &FileSink{path: path}, nil
}

// Append writes one line: [ts] message at url:line.
func (s *FileSink) Append(_ context.Context, entry Entry) error {
	if s == nil || s.path == "" {
		return errors.New("diag sink: nil sink")
	}
	if entry.Message == "" {
		entry.Message = "Unknown error"
	}
	if entry.URL == "" {
		entry.URL = "N/A"
	}
	if entry.Line == "" {
		entry.Line = "N/A"
	}
	if entry.ReportedAt.IsZero() {
		entry.ReportedAt = time.Now().UTC()
	}

	line := fmt.Sprintf("[%s] %s at %s:%s\n",
		entry.ReportedAt.Format("2006-01-02 15:04:05"), entry.Message, entry.URL, entry.Line)

	s.mu.Lock()
	defer s.mu.Unlock()
	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = f.WriteString(line)
	return err
}
