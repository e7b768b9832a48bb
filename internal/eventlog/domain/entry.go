package eventlog

import (
	"context"
	"time"
)

// Entry is one human-readable, deduplicated alert/status line.
type Entry struct {
	Timestamp time.Time `json:"timestamp"`
	Category  Category  `json:"sensor_type"`
	Message   string    `json:"message"`
}

// Page is a paginated slice of the event log, newest first.
type Page struct {
	Logs       []Entry `json:"logs"`
	Page       int     `json:"page"`
	PerPage    int     `json:"per_page"`
	Total      int64   `json:"total"`
	TotalPages int64   `json:"total_pages"`
}

// EntryRepository stores event-log entries. Entries are append-only.
type EntryRepository interface {
	// AppendIfChanged appends the entry unless the most recent entry for the
	// same category already carries the same message. It reports whether a
	// row was written.
	AppendIfChanged(ctx context.Context, entry Entry) (bool, error)
	List(ctx context.Context, categories []Category, limit, offset int) ([]Entry, error)
	Count(ctx context.Context, categories []Category) (int64, error)
}
