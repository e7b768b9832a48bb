package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	eventlog "watersense-cloud/internal/eventlog/domain"
)

const defaultEventLogTable = "event_logs"

// EntryRepository is a Postgres implementation for event-log entries.
type EntryRepository struct {
	db    *sql.DB
	table string
}

// RepositoryOption configures the repository.
type RepositoryOption func(*EntryRepository)

// WithTable overrides the default table name.
func WithTable(table string) RepositoryOption {
	return func(repo *EntryRepository) {
		if table != "" {
			repo.table = table
		}
	}
}

// NewEntryRepository constructs a repository with default table name.
func NewEntryRepository(db *sql.DB, opts ...RepositoryOption) *EntryRepository {
	repo := &EntryRepository{db: db, table: defaultEventLogTable}
	for _, opt := range opts {
		opt(repo)
	}
	return repo
}

// AppendIfChanged appends the entry as a single conditional statement: the
// row is written only when the latest row for the category carries a
// different message, or no row exists yet. Callers serialize per category;
// the conditional insert keeps a lost race from writing a duplicate anyway.
func (r *EntryRepository) AppendIfChanged(ctx context.Context, entry eventlog.Entry) (bool, error) {
	if r == nil || r.db == nil {
		return false, errors.New("eventlog repo: nil db")
	}
	if entry.Timestamp.IsZero() {
		return false, errors.New("eventlog repo: zero timestamp")
	}

	query := fmt.Sprintf(`
INSERT INTO %s (timestamp, sensor_type, message)
SELECT $1, $2, $3
WHERE NOT EXISTS (
	SELECT 1 FROM (
		SELECT message
		FROM %s
		WHERE sensor_type = $2
		ORDER BY timestamp DESC, id DESC
		LIMIT 1
	) last
	WHERE last.message = $3
)`, r.table, r.table)

	result, err := r.db.ExecContext(ctx, query, entry.Timestamp.UTC(), string(entry.Category), entry.Message)
	if err != nil {
		return false, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// List returns entries for the given categories, newest first.
func (r *EntryRepository) List(ctx context.Context, categories []eventlog.Category, limit, offset int) ([]eventlog.Entry, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("eventlog repo: nil db")
	}
	if len(categories) == 0 {
		return nil, eventlog.ErrInvalidFilter
	}
	if limit < 0 {
		limit = 0
	}
	if offset < 0 {
		offset = 0
	}

	placeholders, args := categoryArgs(categories)
	args = append(args, limit, offset)
	query := fmt.Sprintf(`
SELECT timestamp, sensor_type, message
FROM %s
WHERE sensor_type IN (%s)
ORDER BY timestamp DESC, id DESC
LIMIT $%d OFFSET $%d`, r.table, placeholders, len(categories)+1, len(categories)+2)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []eventlog.Entry
	for rows.Next() {
		var entry eventlog.Entry
		var category string
		if err := rows.Scan(&entry.Timestamp, &category, &entry.Message); err != nil {
			return nil, err
		}
		entry.Timestamp = entry.Timestamp.UTC()
		entry.Category = eventlog.Category(category)
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// Count returns the number of entries for the given categories.
func (r *EntryRepository) Count(ctx context.Context, categories []eventlog.Category) (int64, error) {
	if r == nil || r.db == nil {
		return 0, errors.New("eventlog repo: nil db")
	}
	if len(categories) == 0 {
		return 0, eventlog.ErrInvalidFilter
	}

	placeholders, args := categoryArgs(categories)
	query := fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE sensor_type IN (%s)`, r.table, placeholders)

	var count int64
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func categoryArgs(categories []eventlog.Category) (string, []any) {
	placeholders := make([]string, len(categories))
	args := make([]any, len(categories))
	for i, category := range categories {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = string(category)
	}
	return strings.Join(placeholders, ","), args
}
