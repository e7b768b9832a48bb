package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	readings "watersense-cloud/internal/readings/domain"
)

// FactQuery is a Postgres query implementation for stored facts.
type FactQuery struct {
	db               *sql.DB
	distanceTable    string
	environmentTable string
	relayTable       string
}

// QueryOption configures the fact query.
type QueryOption func(*FactQuery)

// NewFactQuery constructs a query with default table names.
func NewFactQuery(db *sql.DB, opts ...QueryOption) *FactQuery {
	query := &FactQuery{
		db:               db,
		distanceTable:    defaultDistanceLeakTable,
		environmentTable: defaultEnvironmentTable,
		relayTable:       defaultRelayTable,
	}
	for _, opt := range opts {
		opt(query)
	}
	return query
}

// EnvironmentSince returns environment facts at or after since, ascending.
func (q *FactQuery) EnvironmentSince(ctx context.Context, since time.Time) ([]readings.EnvironmentFact, error) {
	if q == nil || q.db == nil {
		return nil, errors.New("fact query: nil db")
	}
	query := fmt.Sprintf(`
SELECT event_time, temperature, humidity
FROM %s
WHERE event_time >= $1
ORDER BY event_time ASC`, q.environmentTable)

	rows, err := q.db.QueryContext(ctx, query, since.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var facts []readings.EnvironmentFact
	for rows.Next() {
		var fact readings.EnvironmentFact
		if err := rows.Scan(&fact.EventTime, &fact.Temperature, &fact.Humidity); err != nil {
			return nil, err
		}
		fact.EventTime = fact.EventTime.UTC()
		facts = append(facts, fact)
	}
	return facts, rows.Err()
}

// DistanceLeakSince returns distance/leak facts at or after since, ascending.
func (q *FactQuery) DistanceLeakSince(ctx context.Context, since time.Time) ([]readings.DistanceLeakFact, error) {
	if q == nil || q.db == nil {
		return nil, errors.New("fact query: nil db")
	}
	query := fmt.Sprintf(`
SELECT event_time, event_type, distance_cm, leak_status
FROM %s
WHERE event_time >= $1
ORDER BY event_time ASC`, q.distanceTable)

	rows, err := q.db.QueryContext(ctx, query, since.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var facts []readings.DistanceLeakFact
	for rows.Next() {
		var fact readings.DistanceLeakFact
		if err := rows.Scan(&fact.EventTime, &fact.EventType, &fact.DistanceCM, &fact.LeakStatus); err != nil {
			return nil, err
		}
		fact.EventTime = fact.EventTime.UTC()
		facts = append(facts, fact)
	}
	return facts, rows.Err()
}

// LatestRelayState returns the relay_state of the most recent relay fact, or
// OFF when no relay fact exists.
func (q *FactQuery) LatestRelayState(ctx context.Context) (string, error) {
	if q == nil || q.db == nil {
		return "", errors.New("fact query: nil db")
	}
	query := fmt.Sprintf(`
SELECT relay_state
FROM %s
ORDER BY event_time DESC
LIMIT 1`, q.relayTable)

	var state string
	if err := q.db.QueryRowContext(ctx, query).Scan(&state); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return readings.RelayOff, nil
		}
		return "", err
	}
	return state, nil
}

// CountDistanceLeak returns the total number of distance/leak facts.
func (q *FactQuery) CountDistanceLeak(ctx context.Context) (int64, error) {
	if q == nil || q.db == nil {
		return 0, errors.New("fact query: nil db")
	}
	query := fmt.Sprintf(`SELECT COUNT(id) FROM %s`, q.distanceTable)

	var count int64
	if err := q.db.QueryRowContext(ctx, query).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}
