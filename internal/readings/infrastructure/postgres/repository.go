package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	readings "watersense-cloud/internal/readings/domain"
)

const (
	defaultDistanceLeakTable = "sensor_logs"
	defaultEnvironmentTable  = "environment_logs"
	defaultRelayTable        = "relay_logs"
)

// FactRepository is a Postgres implementation for sensor facts.
type FactRepository struct {
	db               *sql.DB
	distanceTable    string
	environmentTable string
	relayTable       string
}

// RepositoryOption configures the repository.
type RepositoryOption func(*FactRepository)

// WithDistanceLeakTable overrides the distance/leak table name.
func WithDistanceLeakTable(table string) RepositoryOption {
	return func(repo *FactRepository) {
		if table != "" {
			repo.distanceTable = table
		}
	}
}

// WithEnvironmentTable overrides the environment table name.
func WithEnvironmentTable(table string) RepositoryOption {
	return func(repo *FactRepository) {
		if table != "" {
			repo.environmentTable = table
		}
	}
}

// WithRelayTable overrides the relay table name.
func WithRelayTable(table string) RepositoryOption {
	return func(repo *FactRepository) {
		if table != "" {
			repo.relayTable = table
		}
	}
}

// NewFactRepository constructs a repository with default table names.
func NewFactRepository(db *sql.DB, opts ...RepositoryOption) *FactRepository {
	repo := &FactRepository{
		db:               db,
		distanceTable:    defaultDistanceLeakTable,
		environmentTable: defaultEnvironmentTable,
		relayTable:       defaultRelayTable,
	}
	for _, opt := range opts {
		opt(repo)
	}
	return repo
}

// InsertDistanceLeak appends one ultrasonic/leak fact.
func (r *FactRepository) InsertDistanceLeak(ctx context.Context, fact readings.DistanceLeakFact) error {
	if r == nil || r.db == nil {
		return errors.New("fact repo: nil db")
	}
	if fact.EventTime.IsZero() {
		return errors.New("fact repo: zero event time")
	}
	query := fmt.Sprintf(`
INSERT INTO %s (event_time, event_type, distance_cm, leak_status)
VALUES ($1, $2, $3, $4)`, r.distanceTable)
	_, err := r.db.ExecContext(ctx, query, fact.EventTime.UTC(), fact.EventType, fact.DistanceCM, fact.LeakStatus)
	return err
}

// InsertEnvironment appends one temperature/humidity fact.
func (r *FactRepository) InsertEnvironment(ctx context.Context, fact readings.EnvironmentFact) error {
	if r == nil || r.db == nil {
		return errors.New("fact repo: nil db")
	}
	if fact.EventTime.IsZero() {
		return errors.New("fact repo: zero event time")
	}
	query := fmt.Sprintf(`
INSERT INTO %s (event_time, temperature, humidity)
VALUES ($1, $2, $3)`, r.environmentTable)
	_, err := r.db.ExecContext(ctx, query, fact.EventTime.UTC(), fact.Temperature, fact.Humidity)
	return err
}

// InsertRelay appends one relay state fact.
func (r *FactRepository) InsertRelay(ctx context.Context, fact readings.RelayFact) error {
	if r == nil || r.db == nil {
		return errors.New("fact repo: nil db")
	}
	if fact.EventTime.IsZero() {
		return errors.New("fact repo: zero event time")
	}
	if fact.State != readings.RelayOn && fact.State != readings.RelayOff {
		return errors.New("fact repo: invalid relay state")
	}
	query := fmt.Sprintf(`
INSERT INTO %s (event_time, relay_state)
VALUES ($1, $2)`, r.relayTable)
	_, err := r.db.ExecContext(ctx, query, fact.EventTime.UTC(), fact.State)
	return err
}
