package integration_test

import (
	"context"
	"database/sql"
	"os"
	"testing"
	"time"

	"watersense-cloud/internal/eventbus"
	eventlogapp "watersense-cloud/internal/eventlog/application"
	eventlog "watersense-cloud/internal/eventlog/domain"
	eventlogrepo "watersense-cloud/internal/eventlog/infrastructure/postgres"
	eventloginterfaces "watersense-cloud/internal/eventlog/interfaces"
	readingsapp "watersense-cloud/internal/readings/application"
	readingsevents "watersense-cloud/internal/readings/application/events"
	readings "watersense-cloud/internal/readings/domain"
	readingsrepo "watersense-cloud/internal/readings/infrastructure/postgres"

	_ "github.com/jackc/pgx/v5/stdlib"
)

func TestReadingsRoundTrip_Postgres(t *testing.T) {
	dsn := os.Getenv("PG_DSN")
	if dsn == "" {
		t.Skip("PG_DSN not set")
	}

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer db.Close()

	if !tableExists(db, "sensor_logs") ||
		!tableExists(db, "environment_logs") ||
		!tableExists(db, "relay_logs") {
		t.Skip("missing tables; run migrations")
	}

	ctx := context.Background()
	_, _ = db.ExecContext(ctx, "DELETE FROM sensor_logs")
	_, _ = db.ExecContext(ctx, "DELETE FROM environment_logs")
	_, _ = db.ExecContext(ctx, "DELETE FROM relay_logs")

	repo := readingsrepo.NewFactRepository(db)
	query := readingsrepo.NewFactQuery(db)

	at := time.Now().UTC().Truncate(time.Second)
	if err := repo.InsertDistanceLeak(ctx, readings.DistanceLeakFact{
		EventTime:  at,
		EventType:  "leak_detected",
		DistanceCM: 3.5,
		LeakStatus: 1,
	}); err != nil {
		t.Fatalf("insert distance: %v", err)
	}
	if err := repo.InsertEnvironment(ctx, readings.EnvironmentFact{
		EventTime:   at,
		Temperature: 28.5,
		Humidity:    51,
	}); err != nil {
		t.Fatalf("insert environment: %v", err)
	}
	if err := repo.InsertRelay(ctx, readings.RelayFact{EventTime: at, State: readings.RelayOn}); err != nil {
		t.Fatalf("insert relay: %v", err)
	}

	since := at.Add(-time.Minute)
	envFacts, err := query.EnvironmentSince(ctx, since)
	if err != nil {
		t.Fatalf("environment since: %v", err)
	}
	if len(envFacts) != 1 || envFacts[0].Temperature != 28.5 {
		t.Fatalf("environment facts = %+v", envFacts)
	}

	waterFacts, err := query.DistanceLeakSince(ctx, since)
	if err != nil {
		t.Fatalf("distance since: %v", err)
	}
	if len(waterFacts) != 1 || waterFacts[0].LeakStatus != 1 {
		t.Fatalf("water facts = %+v", waterFacts)
	}

	state, err := query.LatestRelayState(ctx)
	if err != nil {
		t.Fatalf("relay state: %v", err)
	}
	if state != readings.RelayOn {
		t.Fatalf("relay state = %q, want ON", state)
	}

	count, err := query.CountDistanceLeak(ctx)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Fatalf("count = %d, want 1", count)
	}
}

// TestIngestClosedLoop_Postgres drives a payload through the ingest service,
// the in-memory bus and the alert consumer end to end.
func TestIngestClosedLoop_Postgres(t *testing.T) {
	dsn := os.Getenv("PG_DSN")
	if dsn == "" {
		t.Skip("PG_DSN not set")
	}

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer db.Close()

	if !tableExists(db, "sensor_logs") ||
		!tableExists(db, "environment_logs") ||
		!tableExists(db, "relay_logs") ||
		!tableExists(db, "event_logs") {
		t.Skip("missing tables; run migrations")
	}

	ctx := context.Background()
	_, _ = db.ExecContext(ctx, "DELETE FROM sensor_logs")
	_, _ = db.ExecContext(ctx, "DELETE FROM environment_logs")
	_, _ = db.ExecContext(ctx, "DELETE FROM relay_logs")
	_, _ = db.ExecContext(ctx, "DELETE FROM event_logs")

	logService, err := eventlogapp.NewService(eventlogrepo.NewEntryRepository(db))
	if err != nil {
		t.Fatalf("new eventlog service: %v", err)
	}
	consumer, err := eventloginterfaces.NewReadingStoredConsumer(logService)
	if err != nil {
		t.Fatalf("new consumer: %v", err)
	}

	bus := eventbus.NewInMemoryBus()
	bus.Subscribe(eventbus.EventTypeOf[readingsevents.ReadingStored](), func(ctx context.Context, event any) error {
		evt, ok := event.(readingsevents.ReadingStored)
		if !ok {
			return eventbus.ErrInvalidEventType
		}
		return consumer.Consume(ctx, evt)
	})

	ingest, err := readingsapp.NewService(readingsrepo.NewFactRepository(db), bus, nil)
	if err != nil {
		t.Fatalf("new ingest service: %v", err)
	}

	eventType := "leak_detected"
	distance := 2.0
	leak := 1
	temperature := 40.0
	humidity := 20.0
	relay := readings.RelayOn
	payload := readingsapp.Payload{
		EventType:   &eventType,
		Distance:    &distance,
		Leak:        &leak,
		Temperature: &temperature,
		Humidity:    &humidity,
		Relay:       &relay,
	}

	// Two identical payloads: all facts land twice, every alert only once.
	for i := 0; i < 2; i++ {
		inserted, err := ingest.Ingest(ctx, payload)
		if err != nil {
			t.Fatalf("ingest %d: %v", i, err)
		}
		if inserted != 3 {
			t.Fatalf("ingest %d inserted = %d, want 3", i, inserted)
		}
	}

	query := readingsrepo.NewFactQuery(db)
	count, err := query.CountDistanceLeak(ctx)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 2 {
		t.Fatalf("sensor rows = %d, want 2", count)
	}

	page, err := logService.List(ctx, nil, 1, 50)
	if err != nil {
		t.Fatalf("list events: %v", err)
	}
	// leak + hot + dry + relay-on, each once.
	if page.Total != 4 {
		t.Fatalf("event entries = %d, want 4: %+v", page.Total, page.Logs)
	}
	seen := map[eventlog.Category]string{}
	for _, entry := range page.Logs {
		seen[entry.Category] = entry.Message
	}
	if seen[eventlog.CategoryWater] != eventlog.MsgWaterLeaking ||
		seen[eventlog.CategoryTemperature] != eventlog.MsgTemperatureHot ||
		seen[eventlog.CategoryHumidity] != eventlog.MsgHumidityLow ||
		seen[eventlog.CategoryRelay] != eventlog.MsgRelayOn {
		t.Fatalf("entries = %+v", seen)
	}
}

func tableExists(db *sql.DB, table string) bool {
	var exists bool
	err := db.QueryRow(`
SELECT EXISTS (
	SELECT 1
	FROM information_schema.tables
	WHERE table_schema = 'public' AND table_name = $1
)`, table).Scan(&exists)
	if err != nil {
		return false
	}
	return exists
}
