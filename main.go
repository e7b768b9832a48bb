package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	apihttp "watersense-cloud/internal/api/http"
	"watersense-cloud/internal/diag"
	"watersense-cloud/internal/eventbus"
	eventlogapp "watersense-cloud/internal/eventlog/application"
	eventlogrepo "watersense-cloud/internal/eventlog/infrastructure/postgres"
	eventloginterfaces "watersense-cloud/internal/eventlog/interfaces"
	eventloghttp "watersense-cloud/internal/eventlog/interfaces/http"
	eventlognotify "watersense-cloud/internal/eventlog/notify"
	"watersense-cloud/internal/observability/metrics"
	readingsapp "watersense-cloud/internal/readings/application"
	readingsevents "watersense-cloud/internal/readings/application/events"
	readingsrepo "watersense-cloud/internal/readings/infrastructure/postgres"
	readingshttp "watersense-cloud/internal/readings/interfaces/http"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	cfg := loadConfig()
	logger := log.New(os.Stdout, "", log.LstdFlags)

	db, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		logger.Fatalf("db open error: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		logger.Fatalf("db ping error: %v", err)
	}

	metrics.Init(db, logger)

	factRepo := readingsrepo.NewFactRepository(db)
	factQuery := readingsrepo.NewFactQuery(db)
	entryRepo := eventlogrepo.NewEntryRepository(db)

	broker := eventloghttp.NewSSEBroker()
	notifiers := []eventlogapp.Notifier{broker}
	if cfg.AlertWebhookURL != "" {
		webhook, err := eventlognotify.NewWebhookNotifier(cfg.AlertWebhookURL, logger)
		if err != nil {
			logger.Fatalf("alert webhook error: %v", err)
		}
		notifiers = append(notifiers, webhook)
	}

	eventlogService, err := eventlogapp.NewService(entryRepo,
		eventlogapp.WithNotifier(eventlognotify.NewMultiNotifier(notifiers...)),
		eventlogapp.WithStoreTimeout(cfg.StoreTimeout),
	)
	if err != nil {
		logger.Fatalf("eventlog service error: %v", err)
	}

	bus := eventbus.NewInMemoryBus()
	consumer, err := eventloginterfaces.NewReadingStoredConsumer(eventlogService)
	if err != nil {
		logger.Fatalf("eventlog consumer error: %v", err)
	}
	bus.Subscribe(eventbus.EventTypeOf[readingsevents.ReadingStored](), func(ctx context.Context, event any) error {
		evt, ok := event.(readingsevents.ReadingStored)
		if !ok {
			return eventbus.ErrInvalidEventType
		}
		return consumer.Consume(ctx, evt)
	})

	ingestService, err := readingsapp.NewService(factRepo, bus, logger,
		readingsapp.WithStoreTimeout(cfg.StoreTimeout))
	if err != nil {
		logger.Fatalf("ingest service error: %v", err)
	}
	ingestHandler, err := readingshttp.NewIngestHandler(ingestService, logger)
	if err != nil {
		logger.Fatalf("ingest handler error: %v", err)
	}

	eventsHandler, err := eventloghttp.NewHandler(eventlogService)
	if err != nil {
		logger.Fatalf("events handler error: %v", err)
	}
	exportHandler, err := eventloghttp.NewExportHandler(eventlogService)
	if err != nil {
		logger.Fatalf("export handler error: %v", err)
	}

	diagSink, err := diag.NewFileSink(cfg.DiagLogPath)
	if err != nil {
		logger.Fatalf("diag sink error: %v", err)
	}

	mux := http.NewServeMux()
	mux.Handle("/ingest/readings", ingestHandler)
	mux.Handle("/api/v1/readings/environment", apihttp.NewEnvironmentSeriesHandler(factQuery))
	mux.Handle("/api/v1/readings/water", apihttp.NewWaterSeriesHandler(factQuery))
	mux.Handle("/api/v1/readings/water/count", apihttp.NewWaterCountHandler(factQuery))
	mux.Handle("/api/v1/relay/state", apihttp.NewRelayStateHandler(factQuery))
	mux.Handle("/api/v1/events", eventsHandler)
	mux.Handle("/api/v1/events/stream", eventloghttp.NewStreamHandler(broker))
	mux.Handle("/api/v1/exports/events.csv", exportHandler)
	mux.Handle("/api/v1/exports/events.xlsx", exportHandler)
	mux.Handle("/api/v1/exports/events.pdf", exportHandler)
	mux.Handle("/api/v1/client-errors", diag.NewHandler(diagSink, logger))
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	server := &http.Server{Addr: cfg.HTTPAddr, Handler: loggingMiddleware(mux, logger)}
	logger.Printf("http listening on %s", cfg.HTTPAddr)
	logger.Fatal(server.ListenAndServe())
}

type config struct {
	DatabaseURL     string        `yaml:"database_url"`
	HTTPAddr        string        `yaml:"http_addr"`
	StoreTimeout    time.Duration `yaml:"store_timeout"`
	AlertWebhookURL string        `yaml:"alert_webhook_url"`
	DiagLogPath     string        `yaml:"diag_log_path"`
}

// loadConfig reads env variables, then lets an optional YAML file selected by
// WATERSENSE_CONFIG override the fields it sets.
func loadConfig() config {
	cfg := config{
		DatabaseURL:     getenvDefault("DATABASE_URL", getenvDefault("PG_DSN", "")),
		HTTPAddr:        getenvDefault("HTTP_ADDR", ":8080"),
		StoreTimeout:    getenvDuration("STORE_TIMEOUT", 5*time.Second),
		AlertWebhookURL: getenvDefault("ALERT_WEBHOOK_URL", ""),
		DiagLogPath:     getenvDefault("DIAG_LOG_PATH", "error_log.txt"),
	}

	if path := os.Getenv("WATERSENSE_CONFIG"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			log.Fatalf("config read error: %v", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			log.Fatalf("config parse error: %v", err)
		}
	}

	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL or PG_DSN is required")
	}
	return cfg
}

func getenvDefault(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getenvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func loggingMiddleware(next http.Handler, logger *log.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		resp := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(resp, r)
		logger.Printf("http %s %s %d %s", r.Method, r.URL.Path, resp.status, time.Since(start))
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

// Flush keeps the SSE stream working behind the logging wrapper.
func (w *statusWriter) Flush() {
	if flusher, ok := w.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}
