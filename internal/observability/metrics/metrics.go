package metrics

import (
	"database/sql"
	"log"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	metricPrefix = "watersense_"

	resultSuccess = "success"
	resultError   = "error"

	alertResultLogged     = "logged"
	alertResultSuppressed = "suppressed"
)

var (
	registerOnce sync.Once

	ingestRequests *prometheus.CounterVec
	ingestLatency  *prometheus.HistogramVec

	factsStored *prometheus.CounterVec

	alertEvents *prometheus.CounterVec

	exportTotal   *prometheus.CounterVec
	exportLatency *prometheus.HistogramVec
)

// Init registers observability metrics and DB-backed gauges.
func Init(db *sql.DB, logger *log.Logger) {
	registerOnce.Do(func() {
		ingestRequests = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "ingest_requests_total",
				Help: "Total reading ingest requests by result",
			},
			[]string{"result"},
		)
		ingestLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "ingest_latency_seconds",
				Help:    "Reading ingest latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"result"},
		)

		factsStored = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "facts_stored_total",
				Help: "Total persisted sensor facts by kind",
			},
			[]string{"kind"},
		)

		alertEvents = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "alert_events_total",
				Help: "Alert candidates by category and dedup outcome",
			},
			[]string{"category", "result"},
		)

		exportTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "event_export_total",
				Help: "Total event-log export operations by format and result",
			},
			[]string{"format", "result"},
		)
		exportLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "event_export_latency_seconds",
				Help:    "Event-log export latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"format", "result"},
		)

		prometheus.MustRegister(
			ingestRequests,
			ingestLatency,
			factsStored,
			alertEvents,
			exportTotal,
			exportLatency,
		)

		if db != nil {
			registerDBMetrics(db, logger)
		}
	})
}

// ObserveIngest records ingest request duration and result.
func ObserveIngest(result string, duration time.Duration) {
	if result == "" {
		result = resultSuccess
	}
	if ingestRequests != nil {
		ingestRequests.WithLabelValues(result).Inc()
	}
	if ingestLatency != nil {
		ingestLatency.WithLabelValues(result).Observe(duration.Seconds())
	}
}

// IncFactStored increments the persisted fact counter for a kind.
func IncFactStored(kind string) {
	if kind == "" {
		kind = "unknown"
	}
	if factsStored != nil {
		factsStored.WithLabelValues(kind).Inc()
	}
}

// IncAlertLogged counts an alert candidate that was appended to the log.
func IncAlertLogged(category string) {
	incAlert(category, alertResultLogged)
}

// IncAlertSuppressed counts an alert candidate dropped as a consecutive duplicate.
func IncAlertSuppressed(category string) {
	incAlert(category, alertResultSuppressed)
}

func incAlert(category, result string) {
	if category == "" {
		category = "unknown"
	}
	if alertEvents != nil {
		alertEvents.WithLabelValues(category, result).Inc()
	}
}

// ObserveExport records export latency and result.
func ObserveExport(format, result string, duration time.Duration) {
	if format == "" {
		format = "unknown"
	}
	if result == "" {
		result = resultSuccess
	}
	if exportTotal != nil {
		exportTotal.WithLabelValues(format, result).Inc()
	}
	if exportLatency != nil {
		exportLatency.WithLabelValues(format, result).Observe(duration.Seconds())
	}
}

// Exported constants for callers.
const (
	ResultSuccess = resultSuccess
	ResultError   = resultError
)
