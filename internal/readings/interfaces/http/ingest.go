package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"watersense-cloud/internal/observability/metrics"
	"watersense-cloud/internal/readings/application"
)

// IngestHandler handles reading submissions from the device firmware. The
// firmware posts application/x-www-form-urlencoded fields; every field is
// optional and malformed numerics count as absent so a partially corrupted
// payload still lands the readable kinds.
type IngestHandler struct {
	service *application.Service
	logger  *log.Logger
}

// NewIngestHandler constructs an ingest handler.
func NewIngestHandler(service *application.Service, logger *log.Logger) (*IngestHandler, error) {
	if service == nil {
		return nil, errors.New("readings ingest: nil service")
	}
	if logger == nil {
		logger = log.Default()
	}
	return &IngestHandler{service: service, logger: logger}, nil
}

// ServeHTTP ingests one reading payload.
func (h *IngestHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	start := time.Now()
	if err := r.ParseForm(); err != nil {
		metrics.ObserveIngest(metrics.ResultError, time.Since(start))
		h.logger.Printf("readings ingest: parse form error: %v", err)
		http.Error(w, "invalid form payload", http.StatusBadRequest)
		return
	}

	payload := application.Payload{
		EventType:   formString(r.PostForm, "event_type"),
		Distance:    formFloat(r.PostForm, "distance"),
		Leak:        formInt(r.PostForm, "leak"),
		Temperature: formFloat(r.PostForm, "temperature"),
		Humidity:    formFloat(r.PostForm, "humidity"),
		Relay:       formString(r.PostForm, "relay"),
	}

	inserted, err := h.service.Ingest(r.Context(), payload)
	if err != nil {
		metrics.ObserveIngest(metrics.ResultError, time.Since(start))
		h.logger.Printf("readings ingest: store error: %v", err)
		http.Error(w, "store error: "+err.Error(), http.StatusInternalServerError)
		return
	}

	metrics.ObserveIngest(metrics.ResultSuccess, time.Since(start))
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"inserted": inserted})
}

func formString(form url.Values, key string) *string {
	if !form.Has(key) {
		return nil
	}
	value := form.Get(key)
	return &value
}

func formFloat(form url.Values, key string) *float64 {
	if !form.Has(key) {
		return nil
	}
	value, err := strconv.ParseFloat(form.Get(key), 64)
	if err != nil {
		return nil
	}
	return &value
}

func formInt(form url.Values, key string) *int {
	if !form.Has(key) {
		return nil
	}
	value, err := strconv.Atoi(form.Get(key))
	if err != nil {
		return nil
	}
	return &value
}
