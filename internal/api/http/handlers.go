package apihttp

import (
	"encoding/json"
	"net/http"
	"time"

	readings "watersense-cloud/internal/readings/domain"
)

// EnvironmentSeriesHandler serves windowed temperature/humidity series.
type EnvironmentSeriesHandler struct {
	query readings.FactQuery
}

// NewEnvironmentSeriesHandler constructs an EnvironmentSeriesHandler.
func NewEnvironmentSeriesHandler(query readings.FactQuery) *EnvironmentSeriesHandler {
	return &EnvironmentSeriesHandler{query: query}
}

type environmentPoint struct {
	Timestamp   time.Time `json:"timestamp"`
	Temperature float64   `json:"temperature"`
	Humidity    float64   `json:"humidity"`
}

// ServeHTTP handles GET /api/v1/readings/environment.
func (h *EnvironmentSeriesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if h == nil || h.query == nil {
		http.Error(w, "server not ready", http.StatusServiceUnavailable)
		return
	}

	now := time.Now().UTC()
	since, err := resolveRange(r, now)
	if err != nil {
		http.Error(w, "invalid range", http.StatusBadRequest)
		return
	}

	facts, err := h.query.EnvironmentSince(r.Context(), since)
	if err != nil {
		http.Error(w, "query readings error", http.StatusInternalServerError)
		return
	}

	points := make([]environmentPoint, 0, len(facts))
	for _, fact := range facts {
		points = append(points, environmentPoint{
			Timestamp:   fact.EventTime,
			Temperature: fact.Temperature,
			Humidity:    fact.Humidity,
		})
	}
	// Charts never render against an empty series: synthesize one
	// zero-valued point at now.
	if len(points) == 0 {
		points = append(points, environmentPoint{Timestamp: now})
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(points)
}

// WaterSeriesHandler serves windowed leak or distance series.
type WaterSeriesHandler struct {
	query readings.FactQuery
}

// NewWaterSeriesHandler constructs a WaterSeriesHandler.
func NewWaterSeriesHandler(query readings.FactQuery) *WaterSeriesHandler {
	return &WaterSeriesHandler{query: query}
}

type valuePoint struct {
	Timestamp time.Time `json:"timestamp"`
	Value     float64   `json:"value"`
}

// ServeHTTP handles GET /api/v1/readings/water. The type parameter selects
// which column of the shared fact row becomes the point value: leak_status
// for water, distance_cm for ultrasonic.
func (h *WaterSeriesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if h == nil || h.query == nil {
		http.Error(w, "server not ready", http.StatusServiceUnavailable)
		return
	}

	seriesType := r.URL.Query().Get("type")
	if seriesType == "" {
		seriesType = "water"
	}
	if seriesType != "water" && seriesType != "ultrasonic" {
		http.Error(w, "invalid type", http.StatusBadRequest)
		return
	}

	now := time.Now().UTC()
	since, err := resolveRange(r, now)
	if err != nil {
		http.Error(w, "invalid range", http.StatusBadRequest)
		return
	}

	facts, err := h.query.DistanceLeakSince(r.Context(), since)
	if err != nil {
		http.Error(w, "query readings error", http.StatusInternalServerError)
		return
	}

	points := make([]valuePoint, 0, len(facts))
	for _, fact := range facts {
		value := fact.DistanceCM
		if seriesType == "water" {
			value = float64(fact.LeakStatus)
		}
		points = append(points, valuePoint{Timestamp: fact.EventTime, Value: value})
	}
	if len(points) == 0 {
		points = append(points, valuePoint{Timestamp: now})
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(points)
}

// RelayStateHandler serves the current relay state.
type RelayStateHandler struct {
	query readings.FactQuery
}

// NewRelayStateHandler constructs a RelayStateHandler.
func NewRelayStateHandler(query readings.FactQuery) *RelayStateHandler {
	return &RelayStateHandler{query: query}
}

// ServeHTTP handles GET /api/v1/relay/state.
func (h *RelayStateHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if h == nil || h.query == nil {
		http.Error(w, "server not ready", http.StatusServiceUnavailable)
		return
	}

	state, err := h.query.LatestRelayState(r.Context())
	if err != nil {
		http.Error(w, "query relay state error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"state": state})
}

// WaterCountHandler serves the total distance/leak fact count.
type WaterCountHandler struct {
	query readings.FactQuery
}

// NewWaterCountHandler constructs a WaterCountHandler.
func NewWaterCountHandler(query readings.FactQuery) *WaterCountHandler {
	return &WaterCountHandler{query: query}
}

// ServeHTTP handles GET /api/v1/readings/water/count.
func (h *WaterCountHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if h == nil || h.query == nil {
		http.Error(w, "server not ready", http.StatusServiceUnavailable)
		return
	}

	count, err := h.query.CountDistanceLeak(r.Context())
	if err != nil {
		http.Error(w, "query count error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]int64{"count": count})
}

func resolveRange(r *http.Request, now time.Time) (time.Time, error) {
	rangeKey := r.URL.Query().Get("range")
	if rangeKey == "" {
		rangeKey = "second"
	}
	return readings.ResolveWindow(rangeKey, now)
}
