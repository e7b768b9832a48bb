package apihttp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	readings "watersense-cloud/internal/readings/domain"
)

type stubQuery struct {
	environment []readings.EnvironmentFact
	distance    []readings.DistanceLeakFact
	relayState  string
	count       int64

	lastSince time.Time
}

func (s *stubQuery) EnvironmentSince(_ context.Context, since time.Time) ([]readings.EnvironmentFact, error) {
	s.lastSince = since
	return s.environment, nil
}

func (s *stubQuery) DistanceLeakSince(_ context.Context, since time.Time) ([]readings.DistanceLeakFact, error) {
	s.lastSince = since
	return s.distance, nil
}

func (s *stubQuery) LatestRelayState(_ context.Context) (string, error) {
	if s.relayState == "" {
		return readings.RelayOff, nil
	}
	return s.relayState, nil
}

func (s *stubQuery) CountDistanceLeak(_ context.Context) (int64, error) {
	return s.count, nil
}

func get(handler http.Handler, target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestEnvironmentSeries(t *testing.T) {
	at := time.Date(2026, 3, 15, 11, 59, 40, 0, time.UTC)
	query := &stubQuery{environment: []readings.EnvironmentFact{
		{EventTime: at, Temperature: 28.5, Humidity: 51},
	}}
	rec := get(NewEnvironmentSeriesHandler(query), "/api/v1/readings/environment")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var points []environmentPoint
	if err := json.Unmarshal(rec.Body.Bytes(), &points); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(points) != 1 || points[0].Temperature != 28.5 || points[0].Humidity != 51 {
		t.Fatalf("points = %+v", points)
	}
}

func TestEnvironmentSeriesEmptyWindowSynthesizesZeroPoint(t *testing.T) {
	rec := get(NewEnvironmentSeriesHandler(&stubQuery{}), "/api/v1/readings/environment?range=hour")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var points []environmentPoint
	if err := json.Unmarshal(rec.Body.Bytes(), &points); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(points) != 1 {
		t.Fatalf("points = %d, want 1 synthesized point", len(points))
	}
	if points[0].Temperature != 0 || points[0].Humidity != 0 {
		t.Fatalf("synthesized point not zero-valued: %+v", points[0])
	}
	if time.Since(points[0].Timestamp) > time.Minute {
		t.Fatalf("synthesized timestamp not current: %v", points[0].Timestamp)
	}
}

func TestEnvironmentSeriesInvalidRange(t *testing.T) {
	rec := get(NewEnvironmentSeriesHandler(&stubQuery{}), "/api/v1/readings/environment?range=fortnight")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestEnvironmentSeriesRangeSelectsWindow(t *testing.T) {
	query := &stubQuery{}
	get(NewEnvironmentSeriesHandler(query), "/api/v1/readings/environment?range=daily")
	// daily looks back one week
	if lookback := time.Since(query.lastSince); lookback < 7*24*time.Hour-time.Minute || lookback > 7*24*time.Hour+time.Minute {
		t.Fatalf("daily lookback = %v", lookback)
	}
}

func TestWaterSeriesTypeSelectsColumn(t *testing.T) {
	at := time.Date(2026, 3, 15, 11, 59, 50, 0, time.UTC)
	query := &stubQuery{distance: []readings.DistanceLeakFact{
		{EventTime: at, EventType: "leak_detected", DistanceCM: 7.5, LeakStatus: 1},
	}}

	for _, tc := range []struct {
		target string
		want   float64
	}{
		{"/api/v1/readings/water", 1},
		{"/api/v1/readings/water?type=water", 1},
		{"/api/v1/readings/water?type=ultrasonic", 7.5},
	} {
		rec := get(NewWaterSeriesHandler(query), tc.target)
		if rec.Code != http.StatusOK {
			t.Fatalf("%s: status = %d", tc.target, rec.Code)
		}
		var points []valuePoint
		if err := json.Unmarshal(rec.Body.Bytes(), &points); err != nil {
			t.Fatalf("%s: decode: %v", tc.target, err)
		}
		if len(points) != 1 || points[0].Value != tc.want {
			t.Fatalf("%s: points = %+v, want value %v", tc.target, points, tc.want)
		}
	}
}

func TestWaterSeriesInvalidType(t *testing.T) {
	rec := get(NewWaterSeriesHandler(&stubQuery{}), "/api/v1/readings/water?type=sonar")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestRelayStateDefaultsToOff(t *testing.T) {
	rec := get(NewRelayStateHandler(&stubQuery{}), "/api/v1/relay/state")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["state"] != readings.RelayOff {
		t.Fatalf("state = %q, want %q", body["state"], readings.RelayOff)
	}
}

func TestWaterCount(t *testing.T) {
	rec := get(NewWaterCountHandler(&stubQuery{count: 1234}), "/api/v1/readings/water/count")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var body map[string]int64
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["count"] != 1234 {
		t.Fatalf("count = %d", body["count"])
	}
}

func TestSeriesHandlersRejectPost(t *testing.T) {
	for _, handler := range []http.Handler{
		NewEnvironmentSeriesHandler(&stubQuery{}),
		NewWaterSeriesHandler(&stubQuery{}),
		NewRelayStateHandler(&stubQuery{}),
		NewWaterCountHandler(&stubQuery{}),
	} {
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusMethodNotAllowed {
			t.Fatalf("%T: status = %d, want 405", handler, rec.Code)
		}
	}
}
