package readings

import (
	"context"
	"time"
)

// Relay states as reported by the device firmware.
const (
	RelayOn  = "ON"
	RelayOff = "OFF"
)

// DistanceLeakFact is one ultrasonic/leak probe reading written to storage.
type DistanceLeakFact struct {
	EventTime  time.Time
	EventType  string
	DistanceCM float64
	LeakStatus int
}

// EnvironmentFact is one temperature/humidity reading written to storage.
type EnvironmentFact struct {
	EventTime   time.Time
	Temperature float64
	Humidity    float64
}

// RelayFact records the relay switch state at a point in time.
type RelayFact struct {
	EventTime time.Time
	State     string
}

// DistanceLeakCaptureTime rounds a capture instant to the nearest half
// second and truncates to whole-second storage resolution.
func DistanceLeakCaptureTime(at time.Time) time.Time {
	return at.Round(500 * time.Millisecond).Truncate(time.Second)
}

// EnvironmentCaptureTime rounds a capture instant to the nearest second.
func EnvironmentCaptureTime(at time.Time) time.Time {
	return at.Round(time.Second)
}

// RelayCaptureTime rounds a capture instant to the nearest second.
func RelayCaptureTime(at time.Time) time.Time {
	return at.Round(time.Second)
}

// FactRepository persists sensor facts. Facts are append-only; nothing is
// ever updated or deleted.
type FactRepository interface {
	InsertDistanceLeak(ctx context.Context, fact DistanceLeakFact) error
	InsertEnvironment(ctx context.Context, fact EnvironmentFact) error
	InsertRelay(ctx context.Context, fact RelayFact) error
}

// FactQuery loads stored facts for dashboard queries.
type FactQuery interface {
	EnvironmentSince(ctx context.Context, since time.Time) ([]EnvironmentFact, error)
	DistanceLeakSince(ctx context.Context, since time.Time) ([]DistanceLeakFact, error)
	LatestRelayState(ctx context.Context) (string, error)
	CountDistanceLeak(ctx context.Context) (int64, error)
}
