package events

import (
	"time"

	readings "watersense-cloud/internal/readings/domain"
)

// ReadingStored is published after the facts of one ingest call are durably
// written. Consumers treat it as best-effort: a lost event loses only the
// derived alert, never the facts.
type ReadingStored struct {
	OccurredAt   time.Time                  `json:"occurred_at"`
	DistanceLeak *readings.DistanceLeakFact `json:"distance_leak,omitempty"`
	Environment  *readings.EnvironmentFact  `json:"environment,omitempty"`
	Relay        *readings.RelayFact        `json:"relay,omitempty"`
}
