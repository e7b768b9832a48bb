package interfaces

import (
	"context"
	"errors"

	"watersense-cloud/internal/eventlog/application"
	eventlog "watersense-cloud/internal/eventlog/domain"
	"watersense-cloud/internal/readings/application/events"
)

// ReadingStoredConsumer derives alert candidates from stored readings and
// hands them to the dedup logger.
type ReadingStoredConsumer struct {
	service *application.Service
}

// NewReadingStoredConsumer constructs a consumer.
func NewReadingStoredConsumer(service *application.Service) (*ReadingStoredConsumer, error) {
	if service == nil {
		return nil, errors.New("eventlog consumer: nil service")
	}
	return &ReadingStoredConsumer{service: service}, nil
}

// Consume evaluates every fact carried by the event. Each candidate goes
// through TryLog independently; the first store error stops the batch.
func (c *ReadingStoredConsumer) Consume(ctx context.Context, evt events.ReadingStored) error {
	if c == nil || c.service == nil {
		return errors.New("eventlog consumer: nil service")
	}

	var candidates []eventlog.Candidate
	if evt.DistanceLeak != nil {
		if candidate, ok := eventlog.EvaluateDistanceLeak(*evt.DistanceLeak); ok {
			candidates = append(candidates, candidate)
		}
	}
	if evt.Environment != nil {
		candidates = append(candidates, eventlog.EvaluateEnvironment(*evt.Environment)...)
	}
	if evt.Relay != nil {
		candidates = append(candidates, eventlog.EvaluateRelay(*evt.Relay))
	}

	for _, candidate := range candidates {
		if _, err := c.service.TryLog(ctx, candidate.Category, candidate.Message); err != nil {
			return err
		}
	}
	return nil
}
