package application

import (
	"context"
	"errors"
	"log"
	"time"

	"watersense-cloud/internal/observability/metrics"
	"watersense-cloud/internal/readings/application/events"
	readings "watersense-cloud/internal/readings/domain"
)

// Clock provides time.
type Clock interface {
	Now() time.Time
}

// EventPublisher forwards domain events after facts are written.
type EventPublisher interface {
	Publish(ctx context.Context, event any) error
}

// Payload carries the optional fields of one device reading. A nil field
// means the sensor did not submit that reading kind; it is never an error.
type Payload struct {
	EventType   *string
	Distance    *float64
	Leak        *int
	Temperature *float64
	Humidity    *float64
	Relay       *string
}

// Service classifies reading payloads into facts and persists them.
type Service struct {
	repo    readings.FactRepository
	bus     EventPublisher
	clock   Clock
	timeout time.Duration
	logger  *log.Logger
}

// ServiceOption customizes the ingest service.
type ServiceOption func(*Service)

// WithClock assigns a clock.
func WithClock(clock Clock) ServiceOption {
	return func(s *Service) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithStoreTimeout bounds each ingest call's store access.
func WithStoreTimeout(timeout time.Duration) ServiceOption {
	return func(s *Service) {
		s.timeout = timeout
	}
}

// NewService constructs an ingest service.
func NewService(repo readings.FactRepository, bus EventPublisher, logger *log.Logger, opts ...ServiceOption) (*Service, error) {
	if repo == nil {
		return nil, errors.New("readings: nil repository")
	}
	if logger == nil {
		logger = log.Default()
	}
	service := &Service{
		repo:    repo,
		bus:     bus,
		clock:   systemClock{},
		timeout: 5 * time.Second,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(service)
	}
	return service, nil
}

// Ingest turns one payload into zero to three persisted facts and reports how
// many were written. The three fact kinds are independent: each checks its
// own field presence and samples the clock on its own, so facts from one
// payload can carry slightly different timestamps. A store failure fails the
// whole call; facts already written stay written and are not retried.
func (s *Service) Ingest(ctx context.Context, payload Payload) (int, error) {
	if s == nil {
		return 0, errors.New("readings: nil service")
	}
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	evt := events.ReadingStored{}
	inserted := 0

	if payload.EventType != nil && payload.Distance != nil && payload.Leak != nil {
		fact := readings.DistanceLeakFact{
			EventTime:  readings.DistanceLeakCaptureTime(s.clock.Now()),
			EventType:  *payload.EventType,
			DistanceCM: *payload.Distance,
			LeakStatus: *payload.Leak,
		}
		if err := s.repo.InsertDistanceLeak(ctx, fact); err != nil {
			return inserted, err
		}
		inserted++
		metrics.IncFactStored("distance_leak")
		evt.DistanceLeak = &fact
	}

	if payload.Temperature != nil && payload.Humidity != nil {
		fact := readings.EnvironmentFact{
			EventTime:   readings.EnvironmentCaptureTime(s.clock.Now()),
			Temperature: *payload.Temperature,
			Humidity:    *payload.Humidity,
		}
		if err := s.repo.InsertEnvironment(ctx, fact); err != nil {
			return inserted, err
		}
		inserted++
		metrics.IncFactStored("environment")
		evt.Environment = &fact
	}

	if payload.Relay != nil && (*payload.Relay == readings.RelayOn || *payload.Relay == readings.RelayOff) {
		fact := readings.RelayFact{
			EventTime: readings.RelayCaptureTime(s.clock.Now()),
			State:     *payload.Relay,
		}
		if err := s.repo.InsertRelay(ctx, fact); err != nil {
			return inserted, err
		}
		inserted++
		metrics.IncFactStored("relay")
		evt.Relay = &fact
	}

	if inserted == 0 || s.bus == nil {
		return inserted, nil
	}

	evt.OccurredAt = s.clock.Now().UTC()
	// Alerts are best-effort annotations: a consumer failure must not fail
	// an ingest call whose facts are already durable.
	if err := s.bus.Publish(ctx, evt); err != nil {
		s.logger.Printf("readings ingest: alert evaluation error: %v", err)
	}
	return inserted, nil
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }
