package application

import (
	"context"
	"errors"
	"sync"
	"time"

	eventlog "watersense-cloud/internal/eventlog/domain"
	"watersense-cloud/internal/observability/metrics"
)

const defaultPerPage = 10

// Clock provides time.
type Clock interface {
	Now() time.Time
}

// Notifier receives entries that were actually appended to the log.
type Notifier interface {
	Notify(ctx context.Context, entry eventlog.Entry)
}

// Service enforces consecutive-duplicate suppression and serves log pages.
type Service struct {
	repo     eventlog.EntryRepository
	notifier Notifier
	clock    Clock
	timeout  time.Duration

	// Serializes the read-then-append per category. Two concurrent writers
	// for the same category must not both observe the same "last message"
	// and both append.
	locks map[eventlog.Category]*sync.Mutex
}

// ServiceOption customizes the event-log service.
type ServiceOption func(*Service)

// WithNotifier assigns a notifier.
func WithNotifier(notifier Notifier) ServiceOption {
	return func(s *Service) {
		s.notifier = notifier
	}
}

// WithClock assigns a clock.
func WithClock(clock Clock) ServiceOption {
	return func(s *Service) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithStoreTimeout bounds each store access.
func WithStoreTimeout(timeout time.Duration) ServiceOption {
	return func(s *Service) {
		s.timeout = timeout
	}
}

// NewService constructs an event-log service.
func NewService(repo eventlog.EntryRepository, opts ...ServiceOption) (*Service, error) {
	if repo == nil {
		return nil, errors.New("eventlog: nil repository")
	}
	locks := make(map[eventlog.Category]*sync.Mutex, len(eventlog.AllCategories()))
	for _, category := range eventlog.AllCategories() {
		locks[category] = &sync.Mutex{}
	}
	service := &Service{
		repo:    repo,
		clock:   systemClock{},
		timeout: 5 * time.Second,
		locks:   locks,
	}
	for _, opt := range opts {
		opt(service)
	}
	return service, nil
}

// TryLog appends a candidate message unless it duplicates the most recent
// entry for the category. It reports whether an entry was written. The same
// message may reappear later once a different message has interleaved; only
// consecutive duplicates are suppressed.
func (s *Service) TryLog(ctx context.Context, category eventlog.Category, message string) (bool, error) {
	if s == nil {
		return false, errors.New("eventlog: nil service")
	}
	if !category.Valid() {
		return false, eventlog.ErrUnknownCategory
	}
	if message == "" {
		return false, errors.New("eventlog: empty message")
	}
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	lock := s.locks[category]
	lock.Lock()
	defer lock.Unlock()

	entry := eventlog.Entry{
		Timestamp: s.clock.Now().UTC(),
		Category:  category,
		Message:   message,
	}
	logged, err := s.repo.AppendIfChanged(ctx, entry)
	if err != nil {
		return false, err
	}
	if !logged {
		metrics.IncAlertSuppressed(string(category))
		return false, nil
	}
	metrics.IncAlertLogged(string(category))
	if s.notifier != nil {
		s.notifier.Notify(ctx, entry)
	}
	return true, nil
}

// List returns one page of the event log, newest first. Page and perPage are
// clamped to at least one; categories defaults to all five.
func (s *Service) List(ctx context.Context, categories []eventlog.Category, page, perPage int) (eventlog.Page, error) {
	if s == nil {
		return eventlog.Page{}, errors.New("eventlog: nil service")
	}
	if len(categories) == 0 {
		categories = eventlog.AllCategories()
	}
	for _, category := range categories {
		if !category.Valid() {
			return eventlog.Page{}, eventlog.ErrInvalidFilter
		}
	}
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = defaultPerPage
	}
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	total, err := s.repo.Count(ctx, categories)
	if err != nil {
		return eventlog.Page{}, err
	}
	offset := (page - 1) * perPage
	logs, err := s.repo.List(ctx, categories, perPage, offset)
	if err != nil {
		return eventlog.Page{}, err
	}
	if logs == nil {
		logs = []eventlog.Entry{}
	}

	totalPages := total / int64(perPage)
	if total%int64(perPage) != 0 {
		totalPages++
	}
	return eventlog.Page{
		Logs:       logs,
		Page:       page,
		PerPage:    perPage,
		Total:      total,
		TotalPages: totalPages,
	}, nil
}

// ListAll returns every entry for the given categories, newest first. Export
// endpoints use it to render complete reports.
func (s *Service) ListAll(ctx context.Context, categories []eventlog.Category) ([]eventlog.Entry, error) {
	if s == nil {
		return nil, errors.New("eventlog: nil service")
	}
	if len(categories) == 0 {
		categories = eventlog.AllCategories()
	}
	for _, category := range categories {
		if !category.Valid() {
			return nil, eventlog.ErrInvalidFilter
		}
	}
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	total, err := s.repo.Count(ctx, categories)
	if err != nil {
		return nil, err
	}
	return s.repo.List(ctx, categories, int(total), 0)
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }
