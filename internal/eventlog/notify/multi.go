package notify

import (
	"context"

	"watersense-cloud/internal/eventlog/application"
	eventlog "watersense-cloud/internal/eventlog/domain"
)

// MultiNotifier fans a logged entry out to several notifiers.
type MultiNotifier struct {
	notifiers []application.Notifier
}

// NewMultiNotifier constructs a fan-out notifier, dropping nil members.
func NewMultiNotifier(notifiers ...application.Notifier) *MultiNotifier {
	kept := make([]application.Notifier, 0, len(notifiers))
	for _, notifier := range notifiers {
		if notifier != nil {
			kept = append(kept, notifier)
		}
	}
	return &MultiNotifier{notifiers: kept}
}

// Notify implements application.Notifier.
func (m *MultiNotifier) Notify(ctx context.Context, entry eventlog.Entry) {
	if m == nil {
		return
	}
	for _, notifier := range m.notifiers {
		notifier.Notify(ctx, entry)
	}
}
