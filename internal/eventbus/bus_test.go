package eventbus

import (
	"context"
	"errors"
	"testing"
)

type testEvent struct {
	Value int
}

func TestPublishReachesSubscribers(t *testing.T) {
	bus := NewInMemoryBus()

	var seen []int
	bus.Subscribe(EventTypeOf[testEvent](), func(_ context.Context, event any) error {
		evt, ok := event.(testEvent)
		if !ok {
			return ErrInvalidEventType
		}
		seen = append(seen, evt.Value)
		return nil
	})

	if err := bus.Publish(context.Background(), testEvent{Value: 7}); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if len(seen) != 1 || seen[0] != 7 {
		t.Fatalf("seen = %v", seen)
	}
}

func TestPublishPointerMatchesValueSubscription(t *testing.T) {
	bus := NewInMemoryBus()

	calls := 0
	bus.Subscribe(EventTypeOf[testEvent](), func(context.Context, any) error {
		calls++
		return nil
	})

	if err := bus.Publish(context.Background(), &testEvent{Value: 1}); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if calls != 1 {
		t.Fatalf("calls = %d, want 1", calls)
	}
}

func TestPublishReturnsFirstHandlerError(t *testing.T) {
	bus := NewInMemoryBus()
	boom := errors.New("boom")

	order := 0
	bus.Subscribe(EventTypeOf[testEvent](), func(context.Context, any) error {
		order++
		return boom
	})
	bus.Subscribe(EventTypeOf[testEvent](), func(context.Context, any) error {
		order++
		return errors.New("later")
	})

	err := bus.Publish(context.Background(), testEvent{})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want boom", err)
	}
	// The second handler still ran.
	if order != 2 {
		t.Fatalf("handlers run = %d, want 2", order)
	}
}

func TestPublishNilEvent(t *testing.T) {
	bus := NewInMemoryBus()
	if err := bus.Publish(context.Background(), nil); !errors.Is(err, ErrNilEvent) {
		t.Fatalf("err = %v, want ErrNilEvent", err)
	}
}

func TestPublishWithoutSubscribersIsNoop(t *testing.T) {
	bus := NewInMemoryBus()
	if err := bus.Publish(context.Background(), testEvent{}); err != nil {
		t.Fatalf("publish: %v", err)
	}
}
