package events

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDispatcherDeliversToSubscribers(t *testing.T) {
	dispatcher := NewInMemoryDispatcher()

	var seen []string
	dispatcher.Subscribe(EventRequestStatusChanged, func(ctx context.Context, event Event) error {
		seen = append(seen, event.RequestID)
		return nil
	})

	err := dispatcher.Publish(context.Background(), Event{
		Type:      EventRequestStatusChanged,
		RequestID: "req-1",
	})
	require.NoError(t, err)
	require.Equal(t, []string{"req-1"}, seen)
}

func TestDispatcherIgnoresUnsubscribedTypes(t *testing.T) {
	dispatcher := NewInMemoryDispatcher()

	called := false
	dispatcher.Subscribe(EventRequestAssigned, func(ctx context.Context, event Event) error {
		called = true
		return nil
	})

	require.NoError(t, dispatcher.Publish(context.Background(), Event{Type: EventRequestCreated}))
	require.False(t, called)
}

func TestDispatcherHandlerErrorDoesNotStopDelivery(t *testing.T) {
	dispatcher := NewInMemoryDispatcher()

	var order []int
	dispatcher.Subscribe(EventRequestSubmitted, func(ctx context.Context, event Event) error {
		order = append(order, 1)
		return errors.New("first handler failed")
	})
	dispatcher.Subscribe(EventRequestSubmitted, func(ctx context.Context, event Event) error {
		order = append(order, 2)
		return nil
	})

	require.NoError(t, dispatcher.Publish(context.Background(), Event{Type: EventRequestSubmitted}))
	require.Equal(t, []int{1, 2}, order)
}
