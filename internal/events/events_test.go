package events

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventBus(t *testing.T) {
	bus := NewEventBus()

	var received *Event
	var callCount int

	bus.Subscribe(EventBookingForwarded, func(event *Event) error {
		received = event
		callCount++
		return nil
	})

	err := bus.PublishJSON(EventBookingForwarded, ForwardedPayload{Kind: "booking", BookingID: "BK-AAAAAAA", Domain: "bus"})
	require.NoError(t, err)

	assert.Equal(t, 1, callCount)
	require.NotNil(t, received)
	assert.Equal(t, EventBookingForwarded, received.Type)
	assert.False(t, received.CreatedAt.IsZero())

	var decoded ForwardedPayload
	require.NoError(t, received.Decode(&decoded))
	assert.Equal(t, "BK-AAAAAAA", decoded.BookingID)
	assert.Equal(t, "bus", decoded.Domain)
}

func TestEventBusMultipleSubscribers(t *testing.T) {
	bus := NewEventBus()
	var count1, count2 int

	bus.Subscribe("event", func(_ *Event) error { count1++; return errors.New("boom") })
	bus.Subscribe("event", func(_ *Event) error { count2++; return nil })
	bus.Subscribe("other", func(_ *Event) error { t.Fatal("wrong subscriber"); return nil })

	err := bus.Publish(&Event{Type: "event"})
	assert.EqualError(t, err, "boom")
	assert.Equal(t, 1, count1)
	assert.Equal(t, 1, count2)
}

func TestNilBusPublishJSON(t *testing.T) {
	var bus *EventBus
	assert.NoError(t, bus.PublishJSON("event", map[string]string{"a": "b"}))
}

func TestPublishJSONMarshalError(t *testing.T) {
	bus := NewEventBus()
	err := bus.PublishJSON("event", make(chan int))
	assert.Error(t, err)
}
