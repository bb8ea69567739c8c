package events

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublish_FansOutToAllSubscribers(t *testing.T) {
	bus := NewBus()
	first, stopFirst := bus.Subscribe()
	second, stopSecond := bus.Subscribe()
	defer stopFirst()
	defer stopSecond()

	bus.Publish(Event{Type: TypeProviderRefreshed, Provider: "Lido", Count: 2})

	for _, ch := range []<-chan Event{first, second} {
		event := <-ch
		assert.Equal(t, TypeProviderRefreshed, event.Type)
		assert.Equal(t, "Lido", event.Provider)
		assert.Equal(t, 2, event.Count)
		assert.False(t, event.At.IsZero())
	}
}

func TestPublish_DropsForFullSubscriber(t *testing.T) {
	bus := NewBus()
	ch, stop := bus.Subscribe()
	defer stop()

	// One more than the buffer; the overflow is dropped, not blocked on.
	for i := 0; i < cap(ch)+1; i++ {
		bus.Publish(Event{Type: TypeBatchWritten})
	}

	assert.Len(t, ch, cap(ch))
}

func TestUnsubscribe_RemovesAndCloses(t *testing.T) {
	bus := NewBus()
	ch, stop := bus.Subscribe()
	require.Equal(t, 1, bus.SubscriberCount())

	stop()
	stop() // second call is a no-op

	assert.Zero(t, bus.SubscriberCount())
	_, open := <-ch
	assert.False(t, open)
}
