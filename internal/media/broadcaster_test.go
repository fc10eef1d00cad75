package media

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBroadcasterSubscriptions(t *testing.T) {
	b := NewBroadcaster()
	a, c := b.Subscribe(), b.Subscribe()
	assert.Equal(t, 2, b.Count())

	b.Unsubscribe(a)
	b.Unsubscribe(a)
	assert.Equal(t, 1, b.Count())
	_, open := <-a
	assert.False(t, open, "released channel is closed")

	b.Unsubscribe(c)
	assert.Zero(t, b.Count())
	assert.Zero(t, b.Publish(Event{Type: EventChanged}))
}

func TestBroadcasterFansOut(t *testing.T) {
	b := NewBroadcaster()
	subs := []chan Event{b.Subscribe(), b.Subscribe()}
	defer func() {
		for _, ch := range subs {
			b.Unsubscribe(ch)
		}
	}()

	n := b.Publish(Event{Type: EventMounted, Path: "/media/u/CARD", Count: 2})
	require.Equal(t, 2, n)

	for i, ch := range subs {
		select {
		case ev := <-ch:
			assert.Equal(t, EventMounted, ev.Type, "subscriber %d", i)
			assert.Equal(t, "/media/u/CARD", ev.Path)
			assert.Equal(t, 2, ev.Count)
			assert.False(t, ev.Time.IsZero())
		case <-time.After(time.Second):
			t.Fatalf("subscriber %d: timed out", i)
		}
	}
}

func TestBroadcasterKeepsGivenTime(t *testing.T) {
	b := NewBroadcaster()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	b.Publish(Event{Type: EventUnmounted, Time: at})
	assert.Equal(t, at, (<-ch).Time)
}

func TestBroadcasterDropsForFullSubscriber(t *testing.T) {
	b := NewBroadcaster()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	for i := 0; i < subscriberBuffer+5; i++ {
		b.Publish(Event{Type: EventChanged})
	}
	assert.Len(t, ch, subscriberBuffer)
	assert.Equal(t, uint64(5), b.Dropped())
}
