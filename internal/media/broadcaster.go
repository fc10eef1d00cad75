// Package media reports storage volumes appearing and disappearing.
package media

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/fruitsalade/filenav/internal/metrics"
)

const (
	EventMounted   = "mounted"
	EventUnmounted = "unmounted"
	EventChanged   = "changed"
)

// Event is one mount change. Count is the storage root count observed when
// the event was published.
type Event struct {
	Type  string
	Path  string
	Count int
	Time  time.Time
}

// subscriberBuffer is the channel capacity given to each subscriber.
const subscriberBuffer = 16

// Broadcaster delivers each published Event to every subscriber without
// blocking; a subscriber whose buffer is full misses the event.
type Broadcaster struct {
	mu      sync.Mutex
	subs    map[chan Event]struct{}
	dropped atomic.Uint64
}

func NewBroadcaster() *Broadcaster {
	return &Broadcaster{subs: make(map[chan Event]struct{})}
}

// Subscribe registers a new channel. Release it with Unsubscribe.
func (b *Broadcaster) Subscribe() chan Event {
	ch := make(chan Event, subscriberBuffer)
	b.mu.Lock()
	b.subs[ch] = struct{}{}
	b.mu.Unlock()
	return ch
}

// Unsubscribe closes ch. Unknown or already released channels are ignored.
func (b *Broadcaster) Unsubscribe(ch chan Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.subs[ch]; ok {
		delete(b.subs, ch)
		close(ch)
	}
}

// Publish stamps the event if needed and returns how many subscribers
// received it.
func (b *Broadcaster) Publish(ev Event) int {
	if ev.Time.IsZero() {
		ev.Time = time.Now()
	}
	metrics.RecordNotifierEvent(ev.Type)

	b.mu.Lock()
	defer b.mu.Unlock()
	delivered := 0
	for ch := range b.subs {
		select {
		case ch <- ev:
			delivered++
		default:
			b.dropped.Add(1)
		}
	}
	return delivered
}

// Count returns the number of subscribers.
func (b *Broadcaster) Count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

// Dropped returns how many deliveries were skipped for full subscribers.
func (b *Broadcaster) Dropped() uint64 {
	return b.dropped.Load()
}
