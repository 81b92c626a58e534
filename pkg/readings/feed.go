package readings

import (
	"context"
	"sync"
	"sync/atomic"

	"p9e.in/gaugewatch/models"
)

// Feed fans created readings out to in-process subscribers. A subscriber
// that falls behind loses events instead of slowing submissions down.
type Feed struct {
	mu      sync.Mutex
	subs    map[chan models.Reading]struct{}
	buffer  int
	dropped atomic.Uint64
	onDrop  func()
}

// NewFeed creates a feed whose subscriber channels hold buffer events.
func NewFeed(buffer int) *Feed {
	if buffer <= 0 {
		buffer = 16
	}
	return &Feed{
		subs:   make(map[chan models.Reading]struct{}),
		buffer: buffer,
	}
}

// OnDrop registers a callback run for every event a subscriber missed.
func (f *Feed) OnDrop(fn func()) {
	f.mu.Lock()
	f.onDrop = fn
	f.mu.Unlock()
}

// Subscribe returns a channel of readings created from now on. The channel
// is closed once ctx is done; subscribing again restarts the stream.
func (f *Feed) Subscribe(ctx context.Context) <-chan models.Reading {
	ch := make(chan models.Reading, f.buffer)

	f.mu.Lock()
	f.subs[ch] = struct{}{}
	f.mu.Unlock()

	go func() {
		<-ctx.Done()
		f.mu.Lock()
		delete(f.subs, ch)
		close(ch)
		f.mu.Unlock()
	}()

	return ch
}

// ReadingCreated implements Notifier.
func (f *Feed) ReadingCreated(_ context.Context, r models.Reading) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for ch := range f.subs {
		select {
		case ch <- r:
		default:
			f.dropped.Add(1)
			if f.onDrop != nil {
				f.onDrop()
			}
		}
	}
}

// Subscribers returns the number of active subscribers.
func (f *Feed) Subscribers() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subs)
}

// Dropped returns how many events were lost by slow subscribers.
func (f *Feed) Dropped() uint64 {
	return f.dropped.Load()
}

// EventReadingCreated is the event type pushed to live clients and brokers.
const EventReadingCreated = "reading.created"

// Event is the wire form of a feed notification.
type Event struct {
	Type    string         `json:"type"`
	Reading models.Reading `json:"reading"`
}

// NewEvent wraps a created reading.
func NewEvent(r models.Reading) Event {
	return Event{Type: EventReadingCreated, Reading: r}
}
