// Package bus is the in-process push channel: a best-effort broadcast of
// change events to every subscriber registered at the moment of publication.
// There is no replay, no ordering across subscribers and no backpressure;
// a subscriber that cannot keep up loses events instead of blocking the
// publisher.
package bus

import (
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

type Bus struct {
	mu     sync.RWMutex
	subs   map[string]chan any
	closed bool
	logger *slog.Logger
}

// Subscription is a live feed of published events. C is closed when the
// subscription is cancelled or the bus shuts down.
type Subscription struct {
	ID string
	C  <-chan any

	bus *Bus
}

const subscriberBuffer = 16

func New(logger *slog.Logger) *Bus {
	return &Bus{
		subs:   make(map[string]chan any),
		logger: logger,
	}
}

// Subscribe registers a new viewer. Events published before this call are
// never delivered to it.
func (b *Bus) Subscribe() *Subscription {
	ch := make(chan any, subscriberBuffer)
	id := uuid.NewString()

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		close(ch)
	} else {
		b.subs[id] = ch
	}
	return &Subscription{ID: id, C: ch, bus: b}
}

// Cancel removes the subscription and closes its channel.
func (s *Subscription) Cancel() {
	s.bus.unsubscribe(s.ID)
}

func (b *Bus) unsubscribe(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if ch, ok := b.subs[id]; ok {
		delete(b.subs, id)
		close(ch)
	}
}

// Publish delivers the event to every current subscriber. Full subscriber
// buffers are skipped.
func (b *Bus) Publish(event any) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for id, ch := range b.subs {
		select {
		case ch <- event:
		default:
			if b.logger != nil {
				b.logger.Warn("event dropped for slow subscriber", "action", "bus_drop", "subscriber_id", id)
			}
		}
	}
}

// SubscriberCount reports how many viewers are currently registered.
func (b *Bus) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// Close cancels every subscription. Publish becomes a no-op.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for id, ch := range b.subs {
		delete(b.subs, id)
		close(ch)
	}
}
