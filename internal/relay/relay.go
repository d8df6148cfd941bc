// Package relay is the process-wide fan-out point between the signal
// pipeline and the transport layer. Publish is safe to call from every
// feed goroutine concurrently with subscribe/unsubscribe from the
// transport side.
package relay

import (
	"sync"

	"main/internal/obs"
)

// SubscriberID identifies one attached downstream connection.
type SubscriberID uint64

// Subscriber is the transport-level handle the relay fans out to. Send
// must never block; a transport that cannot take the payload returns an
// error and the relay moves on.
type Subscriber interface {
	Send(payload []byte) error
	OutboundBacklogBytes() int64
}

// Relay holds the subscriber set behind one mutex.
type Relay struct {
	mu          sync.Mutex
	subscribers map[SubscriberID]Subscriber
	nextID      SubscriberID

	backlogCeiling int64
	metrics        *obs.Metrics
}

// New creates a relay. Subscribers whose outbound backlog exceeds
// backlogCeiling bytes are skipped per publish; zero means any nonzero
// backlog skips.
func New(backlogCeiling int64, metrics *obs.Metrics) *Relay {
	return &Relay{
		subscribers:    make(map[SubscriberID]Subscriber),
		backlogCeiling: backlogCeiling,
		metrics:        metrics,
	}
}

// Subscribe attaches a downstream connection.
func (r *Relay) Subscribe(sub Subscriber) SubscriberID {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	id := r.nextID
	r.subscribers[id] = sub
	return id
}

// Unsubscribe detaches a connection; unknown ids are ignored.
func (r *Relay) Unsubscribe(id SubscriberID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.subscribers, id)
}

// Publish fans the payload out to every subscriber that is keeping up.
// Slow subscribers miss this payload entirely: no queueing, no retry,
// the next publish attempts them again. Publish never blocks on a
// subscriber.
func (r *Relay) Publish(payload []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, sub := range r.subscribers {
		if sub.OutboundBacklogBytes() > r.backlogCeiling {
			r.metrics.IncRelaySkipped()
			continue
		}
		if err := sub.Send(payload); err != nil {
			r.metrics.IncRelaySkipped()
			continue
		}
		r.metrics.IncRelayDelivered()
	}
}

// Count reports the currently-subscribed connections.
func (r *Relay) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.subscribers)
}
