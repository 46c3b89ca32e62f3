package events

import (
	"sync"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/quaestor/internal/models"
)

const subscriberBuffer = 256

// ProgressBus fans analysis progress events out to websocket subscribers,
// keyed by request ID. Publishing is serialized so every subscriber sees a
// request's events in the same order. Delivery is best-effort: events to a
// subscriber whose buffer is full are dropped rather than blocking the
// pipeline, and a disconnected subscriber never affects the others.
type ProgressBus struct {
	mu          sync.Mutex
	subscribers map[string]map[int]chan models.ProgressEvent
	nextID      int
	closed      bool
	logger      arbor.ILogger
}

// NewProgressBus creates a progress bus
func NewProgressBus(logger arbor.ILogger) *ProgressBus {
	return &ProgressBus{
		subscribers: make(map[string]map[int]chan models.ProgressEvent),
		logger:      logger,
	}
}

// Publish sends an event to all subscribers of event.RequestID.
// A zero Timestamp is stamped with the current UTC time.
func (b *ProgressBus) Publish(event models.ProgressEvent) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}

	subs := b.subscribers[event.RequestID]
	for id, ch := range subs {
		select {
		case ch <- event:
		default:
			// Subscriber is not keeping up; drop rather than stall the pipeline
			b.logger.Debug().
				Str("request_id", event.RequestID).
				Int("subscriber", id).
				Msg("Progress subscriber buffer full, dropping event")
		}
	}
}

// Subscribe registers a subscriber for a request's events. The returned
// function unsubscribes and closes the channel; calling it more than once
// is safe.
func (b *ProgressBus) Subscribe(requestID string) (<-chan models.ProgressEvent, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan models.ProgressEvent, subscriberBuffer)

	if b.closed {
		close(ch)
		return ch, func() {}
	}

	if b.subscribers[requestID] == nil {
		b.subscribers[requestID] = make(map[int]chan models.ProgressEvent)
	}
	id := b.nextID
	b.nextID++
	b.subscribers[requestID][id] = ch

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			if subs, ok := b.subscribers[requestID]; ok {
				if _, live := subs[id]; live {
					delete(subs, id)
					close(ch)
				}
				if len(subs) == 0 {
					delete(b.subscribers, requestID)
				}
			}
		})
	}

	return ch, cancel
}

// Close shuts down the bus and closes all subscriber channels
func (b *ProgressBus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true

	for requestID, subs := range b.subscribers {
		for _, ch := range subs {
			close(ch)
		}
		delete(b.subscribers, requestID)
	}
}
