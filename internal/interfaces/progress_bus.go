package interfaces

import "github.com/ternarybob/quaestor/internal/models"

// ProgressBus delivers analysis progress events to subscribers keyed by
// request ID. Delivery is best-effort: a request with no subscribers
// publishes into the void, and a slow or disconnected subscriber never
// blocks publishing or affects other subscribers. Events for a request
// reach each subscriber in publish order.
type ProgressBus interface {
	// Publish sends an event to all subscribers of event.RequestID.
	// A zero Timestamp is stamped with the current UTC time.
	Publish(event models.ProgressEvent)

	// Subscribe registers interest in a request's events and returns the
	// channel events arrive on plus an unsubscribe function. Multiple
	// subscribers per request ID are supported.
	Subscribe(requestID string) (<-chan models.ProgressEvent, func())

	// Close shuts down the bus and closes all subscriber channels
	Close()
}
