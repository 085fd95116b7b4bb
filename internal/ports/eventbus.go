// Package ports defines the EventBus interface for event-driven communication.
package ports

import (
	"github.com/trackdraft/trackdraft/internal/domain"
)

// EventBus decouples event producers (resolver, playback adapter) from event
// consumers (UI presenter, logging).
//
// Thread-safety: implementations must be thread-safe as events may be
// published and subscribed from multiple goroutines simultaneously.
type EventBus interface {
	// Publish delivers an event to all subscribers of its type. Handlers
	// should process events quickly or dispatch to a background goroutine.
	Publish(event domain.Event)

	// Subscribe registers a handler for events of the specified type and
	// returns an ID for unsubscribing. The same handler may be registered
	// multiple times, yielding multiple calls.
	Subscribe(eventType domain.EventType, handler domain.EventHandler) domain.SubscriptionID

	// Unsubscribe removes a previously registered handler. Unknown IDs are a
	// no-op.
	Unsubscribe(id domain.SubscriptionID)

	// HasSubscribers reports whether any handler listens for the event type.
	HasSubscribers(eventType domain.EventType) bool

	// Close shuts down the bus; further publishes are dropped.
	Close() error
}
