// Package pubsub provides the explicit observer mechanism the overlay
// registry publishes through: a generic broker with typed events, plus a
// Bubble Tea bridge so rendering layers can react to registry mutations.
package pubsub

import (
	"context"
	"time"
)

// EventType identifies what kind of mutation an event describes.
type EventType string

const (
	// RegisteredEvent fires when an overlay entry is created.
	RegisteredEvent EventType = "registered"
	// UnregisteredEvent fires when an overlay entry is destroyed.
	UnregisteredEvent EventType = "unregistered"
	// OpenedEvent fires once an overlay's enter transition is established.
	OpenedEvent EventType = "opened"
	// ClosedEvent fires once an overlay's delayed exit has landed.
	ClosedEvent EventType = "closed"
	// LockEvent fires when the scroll-lock state flips.
	LockEvent EventType = "lock"
	// LogLineEvent carries a formatted log entry.
	LogLineEvent EventType = "log"
)

// Event is a published event with a typed payload.
type Event[T any] struct {
	Type      EventType
	Payload   T
	Timestamp time.Time
}

// Subscriber provides a subscription channel for events.
type Subscriber[T any] interface {
	Subscribe(ctx context.Context) <-chan Event[T]
}

// Publisher allows publishing events with a typed payload.
type Publisher[T any] interface {
	Publish(eventType EventType, payload T)
}
