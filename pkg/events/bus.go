package events

import (
	"context"
	"sync"
)

// Topics published by the core services. Delivery is synchronous with the
// mutating call, at most once per mutation, and only after the mutation
// committed.
const (
	TopicApplicationSubmitted = "application.submitted"
	TopicApplicationUpdated   = "application.updated"
	TopicStockMovement        = "stock.movement"
)

// Event is a named change notification with a service-defined payload.
type Event struct {
	Topic   string
	Payload any
}

// Handler consumes published events. Handlers must not block; a slow handler
// delays the mutating call that triggered it.
type Handler func(ctx context.Context, event Event)

// Bus is an in-process publish/subscribe fan-out for dashboard refresh
// notifications. Safe for concurrent use.
type Bus struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
}

// NewBus returns an empty bus.
func NewBus() *Bus {
	return &Bus{handlers: make(map[string][]Handler)}
}

// Subscribe registers a handler for the topic. Subscribing the same handler
// twice delivers the event twice.
func (b *Bus) Subscribe(topic string, handler Handler) {
	if handler == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[topic] = append(b.handlers[topic], handler)
}

// Publish delivers the event to every subscriber of its topic, in
// subscription order, on the calling goroutine. Fire-and-forget: handler
// outcomes do not propagate back to the publisher.
func (b *Bus) Publish(ctx context.Context, event Event) {
	b.mu.RLock()
	subscribers := b.handlers[event.Topic]
	b.mu.RUnlock()

	for _, handler := range subscribers {
		handler(ctx, event)
	}
}
