// Package events provides the in-process bus the engine publishes domain
// events on. Delivery is a consumer concern; publishing never fails the
// state transition that produced the event.
package events

import (
	"sync"
	"time"
)

// Event types emitted by the engine.
const (
	TypeBookingCreated        = "booking.created"
	TypeCancellationRequested = "booking.cancellation_requested"
	TypeCancellationApproved  = "booking.cancellation_approved"
	TypeCancellationRejected  = "booking.cancellation_rejected"
	TypeBookingCancelled      = "booking.cancelled"
	TypeSessionCompleted      = "booking.completed"
	TypeSubscriptionCreated   = "subscription.created"
	TypeSubscriptionApproved  = "subscription.approved"
	TypeSubscriptionRenewed   = "subscription.renewed"
	TypeSubscriptionCancelled = "subscription.cancelled"
)

// Event is a lightweight domain event with a recipient and a human-readable
// summary for the external notification emitter.
type Event struct {
	Type           string    `json:"type"`
	RecipientID    string    `json:"recipient_id"`
	TrainerID      string    `json:"trainer_id,omitempty"`
	ClientID       string    `json:"client_id,omitempty"`
	BookingID      string    `json:"booking_id,omitempty"`
	SubscriptionID string    `json:"subscription_id,omitempty"`
	Message        string    `json:"message"`
	CreatedAt      time.Time `json:"created_at"`
}

// Handler reacts to an event. Errors are the handler's problem; the bus
// ignores them.
type Handler func(event Event)

// Bus provides in-process pub/sub for events.
type Bus struct {
	subscribers map[string][]Handler
	mu          sync.RWMutex
}

// NewBus constructs an empty bus.
func NewBus() *Bus {
	return &Bus{subscribers: make(map[string][]Handler)}
}

// Subscribe registers a handler for a given event type.
func (b *Bus) Subscribe(eventType string, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers[eventType] = append(b.subscribers[eventType], handler)
}

// SubscribeAll registers a handler for every known event type.
func (b *Bus) SubscribeAll(handler Handler) {
	for _, t := range AllTypes() {
		b.Subscribe(t, handler)
	}
}

// Publish notifies subscribers of the event type. Handlers run synchronously;
// the caller decides the concurrency model.
func (b *Bus) Publish(event Event) {
	b.mu.RLock()
	handlers := append([]Handler(nil), b.subscribers[event.Type]...)
	b.mu.RUnlock()

	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	for _, handler := range handlers {
		handler(event)
	}
}

// AllTypes lists every event type the engine emits.
func AllTypes() []string {
	return []string{
		TypeBookingCreated,
		TypeCancellationRequested,
		TypeCancellationApproved,
		TypeCancellationRejected,
		TypeBookingCancelled,
		TypeSessionCompleted,
		TypeSubscriptionCreated,
		TypeSubscriptionApproved,
		TypeSubscriptionRenewed,
		TypeSubscriptionCancelled,
	}
}
