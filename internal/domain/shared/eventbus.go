package shared

import "context"

// EventHandler consumes domain events delivered by the dispatcher. Returning
// an error keeps the underlying outbox entry eligible for another attempt.
type EventHandler interface {
	Handle(ctx context.Context, event DomainEvent) error

	// EventTypes names the event types the handler wants. Empty means all.
	EventTypes() []string
}

// EventPublisher fans events out to subscribed handlers.
type EventPublisher interface {
	Publish(ctx context.Context, events ...DomainEvent) error
}

// EventSubscriber registers handlers for event types.
type EventSubscriber interface {
	Subscribe(handler EventHandler, eventTypes ...string)
}

// EventBus is both sides of the dispatcher.
type EventBus interface {
	EventPublisher
	EventSubscriber
}

// OutboxEventSaver persists events into the outbox table. Repositories call
// it with their open *gorm.DB transaction so the event rows commit or roll
// back together with the aggregate rows.
type OutboxEventSaver interface {
	SaveEvents(ctx context.Context, tx interface{}, events ...DomainEvent) error
}
