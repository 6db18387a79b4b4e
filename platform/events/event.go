// Package events is the in-process event bus the funnel modules communicate
// over: lifecycle changes go in, score recomputes and hot-list updates come
// out. Concrete event types live with the publishing module.
package events

import (
	"context"
	"time"
)

// Event is implemented by every published event.
type Event interface {
	// EventName identifies the event type, e.g. "leads.lead.moved".
	EventName() string
	OccurredAt() time.Time
}

// BaseEvent supplies the timestamp shared by all events. Embed it and
// construct with NewBaseEvent.
type BaseEvent struct {
	Timestamp time.Time `json:"timestamp"`
}

func (e BaseEvent) OccurredAt() time.Time {
	return e.Timestamp
}

func NewBaseEvent() BaseEvent {
	return BaseEvent{Timestamp: time.Now()}
}

type Handler interface {
	Handle(ctx context.Context, event Event) error
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(ctx context.Context, event Event) error

func (f HandlerFunc) Handle(ctx context.Context, event Event) error {
	return f(ctx, event)
}

// Bus publishes events to the handlers subscribed to their name.
type Bus interface {
	// Publish dispatches to handlers asynchronously; failures are the
	// handlers' concern, not the publisher's.
	Publish(ctx context.Context, event Event)

	// PublishSync dispatches and waits for every handler.
	PublishSync(ctx context.Context, event Event) error

	// Subscribe registers a handler under an Event.EventName() value.
	Subscribe(eventName string, handler Handler)
}
