// Package plugin holds the types shared between SwitchConnector plugins and
// the in-process event bus.
package plugin

import (
	"context"
	"time"
)

// Event is a message published on the bus.
type Event struct {
	Topic     string
	Source    string
	Timestamp time.Time
	Payload   any
}

// EventHandler receives events for a subscribed topic.
type EventHandler func(ctx context.Context, event Event)

// EventBus delivers events between plugins.
type EventBus interface {
	// Publish delivers event to every subscriber before returning.
	Publish(ctx context.Context, event Event) error
	// PublishAsync delivers event in the background.
	PublishAsync(ctx context.Context, event Event)
	// Subscribe registers handler for topic and returns an unsubscribe func.
	Subscribe(topic string, handler EventHandler) func()
	// SubscribeAll registers handler for every topic.
	SubscribeAll(handler EventHandler) func()
}
