// Package event provides the in-process event bus used to carry inventory
// changes from the credential vault to the switch drivers.
package event

import (
	"context"
	"sync"
	"time"

	"github.com/HerbHall/switchconnector/pkg/plugin"
	"go.uber.org/zap"
)

// Compile-time interface guard.
var _ plugin.EventBus = (*Bus)(nil)

type subscription struct {
	id      uint64
	handler plugin.EventHandler
}

// Bus is a topic-based publish/subscribe bus. Handlers run on the publisher's
// goroutine for Publish and on a new goroutine for PublishAsync.
type Bus struct {
	mu       sync.RWMutex
	nextID   uint64
	byTopic  map[string][]subscription
	wildcard []subscription
	logger   *zap.Logger
}

// NewBus creates an empty Bus.
func NewBus(logger *zap.Logger) *Bus {
	return &Bus{
		byTopic: make(map[string][]subscription),
		logger:  logger,
	}
}

// Publish delivers event to all matching handlers and returns once they finish.
func (b *Bus) Publish(ctx context.Context, event plugin.Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	for _, h := range b.handlers(event.Topic) {
		b.dispatch(ctx, h, event)
	}
	return nil
}

// PublishAsync delivers event on a background goroutine.
func (b *Bus) PublishAsync(ctx context.Context, event plugin.Event) {
	go func() {
		_ = b.Publish(ctx, event)
	}()
}

// Subscribe registers handler for topic.
func (b *Bus) Subscribe(topic string, handler plugin.EventHandler) func() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	id := b.nextID
	b.byTopic[topic] = append(b.byTopic[topic], subscription{id: id, handler: handler})

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		b.byTopic[topic] = without(b.byTopic[topic], id)
		if len(b.byTopic[topic]) == 0 {
			delete(b.byTopic, topic)
		}
	}
}

// SubscribeAll registers handler for every topic.
func (b *Bus) SubscribeAll(handler plugin.EventHandler) func() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	id := b.nextID
	b.wildcard = append(b.wildcard, subscription{id: id, handler: handler})

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		b.wildcard = without(b.wildcard, id)
	}
}

// handlers snapshots the handlers for topic so none run under the lock.
func (b *Bus) handlers(topic string) []plugin.EventHandler {
	b.mu.RLock()
	defer b.mu.RUnlock()
	subs := b.byTopic[topic]
	out := make([]plugin.EventHandler, 0, len(subs)+len(b.wildcard))
	for _, s := range subs {
		out = append(out, s.handler)
	}
	for _, s := range b.wildcard {
		out = append(out, s.handler)
	}
	return out
}

func (b *Bus) dispatch(ctx context.Context, h plugin.EventHandler, event plugin.Event) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("event handler panicked",
				zap.String("topic", event.Topic),
				zap.Any("panic", r),
			)
		}
	}()
	h(ctx, event)
}

func without(subs []subscription, id uint64) []subscription {
	out := subs[:0:0]
	for _, s := range subs {
		if s.id != id {
			out = append(out, s)
		}
	}
	return out
}
