package testutil

import (
	"context"
	"sync"

	"github.com/HerbHall/switchconnector/pkg/plugin"
)

// Compile-time interface check.
var _ plugin.EventBus = (*MockBus)(nil)

// MockBus is a thread-safe in-memory event bus that records every published
// event and delivers it synchronously to subscribers, async publishes
// included.
type MockBus struct {
	mu     sync.Mutex
	events []plugin.Event
	subs   map[string][]plugin.EventHandler
	all    []plugin.EventHandler
}

// NewMockBus returns a new MockBus.
func NewMockBus() *MockBus {
	return &MockBus{subs: make(map[string][]plugin.EventHandler)}
}

// Publish records event and runs the matching handlers.
func (b *MockBus) Publish(ctx context.Context, event plugin.Event) error {
	b.mu.Lock()
	b.events = append(b.events, event)
	handlers := append(append([]plugin.EventHandler(nil), b.subs[event.Topic]...), b.all...)
	b.mu.Unlock()

	for _, h := range handlers {
		h(ctx, event)
	}
	return nil
}

// PublishAsync behaves like Publish.
func (b *MockBus) PublishAsync(ctx context.Context, event plugin.Event) {
	_ = b.Publish(ctx, event)
}

// Subscribe registers handler for topic. The returned func is a no-op.
func (b *MockBus) Subscribe(topic string, handler plugin.EventHandler) func() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs[topic] = append(b.subs[topic], handler)
	return func() {}
}

// SubscribeAll registers handler for every topic. The returned func is a no-op.
func (b *MockBus) SubscribeAll(handler plugin.EventHandler) func() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.all = append(b.all, handler)
	return func() {}
}

// Events returns a copy of all recorded events.
func (b *MockBus) Events() []plugin.Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]plugin.Event, len(b.events))
	copy(out, b.events)
	return out
}

// Reset clears all recorded events. Subscriptions are kept.
func (b *MockBus) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = nil
}
