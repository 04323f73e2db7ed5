package eventbus

import (
	"sync"
	"time"
)

type subscription struct {
	id      uint64
	handler Handler
}

// Bus is a simple in-process pub/sub event bus.
type Bus struct {
	mu     sync.RWMutex
	nextID uint64
	subs   map[Topic][]subscription
}

// New creates a new event bus.
func New() *Bus {
	return &Bus{
		subs: make(map[Topic][]subscription),
	}
}

// Subscribe registers a handler for a topic. The returned func removes it;
// calling it more than once is harmless.
func (b *Bus) Subscribe(topic Topic, handler Handler) func() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	id := b.nextID
	b.subs[topic] = append(b.subs[topic], subscription{id: id, handler: handler})
	return func() { b.unsubscribe(topic, id) }
}

// SubscribeMany registers one handler for several topics.
func (b *Bus) SubscribeMany(topics []Topic, handler Handler) func() {
	cancels := make([]func(), 0, len(topics))
	for _, t := range topics {
		cancels = append(cancels, b.Subscribe(t, handler))
	}
	return func() {
		for _, c := range cancels {
			c()
		}
	}
}

func (b *Bus) unsubscribe(topic Topic, id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	subs := b.subs[topic]
	for i, s := range subs {
		if s.id == id {
			b.subs[topic] = append(subs[:i:i], subs[i+1:]...)
			return
		}
	}
}

func (b *Bus) snapshot(topic Topic) []Handler {
	b.mu.RLock()
	defer b.mu.RUnlock()
	handlers := make([]Handler, len(b.subs[topic]))
	for i, s := range b.subs[topic] {
		handlers[i] = s.handler
	}
	return handlers
}

// Publish sends an event to all subscribers of the topic.
// Handlers are called synchronously in the order they were registered.
func (b *Bus) Publish(topic Topic, payload any) {
	event := Event{
		Topic:     topic,
		Payload:   payload,
		Timestamp: time.Now(),
	}
	for _, h := range b.snapshot(topic) {
		h(event)
	}
}

// PublishAsync sends an event to all subscribers asynchronously.
func (b *Bus) PublishAsync(topic Topic, payload any) {
	event := Event{
		Topic:     topic,
		Payload:   payload,
		Timestamp: time.Now(),
	}
	for _, h := range b.snapshot(topic) {
		go h(event)
	}
}
