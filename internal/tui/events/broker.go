package events

import (
	"sync"
)

// wildcard subscribes a channel to every event type.
const wildcard EventType = "*"

// defaultBufferSize is per-subscriber. Publishing never blocks; a
// subscriber that falls this far behind starts losing events.
const defaultBufferSize = 64

// Broker fans events out to subscribers. The orchestrator publishes
// from its loop goroutine and the UI drains from bubbletea commands,
// so delivery must never block either side.
type Broker struct {
	mu   sync.RWMutex
	subs map[EventType][]chan Event
}

// NewBroker creates an empty broker.
func NewBroker() *Broker {
	return &Broker{
		subs: make(map[EventType][]chan Event),
	}
}

// Subscribe returns a channel receiving the given event types. With no
// types it receives everything.
func (b *Broker) Subscribe(types ...EventType) <-chan Event {
	if len(types) == 0 {
		types = []EventType{wildcard}
	}

	ch := make(chan Event, defaultBufferSize)

	b.mu.Lock()
	defer b.mu.Unlock()
	for _, t := range types {
		b.subs[t] = append(b.subs[t], ch)
	}
	return ch
}

// Unsubscribe detaches and closes the channel. With no types it is
// removed everywhere.
func (b *Broker) Unsubscribe(ch <-chan Event, types ...EventType) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(types) == 0 {
		for t := range b.subs {
			b.detach(t, ch)
		}
		return
	}
	for _, t := range types {
		b.detach(t, ch)
	}
}

// Publish delivers the event to every matching subscriber. Full
// subscriber buffers drop the event rather than stall the publisher.
func (b *Broker) Publish(event Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	deliver(b.subs[event.Type], event)
	deliver(b.subs[wildcard], event)
}

// PublishAsync publishes from a fresh goroutine, for publishers inside
// an Update cycle that must not re-enter the model synchronously.
func (b *Broker) PublishAsync(event Event) {
	go b.Publish(event)
}

// Clear closes every subscription. Used on shutdown and in tests.
func (b *Broker) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, chans := range b.subs {
		for _, ch := range chans {
			close(ch)
		}
	}
	b.subs = make(map[EventType][]chan Event)
}

func deliver(chans []chan Event, event Event) {
	for _, ch := range chans {
		select {
		case ch <- event:
		default:
		}
	}
}

func (b *Broker) detach(t EventType, target <-chan Event) {
	chans := b.subs[t]
	for i, ch := range chans {
		if ch == target {
			b.subs[t] = append(chans[:i], chans[i+1:]...)
			close(ch)
			break
		}
	}
	if len(b.subs[t]) == 0 {
		delete(b.subs, t)
	}
}
