// Package broker provides an in-memory topic fan-out bus for live pic
// events.
//
// Contract:
//   - Publish MUST be non-blocking.
//   - Subscribers receive on buffered channels; a saturated subscriber
//     drops events rather than stalling the publisher.
//   - Per-topic publish order is preserved for every subscriber that
//     keeps up.
package broker

import (
	"sync"
	"sync/atomic"
	"time"
)

// Event is one published pic, tagged with its origin city.
type Event struct {
	City string
	Pic  string
	Time time.Time
}

// Broker is a topic-keyed publish/subscribe bus.
type Broker interface {
	Publish(topic string, e Event)
	Subscribe(topic string, buffer int) (ch <-chan Event, unsubscribe func())
}

// New returns a simple in-memory fan-out broker. It owns no background
// goroutines.
func New() Broker {
	return &memBroker{topics: map[string]map[uint64]chan Event{}}
}

type memBroker struct {
	mu     sync.RWMutex
	topics map[string]map[uint64]chan Event
	seq    atomic.Uint64
}

func (b *memBroker) Publish(topic string, e Event) {
	if e.Time.IsZero() {
		e.Time = time.Now().UTC()
	}
	// Snapshot subscribers so Publish doesn't hold locks while sending.
	b.mu.RLock()
	chs := make([]chan Event, 0, len(b.topics[topic]))
	for _, ch := range b.topics[topic] {
		chs = append(chs, ch)
	}
	b.mu.RUnlock()

	for _, ch := range chs {
		// Non-blocking delivery; slow subscribers drop. If a subscriber
		// unsubscribes concurrently and the channel closes, recover from
		// the send panic.
		func() {
			defer func() { _ = recover() }()
			select {
			case ch <- e:
			default:
			}
		}()
	}
}

func (b *memBroker) Subscribe(topic string, buffer int) (<-chan Event, func()) {
	if buffer <= 0 {
		buffer = 8
	}
	ch := make(chan Event, buffer)
	id := b.seq.Add(1)

	b.mu.Lock()
	subs, ok := b.topics[topic]
	if !ok {
		subs = make(map[uint64]chan Event)
		b.topics[topic] = subs
	}
	subs[id] = ch
	b.mu.Unlock()

	var once sync.Once
	unsub := func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.topics[topic], id)
			if len(b.topics[topic]) == 0 {
				delete(b.topics, topic)
			}
			b.mu.Unlock()
			// Closing is safe because Publish recovers from send panics.
			close(ch)
		})
	}
	return ch, unsub
}
