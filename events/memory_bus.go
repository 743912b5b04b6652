package events

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

const subscriberBuffer = 64

// MemoryBus is an in-process fan-out bus. Slow subscribers lose events instead of blocking publishers.
type MemoryBus struct {
	log *zap.Logger

	mu     sync.RWMutex
	subs   map[int]chan Event
	nextID int
	closed bool
}

// NewMemoryBus creates an empty bus. A nil logger disables logging.
func NewMemoryBus(log *zap.Logger) *MemoryBus {
	if log == nil {
		log = zap.NewNop()
	}
	return &MemoryBus{log: log, subs: map[int]chan Event{}}
}

// Publish delivers ev to every current subscriber.
func (b *MemoryBus) Publish(_ context.Context, ev Event) error {
	b.broadcast(ev)
	return nil
}

func (b *MemoryBus) broadcast(ev Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return
	}
	for id, ch := range b.subs {
		select {
		case ch <- ev:
		default:
			b.log.Warn("event dropped for slow subscriber", zap.Int("subscriber", id), zap.String("type", ev.Type))
		}
	}
}

// Subscribe registers a new subscriber.
func (b *MemoryBus) Subscribe() (<-chan Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	ch := make(chan Event, subscriberBuffer)
	if b.closed {
		close(ch)
		return ch, func() {}
	}
	id := b.nextID
	b.nextID++
	b.subs[id] = ch

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			if c, ok := b.subs[id]; ok {
				delete(b.subs, id)
				close(c)
			}
		})
	}
	return ch, cancel
}

// Close closes every subscriber channel. Later publishes are ignored.
func (b *MemoryBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	for id, ch := range b.subs {
		delete(b.subs, id)
		close(ch)
	}
	return nil
}
