package notify

import (
	"strings"
	"sync"
)

type subscriber struct {
	prefix string
	ch     chan Notification
}

// Bus is an in-process publish/subscribe hub for notifications. Delivery is
// non-blocking: a subscriber whose buffer is full misses the notification.
type Bus struct {
	mu          sync.RWMutex
	subscribers map[uint64]*subscriber
	nextID      uint64
}

// NewBus creates an empty notification bus.
func NewBus() *Bus {
	return &Bus{
		subscribers: make(map[uint64]*subscriber),
	}
}

// Subscribe registers interest in every notification whose subject starts
// with prefix. An empty prefix matches all subjects. The returned cancel
// function removes the subscription and closes the channel.
func (b *Bus) Subscribe(prefix string, buffer int) (<-chan Notification, func()) {
	if buffer <= 0 {
		buffer = 64
	}

	sub := &subscriber{
		prefix: prefix,
		ch:     make(chan Notification, buffer),
	}

	b.mu.Lock()
	b.nextID++
	subID := b.nextID
	b.subscribers[subID] = sub
	b.mu.Unlock()

	cancel := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		s, exists := b.subscribers[subID]
		if !exists {
			return
		}
		delete(b.subscribers, subID)
		close(s.ch)
	}

	return sub.ch, cancel
}

// Publish delivers the notification to every matching subscriber.
func (b *Bus) Publish(n Notification) {
	b.mu.RLock()
	for _, sub := range b.subscribers {
		if !strings.HasPrefix(n.Subject, sub.prefix) {
			continue
		}
		select {
		case sub.ch <- n:
		default:
		}
	}
	b.mu.RUnlock()
}
