// Package notify carries the batched "items added" event: exactly one
// message per import, published after commit, with the created top-level
// item keys in parse order.
package notify

import "sync"

// ItemsAdded is the single post-commit event of one import.
type ItemsAdded struct {
	Keys []string
}

// Bus is an in-process publish/subscribe channel fan-out. There is no
// per-entity callback path; the coordinator publishes one batch.
type Bus struct {
	mu   sync.RWMutex
	subs []chan ItemsAdded
}

func NewBus() *Bus {
	return &Bus{}
}

// Subscribe returns a buffered channel receiving every future event.
func (b *Bus) Subscribe() <-chan ItemsAdded {
	b.mu.Lock()
	defer b.mu.Unlock()
	ch := make(chan ItemsAdded, 16)
	b.subs = append(b.subs, ch)
	return ch
}

// Publish delivers the event to all subscribers. A subscriber with a full
// buffer misses the event rather than blocking an import.
func (b *Bus) Publish(event ItemsAdded) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, ch := range b.subs {
		select {
		case ch <- event:
		default:
		}
	}
}
