package rwake

import (
	"sync"
)

// NewNotifier returns an in-memory wake source.
func NewNotifier() *Notifier {
	return &Notifier{listeners: make(map[string]map[int]func())}
}

// Notifier is an in-memory wake source and publisher. Listeners are called
// synchronously by Publish and must not block.
type Notifier struct {
	mu        sync.Mutex
	next      int
	listeners map[string]map[int]func()
}

func (n *Notifier) Subscribe(channel string, fn func()) func() {
	n.mu.Lock()
	defer n.mu.Unlock()

	id := n.next
	n.next++

	if n.listeners[channel] == nil {
		n.listeners[channel] = make(map[int]func())
	}
	n.listeners[channel][id] = fn

	return func() {
		n.mu.Lock()
		defer n.mu.Unlock()

		delete(n.listeners[channel], id)
		if len(n.listeners[channel]) == 0 {
			delete(n.listeners, channel)
		}
	}
}

func (n *Notifier) Publish(channel string) {
	n.mu.Lock()
	fns := make([]func(), 0, len(n.listeners[channel]))
	for _, fn := range n.listeners[channel] {
		fns = append(fns, fn)
	}
	n.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}

// Len returns the number of listeners of the channel.
func (n *Notifier) Len(channel string) int {
	n.mu.Lock()
	defer n.mu.Unlock()

	return len(n.listeners[channel])
}
