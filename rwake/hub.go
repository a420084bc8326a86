package rwake

import (
	"github.com/juju/pubsub/v2"
)

// NewHub returns a wake source backed by a juju pubsub SimpleHub. Each stream
// channel is a hub topic; the published data is ignored.
func NewHub() *Hub {
	return &Hub{hub: pubsub.NewSimpleHub(&pubsub.SimpleHubConfig{})}
}

// NewHubFrom returns a wake source using an existing hub, typically shared
// with other publishers in the process.
func NewHubFrom(hub *pubsub.SimpleHub) *Hub {
	return &Hub{hub: hub}
}

// Hub is a wake source and publisher backed by a juju pubsub SimpleHub.
// Handlers are called asynchronously in the order notifications are published.
type Hub struct {
	hub *pubsub.SimpleHub
}

// Subscribe calls fn for every publish on the channel until the returned
// function is called.
func (h *Hub) Subscribe(channel string, fn func()) func() {
	return h.hub.Subscribe(channel, func(string, interface{}) {
		fn()
	})
}

// Publish notifies the channel's subscribers that new events may be available.
func (h *Hub) Publish(channel string) {
	h.hub.Publish(channel, nil)
}
