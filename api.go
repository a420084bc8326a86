package catchup

import (
	"context"
	"time"
)

// Query identifies a single logical event stream.
type Query struct {
	Context     string
	Aggregate   string
	AggregateID string
}

// Channel returns the default wake channel name of the stream,
// ie. "context.aggregate.aggregateId".
func (q Query) Channel() string {
	return q.Context + "." + q.Aggregate + "." + q.AggregateID
}

// Event is an immutable event of a stream. StreamRevision is the stream-scoped
// position of the event; it is monotonically increasing and gapless in the store.
// Payload is opaque to this package.
type Event struct {
	ID             string
	StreamRevision int64
	Payload        []byte
	Timestamp      time.Time
	Trace          []byte
}

// EventStore is the durable, revision-ordered append log of events.
type EventStore interface {
	// GetLastEvent returns the event with the highest revision of the stream
	// or nil if the stream is empty.
	GetLastEvent(ctx context.Context, q Query) (*Event, error)

	// GetEventStream returns the events of the stream with revisions between
	// minRevision and maxRevision (inclusive) in ascending order. It returns
	// an empty slice, not an error, if there are no events in the range.
	GetEventStream(ctx context.Context, q Query, minRevision, maxRevision int64) ([]*Event, error)
}

// StreamBuffer is a short-term recency cache of a stream.
type StreamBuffer interface {
	// GetEventsInBuffer returns the buffered events with revisions between
	// minRevision and maxRevision (inclusive). An empty result is a miss.
	GetEventsInBuffer(minRevision, maxRevision int64) ([]*Event, error)

	// OfferEvents populates the buffer. It is best effort and must not block.
	OfferEvents(events []*Event)
}

// WakeSource provides notifications that new events may be available on a
// channel. The content of notifications is ignored.
type WakeSource interface {
	// Subscribe calls fn for every notification published on the channel
	// until the returned function is called.
	Subscribe(channel string, fn func()) (unsubscribe func())
}

// DoneFunc signals that a callback finished processing an event. Calls after the
// first, or after the callback timed out, are ignored.
type DoneFunc func(error)

// Callback is the subscriber contract. It is invoked once per event with a nil
// error and must call done, optionally with an error, when finished. Callbacks
// should be idempotent per revision since delivery is at-least-once.
type Callback func(ctx context.Context, err error, e *Event, done DoneFunc)
