// Package catchup provides hybrid catch-up/live subscriptions to an event
// stream. Many subscribers, each starting at an arbitrary revision of the
// stream, receive every event at least once and in revision order while
// sharing a single poll against the event store.
//
// A stream is identified by a Query (context, aggregate and aggregate id).
// Events carry a stream revision which is monotonically increasing and
// gapless in the store.
//    stream_revision int64  // position of the event in the stream
//    payload []byte         // opaque to this package
//    timestamp time.Time    // time the event was stored
//
// The Subscription is constructed with an EventStore (the durable append log)
// and a StreamBuffer (a short-term recency cache of the stream head).
//
// Subscribe registers a token with a callback and starts a catch-up task for
// it. The catch-up task reads windows of revisions from the buffer, falling
// back to the store on a miss, and delivers them to that subscriber only. It
// terminates when both the buffer and the store return nothing for a window:
// the live edge.
//
// The first Subscribe also starts the live poll loop. The loop reads the next
// window from the store, offers the events to the buffer and broadcasts them
// to all registered tokens. When a window is empty it rests for the polling
// timeout, or less if a WakeSource notification arrives on the stream channel.
// The loop stops when the last token is unsubscribed or on Deactivate.
//
// Callbacks must call done. A callback that does not call done within the
// event callback timeout, or that panics, is logged and skipped; it never
// blocks delivery to other subscribers. There is no redelivery. Subscribers
// may receive an event twice when moving from catch-up to live and should
// therefore be idempotent per revision.
//
// The subpackages provide collaborators:
//   - rbuffer: in-memory StreamBuffer of the stream head.
//   - rsql: MySQL events table implementing EventStore.
//   - rblob: cloud blob archive implementing EventStore.
//   - rwake: WakeSources backed by juju/pubsub or in-memory notifiers.
//   - rgrpc: gRPC transport of subscriptions to remote subscribers.
package catchup
