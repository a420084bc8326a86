package catchup

import (
	"time"
)

const (
	defaultPollingMaxRevisions  = 10
	defaultPollingTimeout       = time.Second
	defaultEventCallbackTimeout = 10 * time.Second
	defaultActivityTTL          = time.Hour
)

// Option defines a functional option that configures a Subscription.
type Option func(*Subscription)

// WithPollingMaxRevisions provides an option to set the window size of
// store and buffer reads; a window spans [min, min+n]. It defaults to 10.
func WithPollingMaxRevisions(n int64) Option {
	return func(s *Subscription) {
		s.windowSize = n
	}
}

// WithPollingTimeout provides an option to set the period the live poll loop
// rests when no new events are available. It defaults to 1s.
func WithPollingTimeout(d time.Duration) Option {
	return func(s *Subscription) {
		s.pollingTimeout = d
	}
}

// WithEventCallbackTimeout provides an option to set the duration after which
// a callback that has not called done is considered complete. It defaults to 10s.
func WithEventCallbackTimeout(d time.Duration) Option {
	return func(s *Subscription) {
		s.callbackTimeout = d
	}
}

// WithWakeSource provides an option to cut the live poll loop's rest short
// when a notification is published on the subscription channel.
func WithWakeSource(ws WakeSource) Option {
	return func(s *Subscription) {
		s.wake = ws
	}
}

// WithChannel provides an option to set the wake channel name.
// It defaults to Query.Channel().
func WithChannel(channel string) Option {
	return func(s *Subscription) {
		s.channel = channel
	}
}

// WithActivityTTL provides an option to set the period after which a subscriber
// that did not acknowledge an event is reported as inactive. A negative
// duration disables the activity gauge. It defaults to 1h.
func WithActivityTTL(ttl time.Duration) Option {
	return func(s *Subscription) {
		s.activityTTL = ttl
	}
}
