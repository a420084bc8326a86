package catchup

import (
	"context"
	"sync"
	"time"

	"github.com/luno/jettison/errors"
	"github.com/luno/jettison/j"
	"github.com/luno/jettison/log"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/luno/catchup/internal/metrics"
)

// Subscription multiplexes many subscribers of one stream onto a single live
// poll loop. Each subscriber first catches up from its own starting revision
// and then receives the live broadcast.
type Subscription struct {
	store  EventStore
	buffer StreamBuffer
	query  Query
	labels prometheus.Labels

	windowSize      int64
	pollingTimeout  time.Duration
	callbackTimeout time.Duration
	activityTTL     time.Duration
	wake            WakeSource
	channel         string

	ctx    context.Context
	cancel context.CancelFunc
	group  *group
	wg     sync.WaitGroup

	mu       sync.Mutex
	closed   bool
	hasFirst bool
	first    int64
	loop     *loop
	last     *loop
}

// New returns a subscription to the stream identified by the query.
// It returns ErrInvalidConfig if a collaborator is missing or an option is invalid.
func New(store EventStore, buffer StreamBuffer, q Query, opts ...Option) (*Subscription, error) {
	s := &Subscription{
		store:           store,
		buffer:          buffer,
		query:           q,
		labels:          metrics.Labels(q.Context, q.Aggregate),
		windowSize:      defaultPollingMaxRevisions,
		pollingTimeout:  defaultPollingTimeout,
		callbackTimeout: defaultEventCallbackTimeout,
		activityTTL:     defaultActivityTTL,
		channel:         q.Channel(),
		group:           newGroup(),
	}
	for _, opt := range opts {
		opt(s)
	}

	if err := s.validate(); err != nil {
		return nil, err
	}

	s.ctx, s.cancel = context.WithCancel(log.ContextWith(context.Background(), j.MKS{
		"context":      q.Context,
		"aggregate":    q.Aggregate,
		"aggregate_id": q.AggregateID,
	}))

	return s, nil
}

func (s *Subscription) validate() error {
	invalid := func(msg string) error {
		return errors.Wrap(ErrInvalidConfig, msg)
	}

	switch {
	case s.store == nil:
		return invalid("nil event store")
	case s.buffer == nil:
		return invalid("nil stream buffer")
	case s.query.Context == "" || s.query.Aggregate == "" || s.query.AggregateID == "":
		return errors.Wrap(ErrInvalidConfig, "incomplete query",
			j.MKS{"context": s.query.Context, "aggregate": s.query.Aggregate,
				"aggregate_id": s.query.AggregateID})
	case s.windowSize <= 0:
		return invalid("polling max revisions not positive")
	case s.pollingTimeout <= 0:
		return invalid("polling timeout not positive")
	case s.callbackTimeout <= 0:
		return invalid("event callback timeout not positive")
	case s.channel == "":
		return invalid("empty wake channel")
	}

	return nil
}

// Subscribe registers the callback for the token, replacing any previous
// registration of the token, and starts catching it up from the revision.
// The live poll loop is started if it is not running. It returns the token
// immediately; events are delivered asynchronously.
func (s *Subscription) Subscribe(token string, revision int64, cb Callback) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return token
	}

	ctx, cancel := context.WithCancel(log.ContextWith(s.ctx, j.KS("token", token)))
	r := &registration{
		token:  token,
		cb:     cb,
		ctx:    ctx,
		cancel: cancel,
	}

	if prev := s.group.add(r); prev != nil {
		prev.cancel()
		metrics.SubscriberActivity.Unregister(prev.activityKey)
	}
	r.activityKey = metrics.SubscriberActivity.Register(
		metrics.TokenLabels(s.query.Context, s.query.Aggregate, token), s.activityTTL)
	metrics.Subscribers.With(s.labels).Set(float64(s.group.len()))

	if !s.hasFirst {
		s.hasFirst = true
		s.first = revision
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.catchUp(r, revision)
	}()

	s.startLocked()

	return token
}

// Unsubscribe removes the token's registration. Events in flight to the token
// may still be delivered once. The live poll loop stops when no tokens remain.
func (s *Subscription) Unsubscribe(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.group.remove(token)
	if !ok {
		return
	}
	r.cancel()
	metrics.SubscriberActivity.Unregister(r.activityKey)
	metrics.Subscribers.With(s.labels).Set(float64(s.group.len()))

	if s.group.len() == 0 {
		s.stopLocked()
	}
}

// Activate starts the live poll loop if it is stopped and at least one token
// is registered. Otherwise it is a no-op.
func (s *Subscription) Activate() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.group.len() == 0 {
		return
	}

	s.startLocked()
}

// Deactivate stops the live poll loop even if tokens remain registered.
// The in-flight tick, if any, completes first.
func (s *Subscription) Deactivate() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopLocked()
}

// Close stops the live poll loop, removes all registrations and waits for the
// catch-up tasks to return. Subscribe is a no-op after Close.
func (s *Subscription) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.stopLocked()
	for _, r := range s.group.removeAll() {
		r.cancel()
		metrics.SubscriberActivity.Unregister(r.activityKey)
	}
	metrics.Subscribers.With(s.labels).Set(0)
	s.cancel()
	s.mu.Unlock()

	s.wg.Wait()
}

// Running returns true if the live poll loop is running.
func (s *Subscription) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.loop != nil
}

// Len returns the number of registered tokens.
func (s *Subscription) Len() int {
	return s.group.len()
}

func (s *Subscription) startLocked() {
	if s.closed || s.loop != nil {
		return
	}

	l := newLoop()
	prev := s.last
	s.loop = l
	s.last = l

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.poll(l, prev, s.first)
	}()
}

func (s *Subscription) stopLocked() {
	if s.loop == nil {
		return
	}
	s.loop.halt()
	s.loop = nil
}
