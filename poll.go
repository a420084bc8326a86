package catchup

import (
	"sync"

	"github.com/luno/jettison/errors"
	"github.com/luno/jettison/j"
	"github.com/luno/jettison/log"

	"github.com/luno/catchup/internal/metrics"
)

// loop is the stop handle of one run of the live poll loop.
type loop struct {
	stop chan struct{}
	done chan struct{}
	once sync.Once
}

func newLoop() *loop {
	return &loop{
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
}

// halt stops the loop after its in-flight tick. It is safe to call more than once.
func (l *loop) halt() {
	l.once.Do(func() {
		close(l.stop)
	})
}

func (l *loop) stopped() bool {
	select {
	case <-l.stop:
		return true
	default:
		return false
	}
}

// poll runs the live poll loop until it is halted or the subscription is closed.
// The cursor is reconciled from the first requested revision on every run.
// It waits for the previous run, if any, to finish its last tick first.
// A run halted while waiting is only done once the previous run is, so
// runs are done in start order.
func (s *Subscription) poll(l, prev *loop, first int64) {
	ctx := s.ctx
	defer close(l.done)

	if prev != nil {
		select {
		case <-prev.done:
		case <-l.stop:
			<-prev.done
			return
		}
	}

	metrics.LoopsRunning.With(s.labels).Inc()
	defer func() {
		metrics.LoopsRunning.With(s.labels).Dec()

		s.mu.Lock()
		defer s.mu.Unlock()
		if s.loop == l {
			s.loop = nil
		}
	}()

	log.Info(ctx, "live poll loop started")
	defer log.Info(ctx, "live poll loop stopped")

	wake := make(chan struct{}, 1)
	if s.wake != nil {
		unsub := s.wake.Subscribe(s.channel, func() {
			select {
			case wake <- struct{}{}:
			default:
				// Coalesce.
			}
		})
		defer unsub()
	}

	var (
		w      window
		cursor bool
	)
	for {
		if !s.rest(l, wake) {
			return
		}

		if !cursor {
			var err error
			w, err = s.reconcile(ctx, first)
			if err != nil {
				if !IsExpected(err) {
					log.Error(ctx, errors.Wrap(err, "live reconcile"))
				}
				continue
			}
			cursor = true
		}

		w = s.drain(l, w)
	}
}

// rest waits for the polling timeout or a wake notification, whichever is
// first. It returns false if the loop was halted or the subscription closed.
func (s *Subscription) rest(l *loop, wake <-chan struct{}) bool {
	t := newTimer(s.pollingTimeout)
	defer t.Stop()

	select {
	case <-t.C:
	case <-wake:
	case <-l.stop:
		return false
	case <-s.ctx.Done():
		return false
	}

	return !l.stopped()
}

// drain reads consecutive windows from the store, offering and broadcasting
// each non-empty window, until a window is empty or a read fails. It returns
// the next window to read.
func (s *Subscription) drain(l *loop, w window) window {
	for {
		metrics.PollCounter.With(s.labels).Inc()
		metrics.StoreReads.WithLabelValues(s.query.Context,
			s.query.Aggregate, metrics.SourceLive).Inc()

		el, err := s.store.GetEventStream(s.ctx, s.query, w.Min, w.Max)
		if err != nil {
			if !IsExpected(err) {
				log.Error(s.ctx, errors.Wrap(err, "live store read",
					j.MKV{"min": w.Min, "max": w.Max}))
			}
			return w
		}

		if len(el) == 0 {
			return w
		}

		s.buffer.OfferEvents(el)
		s.broadcast(el)

		w = w.after(el[len(el)-1].StreamRevision, s.windowSize)

		if l.stopped() {
			return w
		}
	}
}
