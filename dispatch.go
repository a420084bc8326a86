package catchup

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/luno/jettison/errors"
	"github.com/luno/jettison/j"
	"github.com/luno/jettison/log"
	"golang.org/x/sync/errgroup"

	"github.com/luno/catchup/internal/metrics"
	"github.com/luno/catchup/internal/tracing"
)

// broadcast delivers the events in order to every registration current at
// the time of each event.
func (s *Subscription) broadcast(el []*Event) {
	for _, e := range el {
		regs := s.group.snapshot()
		if len(regs) == 0 {
			return
		}
		s.deliver(e, regs...)
	}
}

// deliver invokes the callbacks of the registrations with the event
// concurrently and returns once each completed or timed out.
func (s *Subscription) deliver(e *Event, regs ...*registration) {
	if len(regs) == 1 {
		s.invoke(regs[0], e)
		return
	}

	var eg errgroup.Group
	for _, r := range regs {
		r := r
		eg.Go(func() error {
			s.invoke(r, e)
			return nil
		})
	}
	_ = eg.Wait()
}

// invoke calls the registration's callback and waits for it to call done,
// for the callback timeout to expire or for the registration to be removed.
// A callback that never returns is abandoned, not interrupted.
func (s *Subscription) invoke(r *registration, e *Event) {
	ctx := tracing.Inject(r.ctx, e.Trace)
	ctx = log.ContextWith(ctx, j.MKS{
		"event_id":        e.ID,
		"stream_revision": strconv.FormatInt(e.StreamRevision, 10),
	})

	if r.cb == nil {
		s.fault(ctx, metrics.FaultNil, ErrNilCallback)
		return
	}

	t0 := time.Now()
	res := make(chan error, 1)
	var once sync.Once
	done := func(err error) {
		once.Do(func() {
			res <- err
		})
	}

	go func() {
		defer func() {
			if p := recover(); p != nil {
				done(errors.Wrap(ErrCallbackPanic, "", j.KV("panic", fmt.Sprint(p))))
			}
		}()
		r.cb(ctx, nil, e, done)
	}()

	t := newTimer(s.callbackTimeout)
	defer t.Stop()

	select {
	case err := <-res:
		metrics.CallbackLatency.With(s.labels).Observe(time.Since(t0).Seconds())
		metrics.SubscriberActivity.SetActive(r.activityKey)
		if errors.Is(err, ErrCallbackPanic) {
			s.fault(ctx, metrics.FaultPanic, err)
		} else if err != nil {
			s.fault(ctx, metrics.FaultError, err)
		}
	case <-t.C:
		s.fault(ctx, metrics.FaultTimeout, errors.Wrap(ErrCallbackTimeout, "",
			j.KV("timeout", s.callbackTimeout.String())))
	case <-r.ctx.Done():
		// Unsubscribed while in flight.
	}
}

// fault logs and counts a subscriber fault. Faults never propagate.
func (s *Subscription) fault(ctx context.Context, kind string, err error) {
	metrics.CallbackFaults.WithLabelValues(s.query.Context, s.query.Aggregate, kind).Inc()
	log.Error(ctx, errors.Wrap(err, "subscriber fault"), j.KS("kind", kind))
}

// newTimer is aliased for testing.
var newTimer = time.NewTimer
