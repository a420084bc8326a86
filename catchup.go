package catchup

import (
	"github.com/luno/jettison/errors"
	"github.com/luno/jettison/j"
	"github.com/luno/jettison/log"

	"github.com/luno/catchup/internal/metrics"
)

// catchUp replays the stream to the registration from the requested revision
// up to the live edge, reading the buffer before the store. It returns at the
// first double miss, on the first upstream error or once the registration is
// no longer current. The registration stays in the group for live delivery.
func (s *Subscription) catchUp(r *registration, revision int64) {
	ctx := r.ctx

	w, err := s.reconcile(ctx, revision)
	if err != nil {
		if !IsExpected(err) {
			log.Error(ctx, errors.Wrap(err, "catch-up reconcile"))
		}
		return
	}

	for {
		if ctx.Err() != nil || !s.group.isCurrent(r) {
			return
		}

		el, err := s.buffer.GetEventsInBuffer(w.Min, w.Max)
		if err != nil {
			log.Error(ctx, errors.Wrap(err, "catch-up buffer read",
				j.MKV{"min": w.Min, "max": w.Max}))
			return
		}

		if len(el) > 0 {
			metrics.BufferHits.With(s.labels).Inc()
		} else {
			metrics.BufferMisses.With(s.labels).Inc()
			metrics.StoreReads.WithLabelValues(s.query.Context,
				s.query.Aggregate, metrics.SourceCatchUp).Inc()

			el, err = s.store.GetEventStream(ctx, s.query, w.Min, w.Max)
			if err != nil {
				if !IsExpected(err) {
					log.Error(ctx, errors.Wrap(err, "catch-up store read",
						j.MKV{"min": w.Min, "max": w.Max}))
				}
				return
			}

			if len(el) == 0 {
				// Double miss, the live edge.
				return
			}

			s.buffer.OfferEvents(el)
		}

		for _, e := range el {
			if !s.group.isCurrent(r) {
				return
			}
			s.deliver(e, r)
		}

		w = w.after(el[len(el)-1].StreamRevision, s.windowSize)
	}
}
