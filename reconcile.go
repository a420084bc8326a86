package catchup

import (
	"context"

	"github.com/luno/jettison/errors"
)

// window is an inclusive [Min, Max] revision range read from the buffer or store.
type window struct {
	Min int64
	Max int64
}

func newWindow(start, size int64) window {
	return window{Min: start, Max: start + size}
}

// after returns the window following the last delivered revision.
func (w window) after(last, size int64) window {
	return newWindow(last+1, size)
}

// startRevision reconciles a requested starting revision against the last
// event in the store. It never skips unseen history and never starts beyond
// the revision following the last event.
func startRevision(requested int64, last *Event) int64 {
	if last == nil {
		return 0
	}

	if requested < 0 {
		requested = 0
	}

	next := last.StreamRevision + 1
	if requested > next {
		return next
	}

	return requested
}

// reconcile returns the first window for the requested revision.
func (s *Subscription) reconcile(ctx context.Context, requested int64) (window, error) {
	last, err := s.store.GetLastEvent(ctx, s.query)
	if err != nil {
		return window{}, errors.Wrap(err, "get last event")
	}

	return newWindow(startRevision(requested, last), s.windowSize), nil
}
