package rbuffer

import (
	"sync"

	"github.com/luno/jettison/errors"
	"github.com/luno/jettison/j"

	"github.com/luno/catchup"
)

const defaultLimit = 10000

// ErrConsecEvent is returned when offered events do not have consecutive revisions.
var ErrConsecEvent = errors.New("non-consecutive event revisions", j.C("ERR_6a1e0c4f93d2b875"))

// Option defines a functional option to configure new buffers.
type Option func(*Buffer)

// WithLimit provides an option to set the maximum number of events
// retained by the buffer. It defaults to 10000.
func WithLimit(n int) Option {
	return func(b *Buffer) {
		b.limit = n
	}
}

// New returns an empty buffer of the head of a stream. The name is used
// as metrics label.
func New(name string, opts ...Option) *Buffer {
	b := &Buffer{
		name:  name,
		limit: defaultLimit,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Buffer is an in-memory catchup.StreamBuffer of the head of a stream.
// It holds a single run of consecutive revisions; offering events after a
// gap re-initialises it.
type Buffer struct {
	name  string
	limit int

	mu    sync.RWMutex
	cache []*catchup.Event
}

func (b *Buffer) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.lenUnsafe()
}

func (b *Buffer) lenUnsafe() int {
	return len(b.cache)
}

func (b *Buffer) emptyUnsafe() bool {
	return b.lenUnsafe() == 0
}

func (b *Buffer) headUnsafe() int64 {
	if b.emptyUnsafe() {
		return 0
	}
	return b.cache[0].StreamRevision
}

func (b *Buffer) tailUnsafe() int64 {
	if b.emptyUnsafe() {
		return 0
	}
	return b.cache[len(b.cache)-1].StreamRevision
}

// GetEventsInBuffer returns the buffered events from minRevision up to
// maxRevision (inclusive). It returns no events if minRevision is not buffered.
func (b *Buffer) GetEventsInBuffer(minRevision, maxRevision int64) ([]*catchup.Event, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.emptyUnsafe() || minRevision < b.headUnsafe() ||
		minRevision > b.tailUnsafe() || maxRevision < minRevision {
		missCounter.WithLabelValues(b.name).Inc()
		return nil, nil
	}

	if maxRevision > b.tailUnsafe() {
		maxRevision = b.tailUnsafe()
	}

	from := int(minRevision - b.headUnsafe())
	to := int(maxRevision-b.headUnsafe()) + 1

	hitCounter.WithLabelValues(b.name).Inc()
	return append([]*catchup.Event(nil), b.cache[from:to]...), nil
}

// OfferEvents adds the events to the buffer. Events that are not consecutive
// are ignored.
func (b *Buffer) OfferEvents(el []*catchup.Event) {
	if err := b.offer(el); err != nil {
		rejectCounter.WithLabelValues(b.name).Inc()
	}
}

func (b *Buffer) offer(el []*catchup.Event) error {
	if len(el) == 0 {
		return nil
	}

	// Validate consecutive revisions
	for i := 1; i < len(el); i++ {
		if el[i].StreamRevision != el[i-1].StreamRevision+1 {
			return errors.Wrap(ErrConsecEvent, "",
				j.MKV{"prev": el[i-1].StreamRevision, "next": el[i].StreamRevision})
		}
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.maybeUpdateUnsafe(el)
	b.maybeTrimUnsafe()

	return nil
}

func (b *Buffer) maybeUpdateUnsafe(el []*catchup.Event) {
	next := el[0].StreamRevision
	last := el[len(el)-1].StreamRevision

	// If empty, init
	if b.emptyUnsafe() {
		b.cache = append([]*catchup.Event(nil), el...)
		return
	}

	// If gap, re-init
	if b.tailUnsafe()+1 < next {
		b.cache = append([]*catchup.Event(nil), el...)
		return
	}

	// If consecutive or overlapping the tail, append the new part
	if last > b.tailUnsafe() {
		offset := int(b.tailUnsafe() + 1 - next)
		b.cache = append(b.cache, el[offset:]...)
		return
	}

	// Else already buffered
}

func (b *Buffer) maybeTrimUnsafe() {
	if b.lenUnsafe() > b.limit {
		offset := b.lenUnsafe() - b.limit
		b.cache = append([]*catchup.Event(nil), b.cache[offset:]...)
	}
}
