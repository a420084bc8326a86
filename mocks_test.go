package catchup_test

import (
	"context"
	"strconv"
	"sync"
	"testing"

	"github.com/luno/jettison/errors"
	"github.com/stretchr/testify/require"

	"github.com/luno/catchup"
)

// ops is an ordered log of buffer offers and deliveries.
type ops struct {
	mu  sync.Mutex
	log []string
}

func (o *ops) add(op string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.log = append(o.log, op)
}

func (o *ops) get() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]string(nil), o.log...)
}

func newMockBuffer(ops *ops, revisions ...int64) *mockBuffer {
	b := &mockBuffer{ops: ops, events: make(map[int64]*catchup.Event)}
	for _, rev := range revisions {
		b.events[rev] = &catchup.Event{ID: i2s(rev), StreamRevision: rev}
	}
	return b
}

// mockBuffer serves the consecutive events it was seeded with and records
// offers without storing them.
type mockBuffer struct {
	mu     sync.Mutex
	ops    *ops
	events map[int64]*catchup.Event
	reads  [][2]int64
	offers [][]int64
}

func (b *mockBuffer) GetEventsInBuffer(minRevision, maxRevision int64) ([]*catchup.Event, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.reads = append(b.reads, [2]int64{minRevision, maxRevision})

	var res []*catchup.Event
	for rev := minRevision; rev <= maxRevision; rev++ {
		e, ok := b.events[rev]
		if !ok {
			break
		}
		res = append(res, e)
	}
	return res, nil
}

func (b *mockBuffer) OfferEvents(el []*catchup.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	var revs []int64
	for _, e := range el {
		revs = append(revs, e.StreamRevision)
	}
	b.offers = append(b.offers, revs)
	if b.ops != nil {
		b.ops.add("offer:" + i2s(revs[0]) + "-" + i2s(revs[len(revs)-1]))
	}
}

func (b *mockBuffer) Offers() [][]int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([][]int64(nil), b.offers...)
}

var errUpstream = errors.New("upstream unavailable")

func newMockStore(n int) *mockStore {
	return &mockStore{MemStore: catchup.NewMemStore(n)}
}

// mockStore is a MemStore that fails a number of calls on demand, can block
// GetEventStream calls and tracks how many of them run concurrently.
type mockStore struct {
	*catchup.MemStore

	mu          sync.Mutex
	lastErrs    int
	streamErrs  int
	lastCalls   int
	streamCalls int
	gate        chan struct{}
	inflight    int
	maxInflight int
}

// failLast fails the next n GetLastEvent calls.
func (m *mockStore) failLast(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastErrs = n
}

// failStream fails the next n GetEventStream calls, or all of them if n is negative.
func (m *mockStore) failStream(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.streamErrs = n
}

// block makes GetEventStream calls wait until release.
func (m *mockStore) block() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gate = make(chan struct{})
	m.maxInflight = m.inflight
}

func (m *mockStore) release() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.gate != nil {
		close(m.gate)
		m.gate = nil
	}
}

func (m *mockStore) GetLastEvent(ctx context.Context, q catchup.Query) (*catchup.Event, error) {
	m.mu.Lock()
	m.lastCalls++
	if m.lastErrs > 0 {
		m.lastErrs--
		m.mu.Unlock()
		return nil, errUpstream
	}
	m.mu.Unlock()

	return m.MemStore.GetLastEvent(ctx, q)
}

func (m *mockStore) GetEventStream(ctx context.Context, q catchup.Query,
	minRevision, maxRevision int64,
) ([]*catchup.Event, error) {
	m.mu.Lock()
	m.streamCalls++
	if m.streamErrs != 0 {
		if m.streamErrs > 0 {
			m.streamErrs--
		}
		m.mu.Unlock()
		return nil, errUpstream
	}
	gate := m.gate
	m.inflight++
	if m.inflight > m.maxInflight {
		m.maxInflight = m.inflight
	}
	m.mu.Unlock()

	defer func() {
		m.mu.Lock()
		m.inflight--
		m.mu.Unlock()
	}()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	return m.MemStore.GetEventStream(ctx, q, minRevision, maxRevision)
}

func (m *mockStore) LastCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastCalls
}

func (m *mockStore) StreamCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.streamCalls
}

func (m *mockStore) Inflight() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.inflight
}

func (m *mockStore) MaxInflight() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.maxInflight
}

// errBuffer fails every read.
type errBuffer struct {
	mu    sync.Mutex
	calls int
}

func (b *errBuffer) GetEventsInBuffer(int64, int64) ([]*catchup.Event, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls++
	return nil, errUpstream
}

func (b *errBuffer) OfferEvents([]*catchup.Event) {}

func (b *errBuffer) Calls() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls
}

// collector is a well-behaved subscriber recording delivered revisions.
type collector struct {
	mu   sync.Mutex
	ops  *ops
	revs []int64
}

func (c *collector) Callback(_ context.Context, _ error, e *catchup.Event, done catchup.DoneFunc) {
	c.mu.Lock()
	c.revs = append(c.revs, e.StreamRevision)
	c.mu.Unlock()

	if c.ops != nil {
		c.ops.add("deliver:" + i2s(e.StreamRevision))
	}
	done(nil)
}

func (c *collector) Revisions() []int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]int64(nil), c.revs...)
}

func (c *collector) Has(rev int64) bool {
	for _, r := range c.Revisions() {
		if r == rev {
			return true
		}
	}
	return false
}

func newSubscription(t *testing.T, store catchup.EventStore, buffer catchup.StreamBuffer,
	opts ...catchup.Option,
) *catchup.Subscription {
	s, err := catchup.New(store, buffer, testQuery(t), opts...)
	require.NoError(t, err)
	t.Cleanup(s.Close)
	return s
}

func testQuery(t *testing.T) catchup.Query {
	return catchup.Query{
		Context:     "test",
		Aggregate:   t.Name(),
		AggregateID: "1",
	}
}

func i2s(i int64) string {
	return strconv.FormatInt(i, 10)
}
