package catchup

import (
	"context"
	"strconv"
	"sync"
	"time"
)

// NewMemStore returns an in-memory EventStore of a single stream populated with
// n events at revisions 0 to n-1. Purely meant for testing.
func NewMemStore(n int) *MemStore {
	m := new(MemStore)
	for i := 0; i < n; i++ {
		m.Add()
	}
	return m
}

// MemStore is an in-memory EventStore that ignores the query. It records the
// windows read from it.
type MemStore struct {
	mu     sync.Mutex
	events []*Event
	reads  [][2]int64
	lasts  int
}

// Add appends a new event at the next revision and returns it.
func (m *MemStore) Add() *Event {
	m.mu.Lock()
	defer m.mu.Unlock()

	rev := int64(len(m.events))
	e := &Event{
		ID:             strconv.FormatInt(rev, 10),
		StreamRevision: rev,
		Payload:        []byte("payload-" + strconv.FormatInt(rev, 10)),
		Timestamp:      time.Now(),
	}
	m.events = append(m.events, e)
	return e
}

func (m *MemStore) GetLastEvent(_ context.Context, _ Query) (*Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.lasts++
	if len(m.events) == 0 {
		return nil, nil
	}
	return m.events[len(m.events)-1], nil
}

func (m *MemStore) GetEventStream(_ context.Context, _ Query, minRevision, maxRevision int64) ([]*Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.reads = append(m.reads, [2]int64{minRevision, maxRevision})

	res := []*Event{}
	for _, e := range m.events {
		if e.StreamRevision >= minRevision && e.StreamRevision <= maxRevision {
			res = append(res, e)
		}
	}
	return res, nil
}

// Reads returns the [min, max] windows read so far.
func (m *MemStore) Reads() [][2]int64 {
	m.mu.Lock()
	defer m.mu.Unlock()

	return append([][2]int64(nil), m.reads...)
}

// LastEventCalls returns the number of GetLastEvent calls so far.
func (m *MemStore) LastEventCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.lasts
}

// NopBuffer is a StreamBuffer that never holds events.
type NopBuffer struct{}

func (NopBuffer) GetEventsInBuffer(int64, int64) ([]*Event, error) { return nil, nil }

func (NopBuffer) OfferEvents([]*Event) {}
