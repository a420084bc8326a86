package rsql

import (
	"context"
	"database/sql"

	"github.com/luno/jettison/errors"
	"github.com/luno/jettison/j"

	"github.com/luno/catchup"
)

// NewEventsTable returns a new events table.
func NewEventsTable(name string, opts ...EventsOption) *EventsTable {
	table := &EventsTable{
		schema: eTableSchema{
			name:             name,
			idField:          defaultEventIDField,
			contextField:     defaultEventContextField,
			aggregateField:   defaultEventAggregateField,
			aggregateIDField: defaultEventAggregateIDField,
			revisionField:    defaultEventRevisionField,
			payloadField:     defaultEventPayloadField,
			timeField:        defaultEventTimeField,
			traceField:       defaultTraceField,
		},
		publisher: stubPublisher{},
		config:    opts,
	}

	for _, o := range table.config {
		o(table)
	}

	return table
}

// EventsOption defines a functional option to configure new event tables.
type EventsOption func(*EventsTable)

// WithEventIDField provides an option to set the event DB ID field.
// It defaults to 'id'.
func WithEventIDField(field string) EventsOption {
	return func(table *EventsTable) {
		table.schema.idField = field
	}
}

// WithEventStreamFields provides an option to set the fields identifying the
// stream of an event. They default to 'context', 'aggregate' and 'aggregate_id'.
func WithEventStreamFields(context, aggregate, aggregateID string) EventsOption {
	return func(table *EventsTable) {
		table.schema.contextField = context
		table.schema.aggregateField = aggregate
		table.schema.aggregateIDField = aggregateID
	}
}

// WithEventRevisionField provides an option to set the event stream revision
// field. It defaults to 'stream_revision'.
func WithEventRevisionField(field string) EventsOption {
	return func(table *EventsTable) {
		table.schema.revisionField = field
	}
}

// WithEventPayloadField provides an option to set the event payload field.
// It defaults to 'payload'.
func WithEventPayloadField(field string) EventsOption {
	return func(table *EventsTable) {
		table.schema.payloadField = field
	}
}

// WithEventTimeField provides an option to set the event DB timestamp field.
// It defaults to 'timestamp'.
func WithEventTimeField(field string) EventsOption {
	return func(table *EventsTable) {
		table.schema.timeField = field
	}
}

// WithEventTraceField provides an option to persist an opentelemetry trace
// from the context used to insert an event. It is disabled by default.
func WithEventTraceField(field string) EventsOption {
	return func(table *EventsTable) {
		table.schema.traceField = field
	}
}

// WithEventsPublisher provides an option to publish a wake notification on the
// stream channel of inserted events, see rwake.
func WithEventsPublisher(p Publisher) EventsOption {
	return func(table *EventsTable) {
		table.publisher = p
	}
}

// EventsTable provides event insertion and catchup.EventStore access
// to a mysql events table. Revisions are unique per stream; the table should
// have a unique key on the stream and revision fields.
type EventsTable struct {
	schema    eTableSchema
	publisher Publisher
	config    []EventsOption
}

// DBC is a common interface for *sql.DB and *sql.Tx.
type DBC interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// Insert inserts an event with the revision into the stream and returns a
// function that can be optionally called to publish a wake notification on the
// stream channel. It returns ErrRevisionConflict if the revision already exists.
// The intended pattern for this function is:
//
//	notify, err := eTable.Insert(ctx, tx, q, rev, payload)
//	if err != nil {
//	  return err
//	}
//	defer notify()
//	return doWorkAndCommit(tx)
func (t *EventsTable) Insert(ctx context.Context, dbc DBC, q catchup.Query,
	revision int64, payload []byte,
) (NotifyFunc, error) {
	if revision < 0 {
		return noopFunc, errors.Wrap(ErrInvalidRevision, "",
			j.MKV{"revision": revision})
	}

	query, args, err := makeInsertQuery(ctx, t.schema, q, revision, payload)
	if err != nil {
		return noopFunc, err
	}

	_, err = dbc.ExecContext(ctx, query, args...)
	if isMySQLErrDupEntry(err) {
		conflictCounter.WithLabelValues(t.schema.name).Inc()
		return noopFunc, errors.Wrap(ErrRevisionConflict, "",
			j.MKV{"channel": q.Channel(), "revision": revision})
	} else if err != nil {
		return noopFunc, errors.Wrap(err, "insert error")
	}

	insertCounter.WithLabelValues(t.schema.name).Inc()

	return func() {
		t.publisher.Publish(q.Channel())
	}, nil
}

// Clone returns a new events table generated from the config of t with the new options applied.
func (t *EventsTable) Clone(opts ...EventsOption) *EventsTable {
	clone := append([]EventsOption(nil), t.config...)
	clone = append(clone, opts...)
	return NewEventsTable(t.schema.name, clone...)
}

// ToStore returns a catchup.EventStore reading the events table.
func (t *EventsTable) ToStore(dbc *sql.DB) catchup.EventStore {
	return &store{schema: t.schema, dbc: dbc}
}

type store struct {
	schema eTableSchema
	dbc    *sql.DB
}

func (s *store) GetLastEvent(ctx context.Context, q catchup.Query) (*catchup.Event, error) {
	readCounter.WithLabelValues(s.schema.name, opLast).Inc()
	return getLastEvent(ctx, s.dbc, s.schema, q)
}

func (s *store) GetEventStream(ctx context.Context, q catchup.Query,
	minRevision, maxRevision int64,
) ([]*catchup.Event, error) {
	readCounter.WithLabelValues(s.schema.name, opStream).Inc()
	return getEventStream(ctx, s.dbc, s.schema, q, minRevision, maxRevision)
}

// eTableSchema defines the mysql schema of an events table.
type eTableSchema struct {
	name             string
	idField          string
	contextField     string
	aggregateField   string
	aggregateIDField string
	revisionField    string
	payloadField     string
	timeField        string
	traceField       string
}

// Publisher publishes wake notifications on a channel.
type Publisher interface {
	Publish(channel string)
}

// NotifyFunc publishes a wake notification on the stream channel of an inserted event.
type NotifyFunc func()

var noopFunc NotifyFunc = func() {}

// stubPublisher is an implementation of Publisher that does nothing.
type stubPublisher struct{}

func (stubPublisher) Publish(string) {}
