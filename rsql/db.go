package rsql

import (
	"context"
	"database/sql"
	"strconv"

	"github.com/go-sql-driver/mysql"
	"github.com/luno/jettison/errors"

	"github.com/luno/catchup"
	"github.com/luno/catchup/internal/tracing"
)

const (
	defaultEventIDField          = "id"
	defaultEventContextField     = "context"
	defaultEventAggregateField   = "aggregate"
	defaultEventAggregateIDField = "aggregate_id"
	defaultEventRevisionField    = "stream_revision"
	defaultEventPayloadField     = "payload"
	defaultEventTimeField        = "timestamp"
	defaultTraceField            = "" // disabled by default
)

// makeInsertQuery returns the insert query and args of an event.
func makeInsertQuery(ctx context.Context, schema eTableSchema, q catchup.Query,
	revision int64, payload []byte,
) (string, []interface{}, error) {
	query := "insert into " + schema.name + " set " +
		schema.contextField + "=?, " +
		schema.aggregateField + "=?, " +
		schema.aggregateIDField + "=?, " +
		schema.revisionField + "=?, " +
		schema.payloadField + "=?, " +
		schema.timeField + "=now(6)"
	args := []interface{}{q.Context, q.Aggregate, q.AggregateID, revision, payload}

	spanCtx, hasTrace := tracing.Extract(ctx)
	if schema.traceField != "" && hasTrace {
		traceData, err := tracing.Marshal(spanCtx)
		if err != nil {
			return "", nil, err
		}

		query += ", " + schema.traceField + "=?"
		args = append(args, traceData)
	}

	return query, args, nil
}

// makeSelectQuery returns the select query of a stream's events; the where
// clause is completed by the caller.
func makeSelectQuery(schema eTableSchema) string {
	q := "select " + schema.idField + ", " + schema.revisionField + ", " +
		schema.payloadField + ", " + schema.timeField

	if schema.traceField != "" {
		q += ", " + schema.traceField
	} else {
		q += ", null"
	}

	q += " from " + schema.name + " where " +
		schema.contextField + "=? and " +
		schema.aggregateField + "=? and " +
		schema.aggregateIDField + "=?"

	return q
}

type row interface {
	Scan(dest ...interface{}) error
}

func scan(row row) (*catchup.Event, error) {
	var (
		e  catchup.Event
		id int64
	)
	err := row.Scan(&id, &e.StreamRevision, &e.Payload, &e.Timestamp, &e.Trace)
	if err != nil {
		return nil, err
	}
	e.ID = strconv.FormatInt(id, 10)
	return &e, nil
}

func getLastEvent(ctx context.Context, dbc *sql.DB, schema eTableSchema,
	q catchup.Query,
) (*catchup.Event, error) {
	query := makeSelectQuery(schema) +
		" order by " + schema.revisionField + " desc limit 1"

	e, err := scan(dbc.QueryRowContext(ctx, query, q.Context, q.Aggregate, q.AggregateID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	} else if err != nil {
		return nil, errors.Wrap(err, "get last event error")
	}

	return e, nil
}

func getEventStream(ctx context.Context, dbc *sql.DB, schema eTableSchema,
	q catchup.Query, minRevision, maxRevision int64,
) ([]*catchup.Event, error) {
	query := makeSelectQuery(schema) +
		" and " + schema.revisionField + ">=? and " + schema.revisionField + "<=?" +
		" order by " + schema.revisionField + " asc"

	rows, err := dbc.QueryContext(ctx, query,
		q.Context, q.Aggregate, q.AggregateID, minRevision, maxRevision)
	if err != nil {
		return nil, errors.Wrap(err, "get event stream error")
	}
	defer func() {
		_ = rows.Close()
	}()

	el := []*catchup.Event{}
	for rows.Next() {
		e, err := scan(rows)
		if err != nil {
			return nil, err
		}

		el = append(el, e)
	}

	return el, rows.Err()
}

func isMySQLErrDupEntry(err error) bool {
	return isMySQLErr(err, 1062)
}

// See https://dev.mysql.com/doc/refman/5.6/en/error-messages-server.html#error_er_dup_entry
func isMySQLErr(err error, nums ...uint16) bool {
	if err == nil {
		return false
	}

	me := new(mysql.MySQLError)
	if !errors.As(err, &me) {
		return false
	}

	for _, num := range nums {
		if me.Number == num {
			return true
		}
	}
	return false
}
