package rsql_test

import (
	"context"
	"database/sql"
	"strconv"

	"github.com/luno/catchup"
	"github.com/luno/catchup/rsql"
)

var testQuery = catchup.Query{Context: "bank", Aggregate: "account", AggregateID: "42"}

func insertTestEvent(dbc *sql.DB, table *rsql.EventsTable, q catchup.Query, revision int64) error {
	tx, err := dbc.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	notify, err := table.Insert(context.Background(), tx, q, revision, payload(revision))
	if err != nil {
		return err
	}
	defer notify()

	return tx.Commit()
}

func payload(revision int64) []byte {
	return []byte("payload-" + strconv.FormatInt(revision, 10))
}

func revisions(el []*catchup.Event) []int64 {
	var res []int64
	for _, e := range el {
		res = append(res, e.StreamRevision)
	}
	return res
}
