package ops

import (
	"context"
	"database/sql"
	"time"

	"github.com/luno/jettison/errors"
	"github.com/luno/jettison/j"
	"github.com/luno/jettison/log"

	"github.com/luno/catchup"
	"github.com/luno/catchup/example/exserver/db"
)

// Account is the example stream.
var Account = catchup.Query{Context: "bank", Aggregate: "account", AggregateID: "42"}

// InsertForever appends an event to the account stream every second.
func InsertForever(dbc *sql.DB) {
	ctx := context.Background()

	for {
		err := insertNext(ctx, dbc)
		if err != nil {
			log.Error(ctx, errors.Wrap(err, "insert event"))
		}

		time.Sleep(time.Second)
	}
}

func insertNext(ctx context.Context, dbc *sql.DB) error {
	last, err := db.Events.ToStore(dbc).GetLastEvent(ctx, Account)
	if err != nil {
		return err
	}

	var next int64
	if last != nil {
		next = last.StreamRevision + 1
	}

	tx, err := dbc.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	notify, err := db.Events.Insert(ctx, tx, Account, next, []byte(time.Now().String()))
	if err != nil {
		return errors.Wrap(err, "", j.KV("revision", next))
	}
	defer notify()

	return tx.Commit()
}
