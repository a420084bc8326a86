package db

import (
	"database/sql"
	"flag"
	"os"

	// Imported for driver
	_ "github.com/go-sql-driver/mysql"

	"github.com/luno/catchup/rsql"
	"github.com/luno/catchup/rwake"
)

var (
	dbURI = flag.String("db_example_uri", getDefaultURI(), "URI of catchup example server DB")

	// Wake is published to on every insert.
	Wake = rwake.NewHub()

	// Events is the events table, see schema.sql.
	Events = rsql.NewEventsTable("server_events", rsql.WithEventsPublisher(Wake))
)

// Connect connects to the db
func Connect() (*sql.DB, error) {
	dbc, err := sql.Open("mysql", *dbURI+"?parseTime=true")
	if err != nil {
		return nil, err
	}

	return dbc, dbc.Ping()
}

func getDefaultURI() string {
	uri := os.Getenv("DB_EXAMPLE_SERVER_URI")
	if uri != "" {
		return uri
	}

	return "root@tcp(localhost:3306)/test"
}
