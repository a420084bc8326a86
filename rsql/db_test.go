package rsql_test

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"testing"

	_ "github.com/go-sql-driver/mysql"
	"github.com/luno/jettison/jtest"
)

var dbTestURI = flag.String("db_test_uri", getDefaultURI(), "Test database uri")

const eventsTable = "events"

type EventTableSchema struct {
	Name string

	IDField          string
	ContextField     string
	AggregateField   string
	AggregateIDField string
	RevisionField    string
	PayloadField     string
	TimeField        string
	TraceField       string
}

func (s EventTableSchema) CreateTable(t *testing.T, dbc *sql.DB) {
	trace := ""
	if s.TraceField != "" {
		trace = s.TraceField + " blob null,"
	}

	schema := fmt.Sprintf(`create table %s (
	%s bigint not null auto_increment,
	%s varchar(255) not null,
	%s varchar(255) not null,
	%s varchar(255) not null,
	%s bigint not null,
	%s blob null,
	%s datetime(6) not null,

	%s

	primary key (%s),
	unique index by_stream_revision (%s, %s, %s, %s)
);`,
		s.Name,
		s.IDField,
		s.ContextField,
		s.AggregateField,
		s.AggregateIDField,
		s.RevisionField,
		s.PayloadField,
		s.TimeField,
		trace,
		s.IDField,
		s.ContextField, s.AggregateField, s.AggregateIDField, s.RevisionField,
	)
	_, err := dbc.Exec(schema)
	jtest.RequireNil(t, err)
}

func DefaultEventTable() EventTableSchema {
	return EventTableSchema{
		Name:             eventsTable,
		IDField:          "id",
		ContextField:     "context",
		AggregateField:   "aggregate",
		AggregateIDField: "aggregate_id",
		RevisionField:    "stream_revision",
		PayloadField:     "payload",
		TimeField:        "timestamp",
	}
}

// ConnectTestDB returns a db connection to a new test database with the events table.
// It skips the test if no mysql server is available at the test uri.
func ConnectTestDB(t *testing.T, ev EventTableSchema) *sql.DB {
	admin, err := sql.Open("mysql", *dbTestURI)
	jtest.RequireNil(t, err)

	if err := admin.PingContext(context.Background()); err != nil {
		_ = admin.Close()
		t.Skipf("mysql not available: %v", err)
	}

	dbName := fmt.Sprintf("test_%d", rand.Int())
	_, err = admin.ExecContext(context.Background(), "create database "+dbName)
	jtest.RequireNil(t, err)

	t.Log("created database: " + dbName)

	t.Cleanup(func() {
		_, err := admin.ExecContext(context.Background(), "drop database "+dbName)
		jtest.RequireNil(t, err)
		err = admin.Close()
		jtest.RequireNil(t, err)
	})

	str := *dbTestURI + dbName + "?parseTime=true&collation=utf8mb4_general_ci"
	dbc, err := sql.Open("mysql", str)
	jtest.RequireNil(t, err)

	t.Cleanup(func() {
		err := dbc.Close()
		jtest.RequireNil(t, err)
	})

	ev.CreateTable(t, dbc)

	dbc.SetMaxOpenConns(10)
	_, err = dbc.Exec("set time_zone='+00:00';")
	jtest.RequireNil(t, err)

	return dbc
}

func getDefaultURI() string {
	uri := os.Getenv("DB_TEST_URI")
	if uri != "" {
		return uri
	}

	return "root@unix(" + getSocketFile() + ")/"
}

func getSocketFile() string {
	sock := "/tmp/mysql.sock"
	if _, err := os.Stat(sock); os.IsNotExist(err) {
		// try common linux/Ubuntu socket file location
		return "/var/run/mysqld/mysqld.sock"
	}
	return sock
}
