package main

import (
	"context"
	"flag"
	"os"

	"github.com/luno/jettison/errors"
	"github.com/luno/jettison/log"

	"github.com/luno/catchup/example/exserver/db"
	"github.com/luno/catchup/example/exserver/ops"
	"github.com/luno/catchup/example/exserver/server"
)

var listenAddr = flag.String("listen_addr", ":1234",
	"Address to listen for gRPC requests on.")

func main() {
	flag.Parse()
	ctx := context.Background()

	dbc, err := db.Connect()
	if err != nil {
		log.Error(ctx, errors.Wrap(err, "connect db"))
		os.Exit(1)
	}

	go ops.InsertForever(dbc)

	err = server.New(dbc).ServeForever(*listenAddr)
	log.Error(ctx, errors.Wrap(err, "serve"))
	os.Exit(1)
}
