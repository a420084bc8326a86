package main

import (
	"context"
	"flag"
	"os"
	"strconv"
	"time"

	"github.com/luno/jettison/errors"
	"github.com/luno/jettison/j"
	"github.com/luno/jettison/log"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/luno/catchup"
	"github.com/luno/catchup/example/exserver/ops"
	"github.com/luno/catchup/rgrpc"
)

var (
	serverAddr = flag.String("exserver_address", "localhost:1234", "exserver gRPC address")
	token      = flag.String("token", "exclient", "subscription token")
)

func main() {
	flag.Parse()
	ctx := context.Background()

	conn, err := grpc.NewClient(*serverAddr,
		grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		log.Error(ctx, errors.Wrap(err, "exclient: new grpc client"))
		os.Exit(1)
	}

	SubscribeForever(ctx, rgrpc.NewClient(conn))
}

// SubscribeForever subscribes to the exserver account stream, resubscribing
// after the last processed revision on error.
func SubscribeForever(ctx context.Context, cl *rgrpc.Client) {
	var next int64

	cb := func(ctx context.Context, _ error, e *catchup.Event, done catchup.DoneFunc) {
		log.Info(ctx, "exclient: received event", j.MKS{
			"stream_revision": strconv.FormatInt(e.StreamRevision, 10),
			"payload":         string(e.Payload),
		})
		next = e.StreamRevision + 1
		done(nil)
	}

	for {
		err := cl.Subscribe(ctx, ops.Account, *token, next, cb)
		log.Error(ctx, errors.Wrap(err, "exclient: subscribe"))
		time.Sleep(time.Second * 5)
	}
}
