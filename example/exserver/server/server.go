package server

import (
	"database/sql"
	"net"
	"sync"

	"github.com/luno/jettison/errors"
	"google.golang.org/grpc"

	"github.com/luno/catchup"
	"github.com/luno/catchup/example/exserver/db"
	"github.com/luno/catchup/rbuffer"
	"github.com/luno/catchup/rgrpc"
)

// Server is a gRPC server serving subscriptions to the events table.
type Server struct {
	dbc        *sql.DB
	rserver    *rgrpc.Server
	grpcServer *grpc.Server

	mu   sync.Mutex
	subs map[string]*catchup.Subscription
}

// New returns a new server.
func New(dbc *sql.DB) *Server {
	srv := &Server{
		dbc:  dbc,
		subs: make(map[string]*catchup.Subscription),
	}
	srv.rserver = rgrpc.NewServer(srv.resolve)
	return srv
}

// resolve returns the subscription of the stream, creating it on first use.
func (srv *Server) resolve(q catchup.Query) (rgrpc.Subscriber, error) {
	srv.mu.Lock()
	defer srv.mu.Unlock()

	if s, ok := srv.subs[q.Channel()]; ok {
		return s, nil
	}

	s, err := catchup.New(db.Events.ToStore(srv.dbc), rbuffer.New(q.Channel()), q,
		catchup.WithWakeSource(db.Wake))
	if err != nil {
		return nil, err
	}

	srv.subs[q.Channel()] = s
	return s, nil
}

// ServeForever creates and runs a gprc server.
func (srv *Server) ServeForever(grpcAddress string) error {
	if srv.grpcServer != nil {
		return errors.New("server already started")
	}
	lis, err := net.Listen("tcp", grpcAddress)
	if err != nil {
		return err
	}

	srv.grpcServer = grpc.NewServer()
	srv.rserver.Register(srv.grpcServer)

	return srv.grpcServer.Serve(lis)
}

// Stop stops any streaming, closes the subscriptions and then stops the gRPC server
func (srv *Server) Stop() {
	srv.rserver.Stop()
	srv.grpcServer.GracefulStop()

	srv.mu.Lock()
	defer srv.mu.Unlock()
	for _, s := range srv.subs {
		s.Close()
	}
}
