package rgrpc

import (
	"context"
	"strconv"
	"sync"

	"github.com/luno/jettison/errors"
	"github.com/luno/jettison/j"
	"github.com/luno/jettison/log"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/luno/catchup"
)

// Subscriber is the subscribe surface of a catchup.Subscription.
type Subscriber interface {
	Subscribe(token string, revision int64, cb catchup.Callback) string
	Unsubscribe(token string)
}

var _ Subscriber = (*catchup.Subscription)(nil)

// Resolver returns the subscriber of the query's stream or ErrUnknownStream.
type Resolver func(q catchup.Query) (Subscriber, error)

// NewServer returns a new server serving the subscriptions returned by the resolver.
func NewServer(resolve Resolver) *Server {
	return &Server{
		resolve: resolve,
		stop:    make(chan struct{}),
		streams: make(map[string]*stream),
	}
}

// Server serves catchup subscriptions as gRPC server streams and provides
// graceful shutdown.
type Server struct {
	resolve Resolver
	stop    chan struct{}

	mu      sync.Mutex
	streams map[string]*stream
}

// stream is an active server stream of a subscription token.
type stream struct {
	cancel   context.CancelFunc
	replaced bool
}

// Register registers the Subscriptions service on the gRPC server.
func (s *Server) Register(gs *grpc.Server) {
	gs.RegisterService(&serviceDesc, s)
}

// Stop stops serving streams returning ErrStopped.
// It should be used for graceful shutdown. It panics if called more than once.
func (s *Server) Stop() {
	close(s.stop)
}

func (s *Server) maybeErrStopped() error {
	select {
	case <-s.stop:
		return catchup.ErrStopped
	default:
		return nil
	}
}

// serve subscribes the stream's token and sends the delivered events until the
// stream context is done, the server is stopped or the token is replaced by
// another stream. It always returns a non-nil error.
func (s *Server) serve(req *structpb.Struct, ss grpc.ServerStream) error {
	if err := s.maybeErrStopped(); err != nil {
		return err
	}

	r, err := requestFromProto(req)
	if err != nil {
		return status.Error(codes.InvalidArgument, err.Error())
	}

	sub, err := s.resolve(r.Query)
	if errors.Is(err, ErrUnknownStream) {
		return status.Error(codes.NotFound, err.Error())
	} else if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ss.Context())
	defer cancel()

	ctx = log.ContextWith(ctx, j.MKS{
		"channel":  r.Query.Channel(),
		"token":    r.Token,
		"revision": strconv.FormatInt(r.Revision, 10),
	})

	st := s.add(r, cancel)
	defer s.remove(r, st, sub)

	labels := []string{r.Query.Context, r.Query.Aggregate}
	activeStreams.WithLabelValues(labels...).Inc()
	defer activeStreams.WithLabelValues(labels...).Dec()

	ch := make(chan *catchup.Event)
	sub.Subscribe(r.Token, r.Revision, func(cbCtx context.Context, _ error,
		e *catchup.Event, done catchup.DoneFunc,
	) {
		select {
		case ch <- e:
			done(nil)
		case <-ctx.Done():
			done(ctx.Err())
		case <-cbCtx.Done():
		}
	})

	for {
		select {
		case <-ctx.Done():
			if s.isReplaced(st) {
				return ErrReplaced
			}
			return ctx.Err()
		case <-s.stop:
			return catchup.ErrStopped
		case e := <-ch:
			pb, err := eventToProto(e)
			if err != nil {
				return errors.Wrap(err, "to proto error")
			}

			if err := ss.SendMsg(pb); err != nil {
				return errors.Wrap(err, "send error")
			}

			sentCounter.WithLabelValues(labels...).Inc()
		}
	}
}

func streamKey(r request) string {
	return r.Query.Channel() + "/" + r.Token
}

// add tracks the stream of the token, cancelling any previous stream of the token.
func (s *Server) add(r request, cancel context.CancelFunc) *stream {
	s.mu.Lock()
	defer s.mu.Unlock()

	if prev, ok := s.streams[streamKey(r)]; ok {
		prev.replaced = true
		prev.cancel()
	}

	st := &stream{cancel: cancel}
	s.streams[streamKey(r)] = st
	return st
}

// remove stops tracking the stream and unsubscribes the token if the stream
// was not replaced.
func (s *Server) remove(r request, st *stream, sub Subscriber) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.streams[streamKey(r)] != st {
		return
	}

	delete(s.streams, streamKey(r))
	sub.Unsubscribe(r.Token)
}

func (s *Server) isReplaced(st *stream) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return st.replaced
}
