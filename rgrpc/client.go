package rgrpc

import (
	"context"

	"github.com/luno/jettison/errors"
	"github.com/luno/jettison/j"
	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/luno/catchup"
)

// NewClient returns a client of the Subscriptions service using the connection.
func NewClient(conn grpc.ClientConnInterface) *Client {
	return &Client{conn: conn}
}

// Client subscribes to remote subscriptions.
type Client struct {
	conn grpc.ClientConnInterface
}

// Subscribe subscribes the token to the remote stream from the revision and calls
// the callback for each received event, waiting for done before receiving the next.
// It always returns a non-nil error. Cancel the context to return early.
//
// Errors passed to done are returned, the caller may resubscribe from the
// failed event's revision.
func (c *Client) Subscribe(ctx context.Context, q catchup.Query, token string,
	revision int64, cb catchup.Callback,
) error {
	req, err := requestToProto(request{Query: q, Token: token, Revision: revision})
	if err != nil {
		return errors.Wrap(err, "to proto error")
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	cs, err := c.conn.NewStream(ctx, &serviceDesc.Streams[0], fullMethod)
	if err != nil {
		return errors.Wrap(err, "new stream error")
	}

	if err := cs.SendMsg(req); err != nil {
		return errors.Wrap(err, "send error")
	}

	if err := cs.CloseSend(); err != nil {
		return errors.Wrap(err, "close send error")
	}

	for {
		pb := new(structpb.Struct)
		if err := cs.RecvMsg(pb); err != nil {
			return errors.Wrap(err, "recv error")
		}

		e, err := eventFromProto(pb)
		if err != nil {
			return errors.Wrap(err, "from proto error")
		}

		res := make(chan error, 1)
		cb(ctx, nil, e, func(err error) {
			select {
			case res <- err:
			default:
			}
		})

		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-res:
			if err != nil {
				return errors.Wrap(err, "callback error", j.MKS{
					"event_id":        e.ID,
					"stream_revision": pb.GetFields()[fieldRevision].GetStringValue(),
				})
			}
		}
	}
}
