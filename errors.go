package catchup

import (
	"context"

	"github.com/luno/jettison/errors"
	"github.com/luno/jettison/j"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

var (
	// ErrInvalidConfig is returned by New if a required option is missing or invalid.
	ErrInvalidConfig = errors.New("invalid subscription config", j.C("ERR_5d0b1c7a8e2f4936"))

	// ErrStopped is returned when a subscription was closed.
	ErrStopped = errors.New("the subscription has been stopped", j.C("ERR_a1f6c03e9b7d2254"))

	// ErrCallbackTimeout is logged when a callback does not call done
	// within the event callback timeout.
	ErrCallbackTimeout = errors.New("event callback timeout", j.C("ERR_3e8f90b2c4d61a57"))

	// ErrCallbackPanic is logged when a callback panics.
	ErrCallbackPanic = errors.New("event callback panic", j.C("ERR_7c2a4e19f05b83d6"))

	// ErrNilCallback is logged when a token is registered without a callback.
	ErrNilCallback = errors.New("nil event callback", j.C("ERR_b94d1e6a7f30c28e"))
)

// IsStoppedErr returns true if the error is ErrStopped.
func IsStoppedErr(err error) bool {
	return errors.Is(err, ErrStopped)
}

// IsExpected returns true if the error is expected during normal
// shutdown and should not be logged. This includes cancelled gRPC streams.
func IsExpected(err error) bool {
	if errors.IsAny(err, context.Canceled, context.DeadlineExceeded, ErrStopped) {
		return true
	}

	code := status.Code(err)
	return code == codes.Canceled || code == codes.DeadlineExceeded
}
