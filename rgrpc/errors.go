package rgrpc

import (
	"github.com/luno/jettison/errors"
	"github.com/luno/jettison/j"
)

var (
	// ErrInvalidRequest is returned by the server if the subscribe request is malformed.
	ErrInvalidRequest = errors.New("invalid subscribe request", j.C("ERR_0c6e2b9f41d7a385"))

	// ErrUnknownStream is returned by a Resolver if it does not serve the query's stream.
	ErrUnknownStream = errors.New("unknown stream", j.C("ERR_e47a13d9b28f6c50"))

	// ErrReplaced is returned by a server stream when another stream subscribed
	// with the same token.
	ErrReplaced = errors.New("subscription token replaced", j.C("ERR_9b3f5a0e7d12c684"))
)
