package rsql

import (
	"github.com/luno/jettison/errors"
	"github.com/luno/jettison/j"
)

var (
	// ErrRevisionConflict occurs when inserting an event with a revision that already exists in the stream.
	ErrRevisionConflict = errors.New("stream revision already exists", j.C("ERR_e3b7a51d09c4f682"))
	// ErrInvalidRevision occurs when inserting an event with a negative revision.
	ErrInvalidRevision = errors.New("invalid stream revision", j.C("ERR_42c8d9e0f1a7b635"))
)

// IsRevisionConflict returns true if the error is due to inserting an
// existing revision. Concurrent writers of a stream should reload and retry.
func IsRevisionConflict(err error) bool {
	return errors.Is(err, ErrRevisionConflict)
}
