package catchup

import (
	"context"
	"testing"

	"github.com/luno/jettison/errors"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/status"
)

func TestIsExpected(t *testing.T) {
	tests := []struct {
		Name     string
		Err      error
		Expected bool
	}{
		{
			Name:     "nil",
			Err:      nil,
			Expected: false,
		}, {
			Name:     "context.Canceled",
			Err:      context.Canceled,
			Expected: true,
		}, {
			Name:     "context.DeadlineExceeded",
			Err:      context.DeadlineExceeded,
			Expected: true,
		}, {
			Name:     "ErrStopped",
			Err:      ErrStopped,
			Expected: true,
		}, {
			Name:     "wrapped ErrStopped",
			Err:      errors.Wrap(ErrStopped, "wrapped"),
			Expected: true,
		}, {
			Name:     "Canceled status",
			Err:      status.FromContextError(context.Canceled).Err(),
			Expected: true,
		},
		{
			Name:     "DeadlineExceeded status",
			Err:      status.FromContextError(context.DeadlineExceeded).Err(),
			Expected: true,
		},
		{
			Name:     "callback timeout",
			Err:      ErrCallbackTimeout,
			Expected: false,
		},
		{
			Name:     "not me",
			Err:      errors.New("not me"),
			Expected: false,
		},
	}

	for _, test := range tests {
		t.Run(test.Name, func(t *testing.T) {
			require.Equal(t, test.Expected, IsExpected(test.Err))
		})
	}
}

func TestIsStoppedErr(t *testing.T) {
	require.True(t, IsStoppedErr(ErrStopped))
	require.True(t, IsStoppedErr(errors.Wrap(ErrStopped, "")))
	require.False(t, IsStoppedErr(context.Canceled))
	require.False(t, IsStoppedErr(nil))
}
