package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingNotifier struct {
	calls atomic.Int32
	err   error
}

func (n *countingNotifier) ContentChanged(context.Context) error {
	n.calls.Add(1)
	return n.err
}

func TestNewRejectsInvalidSpec(t *testing.T) {
	_, err := New("every now and then", &countingNotifier{}, zerolog.Nop())
	assert.Error(t, err)
}

func TestRefreshNotifies(t *testing.T) {
	n := &countingNotifier{}
	s, err := New("*/5 * * * *", n, zerolog.Nop())
	require.NoError(t, err)

	s.refresh()
	assert.Equal(t, int32(1), n.calls.Load())

	n.err = errors.New("redis down")
	s.refresh()
	assert.Equal(t, int32(2), n.calls.Load())
}

func TestStartStop(t *testing.T) {
	s, err := New("@every 1h", &countingNotifier{}, zerolog.Nop())
	require.NoError(t, err)

	s.Start()
	s.Stop()
}
