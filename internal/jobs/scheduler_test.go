package jobs

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingSweeper struct {
	calls atomic.Int32
	err   error
}

func (c *countingSweeper) SweepExpiredSessions(ctx context.Context) (int, error) {
	c.calls.Add(1)
	if c.err != nil {
		return 0, c.err
	}
	return 2, nil
}

func TestSchedulerRunsSweepOnStart(t *testing.T) {
	sweeper := &countingSweeper{}
	js, err := New(sweeper, time.Hour, zerolog.Nop())
	require.NoError(t, err)

	js.Start()
	js.Start()
	assert.Eventually(t, func() bool { return sweeper.calls.Load() >= 1 }, 2*time.Second, 10*time.Millisecond)
	require.NoError(t, js.Stop())
	assert.Equal(t, int32(1), sweeper.calls.Load())
}

func TestRunOnce(t *testing.T) {
	sweeper := &countingSweeper{}
	js, err := New(sweeper, 0, zerolog.Nop())
	require.NoError(t, err)
	defer js.Stop()

	n, err := js.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, time.Hour, js.interval)

	sweeper.err = errors.New("db offline")
	_, err = js.RunOnce(context.Background())
	assert.Error(t, err)
}

func TestNewRequiresSweeper(t *testing.T) {
	_, err := New(nil, time.Minute, zerolog.Nop())
	assert.Error(t, err)
}
