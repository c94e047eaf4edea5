package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errBoom = errors.New("boom")

func TestSafeRecoversPanic(t *testing.T) {
	logger := zerolog.Nop()

	err := Safe(&logger, "explode", func() error {
		panic("kaboom")
	})

	require.ErrorIs(t, err, ErrPanic)
	assert.Contains(t, err.Error(), "kaboom")
}

func TestSafePassesThroughErrors(t *testing.T) {
	err := Safe(nil, "fail", func() error { return errBoom })
	require.ErrorIs(t, err, errBoom)

	require.NoError(t, Safe(nil, "ok", func() error { return nil }))
}

func TestLoopStopsOnRejectedError(t *testing.T) {
	calls := 0

	err := Loop(context.Background(), Config{
		Name:         "test",
		PollInterval: time.Millisecond,
		Process: func(context.Context) error {
			calls++
			if calls == 3 {
				return errBoom
			}

			return nil
		},
		OnError: func(error) bool { return false },
	})

	require.ErrorIs(t, err, errBoom)
	assert.Equal(t, 3, calls)
}

func TestLoopSurvivesPanicsAndStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0

	err := Loop(ctx, Config{
		Name:         "test",
		PollInterval: time.Millisecond,
		Process: func(context.Context) error {
			calls++
			if calls == 1 {
				panic("first tick")
			}

			cancel()

			return nil
		},
	})

	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 2, calls)
}

func TestWaitHonorsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.ErrorIs(t, Wait(ctx, time.Hour), context.Canceled)
	require.NoError(t, Wait(context.Background(), 0))
}
