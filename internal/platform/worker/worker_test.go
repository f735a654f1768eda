package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoopRunsTasksUntilCanceled(t *testing.T) {
	var fast, failing, panicking atomic.Int32

	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)

	go func() {
		done <- Loop(ctx, Config{
			Name: "test",
			Tasks: []Task{
				{Name: "fast", Interval: 5 * time.Millisecond, RunOnStart: true, Run: func(context.Context) error {
					fast.Add(1)
					return nil
				}},
				{Name: "failing", Interval: 5 * time.Millisecond, Run: func(context.Context) error {
					failing.Add(1)
					return errors.New("boom")
				}},
				{Name: "panicking", Interval: 5 * time.Millisecond, Run: func(context.Context) error {
					panicking.Add(1)
					panic("bad task")
				}},
				{Name: "disabled", Interval: 0, Run: func(context.Context) error {
					t.Error("disabled task must not run")
					return nil
				}},
			},
		})
	}()

	assert.Eventually(t, func() bool {
		return fast.Load() >= 3 && failing.Load() >= 2 && panicking.Load() >= 2
	}, 2*time.Second, 5*time.Millisecond)

	cancel()

	select {
	case err := <-done:
		require.Error(t, err)
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("loop did not stop after cancel")
	}
}

func TestLoopCallsHooks(t *testing.T) {
	var started, stopped atomic.Bool

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Loop(ctx, Config{
		Name:    "hooks",
		OnStart: func(context.Context) { started.Store(true) },
		OnStop:  func() { stopped.Store(true) },
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.True(t, started.Load())
	assert.True(t, stopped.Load())
}

func TestRunOnceAppliesTimeout(t *testing.T) {
	var deadlineSeen atomic.Bool

	RunOnce(context.Background(), Task{
		Name:    "slow",
		Timeout: 10 * time.Millisecond,
		Run: func(ctx context.Context) error {
			<-ctx.Done()
			deadlineSeen.Store(errors.Is(ctx.Err(), context.DeadlineExceeded))

			return ctx.Err()
		},
	}, nil)

	assert.True(t, deadlineSeen.Load())
}

func TestWait(t *testing.T) {
	require.NoError(t, Wait(context.Background(), 0))
	require.NoError(t, Wait(context.Background(), time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, Wait(ctx, time.Hour), context.Canceled)
}
