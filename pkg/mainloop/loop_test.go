package mainloop_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yaklabco/srcbuf/pkg/mainloop"
)

func startLoop(t *testing.T) *mainloop.Loop {
	t.Helper()

	loop := mainloop.New(mainloop.Options{})
	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = loop.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-loop.Done()
	})
	return loop
}

func TestInvoke_RunsTasksInOrder(t *testing.T) {
	t.Parallel()

	loop := startLoop(t)
	var order []int
	var wg sync.WaitGroup
	for i := range 10 {
		require.NoError(t, loop.Post(func() { order = append(order, i) }))
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		assert.NoError(t, loop.Invoke(context.Background(), func() { order = append(order, 10) }))
	}()
	wg.Wait()

	var got []int
	require.NoError(t, loop.Invoke(context.Background(), func() { got = append(got, order...) }))
	assert.Equal(t, []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, got)
}

func TestInvoke_CancelledBeforeStart(t *testing.T) {
	t.Parallel()

	loop := startLoop(t)
	release := make(chan struct{})
	require.NoError(t, loop.Post(func() { <-release }))

	ctx, cancel := context.WithCancel(context.Background())
	ran := false
	errCh := make(chan error, 1)
	go func() { errCh <- loop.Invoke(ctx, func() { ran = true }) }()

	cancel()
	err := <-errCh
	close(release)

	require.ErrorIs(t, err, context.Canceled)
	require.NoError(t, loop.Invoke(context.Background(), func() {}))
	assert.False(t, ran)
}

func TestStop(t *testing.T) {
	t.Parallel()

	loop := mainloop.New(mainloop.Options{})
	errCh := make(chan error, 1)
	go func() { errCh <- loop.Run(context.Background()) }()

	require.NoError(t, loop.Invoke(context.Background(), loop.Stop))
	require.NoError(t, <-errCh)

	assert.ErrorIs(t, loop.Post(func() {}), mainloop.ErrStopped)
	assert.ErrorIs(t, loop.Invoke(context.Background(), func() {}), mainloop.ErrStopped)
	assert.ErrorIs(t, loop.Run(context.Background()), mainloop.ErrRunning)
}

func TestRun_RecoversTaskPanic(t *testing.T) {
	t.Parallel()

	loop := startLoop(t)
	require.NoError(t, loop.Post(func() { panic("boom") }))

	done := false
	require.NoError(t, loop.Invoke(context.Background(), func() { done = true }))
	assert.True(t, done)
}

func TestRun_ContextCancel(t *testing.T) {
	t.Parallel()

	loop := mainloop.New(mainloop.Options{})
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	err := loop.Run(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.ErrorIs(t, loop.Post(func() {}), mainloop.ErrStopped)
}
