package admission

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestAcquireWithinLimitDoesNotBlock(t *testing.T) {
	t.Parallel()

	c := New(3)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, c.Acquire(ctx))
	}

	st := c.Status()
	require.Equal(t, 3, st.InFlight)
	require.Equal(t, 0, st.Queued)
	require.Equal(t, 3, st.Limit)
}

func TestAcquireBlocksOverLimit(t *testing.T) {
	t.Parallel()

	c := New(1)
	ctx := context.Background()
	require.NoError(t, c.Acquire(ctx))

	acquired := make(chan struct{})
	go func() {
		if err := c.Acquire(ctx); err == nil {
			close(acquired)
		}
	}()

	select {
	case <-acquired:
		t.Fatal("second acquire should have blocked")
	case <-time.After(50 * time.Millisecond):
	}

	require.Equal(t, 1, c.Status().Queued)

	c.Release()
	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("waiter was not granted after release")
	}
	require.Equal(t, 1, c.Status().InFlight)
}

func TestWaitersGrantedInFIFOOrder(t *testing.T) {
	t.Parallel()

	c := New(1)
	ctx := context.Background()
	require.NoError(t, c.Acquire(ctx))

	const waiters = 5
	order := make(chan int, waiters)
	var wg sync.WaitGroup
	for i := 0; i < waiters; i++ {
		// Enqueue one at a time so the queue order is deterministic.
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := c.Acquire(ctx); err != nil {
				return
			}
			order <- i
			c.Release()
		}()
		require.Eventually(t, func() bool {
			return c.Status().Queued == i+1
		}, time.Second, time.Millisecond)
	}

	c.Release()
	wg.Wait()
	close(order)

	var got []int
	for i := range order {
		got = append(got, i)
	}
	require.Equal(t, []int{0, 1, 2, 3, 4}, got)
}

func TestAcquireHonorsContextCancellation(t *testing.T) {
	t.Parallel()

	c := New(1)
	require.NoError(t, c.Acquire(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		errCh <- c.Acquire(ctx)
	}()
	require.Eventually(t, func() bool {
		return c.Status().Queued == 1
	}, time.Second, time.Millisecond)

	cancel()
	select {
	case err := <-errCh:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("acquire did not return after cancellation")
	}

	// The canceled waiter must have left the queue and taken no slot.
	require.Equal(t, 0, c.Status().Queued)
	require.Equal(t, 1, c.Status().InFlight)

	c.Release()
	require.Equal(t, 0, c.Status().InFlight)
}

func TestNonPositiveLimitFallsBackToDefault(t *testing.T) {
	t.Parallel()

	c := New(0)
	require.Equal(t, DefaultLimit, c.Status().Limit)
}
