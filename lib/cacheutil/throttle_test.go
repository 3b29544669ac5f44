package cacheutil

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestThrottleBound(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*30)
	defer cancel()

	var inflight atomic.Int64
	var peak atomic.Int64

	producer := func(ctx context.Context, key string) (string, error) {
		n := inflight.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(20 * time.Millisecond)
		inflight.Add(-1)
		return "value-" + key, nil
	}

	throttled := Throttle(producer, 100*time.Millisecond, 10)

	results := make([]string, 25)
	errs := make([]error, 25)
	var wg sync.WaitGroup
	for i := 0; i < 25; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = throttled(ctx, fmt.Sprintf("%d", i))
		}(i)
	}
	wg.Wait()

	for i := 0; i < 25; i++ {
		require.NoError(t, errs[i])
		require.Equal(t, fmt.Sprintf("value-%d", i), results[i])
	}
	require.LessOrEqual(t, peak.Load(), int64(10))
}

func TestThrottlePerCallOutcome(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()

	throttled := Throttle(func(ctx context.Context, key string) (string, error) {
		if key == "bad" {
			return "", fmt.Errorf("failed for %s", key)
		}
		return "ok-" + key, nil
	}, 10*time.Millisecond, 1)

	var wg sync.WaitGroup
	var goodVal string
	var goodErr, badErr error
	wg.Add(2)
	go func() {
		defer wg.Done()
		goodVal, goodErr = throttled(ctx, "good")
	}()
	go func() {
		defer wg.Done()
		_, badErr = throttled(ctx, "bad")
	}()
	wg.Wait()

	require.NoError(t, goodErr)
	require.Equal(t, "ok-good", goodVal)
	require.ErrorContains(t, badErr, "failed for bad")
}

func TestThrottleCancelWhileQueued(t *testing.T) {
	block := make(chan struct{})
	throttled := Throttle(func(ctx context.Context, key string) (string, error) {
		<-block
		return "done", nil
	}, time.Hour, 1)

	bg := context.Background()
	go throttled(bg, "holder")
	time.Sleep(10 * time.Millisecond)

	ctx, cancel := context.WithCancel(bg)
	done := make(chan error, 1)
	go func() {
		_, err := throttled(ctx, "queued")
		done <- err
	}()
	time.Sleep(10 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("queued call did not observe cancellation")
	}
	close(block)
}
