package cacheutil

import (
	"context"
	"sync"
	"time"
)

// Throttle wraps fn so that at most `parallelism` invocations are in flight
// or have started within the last `window`. excess calls queue in FIFO
// order and are released as capacity frees up. each call resolves with the
// outcome of its own invocation.
//
// this exists to avoid secondary rate limiting from the upstream service,
// correctness only depends on the bound, not on exact timing.
func Throttle(fn Producer, window time.Duration, parallelism int) Producer {
	t := &throttle{
		window: window,
		limit:  parallelism,
	}
	return func(ctx context.Context, key string) (string, error) {
		err := t.acquire(ctx)
		if err != nil {
			return "", err
		}
		releaseAt := time.Now().Add(t.window)
		defer func() {
			// the slot frees once the call finished and the window has
			// rolled past its start
			delay := time.Until(releaseAt)
			if delay <= 0 {
				t.release()
				return
			}
			time.AfterFunc(delay, t.release)
		}()
		return fn(ctx, key)
	}
}

type throttle struct {
	window time.Duration
	limit  int

	mu     sync.Mutex
	active int
	queue  []chan struct{}
}

func (t *throttle) acquire(ctx context.Context) error {
	t.mu.Lock()
	if t.active < t.limit {
		t.active++
		t.mu.Unlock()
		return nil
	}
	ready := make(chan struct{})
	t.queue = append(t.queue, ready)
	t.mu.Unlock()

	select {
	case <-ready:
		return nil
	case <-ctx.Done():
		t.mu.Lock()
		for i, waiter := range t.queue {
			if waiter == ready {
				t.queue = append(t.queue[:i], t.queue[i+1:]...)
				t.mu.Unlock()
				return ctx.Err()
			}
		}
		t.mu.Unlock()
		// the slot was granted while cancelling, hand it back
		t.release()
		return ctx.Err()
	}
}

func (t *throttle) release() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.queue) > 0 {
		next := t.queue[0]
		t.queue = t.queue[1:]
		close(next)
		return
	}
	t.active--
}
