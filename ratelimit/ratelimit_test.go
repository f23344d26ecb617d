package ratelimit

import (
	"context"
	"testing"
	"time"
)

// TestThrottleConsume checks that Consume blocks roughly as long as the
// configured byte rate requires.
func TestThrottleConsume(t *testing.T) {
	if testing.Short() {
		t.SkipNow()
	}
	bps := uint64(1000)
	throttle := NewThrottle(0, bps)

	start := time.Now()
	err := throttle.Consume(context.Background(), 500)
	d := time.Since(start)
	if err != nil {
		t.Fatal(err)
	}
	// The bucket starts full, so the first call should not block.
	if d > 100*time.Millisecond {
		t.Error("first consume blocked longer than expected", d)
	}

	start = time.Now()
	err = throttle.Consume(context.Background(), 1000)
	d = time.Since(start)
	if err != nil {
		t.Fatal(err)
	}
	if d < 400*time.Millisecond {
		t.Error("second consume did not block long enough", d)
	}
}

// TestThrottleInterrupt checks that Interrupt unblocks a pending Consume
// call with ErrInterrupted.
func TestThrottleInterrupt(t *testing.T) {
	throttle := NewThrottle(0, 10)
	// Drain the bucket so the next Consume call has to wait.
	if err := throttle.Consume(context.Background(), 10); err != nil {
		t.Fatal(err)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- throttle.Consume(context.Background(), 1000)
	}()

	time.Sleep(10 * time.Millisecond)
	throttle.Interrupt()

	select {
	case err := <-errCh:
		if err != ErrInterrupted {
			t.Errorf("expected ErrInterrupted, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Consume did not return after Interrupt")
	}
}

// TestThrottleContextCancel checks that Consume respects context
// cancellation.
func TestThrottleContextCancel(t *testing.T) {
	throttle := NewThrottle(0, 10)
	if err := throttle.Consume(context.Background(), 10); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	err := throttle.Consume(ctx, 1000)
	if err != context.DeadlineExceeded {
		t.Errorf("expected context.DeadlineExceeded, got %v", err)
	}
}

// TestThrottleUnlimited checks that a zero-capacity axis never blocks.
func TestThrottleUnlimited(t *testing.T) {
	throttle := NewThrottle(0, 0)
	start := time.Now()
	for i := 0; i < 100; i++ {
		if err := throttle.Consume(context.Background(), 1<<20); err != nil {
			t.Fatal(err)
		}
	}
	if time.Since(start) > 100*time.Millisecond {
		t.Error("unlimited throttle blocked")
	}
}
