// Package ratelimit provides a token-bucket limiter for background I/O.
// Unlike the process-global limiter this package's name suggests to readers
// of the teacher's codebase, Throttle is scoped to a single caller: a pool
// instance owns its own Throttle rather than sharing one process-wide
// bandwidth cap, so that multiple pools in the same process don't steal
// tokens from each other.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Throttle is a token-bucket limiter over both IOPS and bytes/second. Each
// call to Consume spends one operation and n bytes from the bucket,
// blocking until enough tokens have accumulated.
type Throttle struct {
	mu sync.Mutex

	iopsCapacity  float64
	iopsTokens    float64
	bytesCapacity float64
	bytesTokens   float64
	last          time.Time

	interrupt chan struct{}
	once      sync.Once
}

// NewThrottle creates a Throttle that allows at most iops operations per
// second and bps bytes per second. An iops or bps of zero means unlimited
// along that axis.
func NewThrottle(iops, bps uint64) *Throttle {
	t := &Throttle{
		iopsCapacity:  float64(iops),
		iopsTokens:    float64(iops),
		bytesCapacity: float64(bps),
		bytesTokens:   float64(bps),
		last:          time.Now(),
		interrupt:     make(chan struct{}),
	}
	return t
}

// refill adds tokens accumulated since the last call, capped at capacity.
// Must be called with t.mu held.
func (t *Throttle) refill() {
	now := time.Now()
	elapsed := now.Sub(t.last).Seconds()
	t.last = now
	if t.iopsCapacity > 0 {
		t.iopsTokens += elapsed * t.iopsCapacity
		if t.iopsTokens > t.iopsCapacity {
			t.iopsTokens = t.iopsCapacity
		}
	}
	if t.bytesCapacity > 0 {
		t.bytesTokens += elapsed * t.bytesCapacity
		if t.bytesTokens > t.bytesCapacity {
			t.bytesTokens = t.bytesCapacity
		}
	}
}

// wait returns how long the caller must sleep before enough tokens exist to
// satisfy n bytes and one operation. Must be called with t.mu held.
func (t *Throttle) wait(n uint64) time.Duration {
	var waitIOPS, waitBytes time.Duration
	if t.iopsCapacity > 0 && t.iopsTokens < 1 {
		waitIOPS = time.Duration((1 - t.iopsTokens) / t.iopsCapacity * float64(time.Second))
	}
	if t.bytesCapacity > 0 && t.bytesTokens < float64(n) {
		waitBytes = time.Duration((float64(n) - t.bytesTokens) / t.bytesCapacity * float64(time.Second))
	}
	if waitIOPS > waitBytes {
		return waitIOPS
	}
	return waitBytes
}

// Consume blocks until the bucket has one operation and n bytes of capacity
// available, then spends them. It returns early with ctx.Err() if ctx is
// canceled, or with ErrInterrupted if Interrupt is called, while waiting.
func (t *Throttle) Consume(ctx context.Context, n uint64) error {
	for {
		t.mu.Lock()
		t.refill()
		d := t.wait(n)
		if d <= 0 {
			t.iopsTokens--
			t.bytesTokens -= float64(n)
			t.mu.Unlock()
			return nil
		}
		t.mu.Unlock()

		timer := time.NewTimer(d)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-t.interrupt:
			timer.Stop()
			return ErrInterrupted
		}
	}
}

// Interrupt unblocks any goroutine currently waiting in Consume. It is
// idempotent and safe to call from any goroutine, any number of times.
func (t *Throttle) Interrupt() {
	t.once.Do(func() {
		close(t.interrupt)
	})
}
