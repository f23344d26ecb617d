package sync

import (
	"sync"
	"time"
)

// TryMutex is a drop-in replacement for sync.Mutex that additionally
// exposes a non-blocking TryLock and a bounded TryLockTimed. The Cleaner uses it to make Start
// idempotent: a second Start call while the loop goroutine is already
// running backs off instead of blocking on it.
type TryMutex struct {
	mu sync.Mutex
}

// Lock blocks until the mutex is acquired.
func (tm *TryMutex) Lock() {
	tm.mu.Lock()
}

// Unlock releases the mutex.
func (tm *TryMutex) Unlock() {
	tm.mu.Unlock()
}

// TryLock attempts to acquire the mutex without blocking, returning true on
// success.
func (tm *TryMutex) TryLock() bool {
	return tm.mu.TryLock()
}

// TryLockTimed attempts to acquire the mutex for up to d, returning true if
// it was acquired and false if d elapsed first.
func (tm *TryMutex) TryLockTimed(d time.Duration) bool {
	deadline := time.Now().Add(d)
	for !tm.mu.TryLock() {
		if !time.Now().Before(deadline) {
			return false
		}
		time.Sleep(time.Millisecond)
	}
	return true
}
