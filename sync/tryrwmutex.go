package sync

import "sync"

// TryRWMutex is a drop-in replacement for sync.RWMutex that additionally
// exposes non-blocking TryLock/TryRLock methods. Pool uses the plain
// Lock/RLock side of it to separate its structural lifecycle (Initialize,
// UnInitialize) from in-flight operations (GetFile, RecycleFile, and
// friends), so the two can't run concurrently.
type TryRWMutex struct {
	mu sync.RWMutex
}

// Lock blocks until a write lock is acquired.
func (tm *TryRWMutex) Lock() {
	tm.mu.Lock()
}

// Unlock releases a write lock.
func (tm *TryRWMutex) Unlock() {
	tm.mu.Unlock()
}

// RLock blocks until a read lock is acquired.
func (tm *TryRWMutex) RLock() {
	tm.mu.RLock()
}

// RUnlock releases a read lock.
func (tm *TryRWMutex) RUnlock() {
	tm.mu.RUnlock()
}

// TryLock attempts to acquire a write lock without blocking.
func (tm *TryRWMutex) TryLock() bool {
	return tm.mu.TryLock()
}

// TryRLock attempts to acquire a read lock without blocking.
func (tm *TryRWMutex) TryRLock() bool {
	return tm.mu.TryRLock()
}
