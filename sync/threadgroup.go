package sync

import (
	"errors"
	"sync"
)

// ErrStopped is returned by ThreadGroup methods once Stop has been called.
var ErrStopped = errors.New("thread group already stopped")

// ThreadGroup is a one-shot cooperative-cancellation primitive: a set of
// goroutines register themselves with Add/Done, and Stop signals them all
// to quit (by closing the channel returned by StopChan), then blocks until
// every registered goroutine has called Done. Cleanup callbacks registered
// with OnStop run before that wait; callbacks registered with AfterStop run
// once it completes. It is the lifecycle primitive behind StartCleaning and
// StopCleaning.
type ThreadGroup struct {
	onStopFns    []func()
	afterStopFns []func()

	once     sync.Once
	stopChan chan struct{}

	mu      sync.Mutex
	stopped bool
	wg      sync.WaitGroup
}

func (tg *ThreadGroup) init() {
	tg.once.Do(func() {
		tg.stopChan = make(chan struct{})
	})
}

// StopChan returns a channel that is closed when Stop is called. Goroutines
// doing cancellable work should select on this channel alongside whatever
// else they are waiting on.
func (tg *ThreadGroup) StopChan() <-chan struct{} {
	tg.init()
	return tg.stopChan
}

// isStopped returns true if Stop has been called.
func (tg *ThreadGroup) isStopped() bool {
	tg.init()
	tg.mu.Lock()
	defer tg.mu.Unlock()
	return tg.stopped
}

// Add increments the group's counter. The caller must call Done when the
// protected work is complete. Add returns ErrStopped if Stop has already
// been called, in which case the caller must not proceed with the work.
func (tg *ThreadGroup) Add() error {
	tg.init()
	tg.mu.Lock()
	defer tg.mu.Unlock()
	if tg.stopped {
		return ErrStopped
	}
	tg.wg.Add(1)
	return nil
}

// Done decrements the group's counter, signaling that a unit of work
// registered via Add has completed.
func (tg *ThreadGroup) Done() {
	tg.wg.Done()
}

// Flush blocks until every outstanding Add has been matched with a Done,
// without stopping the group. Other ThreadGroup calls, including Add, wait
// until Flush returns. Flush returns ErrStopped if Stop has been called.
func (tg *ThreadGroup) Flush() error {
	tg.init()
	tg.mu.Lock()
	defer tg.mu.Unlock()
	if tg.stopped {
		return ErrStopped
	}
	tg.wg.Wait()
	return nil
}

// OnStop registers fn to run as soon as Stop is called, before Stop waits
// for outstanding Add calls to finish. Functions run in LIFO order. If the
// group has already stopped, fn runs immediately, synchronously.
func (tg *ThreadGroup) OnStop(fn func()) {
	tg.init()
	tg.mu.Lock()
	if tg.stopped {
		tg.mu.Unlock()
		fn()
		return
	}
	tg.onStopFns = append(tg.onStopFns, fn)
	tg.mu.Unlock()
}

// AfterStop registers fn to run after Stop has waited for all outstanding
// Add calls to finish. Functions run in LIFO order. If the group has
// already stopped, fn runs immediately, synchronously.
func (tg *ThreadGroup) AfterStop(fn func()) {
	tg.init()
	tg.mu.Lock()
	if tg.stopped {
		tg.mu.Unlock()
		fn()
		return
	}
	tg.afterStopFns = append(tg.afterStopFns, fn)
	tg.mu.Unlock()
}

// Stop closes the group's stop channel, runs the OnStop callbacks, waits
// for every outstanding Add to be matched with a Done, and then runs the
// AfterStop callbacks. Stop is idempotent-unsafe by design: calling it a
// second time returns ErrStopped.
func (tg *ThreadGroup) Stop() error {
	tg.init()

	tg.mu.Lock()
	if tg.stopped {
		tg.mu.Unlock()
		return ErrStopped
	}
	tg.stopped = true
	close(tg.stopChan)
	onStop := tg.onStopFns
	tg.mu.Unlock()

	for i := len(onStop) - 1; i >= 0; i-- {
		onStop[i]()
	}

	tg.wg.Wait()

	tg.mu.Lock()
	afterStop := tg.afterStopFns
	tg.mu.Unlock()
	for i := len(afterStop) - 1; i >= 0; i-- {
		afterStop[i]()
	}
	return nil
}
