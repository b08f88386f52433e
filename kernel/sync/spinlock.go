// Package sync provides synchronization primitive implementations for spinlocks
// and semaphore.
package sync

import "sync/atomic"

// yieldFn is a cooperative-yield hook wired by kernel/sched's Init via
// SetYieldFunc; TicketMutex spins against it too. Nil (a plain busy spin)
// until the scheduler is up.
var yieldFn func()

// Spinlock implements a lock where each task trying to acquire it busy-waits
// till the lock becomes available.
type Spinlock struct {
	state uint32
}

// Acquire blocks until the lock can be acquired by the currently active task.
// Any attempt to re-acquire a lock already held by the current task will cause
// a deadlock.
func (l *Spinlock) Acquire() {
	archAcquireSpinlock(&l.state, 1)
}

// TryToAcquire attempts to acquire the lock and returns true if the lock could
// be acquired or false otherwise.
func (l *Spinlock) TryToAcquire() bool {
	return atomic.SwapUint32(&l.state, 1) == 0
}

// Release relinquishes a held lock allowing other tasks to acquire it. Calling
// Release while the lock is free has no effect.
func (l *Spinlock) Release() {
	atomic.StoreUint32(&l.state, 0)
}

// archAcquireSpinlock spins until it swaps 1 into a free (zero) state,
// calling yieldFn (when registered) after every attemptsBeforeYielding
// failed attempts.
func archAcquireSpinlock(state *uint32, attemptsBeforeYielding uint32) {
	attempts := uint32(0)
	for atomic.SwapUint32(state, 1) != 0 {
		attempts++
		if attempts >= attemptsBeforeYielding {
			attempts = 0
			if yieldFn != nil {
				yieldFn()
			}
		}
	}
}
