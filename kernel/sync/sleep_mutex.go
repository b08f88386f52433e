package sync

// SleepMutex is a mutual-exclusion lock whose contended waiters block
// rather than spin, woken in strict FIFO order. Unlock hands the lock
// directly to the next waiter instead of simply clearing `held` and
// letting any newly arriving locker race for it, which is what
// guarantees the enqueue-order property.
type SleepMutex struct {
	guard   TicketMutex
	held    bool
	holder  uint32
	waiters []uint32
}

// Lock blocks until the mutex is held by the calling thread.
func (m *SleepMutex) Lock() {
	// Preemption stays held from before the contention check through the
	// call into blockCurrentFn: guard is a spinlock that does not mask
	// interrupts, so a timer tick landing in the window between enqueuing
	// below and actually parking could otherwise Yield this thread
	// (status stays Ready) while it already sits in waiters, and a racing
	// Unlock would then hand it ownership with nobody left to wake it.
	holdPreemptionFn()
	m.guard.Lock()
	if !m.held {
		m.held = true
		m.holder = currentTIDFn()
		m.guard.Unlock()
		releasePreemptionFn()
		return
	}

	m.waiters = append(m.waiters, currentTIDFn())
	m.guard.Unlock()

	// blockCurrentFn only returns once this thread has been handed
	// ownership directly by some other thread's Unlock below.
	blockCurrentFn()
	releasePreemptionFn()
}

// Unlock releases the mutex, transferring ownership directly to the
// longest-waiting blocked thread if one exists.
func (m *SleepMutex) Unlock() {
	m.guard.Lock()
	var next uint32
	haveNext := false
	if len(m.waiters) > 0 {
		next, m.waiters = m.waiters[0], m.waiters[1:]
		haveNext = true
		m.holder = next
	} else {
		m.held = false
	}
	m.guard.Unlock()

	if haveNext {
		wakeFn(next)
	}
}

// Holder returns the tid currently holding the mutex and whether it is
// held at all.
func (m *SleepMutex) Holder() (tid uint32, held bool) {
	m.guard.Lock()
	defer m.guard.Unlock()
	return m.holder, m.held
}
