package sync

// Semaphore is a counting semaphore whose blocked waiters are woken in
// enqueue order. Post hands a permit directly to the
// longest-waiting blocked thread when one exists, rather than
// incrementing the counter and letting a new Acquire race for it.
type Semaphore struct {
	guard   TicketMutex
	count   int
	waiters []uint32
}

// NewSemaphore returns a semaphore initialized with the given permit
// count.
func NewSemaphore(initial int) *Semaphore {
	return &Semaphore{count: initial}
}

// Acquire decrements the counter, blocking if it is already zero.
func (s *Semaphore) Acquire() {
	// Held across the whole contention check and the call into
	// blockCurrentFn: guard only spins, it does not mask interrupts, so a
	// tick landing after s.guard.Unlock() below but before this thread is
	// actually parked could Yield it back to Ready while it already sits
	// in waiters, stranding a permit a racing Post hands to it with
	// nobody left to wake.
	holdPreemptionFn()
	s.guard.Lock()
	if s.count > 0 {
		s.count--
		s.guard.Unlock()
		releasePreemptionFn()
		return
	}
	s.waiters = append(s.waiters, currentTIDFn())
	s.guard.Unlock()

	// Returns once Post has handed this thread a permit directly.
	blockCurrentFn()
	releasePreemptionFn()
}

// TryAcquire decrements the counter if it is positive and returns true,
// or returns false immediately without blocking.
func (s *Semaphore) TryAcquire() bool {
	s.guard.Lock()
	defer s.guard.Unlock()
	if s.count > 0 {
		s.count--
		return true
	}
	return false
}

// Post increments the counter, or - if a thread is already waiting - wakes
// the longest-waiting one and transfers the permit to it directly. Safe to
// call from interrupt context (the ATA driver's completion handler does
// exactly this): it never allocates, only pops from an already-sized slice.
func (s *Semaphore) Post() {
	s.guard.Lock()
	var woken uint32
	haveWoken := false
	if len(s.waiters) > 0 {
		woken, s.waiters = s.waiters[0], s.waiters[1:]
		haveWoken = true
	} else {
		s.count++
	}
	s.guard.Unlock()

	if haveWoken {
		wakeFn(woken)
	}
}
