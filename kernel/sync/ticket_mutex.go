package sync

import "sync/atomic"

// TicketMutex is a FIFO spinlock built from two atomic counters: waiters
// draw a ticket and spin until it is being served, giving bounded waiting
// under preemption.
type TicketMutex struct {
	nextTicket uint32
	nowServing uint32
}

// Lock draws a ticket and spins (yielding cooperatively via yieldFn, when
// registered) until it is being served.
func (m *TicketMutex) Lock() {
	ticket := atomic.AddUint32(&m.nextTicket, 1) - 1
	for atomic.LoadUint32(&m.nowServing) != ticket {
		if yieldFn != nil {
			yieldFn()
		}
	}
}

// Unlock serves the next ticket holder in line.
func (m *TicketMutex) Unlock() {
	atomic.AddUint32(&m.nowServing, 1)
}
