package sched

// readyQueue is a FIFO run queue of ready threads, giving Yield/preemption
// round-robin ordering. It is only ever touched while the preemption hold
// count is non-zero (the PIT IRQ masked) and has no locking of its own.
type readyQueue struct {
	tids []uint32
}

// pushBack appends tid to the end of the queue.
func (q *readyQueue) pushBack(tid uint32) {
	q.tids = append(q.tids, tid)
}

// popFront removes and returns the thread at the head of the queue. ok is
// false if the queue is empty.
func (q *readyQueue) popFront() (tid uint32, ok bool) {
	if len(q.tids) == 0 {
		return 0, false
	}
	tid, q.tids = q.tids[0], q.tids[1:]
	return tid, true
}

// remove deletes tid from the queue if present, used when a ready thread is
// reparented straight to Blocked/Dying without ever being dispatched.
func (q *readyQueue) remove(tid uint32) {
	for i, t := range q.tids {
		if t == tid {
			q.tids = append(q.tids[:i], q.tids[i+1:]...)
			return
		}
	}
}

func (q *readyQueue) len() int {
	return len(q.tids)
}
