package sync

import (
	"bytes"
	"runtime"
	"strconv"
	"sync"
)

// The sleep-based primitives block and wake by *tid*, a concept that only
// exists once kernel/sched is wired in. These tests simulate a tiny
// scheduler on top of real goroutines so that Lock/Acquire ordering can be
// exercised without importing kernel/sched (which would create an import
// cycle back into this package).
type schedSim struct {
	mu      sync.Mutex
	tidOf   map[uint64]uint32
	parkers map[uint32]chan struct{}
}

func newSchedSim() *schedSim {
	return &schedSim{
		tidOf:   make(map[uint64]uint32),
		parkers: make(map[uint32]chan struct{}),
	}
}

// install wires this simulator's hooks into the package-level indirections
// SetSchedulerHooks/SetYieldFunc normally fill in, and returns a restore
// function.
func (s *schedSim) install() (restore func()) {
	s.mu.Lock()
	prevCurrentTID, prevHold, prevRelease, prevBlock, prevWake, prevYield :=
		currentTIDFn, holdPreemptionFn, releasePreemptionFn, blockCurrentFn, wakeFn, yieldFn
	s.mu.Unlock()

	SetSchedulerHooks(s.currentTID, s.holdPreemption, s.releasePreemption, s.blockCurrent, s.wake)
	SetYieldFunc(runtime.Gosched)

	return func() {
		SetSchedulerHooks(prevCurrentTID, prevHold, prevRelease, prevBlock, prevWake)
		SetYieldFunc(prevYield)
	}
}

// holdPreemption/releasePreemption are no-ops here: this simulator runs
// waiters as real goroutines rather than cooperatively scheduled TCBs, so
// there is no shared preemption counter to mask - the real scheduler's
// HoldPreemption/ReleasePreemption are exercised by kernel/sched's own
// tests instead.
func (s *schedSim) holdPreemption()    {}
func (s *schedSim) releasePreemption() {}

// asThread registers the calling goroutine as the given tid for the
// lifetime of fn.
func (s *schedSim) asThread(tid uint32, fn func()) {
	id := goroutineID()
	s.mu.Lock()
	s.tidOf[id] = tid
	s.mu.Unlock()
	fn()
}

func (s *schedSim) currentTID() uint32 {
	id := goroutineID()
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tidOf[id]
}

func (s *schedSim) blockCurrent() {
	tid := s.currentTID()
	ch := make(chan struct{})
	s.mu.Lock()
	s.parkers[tid] = ch
	s.mu.Unlock()
	<-ch
}

func (s *schedSim) wake(tid uint32) {
	s.mu.Lock()
	ch, ok := s.parkers[tid]
	delete(s.parkers, tid)
	s.mu.Unlock()
	if ok {
		close(ch)
	}
}

// goroutineID parses the current goroutine's numeric id out of its stack
// trace header ("goroutine 37 [running]:..."). Test-only identity trick;
// nothing in the kernel build relies on it.
func goroutineID() uint64 {
	buf := make([]byte, 64)
	n := runtime.Stack(buf, false)
	buf = buf[:n]
	buf = bytes.TrimPrefix(buf, []byte("goroutine "))
	if idx := bytes.IndexByte(buf, ' '); idx >= 0 {
		buf = buf[:idx]
	}
	id, _ := strconv.ParseUint(string(buf), 10, 64)
	return id
}
