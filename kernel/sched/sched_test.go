package sched

import (
	"testing"
	"unsafe"

	"hammeros/kernel"
)

// fakeKernelStack backs a test thread's kernel stack with a real
// Go-managed buffer so prepareNewThread's writes through unsafe.Pointer
// land on addressable memory, the same trick kernel/mm/vmm's tests use
// for frame buffers it mocks a physical allocator with.
func fakeKernelStack() (base, top uintptr, err *kernel.Error) {
	buf := make([]byte, 4096)
	base = uintptr(unsafe.Pointer(&buf[0]))
	return base, base + uintptr(len(buf)), nil
}

func resetScheduler() {
	threads = map[uint32]*TCB{}
	ready = readyQueue{}
	nextTID = 0
	currentTh = nil
	pendingReap = nil
}

func TestSpawnQueuesReadyThread(t *testing.T) {
	resetScheduler()
	restoreAlloc := allocKernelStackFn
	restoreSwitch := contextSwitchFn
	allocKernelStackFn = fakeKernelStack
	contextSwitchFn = func(from, to *TCB) {}
	defer func() { allocKernelStackFn = restoreAlloc; contextSwitchFn = restoreSwitch }()

	boot := newTCB(1, 0)
	boot.Status = StatusRunning
	nextTID = 2
	threads[boot.TID] = boot
	currentTh = boot

	ran := false
	th, err := Spawn(0, func(arg uint32) { ran = true }, 42)
	if err != nil {
		t.Fatalf("Spawn: %v", err)
	}
	if th.Status != StatusReady {
		t.Fatalf("new thread status = %v, want Ready", th.Status)
	}
	if ready.len() != 1 {
		t.Fatalf("ready queue len = %d, want 1", ready.len())
	}
	if ran {
		t.Fatal("entry function must not run until dispatched")
	}
}

func TestYieldRotatesReadyQueue(t *testing.T) {
	resetScheduler()
	restoreSwitch := contextSwitchFn
	contextSwitchFn = func(from, to *TCB) {}
	defer func() { contextSwitchFn = restoreSwitch }()

	t1 := newTCB(1, 0)
	t1.Status = StatusRunning
	t2 := newTCB(2, 0)
	t2.Status = StatusReady
	threads[1], threads[2] = t1, t2
	currentTh = t1
	ready.pushBack(2)

	Yield()

	if currentTh.TID != 2 {
		t.Fatalf("currentTh.TID = %d, want 2", currentTh.TID)
	}
	if t1.Status != StatusReady {
		t.Fatalf("t1.Status = %v, want Ready", t1.Status)
	}
	if ready.len() != 1 {
		t.Fatalf("ready queue len = %d, want 1 (t1 requeued)", ready.len())
	}
	if front, _ := ready.popFront(); front != 1 {
		t.Fatalf("front of ready queue = %d, want 1", front)
	}
}

func TestWakeOnlyMovesBlockedThreads(t *testing.T) {
	resetScheduler()
	t1 := newTCB(1, 0)
	t1.Status = StatusBlocked
	threads[1] = t1

	Wake(1)
	if t1.Status != StatusReady {
		t.Fatalf("t1.Status = %v, want Ready", t1.Status)
	}
	if ready.len() != 1 {
		t.Fatalf("ready queue len = %d, want 1", ready.len())
	}

	// Waking an already-ready thread must not enqueue it twice.
	Wake(1)
	if ready.len() != 1 {
		t.Fatalf("ready queue len = %d after duplicate Wake, want 1", ready.len())
	}
}

func TestExitMarksDyingAndSwitchesAway(t *testing.T) {
	resetScheduler()
	restoreSwitch := contextSwitchFn
	contextSwitchFn = func(from, to *TCB) {}
	defer func() { contextSwitchFn = restoreSwitch }()

	dying := newTCB(1, 0)
	dying.Status = StatusRunning
	dying.KernelStackBase = 0 // nothing to free in this test
	next := newTCB(2, 0)
	next.Status = StatusReady
	threads[1], threads[2] = dying, next
	currentTh = dying
	ready.pushBack(2)

	defer func() { recover() }() // Exit's trailing panic guards against resumption
	Exit(7)

	if !dying.HasExit || dying.ExitCode != 7 {
		t.Fatalf("dying.ExitCode = %d (HasExit=%v), want 7", dying.ExitCode, dying.HasExit)
	}
	if dying.Status != StatusDying {
		t.Fatalf("dying.Status = %v, want Dying", dying.Status)
	}
	if currentTh.TID != 2 {
		t.Fatalf("currentTh.TID = %d, want 2", currentTh.TID)
	}
}

func TestBlockCurrentThreadPanicsWithNoReadyThread(t *testing.T) {
	resetScheduler()
	restoreSwitch := contextSwitchFn
	contextSwitchFn = func(from, to *TCB) {}
	defer func() { contextSwitchFn = restoreSwitch }()

	solo := newTCB(1, 0)
	solo.Status = StatusRunning
	threads[1] = solo
	currentTh = solo

	defer func() {
		if recover() == nil {
			t.Fatal("expected panic when no ready thread exists to block into")
		}
	}()
	blockCurrentThread()
}
