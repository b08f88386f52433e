package sched

import (
	"hammeros/kernel"
	"hammeros/kernel/gdt"
	ksync "hammeros/kernel/sync"
	"unsafe"
)

var (
	errNoStackSpace = &kernel.Error{Module: "sched", Message: "could not allocate kernel stack"}
)

var (
	threads   = map[uint32]*TCB{}
	ready     readyQueue
	nextTID   uint32
	currentTh *TCB

	// pendingReap is set by Exit just before switching away from a dying
	// thread. It is consumed by whichever thread resumes next (either via
	// finishSwitch, on a brand new thread's first dispatch, or by
	// switchTo's post-contextSwitch continuation, on an ordinary resume)
	// since the dying thread's own call stack never runs again to free
	// its own kernel stack.
	pendingReap *TCB
)

// Init brings up the scheduler: it wraps the thread executing Init itself
// (the boot thread) in a TCB marked Running, and wires kernel/sync's
// sleep-based primitives to this package's Block/Wake/Yield so they can
// park and resume real threads. The PIT tick handler is registered
// separately by kernel/kmain once irq.InitPIT runs.
func Init() {
	nextTID = 1
	boot := newTCB(nextTID, 0)
	nextTID++
	boot.IsKernel = true
	boot.Status = StatusRunning
	threads[boot.TID] = boot
	currentTh = boot

	ksync.SetSchedulerHooks(CurrentTID, HoldPreemption, ReleasePreemption, blockCurrentThread, Wake)
	ksync.SetYieldFunc(Yield)
}

// TickHandler is registered with irq.InitPIT to drive preemption.
func TickHandler() {
	onTick()
}

// CurrentTID returns the TID of the thread invoking it.
func CurrentTID() uint32 {
	return currentTh.TID
}

// CurrentThread returns the TCB of the thread invoking it.
func CurrentThread() *TCB {
	return currentTh
}

// Spawn creates a new kernel thread ready to run entry(argument) and adds
// it to the ready queue. It does not run immediately; it is picked up by a
// future Yield/tick the way every other ready thread is.
func Spawn(pid uint32, entry func(uint32), argument uint32) (*TCB, *kernel.Error) {
	HoldPreemption()
	defer ReleasePreemption()

	base, top, err := allocKernelStackFn()
	if err != nil {
		return nil, errNoStackSpace
	}

	t := newTCB(nextTID, pid)
	nextTID++
	t.IsKernel = true
	t.Argument = argument
	t.KernelEntry = entry
	t.KernelStackBase = base
	t.KernelStackTop = top
	prepareNewThread(t)

	threads[t.TID] = t
	ready.pushBack(t.TID)
	return t, nil
}

// SpawnUser registers a TCB already populated by kernel/proc's ELF loader
// (UserEIP/UserESP/PDT set) with its own kernel stack, marks it Ready and
// queues it. Unlike Spawn, entry dispatch happens via enterUserMode rather
// than a direct Go call.
func SpawnUser(t *TCB) *kernel.Error {
	HoldPreemption()
	defer ReleasePreemption()

	base, top, err := allocKernelStackFn()
	if err != nil {
		return errNoStackSpace
	}
	t.TID = nextTID
	nextTID++
	t.KernelStackBase = base
	t.KernelStackTop = top
	prepareNewThread(t)

	threads[t.TID] = t
	ready.pushBack(t.TID)
	return nil
}

// Yield voluntarily gives up the CPU, moving the current thread to the back
// of the ready queue and switching to the next ready thread. It is a no-op
// if no other thread is ready.
func Yield() {
	HoldPreemption()
	defer ReleasePreemption()

	next, ok := ready.popFront()
	if !ok {
		return
	}

	from := currentTh
	from.Status = StatusReady
	ready.pushBack(from.TID)
	switchTo(from, threads[next])
}

// blockCurrentThread marks the current thread Blocked and switches away
// from it. It is the hook kernel/sync's sleep-based primitives call via
// SetSchedulerHooks; callers are responsible for having already recorded
// themselves as a waiter before calling this.
func blockCurrentThread() {
	HoldPreemption()
	defer ReleasePreemption()

	from := currentTh
	from.Status = StatusBlocked

	next, ok := ready.popFront()
	if !ok {
		panic(&kernel.Error{Module: "sched", Message: "no ready thread to run while blocking"})
	}
	switchTo(from, threads[next])
}

// Wake moves a blocked thread back onto the ready queue. Safe to call from
// interrupt context (the ATA driver's completion handler and the keyboard
// IRQ handler both do): it only mutates the ready queue under a preemption
// hold, and never allocates along a path that could run concurrently with
// itself.
func Wake(tid uint32) {
	HoldPreemption()
	defer ReleasePreemption()

	t, ok := threads[tid]
	if !ok || t.Status != StatusBlocked {
		return
	}
	t.Status = StatusReady
	ready.pushBack(tid)
}

// Exit tears the current thread down: its status becomes Dying, its kernel
// stack is handed off for the next thread to reap, and control passes to
// the next ready thread. Exit never returns.
func Exit(code int32) {
	HoldPreemption()

	from := currentTh
	from.Status = StatusDying
	from.ExitCode = code
	from.HasExit = true
	pendingReap = from

	next, ok := ready.popFront()
	if !ok {
		panic(&kernel.Error{Module: "sched", Message: "last thread exited"})
	}
	switchTo(from, threads[next])
	panic(&kernel.Error{Module: "sched", Message: "exited thread resumed"})
}

// switchTo performs the context switch machinery: bookkeeping that must
// happen exactly once per switch (TSS.esp0, the active page directory),
// the low-level register/stack swap, and - once some later switch resumes
// this call - reaping whatever thread died most recently. Must be called
// with preemption held.
func switchTo(from, to *TCB) {
	to.Status = StatusRunning
	currentTh = to

	gdt.SetKernelStack(to.KernelStackTop)
	if to.PDT != nil {
		to.PDT.Activate()
	}

	contextSwitchFn(from, to)

	// Control only reaches here once some future switch resumes `from`
	// (now `this` thread again); `to`'s own first-dispatch path reaps via
	// finishSwitch instead, since it never returns through this call.
	reapPending()
}

// contextSwitchFn is overridden by tests, which cannot execute real 386
// assembly; in the real build it always points at contextSwitch.
var contextSwitchFn = contextSwitch

// contextSwitch wraps switchStacks with the TCB pointer bookkeeping the raw
// register swap does not know about: fromTCB/toTCB ride through in
// EAX/EDX so a brand new thread's threadTrampoline can recover them.
func contextSwitch(from, to *TCB) {
	switchStacks(uintptr(unsafe.Pointer(from)), uintptr(unsafe.Pointer(to)), &from.KernelSP, to.KernelSP)
}

// finishSwitch is the Go-side completion of a switch, invoked by runThread
// on a thread's first dispatch (which resumes through threadTrampoline
// rather than back into switchTo).
func finishSwitch(from, to *TCB) {
	to.Status = StatusRunning
	currentTh = to
	reapPending()
}

// reapPending frees pendingReap's kernel stack and removes it from the
// thread table, if set. Called by whichever thread resumes immediately
// after a switch, since a dying thread's own stack cannot free itself.
func reapPending() {
	t := pendingReap
	if t == nil {
		return
	}
	pendingReap = nil
	delete(threads, t.TID)
	if t.KernelStackBase != 0 {
		kernelStacks.Deallocate(t.KernelStackBase, kernelStackLayout(t.KernelStackTop-t.KernelStackBase))
	}
}
