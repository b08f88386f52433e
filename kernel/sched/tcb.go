// Package sched implements preemptive round-robin scheduling over kernel
// and user threads: the thread control block, the FIFO ready queue, the
// naked-asm context switch and the PIT-driven preemption guard.
package sched

import "hammeros/kernel/mm/vmm"

// Status is the run state of a thread: Invalid/Ready/Running/Blocked/Dying.
type Status int

const (
	// StatusInvalid marks a TCB slot that has been reaped and is not
	// associated with a live thread.
	StatusInvalid Status = iota

	// StatusReady threads are sitting in the ready queue waiting for
	// their turn on the CPU.
	StatusReady

	// StatusRunning is held by exactly one thread per CPU: the one
	// currently executing.
	StatusRunning

	// StatusBlocked threads are parked on a kernel/sync primitive and do
	// not appear in the ready queue until woken.
	StatusBlocked

	// StatusDying threads have exited but have not yet been reaped
	// (their kernel stack is still referenced by the last context
	// switch that scheduled them out).
	StatusDying
)

func (s Status) String() string {
	switch s {
	case StatusInvalid:
		return "invalid"
	case StatusReady:
		return "ready"
	case StatusRunning:
		return "running"
	case StatusBlocked:
		return "blocked"
	case StatusDying:
		return "dying"
	default:
		return "unknown"
	}
}

// TCB is a thread control block: the unit of scheduling. Every thread,
// kernel or user, has exactly one.
type TCB struct {
	TID uint32
	PID uint32

	// KernelStackBase/KernelStackTop bound the frames backing this
	// thread's kernel stack (config.KernelStackFrames frames). Base is the
	// lowest address, used only to free the stack
	// once the thread is reaped.
	KernelStackBase uintptr
	KernelStackTop  uintptr

	// KernelSP is this thread's saved stack pointer. It is only
	// meaningful while the thread is not Running: contextSwitch reads
	// and writes it directly rather than through a struct-offset
	// constant, since offset_of-style field addressing has no safe
	// equivalent in portable Go assembly.
	KernelSP uintptr

	// UserEIP/UserESP are the entry point and initial stack pointer used
	// to build the first ring-3 iret frame for a user thread. Unused for
	// kernel threads.
	UserEIP uintptr
	UserESP uintptr

	// IsKernel is true for threads that run in ring 0 for their entire
	// lifetime.
	IsKernel bool

	// Argument is handed to a kernel thread's entry function on first
	// dispatch.
	Argument uint32

	Status Status

	// ExitCode is set once by Exit and read by a waiting parent; HasExit
	// distinguishes "exited with code 0" from "still running".
	ExitCode int32
	HasExit  bool

	// PDT is the thread's page directory table. It is nil for kernel
	// threads, which run against whatever PDT happens to be active
	// (normally the kernel's own, set up by vmm.Init).
	PDT *vmm.PageDirectoryTable

	// KernelEntry is the Go function a kernel thread runs on first
	// dispatch. Unused for user threads, which dispatch to UserEIP in
	// ring 3 instead.
	KernelEntry func(uint32)
}

// newTCB allocates a TID and zero-value TCB; callers finish initialization
// (stack, entry point) before handing it to the scheduler.
func newTCB(tid, pid uint32) *TCB {
	return &TCB{TID: tid, PID: pid, Status: StatusInvalid}
}
