package sched

import (
	"hammeros/kernel"
	"hammeros/kernel/config"
	"hammeros/kernel/cpu"
	"hammeros/kernel/gdt"
	"hammeros/kernel/irq"
	"hammeros/kernel/mm/buddy"
	"hammeros/kernel/mm/heap"
	"unsafe"
)

var kernelStacks heap.Heap

// savedRegsSize is the space switchStacks expects below the return address
// it RETs into: four callee-saved registers, one word each (EDI, ESI, EBX,
// EBP, in pop order).
const savedRegsSize = 4 * 4

// seedFrameSize is savedRegsSize plus the seeded return address itself.
const seedFrameSize = savedRegsSize + 4

// funcPC recovers the entry code pointer of a bodyless Go function value.
// Go gives no portable way to take "the address of a label"; the first
// word of a non-closure func value is its code pointer, which is the
// standard trick runtime-less Go kernels use to seed a fresh call stack -
// there is no stdlib helper for this, since it is below the runtime that
// would otherwise provide one.
func funcPC(f func()) uintptr {
	return **(**uintptr)(unsafe.Pointer(&f))
}

// kernelStackLayout describes the allocation request for one thread's
// kernel stack: page-aligned so a stray access past the end reliably
// faults rather than silently corrupting an adjacent allocation.
func kernelStackLayout(size uintptr) buddy.Layout {
	return buddy.Layout{Size: size, Align: config.PageSize}
}

// allocKernelStackFn is overridden by tests, which have no frame allocator
// or kernel heap to back a real stack allocation.
var allocKernelStackFn = allocKernelStack

// allocKernelStack reserves config.KernelStackFrames frames for a new
// thread's kernel stack and returns its [base, top) virtual address range.
func allocKernelStack() (base, top uintptr, err *kernel.Error) {
	size := uintptr(config.KernelStackFrames) * config.PageSize
	ptr, kerr := kernelStacks.Allocate(kernelStackLayout(size))
	if kerr != nil {
		return 0, 0, kerr
	}
	kernel.Memset(ptr, 0, size)
	return ptr, ptr + size, nil
}

// prepareNewThread seeds t's kernel stack so that the first contextSwitch
// into it resumes at threadTrampoline instead of returning into whatever
// called contextSwitch. The seeded layout mirrors
// exactly what switchStacks expects to find when it restores a thread it
// is switching away from: four saved (zeroed) registers below a return
// address, which is threadTrampoline's entry point.
func prepareNewThread(t *TCB) {
	frameBase := t.KernelStackTop - seedFrameSize
	kernel.Memset(frameBase, 0, seedFrameSize)

	retAddr := t.KernelStackTop - 4
	*(*uintptr)(unsafe.Pointer(retAddr)) = funcPC(threadTrampoline)

	t.KernelSP = frameBase
	t.Status = StatusReady
}

// runThread is invoked by threadTrampoline on a brand new thread's very
// first dispatch. It finishes what contextSwitch would otherwise do after
// every switch (mark the new thread Running, reclaim the thread it
// switched out of) and then either runs the kernel entry function directly
// or builds the ring-3 iret frame for a user thread.
func runThread(fromTCB, toTCB uintptr) {
	from := (*TCB)(unsafe.Pointer(fromTCB))
	to := (*TCB)(unsafe.Pointer(toTCB))

	finishSwitch(from, to)

	// Every new thread starts with interrupts enabled and the
	// preemption hold released: unmask the PIT IRQ and enable
	// interrupts immediately after taking over the new stack.
	preemptHold = 0
	irq.UnmaskIRQ(0)
	cpu.EnableInterrupts()

	if to.IsKernel {
		to.KernelEntry(to.Argument)
		// A kernel thread entry function is not expected to return;
		// if it does, exit cleanly rather than running off the stack.
		Exit(0)
	}

	dispatchToUserMode(to)
}

// dispatchToUserMode builds and executes the ring-3 iret frame that hands
// control to a user thread's entry point for the first time.
func dispatchToUserMode(t *TCB) {
	enterUserMode(t.UserEIP, t.UserESP, gdt.UserCodeSelector, gdt.UserDataSelector)
}

// enterUserMode loads the user data selector into DS/ES/FS/GS and executes
// IRETD into eip/esp at the given code/data selectors with interrupts
// enabled, never to return. Implemented in dispatch_user_386.s: building
// and firing an iret frame has no Go-callable equivalent.
func enterUserMode(eip, esp uintptr, codeSel, dataSel uint16)
