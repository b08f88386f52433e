package vmm

import (
	"hammeros/kernel"
	"hammeros/kernel/gate"
	"hammeros/kernel/kfmt"
	"hammeros/kernel/mm"
)

var (
	// handleInterruptFn is used by tests.
	handleInterruptFn = gate.HandleInterrupt

	// resolveUserFaultFn is set by kernel/vma (via SetUserFaultResolver)
	// once a scheduler exists to own per-process VMA lists; nil until
	// then, in which case every fault on a non-present page is
	// unrecoverable. Kept as a hook rather than a direct import to avoid
	// vmm depending on the process/VMA layer built on top of it.
	resolveUserFaultFn func(addr uintptr) *kernel.Error

	// isThreadLandingPadFn reports whether eip is the dummy address a user
	// thread's initial stack frame is seeded to "return" into: a fault
	// there means the thread fell off the end of its entry function
	// without calling exit, and should be torn down gracefully rather
	// than treated as a real fault. Set by kernel/proc.
	isThreadLandingPadFn func(eip uintptr) bool

	// exitCurrentThreadFn tears down the thread that just faulted at the
	// landing pad. Set by kernel/proc alongside isThreadLandingPadFn.
	exitCurrentThreadFn func()

	// killFaultedUserThreadFn tears down the thread that just took a GP or
	// unrecoverable page fault while running in ring 3, so one process's
	// bad pointer or privileged-instruction attempt can't take down the
	// whole kernel. Set by kernel/proc's Init alongside the
	// other fault hooks; nil until a scheduler/process table exists, in
	// which case every fault is still treated as a kernel panic.
	killFaultedUserThreadFn func()
)

// SetUserFaultResolver registers the function consulted for faults on
// pages with no present PTE at all (as opposed to the CoW case handled
// directly below, which never leaves vmm). Called once by kernel/vma's
// Init.
func SetUserFaultResolver(fn func(addr uintptr) *kernel.Error) {
	resolveUserFaultFn = fn
}

// SetThreadLandingPadHooks registers the landing-pad check and the thread
// teardown it triggers. Called once by kernel/proc's Init.
func SetThreadLandingPadHooks(isLandingPad func(eip uintptr) bool, exitCurrent func()) {
	isThreadLandingPadFn = isLandingPad
	exitCurrentThreadFn = exitCurrent
}

// SetFaultTerminationHook registers the function that tears down a thread
// which just faulted in ring 3 with no other recovery available. Called
// once by kernel/proc's Init.
func SetFaultTerminationHook(kill func()) {
	killFaultedUserThreadFn = kill
}

// faultedInUserMode reports whether the trap frame's saved CS carries an
// RPL of 3, i.e. the CPU was executing ring-3 code when the fault fired.
func faultedInUserMode(regs *gate.Registers) bool {
	return regs.CS&0x3 == 3
}

func installFaultHandlers() {
	handleInterruptFn(gate.PageFaultException, pageFaultHandler)
	handleInterruptFn(gate.GPFException, generalProtectionFaultHandler)
}

// pageFaultHandler is invoked when a PDE or PTE is not present or when a RW
// protection check fails. The faulting linear address is read from CR2; the
// error code pushed by the CPU is carried in regs.Info.
func pageFaultHandler(regs *gate.Registers) {
	var (
		faultAddress = uintptr(readCR2Fn())
		faultPage    = mm.PageFromAddress(faultAddress)
		pageEntry    *pageTableEntry
	)

	if isThreadLandingPadFn != nil && isThreadLandingPadFn(uintptr(regs.EIP)) {
		exitCurrentThreadFn()
		return
	}

	// Lookup entry for the page where the fault occurred
	walk(faultPage.Address(), func(pteLevel uint8, pte *pageTableEntry) bool {
		nextIsPresent := pte.HasFlags(FlagPresent)

		if pteLevel == pageLevels-1 && nextIsPresent {
			pageEntry = pte
		}

		// Abort walk if the next page table entry is missing
		return nextIsPresent
	})

	// CoW is supported for RO pages with the CoW flag set
	if pageEntry != nil && !pageEntry.HasFlags(FlagRW) && pageEntry.HasFlags(FlagCopyOnWrite) {
		var (
			copy    mm.Frame
			tmpPage mm.Page
			err     *kernel.Error
		)

		if copy, err = mm.AllocFrame(); err != nil {
			nonRecoverablePageFault(faultAddress, regs, err)
		} else if tmpPage, err = mapTemporaryFn(copy); err != nil {
			nonRecoverablePageFault(faultAddress, regs, err)
		} else {
			// Copy page contents, mark as RW and remove CoW flag
			kernel.Memcopy(faultPage.Address(), tmpPage.Address(), mm.PageSize)
			_ = unmapFn(tmpPage)

			// Update mapping to point to the new frame, flag it as RW and
			// remove the CoW flag
			pageEntry.ClearFlags(FlagCopyOnWrite)
			pageEntry.SetFlags(FlagPresent | FlagRW)
			pageEntry.SetFrame(copy)
			flushTLBEntryFn(faultPage.Address())

			// Fault recovered; retry the instruction that caused the fault
			return
		}
	}

	// No CoW mapping applies; hand off to the per-process VMA resolver
	// (userspace stack/heap growth, mmap) before giving up.
	if resolveUserFaultFn != nil {
		if err := resolveUserFaultFn(faultAddress); err == nil {
			return
		}
	}

	nonRecoverablePageFault(faultAddress, regs, errUnrecoverableFault)
}

// generalProtectionFaultHandler is invoked for various reasons:
// - segment errors (privilege, type or limit violations)
// - executing privileged instructions outside ring-0
// - accessing a selector beyond the GDT/IDT limit
func generalProtectionFaultHandler(regs *gate.Registers) {
	kfmt.Printf("\nGeneral protection fault\n")
	kfmt.Printf("Registers:\n")
	regs.DumpTo(kfmt.GetOutputSink())

	if faultedInUserMode(regs) && killFaultedUserThreadFn != nil {
		kfmt.Printf("terminating faulting user thread\n")
		killFaultedUserThreadFn()
		return
	}

	panic(errUnrecoverableFault)
}

func nonRecoverablePageFault(faultAddress uintptr, regs *gate.Registers, err *kernel.Error) {
	kfmt.Printf("\nPage fault while accessing address: 0x%8x\nReason: ", faultAddress)
	switch {
	case regs.Info == 0:
		kfmt.Printf("read from non-present page")
	case regs.Info == 1:
		kfmt.Printf("page protection violation (read)")
	case regs.Info == 2:
		kfmt.Printf("write to non-present page")
	case regs.Info == 3:
		kfmt.Printf("page protection violation (write)")
	case regs.Info == 4:
		kfmt.Printf("page-fault in user-mode")
	case regs.Info == 8:
		kfmt.Printf("page table has reserved bit set")
	case regs.Info == 16:
		kfmt.Printf("instruction fetch")
	default:
		kfmt.Printf("unknown")
	}

	kfmt.Printf("\n\nRegisters:\n")
	regs.DumpTo(kfmt.GetOutputSink())

	if faultedInUserMode(regs) && killFaultedUserThreadFn != nil {
		kfmt.Printf("terminating faulting user thread\n")
		killFaultedUserThreadFn()
		return
	}

	panic(err)
}
