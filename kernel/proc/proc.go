// proc.go wires kernel/proc into the paging layer's fault hooks and
// implements fork and process exit on top of kernel/sched's thread
// primitives. The hook-based wiring to vmm follows the same pattern
// kernel/sched.Init uses to wire kernel/sync's scheduler hooks.
package proc

import (
	"hammeros/kernel"
	"hammeros/kernel/config"
	"hammeros/kernel/mm"
	"hammeros/kernel/mm/vmm"
	"hammeros/kernel/sched"
	"hammeros/kernel/vma"
)

var (
	setUserFaultResolverFn     = vmm.SetUserFaultResolver
	setThreadLandingPadHooksFn = vmm.SetThreadLandingPadHooks
	setFaultTerminationHookFn  = vmm.SetFaultTerminationHook
	currentThreadFn            = sched.CurrentThread
	translateFn                = vmm.Translate
	schedExitFn                = sched.Exit
	yieldFn                    = sched.Yield
)

// faultExitCode is the exit code recorded for a process killed by an
// unrecoverable ring-3 fault (general protection fault, or a page fault
// no VMA resolver could service), distinguishing it in waitpid's status
// word from a normal exit(0..255) or the landing pad's implicit exit(0).
const faultExitCode = -1

// killFaultedThread is kernel/mm/vmm's last resort for a ring-3 fault: the
// faulting process is torn down instead of panicking the whole kernel:
// a fault in one process must not take down the others.
func killFaultedThread() {
	Exit(faultExitCode)
}

// Init wires this package into the page-fault handler's hooks: user-space
// faults resolve against the faulting thread's own PCB.VMAs, and a fault at
// the thread landing pad address tears the thread down gracefully rather
// than panicking.
func Init() {
	setUserFaultResolverFn(resolveUserFault)
	setThreadLandingPadHooksFn(isLandingPad, exitCurrentThread)
	setFaultTerminationHookFn(killFaultedThread)
}

// resolveUserFault is installed as vmm's user fault resolver. It looks up
// the faulting thread's PCB and defers to the VMA resolver for its address
// space.
func resolveUserFault(addr uintptr) *kernel.Error {
	t := currentThreadFn()
	pcb := Lookup(t.PID)
	if pcb == nil || t.PDT == nil {
		return errUnknownPID
	}
	return vma.InstallPTE(pcb.VMAs, t.PDT, addr)
}

func isLandingPad(eip uintptr) bool {
	return eip == config.ThreadLandingPad
}

func exitCurrentThread() {
	Exit(0)
}

// Exit tears the calling thread's process down: records the exit code on
// its PCB, wakes a parent blocked in waitpid if one exists, and exits the
// underlying thread. Every process in this kernel is single-threaded, so
// exiting the one thread exits the process.
func Exit(code int32) {
	t := currentThreadFn()
	if pcb := Lookup(t.PID); pcb != nil {
		pcb.ExitCode = code
		pcb.HasExit = true
		pcb.WaitSem.Post()
	}
	schedExitFn(code)
}

// Waitpid implements the waitpid syscall for callerPID. targetPID > 0 waits
// for that specific child; targetPID <= 0 waits for any of callerPID's
// children, following the informal POSIX model for waitpid's exact
// semantics. The reaped child's PCB is removed from
// the process table before returning.
func Waitpid(callerPID uint32, targetPID int32) (pid uint32, exitCode int32, err *kernel.Error) {
	caller := Lookup(callerPID)
	if caller == nil {
		return 0, 0, errUnknownPID
	}

	if targetPID > 0 {
		child := Lookup(uint32(targetPID))
		if child == nil || child.PPID != callerPID {
			return 0, 0, errNoChild
		}
		child.WaitSem.Acquire()
		return reapChild(caller, child), child.ExitCode, nil
	}

	if len(caller.ChildPIDs) == 0 {
		return 0, 0, errNoChild
	}
	for {
		for _, cpid := range caller.ChildPIDs {
			child := Lookup(cpid)
			if child != nil && child.HasExit {
				return reapChild(caller, child), child.ExitCode, nil
			}
		}
		yieldFn()
	}
}

// reapChild removes child from the process table and from parent's
// ChildPIDs list, returning child's PID for convenience.
func reapChild(parent, child *PCB) uint32 {
	for i, cpid := range parent.ChildPIDs {
		if cpid == child.PID {
			parent.ChildPIDs = append(parent.ChildPIDs[:i], parent.ChildPIDs[i+1:]...)
			break
		}
	}
	remove(child.PID)
	return child.PID
}

// Fork creates a child process that is a copy of the calling process's
// address space and resumes at (returnEIP, returnESP) - the syscall
// return point the caller (kernel/syscall's fork handler) captured from
// the int 0x80 frame, so the child picks up exactly where the parent's
// fork() call returns.
//
// Known limitation: dispatchToUserMode only restores EIP/ESP on a new
// thread's first entry into ring 3, not a full register snapshot, so the
// child's EAX (conventionally 0 for fork's child branch) is whatever the
// CPU happens to hold rather than an explicitly restored value. Extending
// the TCB and enterUserMode to carry a full GP-register snapshot would
// remove this, but is not done here.
func Fork(returnEIP, returnESP uintptr) (*sched.TCB, *kernel.Error) {
	from := currentThreadFn()
	parentPCB := Lookup(from.PID)
	if parentPCB == nil {
		return nil, errUnknownPID
	}

	childPCB := newPCB(parentPCB.PID)
	childPCB.Cwd = parentPCB.Cwd
	childPCB.CwdPath = parentPCB.CwdPath
	childPCB.VMAs = parentPCB.VMAs.Clone()

	pdtFrame, err := allocFrameFn()
	if err != nil {
		return nil, err
	}
	childPDT := &vmm.PageDirectoryTable{}
	if err := childPDT.Init(pdtFrame); err != nil {
		return nil, err
	}

	if err := copyMappedPages(childPCB.VMAs, childPDT); err != nil {
		return nil, err
	}

	t := &sched.TCB{
		PID:     childPCB.PID,
		UserEIP: returnEIP,
		UserESP: returnESP,
		PDT:     childPDT,
	}
	if err := sched.SpawnUser(t); err != nil {
		return nil, err
	}

	return t, nil
}

// copyMappedPages eagerly duplicates every currently-mapped page within
// each VMA of the calling (parent) address space into freshly allocated
// frames mapped into childPDT. This kernel copies eagerly rather than
// sharing copy-on-write frames between parent and child: simpler to get
// right, at the cost of copying pages the child may never write to. A CoW
// fork would mark both parent and child PTEs read-only with
// vmm.FlagCopyOnWrite and share the frame instead.
func copyMappedPages(vmas *vma.List, childPDT *vmm.PageDirectoryTable) *kernel.Error {
	for _, v := range vmas.Snapshot() {
		flags := vmm.FlagPresent | vmm.FlagUserAccessible
		if v.Writable {
			flags |= vmm.FlagRW
		}

		for addr := v.Base; addr < v.Base+v.Size; addr += config.PageSize {
			if _, err := translateFn(addr); err != nil {
				continue // page not yet faulted in; child will lazily fault it too
			}

			childFrame, err := allocFrameFn()
			if err != nil {
				return err
			}

			page, err := mapTemporaryFn(childFrame)
			if err != nil {
				return err
			}
			kernel.Memcopy(addr, page.Address(), config.PageSize)
			_ = unmapFn(page)

			if err := childPDT.Map(mm.PageFromAddress(addr), childFrame, flags); err != nil {
				return err
			}
		}
	}

	return nil
}
