// Package proc owns the process control block table, the ELF loader that
// turns a binary into a dispatchable user thread, and fork.
package proc

import (
	"hammeros/kernel"
	ksync "hammeros/kernel/sync"
	"hammeros/kernel/vma"
)

// CwdRef names a directory by filesystem id and inode, the same pair a
// FileHandle uses.
type CwdRef struct {
	FS    uint8
	Inode uint64
}

// PCB is a process control block: the unit of resource ownership (address
// space, open files, working directory) shared by every thread in a
// process.
type PCB struct {
	PID  uint32
	PPID uint32

	// ChildPIDs lists the processes directly spawned by this one that
	// have not yet been reaped via Waitpid.
	ChildPIDs []uint32

	// WaitSem is posted exactly once, by Exit, when this process's one
	// thread terminates. A parent's Waitpid acquires it; since Post on an
	// unwaited-for semaphore simply leaves its count at 1, a parent that
	// calls Waitpid after the child already exited does not block.
	WaitSem *ksync.Semaphore

	ExitCode int32
	HasExit  bool

	Cwd     CwdRef
	CwdPath string

	VMAs *vma.List
}

var (
	tableLock ksync.RWLock
	table     = map[uint32]*PCB{}
	nextPID   uint32 = 1

	errUnknownPID = &kernel.Error{Module: "proc", Message: "unknown pid"}
	errNoChild    = &kernel.Error{Module: "proc", Message: "no such child process"}
)

// allocatePID reserves the next PID. Must be called with tableLock held.
func allocatePID() uint32 {
	pid := nextPID
	nextPID++
	return pid
}

// newPCB creates and registers a PCB with ppid as its parent, a fresh
// empty VMA list and the root directory as its working directory,
// minus the stdin/stdout/stderr FD setup which kernel/vfs installs once
// it exists.
func newPCB(ppid uint32) *PCB {
	tableLock.Lock()
	defer tableLock.Unlock()

	p := &PCB{
		PID:     allocatePID(),
		PPID:    ppid,
		VMAs:    &vma.List{},
		CwdPath: "/",
		WaitSem: ksync.NewSemaphore(0),
	}
	table[p.PID] = p
	if parent := table[ppid]; parent != nil {
		parent.ChildPIDs = append(parent.ChildPIDs, p.PID)
	}
	return p
}

// Lookup returns the PCB for pid, or nil if it does not exist (already
// reaped, or never allocated).
func Lookup(pid uint32) *PCB {
	tableLock.RLock()
	defer tableLock.RUnlock()
	return table[pid]
}

// remove deletes a PCB from the table, called once its last thread has
// exited and been waited for.
func remove(pid uint32) {
	tableLock.Lock()
	defer tableLock.Unlock()
	delete(table, pid)
}
