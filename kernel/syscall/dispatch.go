package syscall

import (
	"hammeros/kernel/gate"
	"hammeros/kernel/sched"
	"hammeros/kernel/vfs"
)

// handlerFunc implements one syscall's semantics. It reads its arguments
// out of regs itself (ebx/ecx/edx) and returns the value
// to place in EAX: non-negative is a result, negative is a negated errno.
type handlerFunc func(regs *gate.Registers) int32

var table map[Number]handlerFunc

func init() {
	table = map[Number]handlerFunc{
		SysExit:         sysExit,
		SysFork:         sysFork,
		SysRead:         sysRead,
		SysWrite:        sysWrite,
		SysOpen:         sysOpen,
		SysClose:        sysClose,
		SysWaitpid:      sysWaitpid,
		SysExecve:       sysExecve,
		SysChdir:        sysChdir,
		SysMkdir:        sysMkdir,
		SysRmdir:        sysRmdir,
		SysUnlink:       sysUnlink,
		SysLink:         sysLink,
		SysSymlink:      sysSymlink,
		SysFstat:        sysFstat,
		SysLseek64:      sysLseek64,
		SysGetdents:     sysGetdents,
		SysPipe:         sysPipe,
		SysDup:          sysDup,
		SysDup2:         sysDup2,
		SysGetpid:       sysGetpid,
		SysGetppid:      sysGetppid,
		SysSchedYield:   sysSchedYield,
		SysNanosleep:    sysNanosleep,
		SysClockGettime: sysClockGettime,
		SysMount:        sysMount,
		SysUnmount:      sysUnmount,
		SysSync:         sysSync,
		SysFtruncate:    sysFtruncate,
		SysRename:       sysRename,
		SysGetrandom:    sysGetrandom,
	}
}

// Init registers dispatch on the int 0x80 gate.
func Init() {
	gate.HandleInterrupt(gate.Syscall, dispatch)
}

// dispatch implements the trap-gate contract: eax names the syscall,
// ebx/ecx/edx carry up to three arguments, and the result (or negated
// errno) is returned in eax. Unknown numbers return -ENOSYS.
func dispatch(regs *gate.Registers) {
	h, ok := table[Number(regs.EAX)]
	if !ok {
		regs.EAX = asEAX(-int32(vfs.ENOSYS))
		return
	}
	regs.EAX = asEAX(h(regs))
}

func asEAX(v int32) uint32 { return uint32(v) }

func callerPID() uint32 { return sched.CurrentThread().PID }
