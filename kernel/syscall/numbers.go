// Package syscall implements the int 0x80 trap-gate contract: dispatch on
// eax, fixed-order argument registers, negated-errno returns on vector
// 0x80. The dispatch-table-over-gate.HandleInterrupt shape mirrors how
// kernel/driver/ata and kernel/driver/ps2 each register themselves on a
// fixed interrupt vector through the same gate package.
package syscall

// Number identifies a syscall by the value userspace places in EAX.
// Numbering follows a Linux-like i386 ABI; exact values are this
// implementation's own choice of a recognizable convention, not a fixed
// published mapping (recorded in DESIGN.md).
type Number uint32

const (
	SysExit         Number = 1
	SysFork         Number = 2
	SysRead         Number = 3
	SysWrite        Number = 4
	SysOpen         Number = 5
	SysClose        Number = 6
	SysWaitpid      Number = 7
	SysLink         Number = 9
	SysUnlink       Number = 10
	SysExecve       Number = 11
	SysChdir        Number = 12
	SysMount        Number = 21
	SysUnmount      Number = 22
	SysSync         Number = 36
	SysRename       Number = 38
	SysMkdir        Number = 39
	SysRmdir        Number = 40
	SysDup          Number = 41
	SysPipe         Number = 42
	SysGetpid       Number = 20
	SysGetppid      Number = 64
	SysDup2         Number = 63
	SysSymlink      Number = 83
	SysFtruncate    Number = 93
	SysFstat        Number = 108
	SysLseek64      Number = 140
	SysGetdents     Number = 141
	SysSchedYield   Number = 158
	SysNanosleep    Number = 162
	SysClockGettime Number = 265
	SysGetrandom    Number = 355
)
