package syscall

import (
	"hammeros/kernel"
	"hammeros/kernel/gate"
	"hammeros/kernel/irq"
	"hammeros/kernel/proc"
	"hammeros/kernel/sched"
	"hammeros/kernel/vfs"
)

// neg converts a kernel.Error into this syscall's negated-errno return
// value: negative returns are errno-style error codes.
func neg(err *kernel.Error) int32 {
	return -int32(vfs.Errno(err))
}

func sysExit(regs *gate.Registers) int32 {
	proc.Exit(int32(regs.EBX))
	return 0 // unreachable: proc.Exit never returns
}

// sysFork implements fork by handing the syscall-return point captured in
// regs to proc.Fork, so the child resumes exactly where the parent's int
// 0x80 returns (see proc.Fork's doc comment for the child-EAX caveat this
// implies).
func sysFork(regs *gate.Registers) int32 {
	t, err := proc.Fork(uintptr(regs.EIP), uintptr(regs.ESP))
	if err != nil {
		return neg(err)
	}
	vfs.CloneForFork(callerPID(), t.PID)
	return int32(t.PID)
}

func sysRead(regs *gate.Registers) int32 {
	addr, size := uintptr(regs.ECX), uintptr(regs.EDX)
	if err := vfs.ValidateRange(addr, size, true); err != nil {
		return neg(err)
	}
	buf := make([]byte, size)
	n, rerr := vfs.Read(callerPID(), int(regs.EBX), buf)
	if rerr != nil {
		return neg(rerr)
	}
	if werr := vfs.CopyOutBytes(addr, buf[:n]); werr != nil {
		return neg(werr)
	}
	return int32(n)
}

func sysWrite(regs *gate.Registers) int32 {
	buf, err := vfs.CopyInBytes(uintptr(regs.ECX), uintptr(regs.EDX))
	if err != nil {
		return neg(err)
	}
	n, werr := vfs.Write(callerPID(), int(regs.EBX), buf)
	if werr != nil {
		return neg(werr)
	}
	return int32(n)
}

func sysOpen(regs *gate.Registers) int32 {
	path, err := vfs.CopyInString(uintptr(regs.EBX))
	if err != nil {
		return neg(err)
	}
	fd, operr := vfs.Open(callerPID(), path, int(regs.ECX))
	if operr != nil {
		return neg(operr)
	}
	return int32(fd)
}

func sysClose(regs *gate.Registers) int32 {
	if err := vfs.Close(callerPID(), int(regs.EBX)); err != nil {
		return neg(err)
	}
	return 0
}

func sysWaitpid(regs *gate.Registers) int32 {
	pid, code, err := proc.Waitpid(callerPID(), int32(regs.EBX))
	if err != nil {
		return neg(err)
	}
	if regs.ECX != 0 {
		var status [4]byte
		status[0], status[1], status[2], status[3] = byte(code), byte(code>>8), byte(code>>16), byte(code>>24)
		if werr := vfs.CopyOutBytes(uintptr(regs.ECX), status[:]); werr != nil {
			return neg(werr)
		}
	}
	return int32(pid)
}

func sysExecve(regs *gate.Registers) int32 {
	path, err := vfs.CopyInString(uintptr(regs.EBX))
	if err != nil {
		return neg(err)
	}
	img, oerr := readWholeFile(path)
	if oerr != nil {
		return neg(oerr)
	}
	if eerr := proc.Execve(callerPID(), img); eerr != nil {
		return neg(eerr)
	}
	return 0 // unreachable: proc.Execve never returns on success
}

// readWholeFile is execve's one non-syscall-arg helper: it opens path
// through the VFS and reads it into a single buffer sized by Fstat,
// since the ELF loader needs the whole image contiguously.
func readWholeFile(path string) ([]byte, *kernel.Error) {
	fd, err := vfs.Open(callerPID(), path, 0)
	if err != nil {
		return nil, err
	}
	defer vfs.Close(callerPID(), fd)

	st, err := vfs.Fstat(callerPID(), fd)
	if err != nil {
		return nil, err
	}

	buf := make([]byte, st.Size)
	var read uint64
	for read < st.Size {
		n, rerr := vfs.Read(callerPID(), fd, buf[read:])
		if rerr != nil {
			return nil, rerr
		}
		if n == 0 {
			break
		}
		read += uint64(n)
	}
	return buf[:read], nil
}

func sysChdir(regs *gate.Registers) int32 {
	path, err := vfs.CopyInString(uintptr(regs.EBX))
	if err != nil {
		return neg(err)
	}
	if cerr := proc.Chdir(callerPID(), path); cerr != nil {
		return neg(cerr)
	}
	return 0
}

func sysMkdir(regs *gate.Registers) int32 {
	path, err := vfs.CopyInString(uintptr(regs.EBX))
	if err != nil {
		return neg(err)
	}
	return errOf(vfs.Mkdir(path))
}

func sysRmdir(regs *gate.Registers) int32 {
	path, err := vfs.CopyInString(uintptr(regs.EBX))
	if err != nil {
		return neg(err)
	}
	return errOf(vfs.Rmdir(path))
}

func sysUnlink(regs *gate.Registers) int32 {
	path, err := vfs.CopyInString(uintptr(regs.EBX))
	if err != nil {
		return neg(err)
	}
	return errOf(vfs.Unlink(path))
}

func sysLink(regs *gate.Registers) int32 {
	oldPath, err := vfs.CopyInString(uintptr(regs.EBX))
	if err != nil {
		return neg(err)
	}
	newPath, err := vfs.CopyInString(uintptr(regs.ECX))
	if err != nil {
		return neg(err)
	}
	return errOf(vfs.Link(oldPath, newPath))
}

func sysSymlink(regs *gate.Registers) int32 {
	target, err := vfs.CopyInString(uintptr(regs.EBX))
	if err != nil {
		return neg(err)
	}
	linkPath, err := vfs.CopyInString(uintptr(regs.ECX))
	if err != nil {
		return neg(err)
	}
	return errOf(vfs.Symlink(target, linkPath))
}

// sysFstat writes a fixed on-the-wire layout into the caller's
// buffer: inode(4) nlink(4) size(8) type(1), little-endian, matching
// the Stat record field order.
func sysFstat(regs *gate.Registers) int32 {
	st, err := vfs.Fstat(callerPID(), int(regs.EBX))
	if err != nil {
		return neg(err)
	}

	var buf [17]byte
	putLE32(buf[0:4], st.Inode)
	putLE32(buf[4:8], st.Nlink)
	putLE64(buf[8:16], st.Size)
	buf[16] = st.Type

	if werr := vfs.CopyOutBytes(uintptr(regs.ECX), buf[:]); werr != nil {
		return neg(werr)
	}
	return 0
}

// sysLseek64 treats the offset as a sign-extended 32-bit value: this
// kernel's register-argument convention (three args, one per register)
// has no room for a true 64-bit argument without a second
// syscall trip, so files larger than 2 GiB cannot be fully seeked. This
// is a deliberate simplification.
func sysLseek64(regs *gate.Registers) int32 {
	off, err := vfs.Lseek64(callerPID(), int(regs.EBX), int64(int32(regs.ECX)), int(regs.EDX))
	if err != nil {
		return neg(err)
	}
	return int32(off)
}

func sysGetdents(regs *gate.Registers) int32 {
	entries, err := vfs.Getdents(callerPID(), int(regs.EBX), 0)
	if err != nil {
		return neg(err)
	}

	const recLen = 64
	bufSize := int(regs.EDX)
	out := make([]byte, 0, bufSize)
	for _, d := range entries {
		if len(out)+recLen > bufSize {
			break
		}
		rec := make([]byte, recLen)
		putLE64(rec[0:8], d.Inode)
		rec[8] = byte(d.Type)
		name := d.Name
		if len(name) > recLen-10 {
			name = name[:recLen-10]
		}
		copy(rec[9:], name)
		out = append(out, rec...)
	}

	if werr := vfs.CopyOutBytes(uintptr(regs.ECX), out); werr != nil {
		return neg(werr)
	}
	return int32(len(out))
}

func sysPipe(regs *gate.Registers) int32 {
	r, w, err := vfs.Pipe(callerPID())
	if err != nil {
		return neg(err)
	}
	var fds [8]byte
	putLE32(fds[0:4], uint32(r))
	putLE32(fds[4:8], uint32(w))
	if werr := vfs.CopyOutBytes(uintptr(regs.EBX), fds[:]); werr != nil {
		return neg(werr)
	}
	return 0
}

func sysDup(regs *gate.Registers) int32 {
	fd, err := vfs.Dup(callerPID(), int(regs.EBX))
	if err != nil {
		return neg(err)
	}
	return int32(fd)
}

func sysDup2(regs *gate.Registers) int32 {
	if err := vfs.Dup2(callerPID(), int(regs.EBX), int(regs.ECX)); err != nil {
		return neg(err)
	}
	return int32(regs.ECX)
}

func sysGetpid(regs *gate.Registers) int32 {
	return int32(callerPID())
}

func sysGetppid(regs *gate.Registers) int32 {
	pcb := proc.Lookup(callerPID())
	if pcb == nil {
		return neg(vfs.ErrNotFound)
	}
	return int32(pcb.PPID)
}

func sysSchedYield(regs *gate.Registers) int32 {
	sched.Yield()
	return 0
}

// sysNanosleep reads a {sec uint32, nsec uint32} little-endian request
// struct from EBX and cooperatively yields until that many ticks have
// elapsed: the duration is converted to a tick count and the syscall
// yields until the system clock passes the target.
func sysNanosleep(regs *gate.Registers) int32 {
	buf, err := vfs.CopyInBytes(uintptr(regs.EBX), 8)
	if err != nil {
		return neg(err)
	}
	sec := getLE32(buf[0:4])
	nsec := getLE32(buf[4:8])
	total := uint64(sec)*1_000_000_000 + uint64(nsec)

	deadline := irq.Ticks() + irq.DurationToTicks(total)
	for irq.Ticks() < deadline {
		sched.Yield()
	}
	return 0
}

// sysClockGettime reports elapsed time since boot as a {sec, nsec}
// little-endian struct, the only clock this kernel has (no RTC driver).
func sysClockGettime(regs *gate.Registers) int32 {
	nanos := irq.TicksToNanos(irq.Ticks())
	var buf [8]byte
	putLE32(buf[0:4], uint32(nanos/1_000_000_000))
	putLE32(buf[4:8], uint32(nanos%1_000_000_000))
	if err := vfs.CopyOutBytes(uintptr(regs.EBX), buf[:]); err != nil {
		return neg(err)
	}
	return 0
}

func sysMount(regs *gate.Registers) int32 {
	target, err := vfs.CopyInString(uintptr(regs.EBX))
	if err != nil {
		return neg(err)
	}
	fstype, err := vfs.CopyInString(uintptr(regs.ECX))
	if err != nil {
		return neg(err)
	}
	return errOf(vfs.MountByType(target, fstype))
}

func sysUnmount(regs *gate.Registers) int32 {
	target, err := vfs.CopyInString(uintptr(regs.EBX))
	if err != nil {
		return neg(err)
	}
	return errOf(vfs.Unmount(target))
}

func sysSync(regs *gate.Registers) int32 {
	return errOf(vfs.Sync())
}

func sysFtruncate(regs *gate.Registers) int32 {
	return errOf(vfs.Ftruncate(callerPID(), int(regs.EBX), uint64(regs.ECX)))
}

func sysRename(regs *gate.Registers) int32 {
	oldPath, err := vfs.CopyInString(uintptr(regs.EBX))
	if err != nil {
		return neg(err)
	}
	newPath, err := vfs.CopyInString(uintptr(regs.ECX))
	if err != nil {
		return neg(err)
	}
	return errOf(vfs.Rename(oldPath, newPath))
}

func sysGetrandom(regs *gate.Registers) int32 {
	n := int(regs.ECX)
	if n <= 0 {
		return 0
	}
	buf := make([]byte, n)
	fillRandom(buf)
	if err := vfs.CopyOutBytes(uintptr(regs.EBX), buf); err != nil {
		return neg(err)
	}
	return int32(n)
}

// randState seeds a simple xorshift generator from the tick counter the
// first time getrandom is called. No hardware RNG driver is in scope for
// this kernel, so this is explicitly a non-cryptographic entropy source -
// adequate for exercising the syscall, not for anything security-sensitive.
var randState uint64

func fillRandom(buf []byte) {
	if randState == 0 {
		randState = irq.Ticks()<<1 | 1
	}
	for i := range buf {
		randState ^= randState << 13
		randState ^= randState >> 7
		randState ^= randState << 17
		buf[i] = byte(randState)
	}
}

func errOf(err *kernel.Error) int32 {
	if err != nil {
		return neg(err)
	}
	return 0
}

func putLE32(b []byte, v uint32) {
	b[0], b[1], b[2], b[3] = byte(v), byte(v>>8), byte(v>>16), byte(v>>24)
}

func getLE32(b []byte) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}

func putLE64(b []byte, v uint64) {
	for i := 0; i < 8; i++ {
		b[i] = byte(v >> (8 * uint(i)))
	}
}
