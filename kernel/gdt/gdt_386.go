// Package gdt builds the flat kernel/user segment layout and task state
// segment a 32-bit protected-mode kernel needs to reach ring 3 and take
// interrupts on a known-good kernel stack.
package gdt

import (
	"hammeros/kernel/cpu"
	"unsafe"
)

// segmentDescriptor is a single packed 8-byte GDT entry (base/limit split
// across the access byte and flags nibble the way the x86 manual lays it
// out, not contiguous).
type segmentDescriptor uint64

const (
	accessPresent    = 1 << 47
	accessDPL3       = 3 << 45
	accessDescriptor = 1 << 44 // 1 = code/data, 0 = system (TSS, LDT...)
	accessExecutable = 1 << 43
	accessReadWrite  = 1 << 41
	accessAccessed   = 1 << 40

	flagGranularity = 1 << 55 // limit counted in 4 KiB pages
	flag32Bit       = 1 << 54
)

// newFlatDescriptor builds a 4 GiB flat segment descriptor (base 0, limit
// 0xFFFFF counted in 4 KiB pages) with the given access byte contribution.
func newFlatDescriptor(access uint64) segmentDescriptor {
	const limit = uint64(0xFFFFF)
	d := (limit & 0xFFFF) | access | flagGranularity | flag32Bit
	d |= (limit >> 16 & 0xF) << 48
	return segmentDescriptor(d)
}

func tssDescriptor(base, limit uint32) segmentDescriptor {
	d := uint64(limit&0xFFFF) | accessPresent | accessExecutable | accessAccessed
	d |= uint64(base&0xFFFFFF) << 16
	d |= uint64(base>>24&0xFF) << 56
	return segmentDescriptor(d)
}

// Selector indices mirror the layout of the gdt table below; values are
// the CPU-visible 16-bit selectors (index<<3 | RPL).
const (
	KernelCodeSelector = uint16(1<<3 | 0)
	KernelDataSelector = uint16(2<<3 | 0)
	UserCodeSelector   = uint16(3<<3 | 3)
	UserDataSelector   = uint16(4<<3 | 3)
	tssSelector        = uint16(5 << 3)
)

// TaskStateSegment holds the one field 32-bit protected mode actually uses
// outside of hardware task-switching (which this kernel does not use):
// esp0/ss0, the ring-0 stack to load on a ring 3 -> ring 0 transition.
type TaskStateSegment struct {
	link                                     uint16
	_                                        uint16
	Esp0                                     uint32
	Ss0                                      uint16
	_                                        uint16
	esp1, ss1, esp2, ss2                     uint32
	cr3, eip, eflags                         uint32
	eax, ecx, edx, ebx, esp, ebp, esi, edi   uint32
	es, cs, ss, ds, fs, gs, ldtr             uint16
	_                                        uint16
	iopb                                     uint16
}

var (
	gdtTable [6]segmentDescriptor
	tss      TaskStateSegment

	gdtPtr struct {
		limit uint16
		base  uint32
	}
)

// Init builds the GDT (null, kernel code, kernel data, user code, user
// data, TSS) and the TSS, then loads GDTR and TR. Called once during boot,
// before any thread other than the initial kernel thread exists.
func Init() {
	gdtTable[0] = 0
	gdtTable[1] = newFlatDescriptor(accessPresent | accessDescriptor | accessExecutable | accessReadWrite)
	gdtTable[2] = newFlatDescriptor(accessPresent | accessDescriptor | accessReadWrite)
	gdtTable[3] = newFlatDescriptor(accessPresent | accessDPL3 | accessDescriptor | accessExecutable | accessReadWrite)
	gdtTable[4] = newFlatDescriptor(accessPresent | accessDPL3 | accessDescriptor | accessReadWrite)

	tssSize := uint32(unsafe.Sizeof(tss))
	tss.Ss0 = KernelDataSelector
	tss.iopb = uint16(tssSize)
	gdtTable[5] = tssDescriptor(uint32(uintptr(unsafe.Pointer(&tss))), tssSize-1)

	gdtPtr.limit = uint16(len(gdtTable)*8 - 1)
	gdtPtr.base = uint32(uintptr(unsafe.Pointer(&gdtTable[0])))

	cpu.LoadGDT(uintptr(unsafe.Pointer(&gdtPtr)))
	cpu.LoadTSS(tssSelector)
}

// SetKernelStack updates TSS.esp0, the stack the CPU switches to on the
// next ring 3 -> ring 0 transition (interrupt or syscall). Called by the
// scheduler on every context switch so traps taken while a user thread is
// running land on that thread's own kernel stack.
func SetKernelStack(esp0 uintptr) {
	tss.Esp0 = uint32(esp0)
}
