// Package gate installs the 32-bit IDT and dispatches interrupts, CPU
// exceptions and the int 0x80 syscall gate to registered Go handlers.
package gate

import (
	"hammeros/kernel/cpu"
	"hammeros/kernel/gdt"
	"hammeros/kernel/kfmt"
	"io"
	"unsafe"
)

// Registers contains a snapshot of all general-purpose register values
// together with the CPU-pushed exception/IRQ frame at the moment an
// interrupt, exception or syscall occurred.
type Registers struct {
	EAX uint32
	EBX uint32
	ECX uint32
	EDX uint32
	ESI uint32
	EDI uint32
	EBP uint32

	// Info contains the exception error code for exceptions that push
	// one; for every other vector it holds the vector number itself
	// (0x80 for syscall entries, 0x20+n for IRQ n). The syscall number
	// is carried in EAX.
	Info uint32

	// The frame pushed by the CPU and consumed by IRETD.
	EIP    uint32
	CS     uint32
	EFlags uint32

	// ESP/SS are only present on the stack when a privilege-level change
	// occurred (ring 3 -> ring 0). RingChange reports whether they are
	// valid.
	ESP       uint32
	SS        uint32
	RingChange bool
}

// DumpTo writes a human readable dump of the register snapshot to w; used
// by panic/fault handlers that must describe the CPU state at the point of
// failure without allocating.
func (r *Registers) DumpTo(w io.Writer) {
	kfmt.Fprintf(w, "EAX = %8x EBX = %8x\n", r.EAX, r.EBX)
	kfmt.Fprintf(w, "ECX = %8x EDX = %8x\n", r.ECX, r.EDX)
	kfmt.Fprintf(w, "ESI = %8x EDI = %8x\n", r.ESI, r.EDI)
	kfmt.Fprintf(w, "EBP = %8x\n", r.EBP)
	kfmt.Fprintf(w, "\n")
	kfmt.Fprintf(w, "EIP = %8x CS  = %8x\n", r.EIP, r.CS)
	kfmt.Fprintf(w, "EFL = %8x\n", r.EFlags)
	if r.RingChange {
		kfmt.Fprintf(w, "ESP = %8x SS  = %8x\n", r.ESP, r.SS)
	}
}

// InterruptNumber describes an x86 interrupt/exception/trap vector.
type InterruptNumber uint8

const (
	// DivideByZero occurs when dividing any number by 0 using DIV/IDIV.
	DivideByZero = InterruptNumber(0)

	// NMI is a hardware interrupt indicating RAM or unrecoverable
	// hardware problems.
	NMI = InterruptNumber(2)

	// Overflow occurs when INTO detects the overflow flag set.
	Overflow = InterruptNumber(4)

	// BoundRangeExceeded occurs when BOUND is invoked with an
	// out-of-range index.
	BoundRangeExceeded = InterruptNumber(5)

	// InvalidOpcode occurs when the CPU attempts to execute an invalid
	// or undefined instruction opcode.
	InvalidOpcode = InterruptNumber(6)

	// DeviceNotAvailable occurs when an FPU instruction executes while
	// no FPU is available.
	DeviceNotAvailable = InterruptNumber(7)

	// DoubleFault occurs when an unhandled exception occurs, or when an
	// exception occurs while the CPU is handling another exception.
	DoubleFault = InterruptNumber(8)

	// InvalidTSS occurs when the TSS points at an invalid task segment
	// selector.
	InvalidTSS = InterruptNumber(10)

	// SegmentNotPresent occurs when a present gate is invoked with an
	// invalid stack segment selector.
	SegmentNotPresent = InterruptNumber(11)

	// StackSegmentFault occurs when a non-canonical stack access is
	// attempted, or a GDT stack segment limit check fails.
	StackSegmentFault = InterruptNumber(12)

	// GPFException occurs when a general protection fault occurs.
	GPFException = InterruptNumber(13)

	// PageFaultException occurs when a page directory or page table
	// entry is not present, or a privilege/RW check fails.
	PageFaultException = InterruptNumber(14)

	// FloatingPointException occurs for unmasked x87 FP exceptions.
	FloatingPointException = InterruptNumber(16)

	// AlignmentCheck occurs when alignment checking is enabled and an
	// unaligned memory access is performed.
	AlignmentCheck = InterruptNumber(17)

	// MachineCheck occurs for internal CPU errors.
	MachineCheck = InterruptNumber(18)

	// PICIRQBase is the vector the master PIC is reprogrammed to use for
	// IRQ0 (PIC offset 0x20/0x28).
	PICIRQBase = InterruptNumber(0x20)

	// TimerIRQ (IRQ0, vector 0x20) is raised by the PIT on every tick.
	TimerIRQ = InterruptNumber(0x20)

	// KeyboardIRQ (IRQ1, vector 0x21) is raised by the PS/2 keyboard
	// controller.
	KeyboardIRQ = InterruptNumber(0x21)

	// ATAPrimaryIRQ (IRQ14, vector 0x2E) is raised by the primary ATA
	// channel on command completion.
	ATAPrimaryIRQ = InterruptNumber(0x2E)

	// ATASecondaryIRQ (IRQ15, vector 0x2F) is raised by the secondary ATA
	// channel on command completion.
	ATASecondaryIRQ = InterruptNumber(0x2F)

	// Syscall (vector 0x80) is the software interrupt gate userspace
	// uses to request kernel services.
	Syscall = InterruptNumber(0x80)
)

// Init runs the architecture-specific initialization required for
// interrupt handling: it builds the IDT (every vector initially points at
// a panic stub) and loads it into the CPU.
func Init() {
	installIDT()
}

// handlers holds one Go callback per IDT vector; a nil entry falls through
// to the unhandled-vector panic in dispatchInterrupt, which is how every
// vector starts out pointing at a panic stub without needing a
// distinct assembly stub for that default.
var handlers [256]func(*Registers)

// HandleInterrupt registers handler to be invoked whenever intNumber
// fires, replacing the default panic stub for that vector.
func HandleInterrupt(intNumber InterruptNumber, handler func(*Registers)) {
	handlers[intNumber] = handler
}

// idtEntry is a packed 8-byte 32-bit interrupt-gate descriptor.
type idtEntry struct {
	offsetLow  uint16
	selector   uint16
	zero       uint8
	typeAttr   uint8
	offsetHigh uint16
}

const (
	gateTypeInterrupt32 = 0x8E // present, DPL0, 32-bit interrupt gate
	gateTypeUser32       = 0xEE // present, DPL3, 32-bit interrupt gate (int 0x80)
)

func newIDTEntry(handlerAddr uintptr, selector uint16, typeAttr uint8) idtEntry {
	return idtEntry{
		offsetLow:  uint16(handlerAddr),
		selector:   selector,
		typeAttr:   typeAttr,
		offsetHigh: uint16(handlerAddr >> 16),
	}
}

var (
	idt [256]idtEntry

	idtPtr struct {
		limit uint16
		base  uint32
	}
)

// funcPC recovers the entry code pointer of a bodyless Go function value,
// the same trick kernel/sched's thread_entry.go uses to seed a fresh
// kernel stack; there is no portable "address of a label" in Go.
func funcPC(f func()) uintptr {
	return **(**uintptr)(unsafe.Pointer(&f))
}

// installIDT populates the IDT and loads it via cpu.LoadIDT. Every entry
// points at its own per-vector assembly trampoline (gate_386.s); vectors
// with no registered Go handler fall through to the unhandled-vector panic
// in dispatchInterrupt: every vector starts out pointing at a panic
// stub. Vector 0x80 is installed with DPL3 so ring-3 code can
// raise it via INT; every other vector is DPL0-only.
func installIDT() {
	for v := 0; v < 256; v++ {
		typeAttr := uint8(gateTypeInterrupt32)
		if InterruptNumber(v) == Syscall {
			typeAttr = gateTypeUser32
		}
		idt[v] = newIDTEntry(funcPC(vecStubs[v]), gdt.KernelCodeSelector, typeAttr)
	}

	idtPtr.limit = uint16(len(idt)*8 - 1)
	idtPtr.base = uint32(uintptr(unsafe.Pointer(&idt[0])))
	cpu.LoadIDT(uintptr(unsafe.Pointer(&idtPtr)))
}

// rawFrame mirrors the fixed portion of the stack layout commonStub builds
// in gate_386.s: the seven general-purpose registers, the Info slot (real
// error code, or a duplicate of the vector number for vectors that push
// none) and the CPU's own EIP/CS/EFLAGS. ESP/SS follow in memory but are
// only present when a ring change occurred, so they are read separately.
type rawFrame struct {
	EAX, EBX, ECX, EDX, ESI, EDI, EBP uint32

	// vectorRaw duplicates the vector number already passed to
	// dispatchInterrupt as an argument; it still occupies its stack slot
	// in memory (commonStub pushes it before Info) so the fields below
	// line up with the real layout.
	vectorRaw uint32

	Info             uint32
	EIP, CS, EFlags  uint32
}

// dispatchInterrupt is called from commonStub (gate_386.s) with the vector
// number that fired and a pointer to the raw saved-register frame. It
// builds a Registers snapshot, looks up the registered handler (or panics
// on an unhandled vector) and writes back any modifications the handler
// made, since a syscall handler communicates its result by mutating EAX.
func dispatchInterrupt(vector uint32, frame *rawFrame) {
	var regs Registers
	regs.EAX, regs.EBX, regs.ECX, regs.EDX = frame.EAX, frame.EBX, frame.ECX, frame.EDX
	regs.ESI, regs.EDI, regs.EBP = frame.ESI, frame.EDI, frame.EBP
	regs.Info = frame.Info
	regs.EIP, regs.CS, regs.EFlags = frame.EIP, frame.CS, frame.EFlags

	if regs.CS&3 == 3 {
		regs.RingChange = true
		tail := (*[2]uint32)(unsafe.Pointer(uintptr(unsafe.Pointer(frame)) + unsafe.Sizeof(*frame)))
		regs.ESP, regs.SS = tail[0], tail[1]
	}

	handler := handlers[vector]
	if handler == nil {
		panicUnhandledVector(InterruptNumber(vector), &regs)
	}
	handler(&regs)

	frame.EAX, frame.EBX, frame.ECX, frame.EDX = regs.EAX, regs.EBX, regs.ECX, regs.EDX
	frame.ESI, frame.EDI, frame.EBP = regs.ESI, regs.EDI, regs.EBP
}

// panicUnhandledVector is the default target for every IDT vector with no
// registered Go handler.
func panicUnhandledVector(vector InterruptNumber, regs *Registers) {
	w := kfmt.GetOutputSink()
	kfmt.Fprintf(w, "unhandled interrupt vector %d (info=%x)\n", uint8(vector), regs.Info)
	regs.DumpTo(w)
	cpu.DisableInterrupts()
	for {
		cpu.Halt()
	}
}
