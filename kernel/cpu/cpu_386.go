// Package cpu exposes the low-level, architecture-specific CPU services
// needed by the rest of the kernel: port I/O, privileged register access
// and control instructions. Every function declared without a body in this
// file is implemented in the accompanying assembly stub and is only ever
// safe to call from ring 0.
package cpu

var (
	cpuidFn = ID
)

// EnableInterrupts sets EFLAGS.IF, allowing maskable interrupts to be
// delivered.
func EnableInterrupts()

// DisableInterrupts clears EFLAGS.IF.
func DisableInterrupts()

// InterruptsEnabled reports whether EFLAGS.IF is currently set.
func InterruptsEnabled() bool

// Halt stops instruction execution until the next interrupt.
func Halt()

// FlushTLBEntry flushes the TLB entry that caches the translation for
// virtAddr.
func FlushTLBEntry(virtAddr uintptr)

// SwitchPDT loads CR3 with the physical address of a page directory and
// implicitly flushes the entire TLB.
func SwitchPDT(pdtPhysAddr uintptr)

// ActivePDT returns the physical address of the currently active page
// directory (the contents of CR3 with the flag bits masked off).
func ActivePDT() uintptr

// ReadCR2 returns the faulting linear address recorded by the last page
// fault.
func ReadCR2() uintptr

// EnablePaging sets CR0.PG and CR0.WP. Called exactly once by the boot
// trampoline after the kernel's page directory has been installed via
// SwitchPDT.
func EnablePaging()

// LoadGDT loads the global descriptor table pointed to by gdtPtr (a
// 6-byte pseudo-descriptor: 2-byte limit, 4-byte base) and reloads the
// segment registers.
func LoadGDT(gdtPtr uintptr)

// LoadTSS loads the task register with the given TSS selector.
func LoadTSS(selector uint16)

// LoadIDT loads the interrupt descriptor table pointed to by idtPtr (same
// pseudo-descriptor layout as LoadGDT).
func LoadIDT(idtPtr uintptr)

// Out8 writes a byte to the given I/O port.
func Out8(port uint16, value uint8)

// In8 reads a byte from the given I/O port.
func In8(port uint16) uint8

// Out16 writes a word to the given I/O port.
func Out16(port uint16, value uint16)

// In16 reads a word from the given I/O port.
func In16(port uint16) uint16

// Out32 writes a dword to the given I/O port.
func Out32(port uint16, value uint32)

// In32 reads a dword from the given I/O port.
func In32(port uint16) uint32

// InSW reads count words from port into dst, advancing dst by count*2
// bytes. Used by the ATA PIO driver for sector reads.
func InSW(port uint16, dst []uint16)

// OutSW writes count words from src to port. Used by the ATA PIO driver
// for sector writes.
func OutSW(port uint16, src []uint16)

// IOWait performs a short, architecturally meaningless I/O write (to port
// 0x80) that is long enough to let an old/slow device catch up after an
// Out8/In8 on a different port.
func IOWait()

// ID returns information about the CPU and its features. It is
// implemented as a CPUID instruction with EAX=leaf and returns the values
// in EAX, EBX, ECX and EDX.
func ID(leaf uint32) (uint32, uint32, uint32, uint32)

// IsIntel returns true if the code is running on an Intel processor.
func IsIntel() bool {
	_, ebx, ecx, edx := cpuidFn(0)
	return ebx == 0x756e6547 && // "Genu"
		edx == 0x49656e69 && // "ineI"
		ecx == 0x6c65746e // "ntel"
}
