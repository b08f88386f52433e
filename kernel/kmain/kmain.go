// Package kmain sequences the boot handover from the trampoline into a
// fully running kernel: memory subsystems first, then interrupts and
// drivers, then the scheduler/process/VFS/syscall domain built on top of
// them, each layer only assuming the ones beneath it are already live.
package kmain

import (
	"hammeros/kernel"
	"hammeros/kernel/config"
	_ "hammeros/kernel/driver/ata" // self-registers its probe in init()
	"hammeros/kernel/driver/ps2"
	_ "hammeros/kernel/driver/serial" // self-registers its probe in init()
	"hammeros/kernel/gate"
	"hammeros/kernel/gdt"
	"hammeros/kernel/goruntime"
	"hammeros/kernel/hal"
	"hammeros/kernel/irq"
	"hammeros/kernel/kfmt"
	"hammeros/kernel/mm/pmm"
	"hammeros/kernel/mm/vmm"
	"hammeros/kernel/proc"
	"hammeros/kernel/sched"
	"hammeros/kernel/syscall"
	"hammeros/kernel/vfs"
	"hammeros/multiboot"
)

// Kmain is the only Go symbol the rt0 trampoline calls into, after it has
// installed a boot GDT/IDT, enabled paging and jumped to the higher half.
// multibootInfoPtr, kernelStart and kernelEnd are the physical addresses
// the trampoline's linker-script symbols resolve to.
//
// Kmain is not expected to return; if it does, the caller halts the CPU.
//
//go:noinline
func Kmain(multibootInfoPtr, kernelStart, kernelEnd uintptr) {
	multiboot.SetInfoPtr(multibootInfoPtr)

	// This kernel's own GDT/IDT replace the trampoline's boot-time ones
	// before anything relies on a ring-3 selector or a real interrupt
	// handler existing.
	gdt.Init()
	gate.Init()

	var err *kernel.Error

	// The frame allocator bootstraps from the bootstrap buddy region
	// above the kernel image.
	if err = pmm.Init(kernelStart, kernelEnd); err != nil {
		kfmt.Panic(err)
	}

	// The paging manager also installs the page-fault handler on
	// vector 0x0E.
	if err = vmm.Init(config.KernelOffset); err != nil {
		kfmt.Panic(err)
	}

	// The kernel heap has no global state to initialize: every consumer
	// (e.g. kernel/sched's per-thread kernel stacks) holds its own
	// zero-value heap.Heap.

	if err = goruntime.Init(); err != nil {
		kfmt.Panic(err)
	}

	// Probe and initialize the PS/2 keyboard, serial port, ATA disks
	// and console/tty, now that the frame/heap/runtime layers they may
	// allocate through are live. ATA's DriverInit registers any disk it
	// finds with the block layer and scans its MBR, so the block layer
	// has no separate init step of its own.
	hal.DetectHardware()
	kfmt.Printf("booting\n")

	// PIT and PIC wiring. InitPIC remaps the vectors to 0x20/0x28 and
	// unmasks every line, so it runs before InitPIT starts IRQ0 ticking.
	irq.InitPIC()

	// Scheduler and process tables. sched.Init's boot thread becomes
	// the system's init thread; proc.Init wires the page-fault
	// handler's user-fault path and the thread landing pad to this
	// package's PCB table.
	sched.Init()
	proc.Init()

	irq.InitPIT(sched.TickHandler)
	gate.HandleInterrupt(gate.TimerIRQ, func(*gate.Registers) { irq.HandleIRQ() })

	// VFS mount table / FD machinery and the syscall dispatch table.
	// Console I/O for fd 0/1/2 is wired to whatever hal found;
	// vfs.InstallStdFDs installs them for a given pid once that pid has
	// a PCB, so read/write on those descriptors works without
	// requiring a mounted filesystem.
	vfs.Init()
	vfs.ConsoleReadByteFn = ps2.ReadByte
	vfs.ConsoleWriteFn = writeConsole
	syscall.Init()

	kfmt.Printf("boot complete\n")

	// No concrete filesystem ships with this kernel, so there is no
	// disk image to load a userspace init program's ELF image from at
	// boot. A filesystem driver registered via vfs.RegisterFSType and
	// mounted with vfs.MountByType, followed by proc.LoadELF, is how an
	// actual first user process would be brought up; until one exists,
	// the boot thread idles, letting the PIT-driven scheduler run
	// whatever kernel threads exist.
	for {
		sched.Yield()
	}
}

// writeConsole is vfs.ConsoleWriteFn: fd 1/2 writes go to whatever tty
// hal.DetectHardware activated (VGA text console, if found).
func writeConsole(buf []byte) {
	if tty := hal.ActiveTTY(); tty != nil {
		_, _ = tty.Write(buf)
	}
}
