// Package config collects the build-time tunables that the rest of the
// kernel reads as constants. Each subsystem file keeps its own small const
// block; this package exists only to give the cross-cutting tunables
// (shared by more than one subsystem) a single home instead of duplicating
// them.
package config

import "unsafe"

const (
	// PageSize is the MMU page / physical frame size in bytes.
	PageSize = uintptr(4096)

	// KernelOffset is the virtual address at which the higher-half
	// kernel image is mapped. Kernel virtual addresses equal
	// physical + KernelOffset within the identity-mapped window
	// established by the boot trampoline.
	KernelOffset = uintptr(0x80000000)

	// MaxOpenFiles bounds the per-process FD table.
	MaxOpenFiles = 1024

	// MaxMountPoints bounds the VFS mount table.
	MaxMountPoints = 256

	// KernelStackFrames is the number of 4 KiB frames reserved for a
	// thread's kernel stack.
	KernelStackFrames = 2

	// UserStackSize is the reserved (lazily faulted) size of the default
	// user stack VMA: 1 MiB, small enough that many concurrent processes
	// remain affordable in a teaching kernel.
	UserStackSize = uintptr(1 << 20)

	// UserStackBottomVirt is the fixed virtual address at which every
	// process' initial stack VMA is reserved, growing down from
	// UserStackBottomVirt+UserStackSize.
	UserStackBottomVirt = uintptr(0x40000000)

	// ThreadLandingPad is an address deliberately left unmapped in every
	// user address space. A user thread's initial stack is seeded so
	// that falling off the end of its entry function "returns" here;
	// the resulting page fault is recognised by kernel/proc and used to
	// tear the thread down gracefully.
	ThreadLandingPad = uintptr(0x3fffe000)

	// PreemptionTickHz approximates the PIT-derived preemption rate:
	// 3579545/3 Hz divided by reload 0xFFFF is approximately 18.2 Hz, i.e.
	// one tick roughly every 55 ms.
	PreemptionTickHz = 1000 / 55

	// BootstrapBuddyRegionSize is the fixed size of the region served by
	// the bootstrap buddy allocator.
	BootstrapBuddyRegionSize = 8 << 20

	// SwapSlotSize matches PageSize: one swap slot holds one frame.
	SwapSlotSize = PageSize

	// PointerShift is log2(unsafe.Sizeof(uintptr(0))) on 386: pointers
	// (and page table entries) are 4 bytes wide.
	PointerShift = uintptr(2)
)

var _ = unsafe.Sizeof(uintptr(0)) // documents the PointerShift derivation above
