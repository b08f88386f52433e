package vmm

import "math"

const (
	// pageLevels indicates the number of page table levels used by 32-bit
	// protected-mode paging without PAE: a page directory (PD) and a page
	// table (PT), each with 1024 4-byte entries.
	pageLevels = 2

	// ptePhysPageMask extracts the physical frame address from a page
	// directory/table entry. Bits 0-11 are flags, bits 12-31 are the
	// physical frame address.
	ptePhysPageMask = uintptr(0xfffff000)

	// tempMappingAddr is a reserved virtual page used for temporary
	// physical page mappings (e.g. when editing an inactive PDT). It is
	// chosen just below the recursively-mapped page table window so it
	// never collides with it: directory index 1022, table index 1023.
	tempMappingAddr = uintptr(0xffbff000)
)

var (
	// pdtVirtualAddr exploits the recursive mapping installed in the last
	// PDE (entry 1023) of the page directory: setting both the directory
	// and table index bits of a virtual address to 1023 makes the MMU
	// walk PDE[1023] twice, landing on the PDT's own physical page
	// instead of a regular page table.
	pdtVirtualAddr = uintptr(math.MaxUint32 &^ ((1 << 12) - 1))

	// pageLevelBits defines the number of virtual address bits that
	// correspond to each page level. 32-bit paging without PAE splits a
	// virtual address into a 10-bit directory index, a 10-bit table
	// index and a 12-bit page offset.
	pageLevelBits = [pageLevels]uint8{
		10,
		10,
	}

	// pageLevelShifts defines the shift required to access each page
	// table component of a virtual address.
	pageLevelShifts = [pageLevels]uint8{
		22,
		12,
	}
)

const (
	// FlagPresent is set when the page is available in memory and not swapped out.
	FlagPresent PageTableEntryFlag = 1 << iota

	// FlagRW is set if the page can be written to.
	FlagRW

	// FlagUserAccessible is set if user-mode processes can access this page. If
	// not set only kernel code can access this page.
	FlagUserAccessible

	// FlagWriteThroughCaching implies write-through caching when set and write-back
	// caching if cleared.
	FlagWriteThroughCaching

	// FlagDoNotCache prevents this page from being cached if set.
	FlagDoNotCache

	// FlagAccessed is set by the CPU when this page is accessed.
	FlagAccessed

	// FlagDirty is set by the CPU when this page is modified.
	FlagDirty

	// FlagHugePage is set when using 4MB pages (PSE) instead of 4K pages.
	FlagHugePage

	// FlagGlobal if set, prevents the TLB from flushing the cached memory address
	// for this page when the swapping page tables by updating the CR3 register.
	FlagGlobal

	// FlagCopyOnWrite is used to implement copy-on-write functionality. This
	// flag and FlagRW are mutually exclusive. It occupies one of the three
	// OS-available bits (9-11) of a 32-bit PTE.
	FlagCopyOnWrite = 1 << 9

	// FlagNoExecute marks a page as non-executable. The 32-bit, non-PAE
	// page table format has no hardware NX bit; this flag is tracked
	// purely in software (another OS-available bit). Neither the MMU nor
	// the page-fault handler enforces it.
	FlagNoExecute = 1 << 10
)
