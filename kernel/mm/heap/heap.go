// Package heap implements the kernel's general-purpose dynamic memory
// allocator: a two-level allocator where the upper level is a list of
// subblock buddy allocators, each backing one contiguously reserved range
// of virtually-mapped frames.
package heap

import (
	"hammeros/kernel"
	"hammeros/kernel/mm"
	"hammeros/kernel/mm/buddy"
	"hammeros/kernel/mm/vmm"
)

// BuddyOverhead accounts for the free-list bookkeeping a subblock's buddy
// allocator keeps inside its own region; it is added to every frame-count
// calculation so a request never starves the buddy allocator of the space
// it needs to track itself.
const BuddyOverhead = uintptr(64)

var (
	// The following indirections follow this tree's test-mocking idiom
	// (package-level fooFn = actualImpl, reassigned only by tests).
	reserveRegionFn = vmm.EarlyReserveRegion
	mapFn           = vmm.Map
	allocFrameFn    = mm.AllocFrame

	errOutOfMemory = &kernel.Error{Module: "heap", Message: "out of memory"}
)

// subblock pairs a buddy allocator with the virtual address range of the
// frames backing it, so Deallocate can find the owning allocator by address.
type subblock struct {
	startAddr, endAddr uintptr
	frameCount         uintptr
	alloc              buddy.Allocator
}

// Heap is a process-wide dynamic memory allocator. The zero value is ready
// to use; subblocks are created lazily on first allocation.
type Heap struct {
	subblocks []*subblock
}

// Allocate walks the existing subblock allocators and returns the first
// block satisfying layout. If none can, it reserves a new range of frames,
// wraps them in a fresh subblock allocator, and serves the request from
// there. If frame allocation fails there is no recovery path: the caller
// (kernel/kmain's fatal-error path) is expected to halt.
func (h *Heap) Allocate(layout buddy.Layout) (uintptr, *kernel.Error) {
	for _, sb := range h.subblocks {
		if ptr, err := sb.alloc.Allocate(layout); err == nil {
			return ptr, nil
		}
	}

	sb, err := h.growFor(layout)
	if err != nil {
		return 0, err
	}

	return sb.alloc.Allocate(layout)
}

// Deallocate releases a block previously returned by Allocate. It locates
// the owning subblock by address range and frees the block within it; if
// the subblock becomes entirely empty it is dropped from the heap. Its
// frames stay mapped and are not returned to the frame allocator.
func (h *Heap) Deallocate(ptr uintptr, layout buddy.Layout) {
	for i, sb := range h.subblocks {
		if ptr < sb.startAddr || ptr >= sb.endAddr {
			continue
		}

		sb.alloc.Deallocate(ptr, layout)

		if _, err := sb.alloc.Allocate(buddy.Layout{Size: sb.frameCount << mm.PageShift}); err == nil {
			h.releaseSubblock(i)
		}
		return
	}
}

// releaseSubblock removes the subblock at index i from the heap's list.
// Frame reclamation for virtually-mapped, no-longer-needed subblocks is
// intentionally left to the paging manager's unmap path (C4); the frame
// numbers backing a subblock are not tracked individually here since they
// may be non-contiguous.
func (h *Heap) releaseSubblock(i int) {
	h.subblocks = append(h.subblocks[:i], h.subblocks[i+1:]...)
}

// growFor reserves enough frames to satisfy layout plus BuddyOverhead, maps
// them into a freshly reserved virtual range (one frame at a time, since
// frames handed out by the physical allocator need not be contiguous), and
// wraps the range in a new subblock buddy allocator.
func (h *Heap) growFor(layout buddy.Layout) (*subblock, *kernel.Error) {
	need := layout.Size
	if layout.Align > need {
		need = layout.Align
	}
	need += BuddyOverhead

	frameCount := (need + mm.PageSize - 1) >> mm.PageShift
	if frameCount == 0 {
		frameCount = 1
	}
	regionSize := frameCount << mm.PageShift

	startAddr, err := reserveRegionFn(regionSize)
	if err != nil {
		return nil, err
	}

	page := mm.PageFromAddress(startAddr)
	for i := uintptr(0); i < frameCount; i, page = i+1, page+1 {
		frame, ferr := allocFrameFn()
		if ferr != nil {
			return nil, ferr
		}

		if err := mapFn(page, frame, vmm.FlagPresent|vmm.FlagRW); err != nil {
			return nil, err
		}
	}

	sb := &subblock{
		startAddr:  startAddr,
		endAddr:    startAddr + regionSize,
		frameCount: frameCount,
	}
	if err := sb.alloc.Init(startAddr, regionSize); err != nil {
		return nil, err
	}

	h.subblocks = append(h.subblocks, sb)
	return sb, nil
}
