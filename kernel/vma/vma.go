// Package vma implements the per-process virtual memory area list and the
// lazy page-fault resolver that installs PTEs on demand. Its ordered-list-
// of-regions shape follows biscuit's vm.Vmregion_t, with the fault
// resolution policy (stack/heap zero-fill, mmap read-with-zero-tail)
// matching a VMAList/install_pte split seen across teaching kernels.
package vma

import (
	"sort"
	"sync"
	"unsafe"

	"hammeros/kernel"
	"hammeros/kernel/config"
	"hammeros/kernel/mm"
	"hammeros/kernel/mm/vmm"
)

// Kind identifies what backs a VMA's pages once faulted in.
type Kind int

const (
	// KindStack is a growable, zero-fill-on-demand stack region.
	KindStack Kind = iota

	// KindHeap is a zero-fill-on-demand heap region (the user brk/mmap
	// anonymous-memory case).
	KindHeap

	// KindMMap backs pages with file content from (FS, Inode) starting at
	// PageOffset.
	KindMMap
)

// VMA is one virtual memory area: a contiguous, page-aligned user-virtual
// range with uniform permissions and a single backing kind.
type VMA struct {
	Base     uintptr
	Size     uintptr
	Writable bool
	Kind     Kind

	// FS/Inode/PageOffset are only meaningful when Kind == KindMMap.
	FS         uint8
	Inode      uint64
	PageOffset uintptr
}

// end returns the address one past the VMA's last byte.
func (v *VMA) end() uintptr {
	return v.Base + v.Size
}

// List is an ordered, non-overlapping collection of VMAs belonging to one
// PCB, keyed by base address, ordered and non-overlapping.
type List struct {
	mu    sync.Mutex
	areas []*VMA
}

// Add inserts vma at the given base address if [base, base+vma.Size) does
// not overlap any existing VMA. Returns false (and does not insert) on
// overlap.
func (l *List) Add(v *VMA, base uintptr) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	v.Base = base
	newEnd := v.end()

	idx := sort.Search(len(l.areas), func(i int) bool { return l.areas[i].Base >= base })
	if idx > 0 && l.areas[idx-1].end() > base {
		return false
	}
	if idx < len(l.areas) && l.areas[idx].Base < newEnd {
		return false
	}

	l.areas = append(l.areas, nil)
	copy(l.areas[idx+1:], l.areas[idx:])
	l.areas[idx] = v
	return true
}

// find returns the VMA covering addr, or nil. Callers must hold l.mu.
func (l *List) find(addr uintptr) *VMA {
	idx := sort.Search(len(l.areas), func(i int) bool { return l.areas[i].Base > addr }) - 1
	if idx < 0 {
		return nil
	}
	v := l.areas[idx]
	if addr < v.end() {
		return v
	}
	return nil
}

// Find returns the VMA covering addr, or nil if none does.
func (l *List) Find(addr uintptr) *VMA {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.find(addr)
}

// Clone returns a deep copy of l's VMAs for use by a forked child. MMap
// entries have their backing inode's reference count bumped via
// IncInodeRefFn; the hook avoids an import
// cycle with kernel/vfs, which is not yet initialized when kernel/proc
// first links against kernel/vma.
func (l *List) Clone() *List {
	l.mu.Lock()
	defer l.mu.Unlock()

	clone := &List{areas: make([]*VMA, len(l.areas))}
	for i, v := range l.areas {
		cp := *v
		clone.areas[i] = &cp
		if cp.Kind == KindMMap && IncInodeRefFn != nil {
			IncInodeRefFn(cp.FS, cp.Inode)
		}
	}
	return clone
}

// Snapshot returns a copy of every VMA currently in the list, ordered by
// base address. Used by kernel/proc's fork to enumerate which pages of an
// address space might already be mapped without exposing the list's
// internal storage.
func (l *List) Snapshot() []VMA {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]VMA, len(l.areas))
	for i, v := range l.areas {
		out[i] = *v
	}
	return out
}

// IncInodeRefFn is set by kernel/vfs during init; nil (a no-op) until then,
// which is only ever observed in tests that never construct MMap VMAs.
var IncInodeRefFn func(fs uint8, inode uint64)

// ReadInodeFn reads up to len(buf) bytes from (fs, inode) starting at
// offset, returning the number of bytes actually read. Set by kernel/vfs
// during init for the same reason as IncInodeRefFn.
var ReadInodeFn func(fs uint8, inode uint64, offset uintptr, buf []byte) (int, *kernel.Error)

var errNoCoveringVMA = &kernel.Error{Module: "vma", Message: "fault address is not covered by any VMA"}
var errMMapReadFailed = &kernel.Error{Module: "vma", Message: "mmap page read failed"}

// InstallPTE is the page-fault resolver: it rounds addr down to a page,
// finds the covering VMA, allocates a fresh frame, maps it with the VMA's
// write permission and user=true, then fills its contents according to
// the VMA's kind. Returns an error (surfacing the original
// fault) if no VMA covers addr or the backing read fails.
func InstallPTE(l *List, pdt *vmm.PageDirectoryTable, addr uintptr) *kernel.Error {
	page := mm.PageFromAddress(addr)
	base := page.Address()

	v := l.Find(base)
	if v == nil {
		return errNoCoveringVMA
	}

	frame, err := mm.AllocFrame()
	if err != nil {
		return err
	}

	flags := vmm.FlagPresent | vmm.FlagUserAccessible
	if v.Writable {
		flags |= vmm.FlagRW
	}

	if err := pdt.Map(page, frame, flags); err != nil {
		return err
	}

	switch v.Kind {
	case KindStack, KindHeap:
		kernel.Memset(base, 0, config.PageSize)
	case KindMMap:
		if err := fillMMapPage(v, base); err != nil {
			_ = pdt.Unmap(page)
			return err
		}
	}

	return nil
}

// fillMMapPage reads the file-backed contents for the page starting at
// base into that page, zero-filling any tail beyond what the read
// produced (i.e. any tail beyond EOF).
func fillMMapPage(v *VMA, base uintptr) *kernel.Error {
	if ReadInodeFn == nil {
		return errMMapReadFailed
	}

	buf := make([]byte, config.PageSize)
	offset := v.PageOffset + (base - v.Base)
	n, err := ReadInodeFn(v.FS, v.Inode, offset, buf)
	if err != nil {
		return err
	}

	kernel.Memcopy(uintptr(unsafe.Pointer(&buf[0])), base, config.PageSize)
	if uintptr(n) < config.PageSize {
		kernel.Memset(base+uintptr(n), 0, config.PageSize-uintptr(n))
	}
	return nil
}
