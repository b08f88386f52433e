// elf.go implements the ELF32 loader that turns a binary image into a
// dispatchable user thread. Header layout is hand-parsed directly from
// the byte slice rather than via debug/elf: that package pulls in
// compress/zlib and debug/dwarf, neither of which has any use in a
// freestanding kernel. Frame population follows the same
// MapTemporary-then-Map pattern kernel/mm/vmm/fault_386.go uses for
// copy-on-write pages.
package proc

import (
	"hammeros/kernel"
	"hammeros/kernel/config"
	"hammeros/kernel/mm"
	"hammeros/kernel/mm/vmm"
	"hammeros/kernel/sched"
	"hammeros/kernel/vma"
)

const (
	ei_CLASS   = 4
	ei_DATA    = 5
	elfClass32 = 1
	elfData2LSB = 1

	et_EXEC = 2
	et_DYN  = 3 // "Shared-with-entry" usage

	em_386 = 3

	pt_LOAD = 1

	pfX = 1
	pfW = 2
	pfR = 4

	ehdrSize = 52
	phdrSize = 32
)

var (
	errBadELF       = &kernel.Error{Module: "proc", Message: "malformed or unsupported ELF image"}
	errNoLoadSegs   = &kernel.Error{Module: "proc", Message: "ELF image has no PT_LOAD segments"}

	mapTemporaryFn = vmm.MapTemporary
	unmapFn        = vmm.Unmap
	allocFrameFn   = mm.AllocFrame
	spawnUserFn    = sched.SpawnUser
)

type elfHeader struct {
	class, data     byte
	objType         uint16
	machine         uint16
	entry           uintptr
	phOffset        uintptr
	phEntrySize     uint16
	phCount         uint16
}

type programHeader struct {
	kind   uint32
	offset uintptr
	vaddr  uintptr
	filesz uintptr
	memsz  uintptr
	flags  uint32
}

func le16(b []byte) uint16 { return uint16(b[0]) | uint16(b[1])<<8 }
func le32(b []byte) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}

func parseELFHeader(img []byte) (elfHeader, *kernel.Error) {
	var h elfHeader
	if len(img) < ehdrSize || img[0] != 0x7F || img[1] != 'E' || img[2] != 'L' || img[3] != 'F' {
		return h, errBadELF
	}
	h.class = img[ei_CLASS]
	h.data = img[ei_DATA]
	if h.class != elfClass32 || h.data != elfData2LSB {
		return h, errBadELF
	}

	h.objType = le16(img[16:18])
	h.machine = le16(img[18:20])
	if h.machine != em_386 || (h.objType != et_EXEC && h.objType != et_DYN) {
		return h, errBadELF
	}

	h.entry = uintptr(le32(img[24:28]))
	h.phOffset = uintptr(le32(img[28:32]))
	h.phEntrySize = le16(img[42:44])
	h.phCount = le16(img[44:46])
	return h, nil
}

func parseProgramHeader(img []byte, off uintptr) programHeader {
	raw := img[off : off+phdrSize]
	return programHeader{
		kind:   le32(raw[0:4]),
		offset: uintptr(le32(raw[4:8])),
		vaddr:  uintptr(le32(raw[8:12])),
		filesz: uintptr(le32(raw[16:20])),
		memsz:  uintptr(le32(raw[20:24])),
		flags:  le32(raw[24:28]),
	}
}

// writeFrame zeroes frame and copies data into it starting at byte offset
// off, via a temporary kernel-side mapping (the frame may belong to a page
// directory table that is not currently active).
func writeFrame(frame mm.Frame, off uintptr, data []byte) *kernel.Error {
	page, err := mapTemporaryFn(frame)
	if err != nil {
		return err
	}
	defer unmapFn(page)

	kernel.Memset(page.Address(), 0, config.PageSize)
	if len(data) > 0 {
		kernel.Memcopy(uintptrOf(data), page.Address()+off, uintptr(len(data)))
	}
	return nil
}

// writeWord writes a single little-endian uint32 at byte offset off within
// frame, used to seed the thread's initial stack word.
func writeWord(frame mm.Frame, off uintptr, value uint32) *kernel.Error {
	page, err := mapTemporaryFn(frame)
	if err != nil {
		return err
	}
	defer unmapFn(page)

	p := page.Address() + off
	*(*uint32)(ptrAt(p)) = value
	return nil
}

// loadSegment maps and populates every page of one PT_LOAD segment into
// pdt.
func loadSegment(pdt *vmm.PageDirectoryTable, img []byte, ph programHeader) *kernel.Error {
	pageBase := ph.vaddr &^ (config.PageSize - 1)
	inPageOffset := ph.vaddr - pageBase
	span := inPageOffset + maxUintptr(ph.memsz, ph.filesz)
	pageCount := (span + config.PageSize - 1) / config.PageSize

	flags := vmm.FlagPresent | vmm.FlagUserAccessible
	if ph.flags&pfW != 0 {
		flags |= vmm.FlagRW
	}
	if ph.flags&pfX == 0 {
		flags |= vmm.FlagNoExecute
	}

	for i := uintptr(0); i < pageCount; i++ {
		frame, err := allocFrameFn()
		if err != nil {
			return err
		}

		// fileStart/fileEnd are this page's byte range within the
		// segment's virtual span; only the portion inside filesz
		// carries file content, the rest (BSS, or the memsz tail) is
		// left zeroed by writeFrame.
		pageVirtStart := i * config.PageSize
		pageVirtEnd := pageVirtStart + config.PageSize

		var data []byte
		var destOff uintptr
		if pageVirtStart < inPageOffset+ph.filesz && pageVirtEnd > inPageOffset {
			segStart := pageVirtStart
			if segStart < inPageOffset {
				segStart = inPageOffset
			}
			segEnd := pageVirtEnd
			if segEnd > inPageOffset+ph.filesz {
				segEnd = inPageOffset + ph.filesz
			}

			fileOff := ph.offset + (segStart - inPageOffset)
			data = img[fileOff : fileOff+(segEnd-segStart)]
			destOff = segStart - pageVirtStart
		}

		if err := writeFrame(frame, destOff, data); err != nil {
			return err
		}

		page := mm.PageFromAddress(pageBase + pageVirtStart)
		if err := pdt.Map(page, frame, flags); err != nil {
			return err
		}
	}

	return nil
}

// userImage is the fully constructed, not-yet-scheduled result of parsing
// and mapping an ELF binary: a page directory table with every PT_LOAD
// segment and the initial stack page populated, plus the VMA list a fresh
// PCB (or an execve'd existing one) should adopt.
type userImage struct {
	pdt        *vmm.PageDirectoryTable
	vmas       *vma.List
	entry      uintptr
	initialESP uintptr
}

// buildUserImage parses img and maps it into a brand new page directory,
// shared by LoadELF (new process) and Execve (existing process, new
// image) so both go through identical segment-mapping and stack-seeding
// logic.
func buildUserImage(img []byte) (*userImage, *kernel.Error) {
	hdr, err := parseELFHeader(img)
	if err != nil {
		return nil, err
	}

	pdtFrame, err := allocFrameFn()
	if err != nil {
		return nil, err
	}
	pdt := &vmm.PageDirectoryTable{}
	if err := pdt.Init(pdtFrame); err != nil {
		return nil, err
	}

	loaded := false
	for i := uint16(0); i < hdr.phCount; i++ {
		off := hdr.phOffset + uintptr(i)*uintptr(hdr.phEntrySize)
		ph := parseProgramHeader(img, off)
		if ph.kind != pt_LOAD {
			continue
		}
		loaded = true
		if err := loadSegment(pdt, img, ph); err != nil {
			return nil, err
		}
	}
	if !loaded {
		return nil, errNoLoadSegs
	}

	stackTop := config.UserStackBottomVirt + config.UserStackSize
	stackTopPage := mm.PageFromAddress(stackTop - 1)

	stackFrame, err := allocFrameFn()
	if err != nil {
		return nil, err
	}
	if err := pdt.Map(stackTopPage, stackFrame, vmm.FlagPresent|vmm.FlagRW|vmm.FlagUserAccessible); err != nil {
		return nil, err
	}

	// Seed the single top-of-stack word with the landing pad address, so
	// a RET from main (which never called exit) faults there instead of
	// jumping to garbage (a dummy landing pad).
	initialESP := stackTopPage.Address() + config.PageSize - 4
	if err := writeWord(stackFrame, config.PageSize-4, uint32(config.ThreadLandingPad)); err != nil {
		return nil, err
	}

	vmas := &vma.List{}
	if !vmas.Add(&vma.VMA{Size: config.UserStackSize, Writable: true, Kind: vma.KindStack}, config.UserStackBottomVirt) {
		return nil, errBadELF
	}

	return &userImage{pdt: pdt, vmas: vmas, entry: hdr.entry, initialESP: initialESP}, nil
}

// LoadELF builds a fresh PCB and user TCB from img and hands the TCB to
// the scheduler, ready to run. ppid is the parent process id (0 for the
// first process started by kernel/kmain).
func LoadELF(ppid uint32, img []byte) (*sched.TCB, *kernel.Error) {
	image, err := buildUserImage(img)
	if err != nil {
		return nil, err
	}

	pcb := newPCB(ppid)
	pcb.VMAs = image.vmas

	t := &sched.TCB{
		PID:     pcb.PID,
		UserEIP: image.entry,
		UserESP: image.initialESP,
		PDT:     image.pdt,
	}
	if err := spawnUserFn(t); err != nil {
		return nil, err
	}

	return t, nil
}

// Execve replaces pid's address space with a freshly loaded img. The new
// image is fully parsed and mapped before anything about
// the existing process is touched, so a malformed img leaves the caller's
// current image intact and returns an error instead of destroying it -
// the same all-or-nothing guarantee POSIX execve makes.
//
// This kernel's thread-dispatch machinery only ever sends a TCB through
// dispatchToUserMode on its first scheduling (the "first dispatch to
// ring 3"); there is no path to redirect an already-running
// thread's EIP/ESP from inside a syscall handler. Execve therefore spawns
// a new TCB for the new image (same PID, new TID) and immediately exits
// the calling thread, rather than reusing the calling thread's TCB - the
// net effect is the same process-replaces-its-image semantics POSIX
// describes, at the cost of the replaced thread's TID not surviving.
func Execve(pid uint32, img []byte) *kernel.Error {
	image, err := buildUserImage(img)
	if err != nil {
		return err
	}

	pcb := Lookup(pid)
	if pcb == nil {
		return errUnknownPID
	}
	pcb.VMAs = image.vmas

	t := &sched.TCB{
		PID:     pcb.PID,
		UserEIP: image.entry,
		UserESP: image.initialESP,
		PDT:     image.pdt,
	}
	if err := spawnUserFn(t); err != nil {
		return err
	}

	schedExitFn(0)
	return nil
}

func maxUintptr(a, b uintptr) uintptr {
	if a > b {
		return a
	}
	return b
}
