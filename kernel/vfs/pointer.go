// pointer.go implements the userspace pointer validation the syscall
// boundary must perform before touching any user-supplied buffer or
// string. It lives in kernel/vfs rather than kernel/syscall
// because read/write/getdents are exactly the operations that copy
// through a validated buffer.
package vfs

import (
	"hammeros/kernel"
	"hammeros/kernel/config"
	"hammeros/kernel/mm/vmm"
)

var queryFlagsFn = vmm.QueryFlags

// ValidateRange checks that every byte in [addr, addr+size) lies entirely
// below KernelOffset and is mapped present with the requested permission
// on every constituent page. Neither addr nor size is checked for
// alignment. Returns ErrFault on any violation.
func ValidateRange(addr, size uintptr, write bool) *kernel.Error {
	if size == 0 {
		return nil
	}
	if addr+size < addr || addr+size > config.KernelOffset {
		return ErrFault
	}

	start := addr &^ (config.PageSize - 1)
	end := (addr + size - 1) &^ (config.PageSize - 1)
	for page := start; ; page += config.PageSize {
		flags, err := queryFlagsFn(page)
		if err != nil || flags&vmm.FlagPresent == 0 || flags&vmm.FlagUserAccessible == 0 {
			return ErrFault
		}
		if write && flags&vmm.FlagRW == 0 {
			return ErrFault
		}
		if page == end {
			break
		}
	}
	return nil
}

// maxCStringLen bounds CopyInString's scan so a missing null terminator in
// a malicious buffer cannot hang the kernel.
const maxCStringLen = 4096

// CopyInString reads a NUL-terminated string starting at a validated user
// address, re-validating at each page boundary it crosses, walking page
// by page until the null terminator.
func CopyInString(addr uintptr) (string, *kernel.Error) {
	buf := make([]byte, 0, 64)
	for i := uintptr(0); i < maxCStringLen; i++ {
		cur := addr + i
		if cur&(config.PageSize-1) == 0 || i == 0 {
			if err := ValidateRange(cur, 1, false); err != nil {
				return "", err
			}
		}
		b := *(*byte)(ptrAt(cur))
		if b == 0 {
			return string(buf), nil
		}
		buf = append(buf, b)
	}
	return "", ErrInvalid
}

// CopyInBytes validates and copies size bytes starting at a user address
// into a fresh kernel-side slice.
func CopyInBytes(addr, size uintptr) ([]byte, *kernel.Error) {
	if err := ValidateRange(addr, size, false); err != nil {
		return nil, err
	}
	buf := make([]byte, size)
	kernel.Memcopy(addr, uintptrOf(buf), size)
	return buf, nil
}

// CopyOutBytes validates addr for size writable bytes and copies src into
// it.
func CopyOutBytes(addr uintptr, src []byte) *kernel.Error {
	if err := ValidateRange(addr, uintptr(len(src)), true); err != nil {
		return err
	}
	if len(src) == 0 {
		return nil
	}
	kernel.Memcopy(uintptrOf(src), addr, uintptr(len(src)))
	return nil
}
