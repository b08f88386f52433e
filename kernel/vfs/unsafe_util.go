package vfs

import "unsafe"

// uintptrOf returns the address of a byte slice's backing array, for
// feeding kernel.Memcopy (see kernel/proc/unsafe_util.go for the same
// helper; kept package-local here to avoid an import between two leaf
// packages that otherwise have no reason to depend on each other).
func uintptrOf(b []byte) uintptr {
	return uintptr(unsafe.Pointer(&b[0]))
}

// ptrAt converts a raw user-space address into an unsafe.Pointer for a
// single validated byte read.
func ptrAt(addr uintptr) unsafe.Pointer {
	return unsafe.Pointer(addr)
}
