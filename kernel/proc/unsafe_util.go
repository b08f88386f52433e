package proc

import "unsafe"

// uintptrOf returns the address of a byte slice's backing array; used to
// feed kernel.Memcopy, which (like the rest of this freestanding kernel)
// operates on raw addresses rather than slices.
func uintptrOf(b []byte) uintptr {
	return uintptr(unsafe.Pointer(&b[0]))
}

// ptrAt converts a raw address into an unsafe.Pointer for a single direct
// write, used to seed the landing-pad return address word.
func ptrAt(addr uintptr) unsafe.Pointer {
	return unsafe.Pointer(addr)
}
