package main

import "hammeros/kernel/kmain"

var multibootInfoPtr, kernelStart, kernelEnd uintptr

// main is the only Go symbol visible to the rt0 trampoline once it has set
// up a boot GDT/IDT and a minimal g0 able to run Go code on the 4 KiB stack
// it allocated. It is a thin trampoline into kmain.Kmain; the package-level
// variables (rather than literal zeros) keep the compiler from inlining the
// call away and pruning the real kernel code from the generated object file.
func main() {
	kmain.Kmain(multibootInfoPtr, kernelStart, kernelEnd)
}
