package sync

import "hammeros/kernel/cpu"

// guardDepth and guardSavedIF implement a nesting counter: only the
// outermost InterruptGuard's Release restores interrupts, so a guard
// acquired inside another guard's scope never re-enables them early.
// Both are only ever touched with interrupts
// already disabled, so no atomic access is required on this single-core
// target.
var (
	guardDepth   uint32
	guardSavedIF bool
)

// InterruptGuard is an RAII-style handle that disables interrupts on
// acquisition and restores the pre-acquisition state once every nested
// guard has released.
type InterruptGuard struct{}

// NewInterruptGuard disables interrupts and returns a handle whose
// Release composes correctly with any other guard already held by the
// current thread.
func NewInterruptGuard() InterruptGuard {
	wasEnabled := cpu.InterruptsEnabled()
	cpu.DisableInterrupts()
	if guardDepth == 0 {
		guardSavedIF = wasEnabled
	}
	guardDepth++
	return InterruptGuard{}
}

// Release ends the guarded scope.
func (InterruptGuard) Release() {
	if guardDepth == 0 {
		return
	}
	guardDepth--
	if guardDepth == 0 && guardSavedIF {
		cpu.EnableInterrupts()
	}
}
