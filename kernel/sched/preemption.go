package sched

import "hammeros/kernel/irq"

// preemptHold counts nested HoldPreemption/ReleasePreemption calls.
// While non-zero the PIT IRQ stays masked so the tick handler cannot fire a
// nested call into Yield: the preemption hold counter masks the PIT IRQ
// while non-zero.
var preemptHold uint32

// HoldPreemption masks the timer IRQ for the duration of a critical section
// that must not be preempted (e.g. manipulating the ready queue itself).
// Safe to nest; the IRQ is only unmasked once the outermost hold is
// released.
func HoldPreemption() {
	if preemptHold == 0 {
		irq.MaskIRQ(0)
	}
	preemptHold++
}

// ReleasePreemption undoes one HoldPreemption call.
func ReleasePreemption() {
	if preemptHold == 0 {
		return
	}
	preemptHold--
	if preemptHold == 0 {
		irq.UnmaskIRQ(0)
	}
}

// onTick is registered with irq.InitPIT as the preemption tick handler. A
// tick that lands while preemption is held is simply dropped: the PIT IRQ
// itself is masked in that window, so in practice onTick only ever runs
// with preemptHold == 0.
func onTick() {
	if preemptHold != 0 {
		return
	}
	Yield()
}
