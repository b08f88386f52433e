package irq

import (
	"hammeros/kernel/cpu"
	"sync/atomic"
)

const (
	pitChannel0    = 0x40
	pitCommand     = 0x43
	pitInputHz     = 3579545 / 3
	pitMode3Square = 0x36

	// pitReload is the widest reload value the 16-bit PIT counter
	// supports (0xFFFF), giving an approximately 55 ms preemption tick
	// from 3579545/3 Hz / 0xFFFF.
	pitReload = 0xFFFF
)

var ticks uint64

// InitPIT programs PIT channel 0 for periodic (mode 3, square wave) ticks
// at pitReload and records onTick as the callback pitTick invokes. It does
// not touch the IDT; the caller installs the timer IRQ handler.
func InitPIT(onTick func()) {
	cpu.Out8(pitCommand, pitMode3Square)
	cpu.Out8(pitChannel0, byte(pitReload&0xFF))
	cpu.Out8(pitChannel0, byte(pitReload>>8))

	tickHandler = onTick
}

var tickHandler func()

// pitTick is invoked by the timer IRQ handler installed on gate.TimerIRQ.
// It advances the system clock, acknowledges the interrupt, then invokes
// the scheduler's cooperative-yield hook.
func pitTick() {
	atomic.AddUint64(&ticks, 1)
	EOI(0)
	if tickHandler != nil {
		tickHandler()
	}
}

// Ticks returns the number of PIT ticks observed since boot.
func Ticks() uint64 {
	return atomic.LoadUint64(&ticks)
}

// HandleIRQ is the bridge gate.HandleInterrupt-style callback used for the
// timer vector; it has no Registers dependency since the PIT handler never
// needs to inspect the interrupted context.
func HandleIRQ() {
	pitTick()
}

// DurationToTicks converts a nanosleep duration (nanoseconds) into a tick
// count, rounding up so that nanosleep never wakes early.
func DurationToTicks(nanos uint64) uint64 {
	nanosPerTick := uint64(1000000000) / uint64(pitInputHz/(pitReload))
	if nanosPerTick == 0 {
		nanosPerTick = 1
	}
	return (nanos + nanosPerTick - 1) / nanosPerTick
}

// TicksToNanos converts a tick count back into elapsed nanoseconds, used by
// the clock_gettime syscall to report time since boot.
func TicksToNanos(ticks uint64) uint64 {
	nanosPerTick := uint64(1000000000) / uint64(pitInputHz/(pitReload))
	if nanosPerTick == 0 {
		nanosPerTick = 1
	}
	return ticks * nanosPerTick
}
