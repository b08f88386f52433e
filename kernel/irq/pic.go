// Package irq programs the 8259 PIC and PIT and provides the tick-driven
// system clock and IRQ masking primitives the scheduler's preemption guard
// relies on.
package irq

import "hammeros/kernel/cpu"

const (
	pic1Command = 0x20
	pic1Data    = 0x21
	pic2Command = 0xA0
	pic2Data    = 0xA1

	icw1Init  = 0x10
	icw1ICW4  = 0x01
	icw4_8086 = 0x01

	picEOI = 0x20
)

// InitPIC remaps the PIC so that IRQ0-7 fire vectors 0x20-0x27 and IRQ8-15
// fire vectors 0x28-0x2F, then unmasks every line so the initial IRQ mask
// state is "all enabled".
func InitPIC() {
	// ICW1: start initialization sequence, expect ICW4.
	cpu.Out8(pic1Command, icw1Init|icw1ICW4)
	cpu.IOWait()
	cpu.Out8(pic2Command, icw1Init|icw1ICW4)
	cpu.IOWait()

	// ICW2: vector offsets.
	cpu.Out8(pic1Data, 0x20)
	cpu.IOWait()
	cpu.Out8(pic2Data, 0x28)
	cpu.IOWait()

	// ICW3: wire master/slave cascade on IRQ2.
	cpu.Out8(pic1Data, 1<<2)
	cpu.IOWait()
	cpu.Out8(pic2Data, 2)
	cpu.IOWait()

	// ICW4: 8086 mode.
	cpu.Out8(pic1Data, icw4_8086)
	cpu.IOWait()
	cpu.Out8(pic2Data, icw4_8086)
	cpu.IOWait()

	// Unmask all lines.
	cpu.Out8(pic1Data, 0)
	cpu.Out8(pic2Data, 0)
}

// EOI sends an edge-triggered end-of-interrupt signal for the given IRQ
// line (0-15) to PIC1 and, if the IRQ originated on the slave PIC (IRQ >=
// 8), to PIC2 as well.
func EOI(irq uint8) {
	if irq >= 8 {
		cpu.Out8(pic2Command, picEOI)
	}
	cpu.Out8(pic1Command, picEOI)
}

// MaskIRQ disables delivery of the given IRQ line.
func MaskIRQ(irq uint8) {
	port, bit := picDataPortFor(irq)
	cur := cpu.In8(port)
	cpu.Out8(port, cur|bit)
}

// UnmaskIRQ (re-)enables delivery of the given IRQ line.
func UnmaskIRQ(irq uint8) {
	port, bit := picDataPortFor(irq)
	cur := cpu.In8(port)
	cpu.Out8(port, cur&^bit)
}

func picDataPortFor(irq uint8) (port uint16, bit uint8) {
	if irq >= 8 {
		return pic2Data, 1 << (irq - 8)
	}
	return pic1Data, 1 << irq
}
