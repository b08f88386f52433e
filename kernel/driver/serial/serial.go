// Package serial implements a polled 16550-compatible UART driver for COM1,
// used as the kernel's early/panic logging sink (spec.md §6). Register
// layout and bit names are grounded on the 16550 emulation in
// tinyrange-cc's internal/devices/amd64/serial; the port-IO access pattern
// mirrors device/video/console's VgaTextConsole.DriverInit.
package serial

import (
	"hammeros/device"
	"hammeros/kernel"
	"hammeros/kernel/cpu"
	"io"
)

// COM1Base is the standard ISA I/O port base address for the first serial
// port.
const COM1Base uint16 = 0x3F8

const (
	regData        = 0 // DLAB=0: data; DLAB=1: divisor latch low
	regIER         = 1 // DLAB=0: interrupt enable; DLAB=1: divisor latch high
	regFCR         = 2 // FIFO control (write)
	regLCR         = 3 // line control
	regMCR         = 4 // modem control
	regLSR         = 5 // line status

	lcrDLAB   = 1 << 7
	lcr8N1    = 0x03
	fcrEnable = 0x01 | 0x02 | 0x04 // enable FIFO, clear RX/TX FIFOs
	mcrDTRRTS = 0x01 | 0x02
	mcrOUT2   = 0x08

	lsrDataReady    = 1 << 0
	lsrTHRE         = 1 << 5
)

// baudDivisor118 is the divisor for 38400 baud (115200 / 38400) against the
// UART's 1.8432MHz/16 base clock (spec.md §6).
const baudDivisor118 = 3

var (
	out8Fn = cpu.Out8
	in8Fn  = cpu.In8
)

// Port is a polled io.Writer/io.ByteWriter wrapping one UART base port.
type Port struct {
	base uint16
}

// NewPort returns a Port for the UART at base, left uninitialized until
// DriverInit runs.
func NewPort(base uint16) *Port {
	return &Port{base: base}
}

// DriverName returns the name of this driver.
func (p *Port) DriverName() string { return "serial_16550" }

// DriverVersion returns the version of this driver.
func (p *Port) DriverVersion() (uint16, uint16, uint16) { return 0, 0, 1 }

// DriverInit programs the UART for 38400 8N1 with FIFOs enabled, matching
// the standard QEMU/bochs COM1 defaults (spec.md §6).
func (p *Port) DriverInit(_ io.Writer) *kernel.Error {
	out8Fn(p.base+regIER, 0x00) // disable all UART interrupts; driver is polled

	out8Fn(p.base+regLCR, lcrDLAB)
	out8Fn(p.base+regData, baudDivisor118&0xFF)
	out8Fn(p.base+regIER, (baudDivisor118>>8)&0xFF)
	out8Fn(p.base+regLCR, lcr8N1)

	out8Fn(p.base+regFCR, fcrEnable)
	out8Fn(p.base+regMCR, mcrDTRRTS|mcrOUT2)

	return nil
}

// WriteByte blocks until the transmit holding register is empty and writes
// b to it.
func (p *Port) WriteByte(b byte) error {
	for in8Fn(p.base+regLSR)&lsrTHRE == 0 {
	}
	out8Fn(p.base+regData, b)
	return nil
}

// Write implements io.Writer by writing each byte of data in turn.
func (p *Port) Write(data []byte) (int, error) {
	for _, b := range data {
		_ = p.WriteByte(b)
	}
	return len(data), nil
}

// ReadByte returns the next received byte, blocking until one is available.
func (p *Port) ReadByte() byte {
	for in8Fn(p.base+regLSR)&lsrDataReady == 0 {
	}
	return in8Fn(p.base + regData)
}

func probeForCOM1() device.Driver {
	return NewPort(COM1Base)
}

func init() {
	device.RegisterDriver(&device.DriverInfo{
		Order: device.DetectOrderEarly,
		Probe: probeForCOM1,
	})
}
