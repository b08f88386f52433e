// Package ps2 implements a PS/2 keyboard driver: it decodes scancode set 1
// bytes read from the i8042 controller's data port into ASCII and exposes
// them through a blocking ring buffer. Grounded on the i8042/PS2Keyboard
// register map and command set in tinyrange-cc's
// internal/devices/amd64/input/{i8042,ps2keyboard}.go; IRQ registration and
// the interrupt-safe producer/consumer handoff follow kernel/gate's
// HandleInterrupt contract and kernel/sync's Semaphore (the same pattern
// the ATA driver uses for command completion).
package ps2

import (
	"hammeros/device"
	"hammeros/kernel"
	"hammeros/kernel/cpu"
	"hammeros/kernel/gate"
	ksync "hammeros/kernel/sync"
	"io"
)

const (
	dataPort    uint16 = 0x60
	statusPort  uint16 = 0x64

	statusOutputFull = 1 << 0
)

// Scancode set 1 make codes for the modifier keys this driver tracks.
const (
	scLeftShift  = 0x2A
	scRightShift = 0x36
	scLeftCtrl   = 0x1D
	scLeftAlt    = 0x38
	scReleaseBit = 0x80
)

// ringSize must be a power of two; sized generously for burst typing ahead
// of a slow consumer.
const ringSize = 256

var (
	out8Fn = cpu.Out8
	in8Fn  = cpu.In8

	handleInterruptFn = gate.HandleInterrupt
)

// Keyboard decodes scancodes from a single PS/2 port and buffers the
// resulting ASCII bytes for a blocking reader.
type Keyboard struct {
	shift bool
	ctrl  bool
	alt   bool

	ring     [ringSize]byte
	rIdx     int
	wIdx     int
	notEmpty *ksync.Semaphore
}

var driver = &Keyboard{notEmpty: ksync.NewSemaphore(0)}

// DriverName returns the name of this driver.
func (k *Keyboard) DriverName() string { return "ps2_keyboard" }

// DriverVersion returns the version of this driver.
func (k *Keyboard) DriverVersion() (uint16, uint16, uint16) { return 0, 0, 1 }

// DriverInit registers the IRQ1 handler that decodes incoming scancodes.
func (k *Keyboard) DriverInit(_ io.Writer) *kernel.Error {
	handleInterruptFn(gate.KeyboardIRQ, k.handleIRQ)
	return nil
}

// handleIRQ drains the controller's output buffer and decodes every
// scancode waiting there. Runs with interrupts masked at IRQ1; must not
// block.
func (k *Keyboard) handleIRQ(_ *gate.Registers) {
	for in8Fn(statusPort)&statusOutputFull != 0 {
		k.decode(in8Fn(dataPort))
	}
}

// decode updates modifier state for shift/ctrl/alt make/break codes and
// pushes the translated ASCII byte (if any) for every other make code.
func (k *Keyboard) decode(sc byte) {
	released := sc&scReleaseBit != 0
	code := sc &^ scReleaseBit

	switch code {
	case scLeftShift, scRightShift:
		k.shift = !released
		return
	case scLeftCtrl:
		k.ctrl = !released
		return
	case scLeftAlt:
		k.alt = !released
		return
	}

	if released {
		return
	}

	ch := translate(code, k.shift)
	if ch == 0 {
		return
	}
	if k.ctrl && ch >= 'a' && ch <= 'z' {
		ch = ch - 'a' + 1
	}

	k.push(ch)
}

// push enqueues b, dropping the oldest buffered byte if the ring is full.
func (k *Keyboard) push(b byte) {
	next := (k.wIdx + 1) & (ringSize - 1)
	if next == k.rIdx {
		k.rIdx = (k.rIdx + 1) & (ringSize - 1)
	}
	k.ring[k.wIdx] = b
	k.wIdx = next
	k.notEmpty.Post()
}

// ReadByte blocks until a decoded key is available and returns it.
func (k *Keyboard) ReadByte() byte {
	k.notEmpty.Acquire()
	b := k.ring[k.rIdx]
	k.rIdx = (k.rIdx + 1) & (ringSize - 1)
	return b
}

// ReadByte blocks until a key is available on the system keyboard and
// returns it; the entry point kernel/vfs wires a character device onto.
func ReadByte() byte {
	return driver.ReadByte()
}

// scancodeSet1ASCII maps set-1 make codes to their unshifted ASCII value;
// a zero entry means the key has no ASCII representation.
var scancodeSet1ASCII = [128]byte{
	0x02: '1', 0x03: '2', 0x04: '3', 0x05: '4', 0x06: '5',
	0x07: '6', 0x08: '7', 0x09: '8', 0x0A: '9', 0x0B: '0',
	0x0C: '-', 0x0D: '=', 0x0E: '\b',
	0x0F: '\t',
	0x10: 'q', 0x11: 'w', 0x12: 'e', 0x13: 'r', 0x14: 't',
	0x15: 'y', 0x16: 'u', 0x17: 'i', 0x18: 'o', 0x19: 'p',
	0x1A: '[', 0x1B: ']', 0x1C: '\n',
	0x1E: 'a', 0x1F: 's', 0x20: 'd', 0x21: 'f', 0x22: 'g',
	0x23: 'h', 0x24: 'j', 0x25: 'k', 0x26: 'l', 0x27: ';',
	0x28: '\'', 0x29: '`',
	0x2B: '\\',
	0x2C: 'z', 0x2D: 'x', 0x2E: 'c', 0x2F: 'v', 0x30: 'b',
	0x31: 'n', 0x32: 'm', 0x33: ',', 0x34: '.', 0x35: '/',
	0x39: ' ',
}

// scancodeSet1ASCIIShifted mirrors scancodeSet1ASCII for the shifted
// (upper-case / symbol) value of each key; a zero entry falls back to the
// unshifted value.
var scancodeSet1ASCIIShifted = [128]byte{
	0x02: '!', 0x03: '@', 0x04: '#', 0x05: '$', 0x06: '%',
	0x07: '^', 0x08: '&', 0x09: '*', 0x0A: '(', 0x0B: ')',
	0x0C: '_', 0x0D: '+',
	0x10: 'Q', 0x11: 'W', 0x12: 'E', 0x13: 'R', 0x14: 'T',
	0x15: 'Y', 0x16: 'U', 0x17: 'I', 0x18: 'O', 0x19: 'P',
	0x1A: '{', 0x1B: '}',
	0x1E: 'A', 0x1F: 'S', 0x20: 'D', 0x21: 'F', 0x22: 'G',
	0x23: 'H', 0x24: 'J', 0x25: 'K', 0x26: 'L', 0x27: ':',
	0x28: '"', 0x29: '~',
	0x2B: '|',
	0x2C: 'Z', 0x2D: 'X', 0x2E: 'C', 0x2F: 'V', 0x30: 'B',
	0x31: 'N', 0x32: 'M', 0x33: '<', 0x34: '>', 0x35: '?',
}

func translate(code byte, shift bool) byte {
	if int(code) >= len(scancodeSet1ASCII) {
		return 0
	}
	if shift {
		if ch := scancodeSet1ASCIIShifted[code]; ch != 0 {
			return ch
		}
	}
	return scancodeSet1ASCII[code]
}

func probeForKeyboard() device.Driver {
	return driver
}

func init() {
	device.RegisterDriver(&device.DriverInfo{
		Order: device.DetectOrderLast,
		Probe: probeForKeyboard,
	})
}
