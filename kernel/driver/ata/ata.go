// Package ata implements a PIO-mode ATA (IDE) driver for the primary and
// secondary channels, registering each attached disk as a kernel/block
// Block. Register offsets, the LBA28 command sequence and the
// busy-wait/IRQ handoff are grounded on spec.md §4.9; the interrupt-safe
// completion semaphore follows the same kernel/sync.Semaphore pattern
// kernel/sched documents the ATA driver using, and port access mirrors
// kernel/driver/ps2's use of kernel/cpu's In8/Out8/InSW/OutSW.
package ata

import (
	"hammeros/device"
	"hammeros/kernel"
	"hammeros/kernel/block"
	"hammeros/kernel/cpu"
	"hammeros/kernel/gate"
	"hammeros/kernel/irq"
	ksync "hammeros/kernel/sync"
	"io"
)

// Channel base I/O ports and their IRQ lines (spec.md §4.9).
const (
	primaryBase    uint16 = 0x1F0
	primaryCtrl    uint16 = 0x3F6
	primaryIRQ     uint8  = 14
	secondaryBase  uint16 = 0x170
	secondaryCtrl  uint16 = 0x376
	secondaryIRQ   uint8  = 15
)

// Register offsets from a channel's base port.
const (
	regData       = 0
	regError      = 1
	regSectorCnt  = 2
	regLBALow     = 3
	regLBAMid     = 4
	regLBAHigh    = 5
	regDriveHead  = 6
	regStatus     = 7
	regCommand    = 7
)

const (
	statusBSY = 1 << 7
	statusDRQ = 1 << 3
	statusERR = 1 << 0

	driveHeadLBA    = 0xE0
	driveHeadSlave  = 1 << 4
	cmdReadSectors  = 0x20
	cmdWriteSectors = 0x30
	cmdIdentify     = 0xEC
)

// waitBusyTimeoutNanos is the maximum time wait_while_busy spins before giving up
// (spec.md §4.9: "30 s bound").
const waitBusyTimeoutNanos = 30_000_000_000

var (
	out8Fn      = cpu.Out8
	in8Fn       = cpu.In8
	outSWFn     = cpu.OutSW
	inSWFn      = cpu.InSW
	ioWaitFn    = cpu.IOWait

	handleInterruptFn = gate.HandleInterrupt
	eoiFn             = irq.EOI
	ticksFn           = irq.Ticks
	durationToTicksFn = irq.DurationToTicks

	errIoError = &kernel.Error{Module: "ata", Message: "io error"}
)

// channel owns one of the two ATA PIO channels; each has its own
// completion semaphore posted from the channel's IRQ handler (spec.md
// §4.9).
type channel struct {
	base, ctrl uint16
	irqLine    uint8

	lock       ksync.SleepMutex
	completion *ksync.Semaphore
}

func newChannel(base, ctrl uint16, irqLine uint8) *channel {
	return &channel{base: base, ctrl: ctrl, irqLine: irqLine, completion: ksync.NewSemaphore(0)}
}

func (c *channel) handleIRQ(_ *gate.Registers) {
	_ = in8Fn(c.base + regStatus) // clears the pending IRQ condition
	eoiFn(c.irqLine)
	c.completion.Post()
}

// waitWhileBusy spins on the status register until BSY clears, bounded by
// waitBusyTimeoutNanos (spec.md §4.9).
func (c *channel) waitWhileBusy() *kernel.Error {
	deadline := ticksFn() + durationToTicksFn(waitBusyTimeoutNanos)
	for in8Fn(c.base+regStatus)&statusBSY != 0 {
		if ticksFn() >= deadline {
			return errIoError
		}
	}
	return nil
}

// selectDevice programs the drive/head register and LBA28 sector address
// ahead of issuing a command.
func (c *channel) selectDevice(slave bool, lba uint32, sectorCount uint8) {
	head := driveHeadLBA | byte((lba>>24)&0x0F)
	if slave {
		head |= driveHeadSlave
	}
	out8Fn(c.base+regDriveHead, head)
	out8Fn(c.base+regSectorCnt, sectorCount)
	out8Fn(c.base+regLBALow, byte(lba))
	out8Fn(c.base+regLBAMid, byte(lba>>8))
	out8Fn(c.base+regLBAHigh, byte(lba>>16))
}

// ReadSectors reads len(buf)/block.SectorSize sectors starting at lba into
// buf (spec.md §4.9 read sequence: select -> command -> acquire ->
// wait_while_busy -> insw).
func (d *Disk) ReadSectors(lba uint64, buf []byte) *kernel.Error {
	sectorCount := len(buf) / block.SectorSize
	if sectorCount == 0 || len(buf)%block.SectorSize != 0 {
		return errIoError
	}

	c := d.ch
	c.lock.Lock()
	defer c.lock.Unlock()

	c.selectDevice(d.slave, uint32(lba), uint8(sectorCount))
	out8Fn(c.base+regCommand, cmdReadSectors)

	words := make([]uint16, block.SectorSize/2)
	for s := 0; s < sectorCount; s++ {
		c.completion.Acquire()
		if err := c.waitWhileBusy(); err != nil {
			return err
		}
		if in8Fn(c.base+regStatus)&statusERR != 0 {
			return errIoError
		}

		inSWFn(c.base+regData, words)
		for i, w := range words {
			buf[s*block.SectorSize+i*2] = byte(w)
			buf[s*block.SectorSize+i*2+1] = byte(w >> 8)
		}
	}

	return nil
}

// WriteSectors is the write-side mirror of ReadSectors (outsw then
// acquire, per spec.md §4.9).
func (d *Disk) WriteSectors(lba uint64, buf []byte) *kernel.Error {
	sectorCount := len(buf) / block.SectorSize
	if sectorCount == 0 || len(buf)%block.SectorSize != 0 {
		return errIoError
	}

	c := d.ch
	c.lock.Lock()
	defer c.lock.Unlock()

	c.selectDevice(d.slave, uint32(lba), uint8(sectorCount))
	out8Fn(c.base+regCommand, cmdWriteSectors)

	words := make([]uint16, block.SectorSize/2)
	for s := 0; s < sectorCount; s++ {
		if err := c.waitWhileBusy(); err != nil {
			return err
		}

		for i := range words {
			words[i] = uint16(buf[s*block.SectorSize+i*2]) | uint16(buf[s*block.SectorSize+i*2+1])<<8
		}
		outSWFn(c.base+regData, words)

		c.completion.Acquire()
		if in8Fn(c.base+regStatus)&statusERR != 0 {
			return errIoError
		}
	}

	return nil
}

// Disk is one ATA PIO device implementing block.Driver, registered as a
// block.Block once identified.
type Disk struct {
	ch    *channel
	slave bool
	name  string

	sectors uint64
}

// DriverName returns the name of this driver.
func (d *Disk) DriverName() string { return "ata_pio" }

// DriverVersion returns the version of this driver.
func (d *Disk) DriverVersion() (uint16, uint16, uint16) { return 0, 0, 1 }

// DriverInit identifies the device and, if present, registers it with
// kernel/block and scans its MBR partition table.
func (d *Disk) DriverInit(w io.Writer) *kernel.Error {
	sectors, err := identify(d.ch, d.slave)
	if err != nil {
		return err
	}
	d.sectors = sectors

	b, err := block.Register(block.TypeDisk, d.name, d.sectors, d)
	if err != nil {
		return err
	}

	return block.ScanPartitions(b)
}

// identify issues IDENTIFY DEVICE and extracts the LBA28 sector count from
// word 60-61 of the returned data.
func identify(c *channel, slave bool) (uint64, *kernel.Error) {
	c.lock.Lock()
	defer c.lock.Unlock()

	head := driveHeadLBA
	if slave {
		head |= driveHeadSlave
	}
	out8Fn(c.base+regDriveHead, byte(head))
	ioWaitFn()

	out8Fn(c.base+regSectorCnt, 0)
	out8Fn(c.base+regLBALow, 0)
	out8Fn(c.base+regLBAMid, 0)
	out8Fn(c.base+regLBAHigh, 0)
	out8Fn(c.base+regCommand, cmdIdentify)

	status := in8Fn(c.base + regStatus)
	if status == 0 {
		return 0, errIoError // no device on this position
	}

	if err := c.waitWhileBusy(); err != nil {
		return 0, err
	}
	if in8Fn(c.base+regLBAMid) != 0 || in8Fn(c.base+regLBAHigh) != 0 {
		return 0, errIoError // not ATA
	}

	for in8Fn(c.base+regStatus)&statusDRQ == 0 {
		if in8Fn(c.base+regStatus)&statusERR != 0 {
			return 0, errIoError
		}
	}

	words := make([]uint16, 256)
	inSWFn(c.base+regData, words)

	sectors := uint32(words[61])<<16 | uint32(words[60])
	return uint64(sectors), nil
}

func probeChannel(base, ctrl uint16, irqLine uint8, namePrefix string, order device.DetectOrder) {
	ch := newChannel(base, ctrl, irqLine)
	handleInterruptFn(interruptFor(irqLine), ch.handleIRQ)

	for _, slave := range []bool{false, true} {
		name := namePrefix
		if slave {
			name += "s"
		} else {
			name += "m"
		}
		disk := &Disk{ch: ch, slave: slave, name: name}

		device.RegisterDriver(&device.DriverInfo{Order: order, Probe: func() device.Driver { return disk }})
	}
}

func interruptFor(irqLine uint8) gate.InterruptNumber {
	if irqLine == primaryIRQ {
		return gate.ATAPrimaryIRQ
	}
	return gate.ATASecondaryIRQ
}

func init() {
	probeChannel(primaryBase, primaryCtrl, primaryIRQ, "ata0", device.DetectOrderLast)
	probeChannel(secondaryBase, secondaryCtrl, secondaryIRQ, "ata1", device.DetectOrderLast)
}
