// Command mkdisk builds the MBR-partitioned raw disk image the kernel's
// ATA driver consumes during development (spec.md §8's disk images are
// plain files backing an emulated IDE channel, not anything mkdisk itself
// emulates). It runs as an ordinary hosted Go binary — this is the one
// place in the repository allowed to import the hosted standard library
// and non-freestanding third-party packages, since it never runs on the
// kernel side of the multiboot handover.
package main

import (
	"encoding/binary"
	"flag"
	"fmt"
	"os"

	"golang.org/x/sys/unix"
	"golang.org/x/term"
)

const (
	sectorSize      = 512
	mbrSignatureOff = 510
	mbrSignature    = 0xAA55
	partTableOff    = 446
	partEntrySize   = 16

	partTypeEmpty = 0x00
	partTypeFAT32 = 0x0c // placeholder type; no FAT32 driver ships in this kernel
	partTypeLinux = 0x83 // used loosely here for "kernel-native" partitions
)

type partition struct {
	bootable bool
	ptype    byte
	startLBA uint32
	sectors  uint32
}

func main() {
	var (
		outPath   = flag.String("out", "disk.img", "path to the raw disk image to create")
		sizeMB    = flag.Uint64("size", 64, "total image size in MiB")
		rootMB    = flag.Uint64("root-size", 0, "size in MiB of a single root partition (0: one partition filling the disk)")
		bootable  = flag.Bool("bootable", false, "mark the root partition's active flag")
		direct    = flag.Bool("direct", false, "open the output file with O_DIRECT (requires sector-aligned writes, Linux only)")
		quiet     = flag.Bool("quiet", false, "suppress the progress indicator")
	)
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: mkdisk [flags]\n")
		fmt.Fprintf(os.Stderr, "Builds an MBR-partitioned raw disk image for the kernel's ATA driver.\n\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	totalSectors := (*sizeMB * 1024 * 1024) / sectorSize
	if totalSectors < 64 {
		fmt.Fprintln(os.Stderr, "mkdisk: image too small")
		os.Exit(1)
	}

	rootSectors := totalSectors - 2048 // leave the first MiB for the MBR + alignment gap
	if *rootMB != 0 {
		rootSectors = (*rootMB * 1024 * 1024) / sectorSize
	}

	parts := []partition{{
		bootable: *bootable,
		ptype:    partTypeLinux,
		startLBA: 2048,
		sectors:  uint32(rootSectors),
	}}

	if err := build(*outPath, totalSectors, parts, *direct, *quiet); err != nil {
		fmt.Fprintf(os.Stderr, "mkdisk: %v\n", err)
		os.Exit(1)
	}
}

func build(path string, totalSectors uint64, parts []partition, direct, quiet bool) error {
	flags := os.O_RDWR | os.O_CREATE | os.O_TRUNC
	if direct {
		flags |= unix.O_DIRECT
	}
	f, err := os.OpenFile(path, flags, 0644)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	imageSize := int64(totalSectors * sectorSize)
	if err := f.Truncate(imageSize); err != nil {
		return fmt.Errorf("truncate: %w", err)
	}

	mbr := make([]byte, sectorSize)
	for i, p := range parts {
		if i >= 4 {
			return fmt.Errorf("mbr supports at most 4 primary partitions, got %d", len(parts))
		}
		writePartEntry(mbr[partTableOff+i*partEntrySize:], p)
	}
	binary.LittleEndian.PutUint16(mbr[mbrSignatureOff:], mbrSignature)

	if _, err := f.WriteAt(mbr, 0); err != nil {
		return fmt.Errorf("write mbr: %w", err)
	}

	return zeroFill(f, imageSize, quiet)
}

func writePartEntry(entry []byte, p partition) {
	if p.bootable {
		entry[0] = 0x80
	}
	entry[4] = p.ptype
	binary.LittleEndian.PutUint32(entry[8:], p.startLBA)
	binary.LittleEndian.PutUint32(entry[12:], p.sectors)
}

// zeroFill writes deterministic zeroed sectors across the rest of the
// image (the ATA driver's MBR scan expects unallocated sectors to read
// as zero rather than whatever garbage os.Truncate's sparse hole would
// return on a non-sparse-aware reader) and renders a progress bar on
// the controlling terminal while it does, mirroring imageconvert's
// percent-complete style reporting in a form that fits a multi-second
// sector sweep instead of a single decode-and-write pass.
func zeroFill(f *os.File, imageSize int64, quiet bool) error {
	const chunkSectors = 2048 // 1 MiB per write
	chunk := make([]byte, chunkSectors*sectorSize)

	isTerminal := !quiet && term.IsTerminal(int(os.Stdout.Fd()))

	written := int64(sectorSize)
	for written < imageSize {
		n := int64(len(chunk))
		if remaining := imageSize - written; remaining < n {
			n = remaining
		}
		if _, err := f.WriteAt(chunk[:n], written); err != nil {
			return fmt.Errorf("write at %d: %w", written, err)
		}
		written += n

		if isTerminal {
			reportProgress(written, imageSize)
		}
	}
	if isTerminal {
		fmt.Println()
	}
	return nil
}

func reportProgress(written, total int64) {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		width = 40
	}
	if width > 60 {
		width = 60
	}
	pct := float64(written) / float64(total)
	filled := int(pct * float64(width))
	fmt.Printf("\r[%s%s] %3.0f%%", repeat('=', filled), repeat(' ', width-filled), pct*100)
}

func repeat(c byte, n int) string {
	if n < 0 {
		n = 0
	}
	b := make([]byte, n)
	for i := range b {
		b[i] = c
	}
	return string(b)
}
