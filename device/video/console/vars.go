package console

import (
	"hammeros/kernel/cpu"
	"hammeros/kernel/mm/vmm"
)

var (
	// mapRegionFn is overridden by tests; the real build always calls vmm.MapRegion.
	mapRegionFn = vmm.MapRegion

	// portWriteByteFn is overridden by tests; the real build always calls cpu.Out8.
	portWriteByteFn = cpu.Out8
)
