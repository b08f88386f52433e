package device

// ProbeFn is a function that checks whether a particular piece of hardware
// is present on the system. If the probe is successful, it returns a Driver
// instance that can be used to interact with the detected device.
type ProbeFn func() Driver

// DetectOrder specifies when a driver's probe function should be invoked
// relative to the other registered drivers.
type DetectOrder uint8

// The list of supported driver detection order values. Drivers are probed
// in ascending DetectOrder.
const (
	// DetectOrderEarly is used by drivers that must be probed before
	// everything else (e.g. drivers required to bootstrap diagnostic
	// output).
	DetectOrderEarly DetectOrder = iota

	// DetectOrderBeforeACPI is used by drivers that must run before the
	// ACPI driver (e.g. the driver that locates and exposes the ACPI
	// tables to the rest of the system).
	DetectOrderBeforeACPI

	// DetectOrderACPI is used by the ACPI driver itself.
	DetectOrderACPI

	// DetectOrderLast is used by drivers that have no particular
	// ordering requirements and can be probed last.
	DetectOrderLast
)

// DriverInfo describes a registered driver probe.
type DriverInfo struct {
	// Order specifies when this driver's Probe function should be
	// invoked relative to other registered drivers.
	Order DetectOrder

	// Probe attempts to detect the presence of the driver's associated
	// hardware and, if successful, returns a Driver instance.
	Probe ProbeFn
}

// DriverInfoList implements sort.Interface so that registered drivers can be
// sorted by their detection order.
type DriverInfoList []*DriverInfo

// Len implements sort.Interface.
func (l DriverInfoList) Len() int { return len(l) }

// Less implements sort.Interface.
func (l DriverInfoList) Less(i, j int) bool { return l[i].Order < l[j].Order }

// Swap implements sort.Interface.
func (l DriverInfoList) Swap(i, j int) { l[i], l[j] = l[j], l[i] }

var registeredDrivers DriverInfoList

// RegisterDriver adds a driver probe to the list of registered drivers. It
// is typically invoked by a driver package's init() function.
func RegisterDriver(info *DriverInfo) {
	registeredDrivers = append(registeredDrivers, info)
}

// DriverList returns the list of registered driver probes.
func DriverList() DriverInfoList {
	return registeredDrivers
}
