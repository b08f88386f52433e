package vfs

import (
	"hammeros/kernel"
	ksync "hammeros/kernel/sync"
)

// Constructor builds a fresh FileSystem instance for one mount. Concrete
// filesystems (FAT/VSFS/TempFS) are out of scope for this kernel; this
// registry exists so the mount syscall has real, if currently
// unpopulated, semantics instead of being an unconditional stub - a
// filesystem driver built against the FileSystem interface registers
// itself here exactly the way kernel/device.RegisterDriver lets a device
// driver register without kernel/hal knowing its concrete type up front.
type Constructor func() FileSystem

var (
	fsTypeLock ksync.RWLock
	fsTypes    = map[string]Constructor{}
)

// RegisterFSType makes a filesystem type available to the mount syscall
// under name (e.g. "tmpfs", "fat16").
func RegisterFSType(name string, ctor Constructor) {
	fsTypeLock.Lock()
	defer fsTypeLock.Unlock()
	fsTypes[name] = ctor
}

// MountByType constructs an instance of the named filesystem type and
// mounts it at prefix, used by the mount syscall.
func MountByType(prefix, fstype string) *kernel.Error {
	fsTypeLock.RLock()
	ctor, ok := fsTypes[fstype]
	fsTypeLock.RUnlock()
	if !ok {
		return ErrNotFound
	}
	return Mount(prefix, ctor())
}
