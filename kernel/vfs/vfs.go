// Package vfs implements the mount table, path resolution and the
// FileSystem collaborator contract concrete filesystems must satisfy.
// Concrete filesystem implementations (FAT/VSFS/TempFS) are explicitly
// out of scope: this package only defines the interface they must
// satisfy and the machinery that routes a path to one. Grounded on
// biscuit's fs package (Oichkatzelesfrettschen-biscuit/biscuit/src/fs) for
// the inode-by-number addressing style, and on biscuit/src/stat/stat.go for
// the Stat record shape; the mount table and FD table are new.
package vfs

import (
	"strings"

	"hammeros/kernel"
	ksync "hammeros/kernel/sync"
)

// InodeType is the type tag carried by Stat.Type.
type InodeType uint8

const (
	TypeFile    InodeType = 1
	TypeSymlink InodeType = 2
	TypeDir     InodeType = 3
)

// Stat mirrors the fstat record returned to userspace.
type Stat struct {
	Inode uint32
	Nlink uint32
	Size  uint64
	Type  uint8
}

// Dirent is one entry returned by getdents.
type Dirent struct {
	Inode uint64
	Type  InodeType
	Name  string
}

// FileSystem is the contract a concrete filesystem (a "collaborator")
// must satisfy to be mounted. Inodes are addressed by number
// within the filesystem; FSID distinguishes which mounted filesystem an
// inode number belongs to once it crosses into an OpenFile (see fd.go).
type FileSystem interface {
	FSID() uint8
	Root() uint64

	Lookup(dir uint64, name string) (ino uint64, typ InodeType, err *kernel.Error)
	Create(dir uint64, name string) (ino uint64, err *kernel.Error)
	Open(ino uint64, flags int) *kernel.Error
	Close(ino uint64) *kernel.Error
	Read(ino uint64, offset uint64, buf []byte) (int, *kernel.Error)
	Write(ino uint64, offset uint64, buf []byte) (int, *kernel.Error)
	Truncate(ino uint64, size uint64) *kernel.Error
	Stat(ino uint64) (Stat, *kernel.Error)

	Mkdir(dir uint64, name string) (uint64, *kernel.Error)
	Rmdir(dir uint64, name string) *kernel.Error
	Unlink(dir uint64, name string) *kernel.Error
	Link(dir uint64, name string, target uint64) *kernel.Error
	Symlink(dir uint64, name, target string) (uint64, *kernel.Error)
	Rename(srcDir uint64, srcName string, dstDir uint64, dstName string) *kernel.Error
	Getdents(dir uint64, offset int) ([]Dirent, *kernel.Error)

	IncRef(ino uint64)
	Sync() *kernel.Error
}

type mountEntry struct {
	prefix string
	fs     FileSystem
}

var (
	mountLock ksync.RWLock
	mounts    []mountEntry
	byFSID    = map[uint8]FileSystem{}
)

// Mount installs fs at prefix in the mount table. prefix "/" installs
// the root filesystem that handles every otherwise-unmatched path.
// Mounting beyond config.MaxMountPoints fails with ErrNoSpace.
func Mount(prefix string, fs FileSystem) *kernel.Error {
	mountLock.Lock()
	defer mountLock.Unlock()

	if len(mounts) >= maxMountPoints {
		return ErrNoSpace
	}
	for _, m := range mounts {
		if m.prefix == prefix {
			return ErrExists
		}
	}

	mounts = append(mounts, mountEntry{prefix: normalizeMount(prefix), fs: fs})
	byFSID[fs.FSID()] = fs
	return nil
}

// Unmount removes the filesystem mounted at prefix. Mounting then
// unmounting leaves the mount table identical to its prior state.
func Unmount(prefix string) *kernel.Error {
	mountLock.Lock()
	defer mountLock.Unlock()

	prefix = normalizeMount(prefix)
	for i, m := range mounts {
		if m.prefix == prefix {
			delete(byFSID, m.fs.FSID())
			mounts = append(mounts[:i], mounts[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

// Sync flushes every mounted filesystem (the sync syscall).
func Sync() *kernel.Error {
	mountLock.RLock()
	defer mountLock.RUnlock()

	for _, m := range mounts {
		if err := m.fs.Sync(); err != nil {
			return err
		}
	}
	return nil
}

func normalizeMount(prefix string) string {
	if prefix != "/" {
		prefix = strings.TrimSuffix(prefix, "/")
	}
	return prefix
}

// resolve finds the longest-matching mount prefix for path and returns that
// filesystem plus the filesystem-internal remainder, picking the
// longest-matching mount prefix.
func resolve(path string) (FileSystem, string) {
	mountLock.RLock()
	defer mountLock.RUnlock()

	var best *mountEntry
	for i := range mounts {
		m := &mounts[i]
		if m.prefix == "/" {
			if best == nil {
				best = m
			}
			continue
		}
		if (path == m.prefix || strings.HasPrefix(path, m.prefix+"/")) &&
			(best == nil || len(m.prefix) > len(best.prefix)) {
			best = m
		}
	}
	if best == nil {
		return nil, ""
	}

	rest := strings.TrimPrefix(path, best.prefix)
	if rest == "" {
		rest = "/"
	}
	return best.fs, rest
}

// walk resolves an internal (already mount-stripped) path to the inode and
// type it names, starting from fs.Root().
func walk(fs FileSystem, internal string) (uint64, InodeType, *kernel.Error) {
	ino := fs.Root()
	typ := TypeDir
	for _, part := range splitPath(internal) {
		var err *kernel.Error
		ino, typ, err = fs.Lookup(ino, part)
		if err != nil {
			return 0, 0, err
		}
	}
	return ino, typ, nil
}

// splitParent resolves every path component except the last, returning the
// parent directory's inode and the final component's name.
func splitParent(fs FileSystem, internal string) (parent uint64, name string, err *kernel.Error) {
	parts := splitPath(internal)
	if len(parts) == 0 {
		return 0, "", ErrInvalid
	}
	name = parts[len(parts)-1]

	parent = fs.Root()
	for _, part := range parts[:len(parts)-1] {
		var typ InodeType
		parent, typ, err = fs.Lookup(parent, part)
		if err != nil {
			return 0, "", err
		}
		if typ != TypeDir {
			return 0, "", ErrNotDirectory
		}
	}
	return parent, name, nil
}

func splitPath(path string) []string {
	path = strings.Trim(path, "/")
	if path == "" {
		return nil
	}
	return strings.Split(path, "/")
}
