// ops.go implements the path-resolving operations kernel/syscall's
// handlers call directly: open/read/write/close plus the directory and
// metadata syscalls.
package vfs

import "hammeros/kernel"

// Open flags.
const (
	OCreate = 0x40
)

// Seek whence values.
const (
	SeekSet = 0
	SeekCur = 1
	SeekEnd = 2
)

// Resolve walks path through the mount table to the inode it names,
// without opening it - chdir's use case. This reuses Open's own
// path-walking helpers rather than duplicating them.
func Resolve(path string) (fsID uint8, inode uint64, typ InodeType, err *kernel.Error) {
	fs, internal := resolve(path)
	if fs == nil {
		return 0, 0, 0, ErrNotFound
	}
	ino, t, werr := walk(fs, internal)
	if werr != nil {
		return 0, 0, 0, werr
	}
	return fs.FSID(), ino, t, nil
}

// Open resolves path through the mount table and, on success, installs a
// new fd for pid.
func Open(pid uint32, path string, flags int) (int, *kernel.Error) {
	fs, internal := resolve(path)
	if fs == nil {
		return -1, ErrNotFound
	}

	ino, _, err := walk(fs, internal)
	if err != nil {
		if err != ErrNotFound || flags&OCreate == 0 {
			return -1, err
		}
		dir, name, perr := splitParent(fs, internal)
		if perr != nil {
			return -1, perr
		}
		ino, err = fs.Create(dir, name)
		if err != nil {
			return -1, err
		}
	}

	if err := fs.Open(ino, flags); err != nil {
		return -1, err
	}

	fdLock.Lock()
	fd, ferr := allocFD(pid)
	if ferr != nil {
		fdLock.Unlock()
		_ = fs.Close(ino)
		return -1, ferr
	}
	install(pid, fd, &OpenFile{Kind: KindFile, FS: fs.FSID(), Inode: ino, Flags: flags})
	fdLock.Unlock()

	return fd, nil
}

// Read dispatches to the pipe or filesystem backing fd and advances its
// shared offset.
func Read(pid uint32, fd int, buf []byte) (int, *kernel.Error) {
	of, err := Get(pid, fd)
	if err != nil {
		return -1, err
	}

	switch of.Kind {
	case KindPipeRead:
		return of.pipe.read(buf)
	case KindPipeWrite:
		return -1, ErrBadFd
	case KindConsoleIn:
		return readConsole(buf)
	case KindConsoleOut:
		return -1, ErrBadFd
	}

	fs, ok := byFSID[of.FS]
	if !ok {
		return -1, ErrBadFd
	}

	fdLock.Lock()
	offset := of.Offset
	fdLock.Unlock()

	n, err := fs.Read(of.Inode, offset, buf)
	if err != nil {
		return -1, err
	}

	fdLock.Lock()
	of.Offset += uint64(n)
	fdLock.Unlock()
	return n, nil
}

// Write is Read's symmetric counterpart.
func Write(pid uint32, fd int, buf []byte) (int, *kernel.Error) {
	of, err := Get(pid, fd)
	if err != nil {
		return -1, err
	}

	switch of.Kind {
	case KindPipeWrite:
		return of.pipe.write(buf)
	case KindPipeRead:
		return -1, ErrBadFd
	case KindConsoleOut:
		return writeConsole(buf)
	case KindConsoleIn:
		return -1, ErrBadFd
	}

	fs, ok := byFSID[of.FS]
	if !ok {
		return -1, ErrBadFd
	}

	fdLock.Lock()
	offset := of.Offset
	fdLock.Unlock()

	n, err := fs.Write(of.Inode, offset, buf)
	if err != nil {
		return -1, err
	}

	fdLock.Lock()
	of.Offset += uint64(n)
	fdLock.Unlock()
	return n, nil
}

// Lseek64 repositions fd's shared offset. Seeking past end of file
// followed by a write of one byte grows the file.
func Lseek64(pid uint32, fd int, offset int64, whence int) (int64, *kernel.Error) {
	of, err := Get(pid, fd)
	if err != nil {
		return -1, err
	}
	if of.Kind != KindFile {
		return -1, ErrSeekOnPipe
	}
	fs, ok := byFSID[of.FS]
	if !ok {
		return -1, ErrBadFd
	}

	var base int64
	switch whence {
	case SeekSet:
		base = 0
	case SeekCur:
		fdLock.Lock()
		base = int64(of.Offset)
		fdLock.Unlock()
	case SeekEnd:
		st, serr := fs.Stat(of.Inode)
		if serr != nil {
			return -1, serr
		}
		base = int64(st.Size)
	default:
		return -1, ErrInvalid
	}

	newOffset := base + offset
	if newOffset < 0 {
		return -1, ErrInvalid
	}

	fdLock.Lock()
	of.Offset = uint64(newOffset)
	fdLock.Unlock()
	return newOffset, nil
}

// Fstat returns the Stat record for fd's backing inode.
func Fstat(pid uint32, fd int) (Stat, *kernel.Error) {
	of, err := Get(pid, fd)
	if err != nil {
		return Stat{}, err
	}
	if of.Kind != KindFile {
		return Stat{}, ErrUnsupported
	}
	fs, ok := byFSID[of.FS]
	if !ok {
		return Stat{}, ErrBadFd
	}
	return fs.Stat(of.Inode)
}

// Ftruncate resizes fd's backing inode.
func Ftruncate(pid uint32, fd int, size uint64) *kernel.Error {
	of, err := Get(pid, fd)
	if err != nil {
		return err
	}
	if of.Kind != KindFile {
		return ErrUnsupported
	}
	fs, ok := byFSID[of.FS]
	if !ok {
		return ErrBadFd
	}
	return fs.Truncate(of.Inode, size)
}

// Getdents reads directory entries from fd starting at offset.
func Getdents(pid uint32, fd int, offset int) ([]Dirent, *kernel.Error) {
	of, err := Get(pid, fd)
	if err != nil {
		return nil, err
	}
	if of.Kind != KindFile {
		return nil, ErrUnsupported
	}
	fs, ok := byFSID[of.FS]
	if !ok {
		return nil, ErrBadFd
	}
	return fs.Getdents(of.Inode, offset)
}

func resolveDirAndName(path string) (FileSystem, uint64, string, *kernel.Error) {
	fs, internal := resolve(path)
	if fs == nil {
		return nil, 0, "", ErrNotFound
	}
	dir, name, err := splitParent(fs, internal)
	if err != nil {
		return nil, 0, "", err
	}
	return fs, dir, name, nil
}

// Mkdir creates a directory named by path.
func Mkdir(path string) *kernel.Error {
	fs, dir, name, err := resolveDirAndName(path)
	if err != nil {
		return err
	}
	_, err = fs.Mkdir(dir, name)
	return err
}

// Rmdir removes the empty directory named by path.
func Rmdir(path string) *kernel.Error {
	fs, dir, name, err := resolveDirAndName(path)
	if err != nil {
		return err
	}
	return fs.Rmdir(dir, name)
}

// Unlink removes the directory entry named by path.
func Unlink(path string) *kernel.Error {
	fs, dir, name, err := resolveDirAndName(path)
	if err != nil {
		return err
	}
	return fs.Unlink(dir, name)
}

// Link creates a new hard link newPath pointing at oldPath's inode. Both
// paths must resolve to the same mounted filesystem: cross-filesystem
// hardlinks are not supported by any concrete FileSystem implementation
// this interface describes.
func Link(oldPath, newPath string) *kernel.Error {
	oldFS, oldInternal := resolve(oldPath)
	if oldFS == nil {
		return ErrNotFound
	}
	target, _, err := walk(oldFS, oldInternal)
	if err != nil {
		return err
	}

	newFS, dir, name, err := resolveDirAndName(newPath)
	if err != nil {
		return err
	}
	if newFS.FSID() != oldFS.FSID() {
		return ErrUnsupported
	}
	return newFS.Link(dir, name, target)
}

// Symlink creates a symbolic link at linkPath containing target.
func Symlink(target, linkPath string) *kernel.Error {
	fs, dir, name, err := resolveDirAndName(linkPath)
	if err != nil {
		return err
	}
	_, err = fs.Symlink(dir, name, target)
	return err
}

// Rename moves oldPath to newPath; both must resolve within the same
// mounted filesystem.
func Rename(oldPath, newPath string) *kernel.Error {
	oldFS, oldDir, oldName, err := resolveDirAndName(oldPath)
	if err != nil {
		return err
	}
	newFS, newDir, newName, err := resolveDirAndName(newPath)
	if err != nil {
		return err
	}
	if newFS.FSID() != oldFS.FSID() {
		return ErrUnsupported
	}
	return oldFS.Rename(oldDir, oldName, newDir, newName)
}
