package vfs

import (
	"hammeros/kernel"
	"hammeros/kernel/config"
	ksync "hammeros/kernel/sync"
)

// FileKind distinguishes a regular filesystem-backed open file from an
// in-kernel pipe endpoint (see pipe.go); both are addressed through the
// same fd table.
type FileKind int

const (
	KindFile FileKind = iota
	KindPipeRead
	KindPipeWrite
	KindConsoleIn
	KindConsoleOut
)

// OpenFile is the shared, reference-counted state behind one or more file
// descriptors: a flat map of (pid, fd) -> OpenFile. dup/dup2/fork all
// install the same *OpenFile at a new (pid, fd)
// key and bump refs, so the offset and close-on-last-ref semantics are
// shared the way POSIX open-file-descriptions require.
type OpenFile struct {
	Kind  FileKind
	FS    uint8
	Inode uint64
	Flags int
	Offset uint64

	pipe *pipe // only set for KindPipeRead/KindPipeWrite

	refs int
}

type fdKey struct {
	pid uint32
	fd  int
}

var (
	fdLock ksync.SleepMutex
	fds    = map[fdKey]*OpenFile{}
)

// allocFD finds the lowest free descriptor number for pid, scanning
// 0..MAX_OPEN_FILES for a free slot. Caller must hold fdLock.
func allocFD(pid uint32) (int, *kernel.Error) {
	for fd := 0; fd < config.MaxOpenFiles; fd++ {
		if _, used := fds[fdKey{pid, fd}]; !used {
			return fd, nil
		}
	}
	return -1, ErrTooManyOpenFiles
}

// install places of at fd for pid, bumping its reference count.
func install(pid uint32, fd int, of *OpenFile) {
	of.refs++
	fds[fdKey{pid, fd}] = of
}

// Get returns the OpenFile installed at (pid, fd), or ErrBadFd.
func Get(pid uint32, fd int) (*OpenFile, *kernel.Error) {
	fdLock.Lock()
	defer fdLock.Unlock()

	of, ok := fds[fdKey{pid, fd}]
	if !ok {
		return nil, ErrBadFd
	}
	return of, nil
}

// Dup installs a new fd for pid that shares oldfd's OpenFile, returning the
// lowest free descriptor.
func Dup(pid uint32, oldfd int) (int, *kernel.Error) {
	fdLock.Lock()
	defer fdLock.Unlock()

	of, ok := fds[fdKey{pid, oldfd}]
	if !ok {
		return -1, ErrBadFd
	}
	newfd, err := allocFD(pid)
	if err != nil {
		return -1, err
	}
	install(pid, newfd, of)
	return newfd, nil
}

// Dup2 makes newfd share oldfd's OpenFile, closing whatever newfd
// previously referenced first.
func Dup2(pid uint32, oldfd, newfd int) *kernel.Error {
	fdLock.Lock()
	of, ok := fds[fdKey{pid, oldfd}]
	if !ok {
		fdLock.Unlock()
		return ErrBadFd
	}
	if oldfd == newfd {
		fdLock.Unlock()
		return nil
	}
	prev := fds[fdKey{pid, newfd}]
	install(pid, newfd, of)
	fdLock.Unlock()

	if prev != nil {
		closeRef(pid, newfd, prev)
	}
	return nil
}

// Close drops pid's reference to fd, releasing the underlying inode or
// pipe endpoint once the last reference is gone.
func Close(pid uint32, fd int) *kernel.Error {
	fdLock.Lock()
	key := fdKey{pid, fd}
	of, ok := fds[key]
	if !ok {
		fdLock.Unlock()
		return ErrBadFd
	}
	delete(fds, key)
	fdLock.Unlock()

	closeRef(pid, fd, of)
	return nil
}

// closeRef drops one reference from of, performing the real close of its
// backing resource once refs reaches zero. Caller must have already
// removed of's (pid, fd) entry from fds.
func closeRef(pid uint32, fd int, of *OpenFile) {
	fdLock.Lock()
	of.refs--
	remaining := of.refs
	fdLock.Unlock()

	if remaining > 0 {
		return
	}
	switch of.Kind {
	case KindFile:
		if fs, ok := byFSID[of.FS]; ok {
			_ = fs.Close(of.Inode)
		}
	case KindPipeRead:
		of.pipe.closeRead()
	case KindPipeWrite:
		of.pipe.closeWrite()
	}
}

// CloneForFork installs every fd the parent has open under childPID,
// sharing the same OpenFile (and therefore the same file offset) the way a
// POSIX fork shares open file descriptions (the same sharing behavior
// used for mmap'd VMAs, extended to fds).
func CloneForFork(parentPID, childPID uint32) {
	fdLock.Lock()
	defer fdLock.Unlock()

	for k, of := range fds {
		if k.pid != parentPID {
			continue
		}
		install(childPID, k.fd, of)
		if of.Kind == KindFile {
			if fs, ok := byFSID[of.FS]; ok {
				fs.IncRef(of.Inode)
			}
		}
	}
}

// ExitProcess closes every fd still open for pid, called once a process has
// exited and been reaped: resources held by a dying thread are released.
func ExitProcess(pid uint32) {
	fdLock.Lock()
	var mine []int
	for k := range fds {
		if k.pid == pid {
			mine = append(mine, k.fd)
		}
	}
	fdLock.Unlock()

	for _, fd := range mine {
		_ = Close(pid, fd)
	}
}
