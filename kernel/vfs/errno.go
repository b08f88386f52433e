package vfs

import (
	"hammeros/kernel"
	"hammeros/kernel/config"
)

const maxMountPoints = config.MaxMountPoints

// Linux-compatible errno values returned negated at the syscall boundary.
const (
	ENOENT    = 2
	EIO       = 5
	EBADF     = 9
	EFAULT    = 14
	EBUSY     = 16
	EEXIST    = 17
	ENOTDIR   = 20
	EISDIR    = 21
	EINVAL    = 22
	EMFILE    = 24
	ENOSPC    = 28
	ESPIPE    = 29
	EROFS     = 30
	EMLINK    = 31
	ERANGE    = 34
	ENOSYS    = 38
	ENOTEMPTY = 39
	ELOOP     = 40
)

// This taxonomy is exposed as package-level *kernel.Error values so
// every vfs function can return a single well-known sentinel and callers
// (kernel/syscall) translate via Errno.
var (
	ErrNotFound         = &kernel.Error{Module: "vfs", Message: "no such file or directory"}
	ErrNotDirectory     = &kernel.Error{Module: "vfs", Message: "not a directory"}
	ErrIsDirectory      = &kernel.Error{Module: "vfs", Message: "is a directory"}
	ErrExists           = &kernel.Error{Module: "vfs", Message: "already exists"}
	ErrNotEmpty         = &kernel.Error{Module: "vfs", Message: "directory not empty"}
	ErrNoSpace          = &kernel.Error{Module: "vfs", Message: "no space left"}
	ErrTooManyLinks     = &kernel.Error{Module: "vfs", Message: "too many links"}
	ErrTooManyOpenFiles = &kernel.Error{Module: "vfs", Message: "too many open files"}
	ErrBadFd            = &kernel.Error{Module: "vfs", Message: "bad file descriptor"}
	ErrIoError          = &kernel.Error{Module: "vfs", Message: "io error"}
	ErrUnsupported      = &kernel.Error{Module: "vfs", Message: "unsupported operation"}
	ErrNoSys            = &kernel.Error{Module: "vfs", Message: "function not implemented"}
	ErrFault            = &kernel.Error{Module: "vfs", Message: "bad address"}
	ErrBusy             = &kernel.Error{Module: "vfs", Message: "resource busy"}
	ErrInvalid          = &kernel.Error{Module: "vfs", Message: "invalid argument"}
	ErrSeekOnPipe       = &kernel.Error{Module: "vfs", Message: "illegal seek"}
	ErrReadOnly         = &kernel.Error{Module: "vfs", Message: "read-only filesystem"}
	ErrLoop             = &kernel.Error{Module: "vfs", Message: "too many levels of symbolic links"}
)

// Errno maps one of this package's sentinel errors to its negated-at-the-
// boundary Linux errno value. nil maps to 0; unrecognized errors map to
// EIO so a caller never silently drops a failure.
func Errno(err *kernel.Error) int {
	switch err {
	case nil:
		return 0
	case ErrNotFound:
		return ENOENT
	case ErrNotDirectory:
		return ENOTDIR
	case ErrIsDirectory:
		return EISDIR
	case ErrExists:
		return EEXIST
	case ErrNotEmpty:
		return ENOTEMPTY
	case ErrNoSpace:
		return ENOSPC
	case ErrTooManyLinks:
		return EMLINK
	case ErrTooManyOpenFiles:
		return EMFILE
	case ErrBadFd:
		return EBADF
	case ErrUnsupported, ErrNoSys:
		return ENOSYS
	case ErrFault:
		return EFAULT
	case ErrBusy:
		return EBUSY
	case ErrInvalid:
		return EINVAL
	case ErrSeekOnPipe:
		return ESPIPE
	case ErrReadOnly:
		return EROFS
	case ErrLoop:
		return ELOOP
	default:
		return EIO
	}
}
