package vfs

import (
	"hammeros/kernel"
	"hammeros/kernel/vma"
)

// Init wires kernel/vma's mmap-page hooks to this package's mount table,
// closing the dependency kernel/vma documents at its own definition site
// (vma.IncInodeRefFn/ReadInodeFn are nil until a VFS exists to back them).
func Init() {
	vma.IncInodeRefFn = incInodeRef
	vma.ReadInodeFn = readInode
}

func incInodeRef(fsID uint8, inode uint64) {
	if fs, ok := byFSID[fsID]; ok {
		fs.IncRef(inode)
	}
}

func readInode(fsID uint8, inode uint64, offset uintptr, buf []byte) (int, *kernel.Error) {
	fs, ok := byFSID[fsID]
	if !ok {
		return 0, ErrNotFound
	}
	return fs.Read(inode, uint64(offset), buf)
}
