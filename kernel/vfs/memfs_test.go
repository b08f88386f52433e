package vfs

import (
	"hammeros/kernel"
)

// memFile/memFS are a minimal in-memory FileSystem used only by this
// package's own tests: every concrete filesystem stays out of scope for
// production code here, so a test fixture satisfying the same
// collaborator interface is the only way to exercise Open/Read/Write/
// Mkdir/Rename without one).
type memFile struct {
	name     string
	typ      InodeType
	data     []byte
	children map[string]uint64
	nlink    uint32
	refs     int
}

type memFS struct {
	id    uint8
	nodes map[uint64]*memFile
	next  uint64
}

func newMemFS(id uint8) *memFS {
	fs := &memFS{id: id, nodes: map[uint64]*memFile{}, next: 1}
	fs.nodes[1] = &memFile{name: "/", typ: TypeDir, children: map[string]uint64{}, nlink: 1}
	fs.next = 2
	return fs
}

func (fs *memFS) FSID() uint8  { return fs.id }
func (fs *memFS) Root() uint64 { return 1 }

func (fs *memFS) Lookup(dir uint64, name string) (uint64, InodeType, *kernel.Error) {
	d, ok := fs.nodes[dir]
	if !ok || d.typ != TypeDir {
		return 0, 0, ErrNotDirectory
	}
	ino, ok := d.children[name]
	if !ok {
		return 0, 0, ErrNotFound
	}
	return ino, fs.nodes[ino].typ, nil
}

func (fs *memFS) Create(dir uint64, name string) (uint64, *kernel.Error) {
	d, ok := fs.nodes[dir]
	if !ok || d.typ != TypeDir {
		return 0, ErrNotDirectory
	}
	if _, exists := d.children[name]; exists {
		return 0, ErrExists
	}
	ino := fs.next
	fs.next++
	fs.nodes[ino] = &memFile{name: name, typ: TypeFile, nlink: 1}
	d.children[name] = ino
	return ino, nil
}

func (fs *memFS) Open(ino uint64, flags int) *kernel.Error {
	f, ok := fs.nodes[ino]
	if !ok {
		return ErrNotFound
	}
	f.refs++
	return nil
}

func (fs *memFS) Close(ino uint64) *kernel.Error {
	if f, ok := fs.nodes[ino]; ok {
		f.refs--
	}
	return nil
}

func (fs *memFS) Read(ino uint64, offset uint64, buf []byte) (int, *kernel.Error) {
	f, ok := fs.nodes[ino]
	if !ok {
		return 0, ErrNotFound
	}
	if offset >= uint64(len(f.data)) {
		return 0, nil
	}
	n := copy(buf, f.data[offset:])
	return n, nil
}

func (fs *memFS) Write(ino uint64, offset uint64, buf []byte) (int, *kernel.Error) {
	f, ok := fs.nodes[ino]
	if !ok {
		return 0, ErrNotFound
	}
	end := offset + uint64(len(buf))
	if end > uint64(len(f.data)) {
		grown := make([]byte, end)
		copy(grown, f.data)
		f.data = grown
	}
	copy(f.data[offset:], buf)
	return len(buf), nil
}

func (fs *memFS) Truncate(ino uint64, size uint64) *kernel.Error {
	f, ok := fs.nodes[ino]
	if !ok {
		return ErrNotFound
	}
	if size <= uint64(len(f.data)) {
		f.data = f.data[:size]
		return nil
	}
	grown := make([]byte, size)
	copy(grown, f.data)
	f.data = grown
	return nil
}

func (fs *memFS) Stat(ino uint64) (Stat, *kernel.Error) {
	f, ok := fs.nodes[ino]
	if !ok {
		return Stat{}, ErrNotFound
	}
	return Stat{Inode: uint32(ino), Nlink: f.nlink, Size: uint64(len(f.data)), Type: uint8(f.typ)}, nil
}

func (fs *memFS) Mkdir(dir uint64, name string) (uint64, *kernel.Error) {
	d, ok := fs.nodes[dir]
	if !ok || d.typ != TypeDir {
		return 0, ErrNotDirectory
	}
	if _, exists := d.children[name]; exists {
		return 0, ErrExists
	}
	ino := fs.next
	fs.next++
	fs.nodes[ino] = &memFile{name: name, typ: TypeDir, children: map[string]uint64{}, nlink: 1}
	d.children[name] = ino
	return ino, nil
}

func (fs *memFS) Rmdir(dir uint64, name string) *kernel.Error {
	d, ok := fs.nodes[dir]
	if !ok {
		return ErrNotDirectory
	}
	ino, exists := d.children[name]
	if !exists {
		return ErrNotFound
	}
	target := fs.nodes[ino]
	if target.typ != TypeDir {
		return ErrNotDirectory
	}
	if len(target.children) > 0 {
		return ErrNotEmpty
	}
	delete(d.children, name)
	delete(fs.nodes, ino)
	return nil
}

func (fs *memFS) Unlink(dir uint64, name string) *kernel.Error {
	d, ok := fs.nodes[dir]
	if !ok {
		return ErrNotDirectory
	}
	ino, exists := d.children[name]
	if !exists {
		return ErrNotFound
	}
	delete(d.children, name)
	f := fs.nodes[ino]
	f.nlink--
	if f.nlink == 0 && f.refs == 0 {
		delete(fs.nodes, ino)
	}
	return nil
}

func (fs *memFS) Link(dir uint64, name string, target uint64) *kernel.Error {
	d, ok := fs.nodes[dir]
	if !ok || d.typ != TypeDir {
		return ErrNotDirectory
	}
	if _, exists := d.children[name]; exists {
		return ErrExists
	}
	f, ok := fs.nodes[target]
	if !ok {
		return ErrNotFound
	}
	d.children[name] = target
	f.nlink++
	return nil
}

func (fs *memFS) Symlink(dir uint64, name, target string) (uint64, *kernel.Error) {
	d, ok := fs.nodes[dir]
	if !ok || d.typ != TypeDir {
		return 0, ErrNotDirectory
	}
	ino := fs.next
	fs.next++
	fs.nodes[ino] = &memFile{name: name, typ: TypeSymlink, data: []byte(target), nlink: 1}
	d.children[name] = ino
	return ino, nil
}

func (fs *memFS) Rename(srcDir uint64, srcName string, dstDir uint64, dstName string) *kernel.Error {
	sd, ok := fs.nodes[srcDir]
	if !ok {
		return ErrNotDirectory
	}
	ino, exists := sd.children[srcName]
	if !exists {
		return ErrNotFound
	}
	dd, ok := fs.nodes[dstDir]
	if !ok {
		return ErrNotDirectory
	}
	delete(sd.children, srcName)
	dd.children[dstName] = ino
	return nil
}

func (fs *memFS) Getdents(dir uint64, offset int) ([]Dirent, *kernel.Error) {
	d, ok := fs.nodes[dir]
	if !ok || d.typ != TypeDir {
		return nil, ErrNotDirectory
	}
	var all []Dirent
	for name, ino := range d.children {
		all = append(all, Dirent{Inode: ino, Type: fs.nodes[ino].typ, Name: name})
	}
	if offset >= len(all) {
		return nil, nil
	}
	return all[offset:], nil
}

func (fs *memFS) IncRef(ino uint64) {
	if f, ok := fs.nodes[ino]; ok {
		f.refs++
	}
}

func (fs *memFS) Sync() *kernel.Error { return nil }

// resetVFS clears every package-level table this test file's tests touch,
// so tests can run in any order without leaking mounts/fds into each other.
func resetVFS() {
	mounts = nil
	byFSID = map[uint8]FileSystem{}
	fds = map[fdKey]*OpenFile{}
}
