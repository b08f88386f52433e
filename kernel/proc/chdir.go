package proc

import (
	"hammeros/kernel"
	"hammeros/kernel/vfs"
)

// Chdir changes pid's working directory after confirming path resolves to
// a directory, recording both the textual path (for getcwd-style reporting)
// and the (fs, inode) pair dup'd fds and future lookups anchor against
// (CwdRef mirrors the same (fs, inode) pair a FileHandle already carries).
func Chdir(pid uint32, path string) *kernel.Error {
	pcb := Lookup(pid)
	if pcb == nil {
		return errUnknownPID
	}

	fs, inode, typ, err := vfs.Resolve(path)
	if err != nil {
		return err
	}
	if typ != vfs.TypeDir {
		return vfs.ErrNotDirectory
	}

	pcb.Cwd = CwdRef{FS: fs, Inode: inode}
	pcb.CwdPath = path
	return nil
}
