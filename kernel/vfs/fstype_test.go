package vfs

import "testing"

func TestMountByTypeUnknownFSTypeFails(t *testing.T) {
	resetVFS()
	if err := MountByType("/mnt", "nosuchfs"); err != ErrNotFound {
		t.Fatalf("MountByType(unknown): got %v, want ErrNotFound", err)
	}
}

func TestMountByTypeConstructsAndMounts(t *testing.T) {
	resetVFS()
	fsTypeLock.Lock()
	fsTypes = map[string]Constructor{}
	fsTypeLock.Unlock()

	RegisterFSType("memfs", func() FileSystem { return newMemFS(9) })

	if err := MountByType("/mnt", "memfs"); err != nil {
		t.Fatalf("MountByType: %v", err)
	}
	if _, ok := byFSID[9]; !ok {
		t.Fatalf("mounted filesystem not registered under its FSID")
	}
}
