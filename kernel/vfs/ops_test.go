package vfs

import "testing"

const testPID uint32 = 1

func mustMount(t *testing.T, prefix string, fs FileSystem) {
	t.Helper()
	if err := Mount(prefix, fs); err != nil {
		t.Fatalf("Mount(%q): %v", prefix, err)
	}
}

func TestOpenCreateReadWrite(t *testing.T) {
	resetVFS()
	mustMount(t, "/", newMemFS(1))

	fd, err := Open(testPID, "/hello.txt", OCreate)
	if err != nil {
		t.Fatalf("Open with OCreate: %v", err)
	}

	n, werr := Write(testPID, fd, []byte("hello"))
	if werr != nil || n != 5 {
		t.Fatalf("Write: n=%d err=%v", n, werr)
	}

	if _, err := Lseek64(testPID, fd, 0, SeekSet); err != nil {
		t.Fatalf("Lseek64: %v", err)
	}

	buf := make([]byte, 5)
	n, rerr := Read(testPID, fd, buf)
	if rerr != nil || n != 5 || string(buf) != "hello" {
		t.Fatalf("Read: n=%d err=%v buf=%q", n, rerr, buf)
	}
}

func TestOpenWithoutCreateFailsOnMissingFile(t *testing.T) {
	resetVFS()
	mustMount(t, "/", newMemFS(1))

	if _, err := Open(testPID, "/missing", 0); err != ErrNotFound {
		t.Fatalf("Open(missing): got %v, want ErrNotFound", err)
	}
}

func TestLseekEndThenWriteGrowsFile(t *testing.T) {
	resetVFS()
	mustMount(t, "/", newMemFS(1))

	fd, _ := Open(testPID, "/f", OCreate)
	Write(testPID, fd, []byte("abc"))

	off, err := Lseek64(testPID, fd, 10, SeekEnd)
	if err != nil || off != 13 {
		t.Fatalf("Lseek64 SeekEnd: off=%d err=%v", off, err)
	}
	if _, err := Write(testPID, fd, []byte("z")); err != nil {
		t.Fatalf("Write past EOF: %v", err)
	}

	st, serr := Fstat(testPID, fd)
	if serr != nil || st.Size != 14 {
		t.Fatalf("Fstat after grow: size=%d err=%v", st.Size, serr)
	}
}

func TestMkdirRmdirUnlink(t *testing.T) {
	resetVFS()
	mustMount(t, "/", newMemFS(1))

	if err := Mkdir("/dir"); err != nil {
		t.Fatalf("Mkdir: %v", err)
	}
	if err := Mkdir("/dir"); err != ErrExists {
		t.Fatalf("Mkdir duplicate: got %v, want ErrExists", err)
	}

	fd, _ := Open(testPID, "/dir/file", OCreate)
	Close(testPID, fd)

	if err := Rmdir("/dir"); err != ErrNotEmpty {
		t.Fatalf("Rmdir non-empty: got %v, want ErrNotEmpty", err)
	}
	if err := Unlink("/dir/file"); err != nil {
		t.Fatalf("Unlink: %v", err)
	}
	if err := Rmdir("/dir"); err != nil {
		t.Fatalf("Rmdir empty: %v", err)
	}
}

func TestRenameAcrossFilesystemsRejected(t *testing.T) {
	resetVFS()
	mustMount(t, "/a", newMemFS(1))
	mustMount(t, "/b", newMemFS(2))

	fd, _ := Open(testPID, "/a/f", OCreate)
	Close(testPID, fd)

	if err := Rename("/a/f", "/b/f"); err != ErrUnsupported {
		t.Fatalf("Rename cross-fs: got %v, want ErrUnsupported", err)
	}
}

func TestRenameWithinFilesystem(t *testing.T) {
	resetVFS()
	mustMount(t, "/", newMemFS(1))

	fd, _ := Open(testPID, "/old", OCreate)
	Close(testPID, fd)

	if err := Rename("/old", "/new"); err != nil {
		t.Fatalf("Rename: %v", err)
	}
	if _, err := Open(testPID, "/old", 0); err != ErrNotFound {
		t.Fatalf("Open(/old) after rename: got %v, want ErrNotFound", err)
	}
	if _, err := Open(testPID, "/new", 0); err != nil {
		t.Fatalf("Open(/new) after rename: %v", err)
	}
}

func TestResolveReturnsFSIDAndType(t *testing.T) {
	resetVFS()
	mustMount(t, "/", newMemFS(7))
	Mkdir("/sub")

	fsID, _, typ, err := Resolve("/sub")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if fsID != 7 {
		t.Fatalf("Resolve fsID = %d, want 7", fsID)
	}
	if typ != TypeDir {
		t.Fatalf("Resolve type = %d, want TypeDir", typ)
	}
}

func TestGetdentsListsChildren(t *testing.T) {
	resetVFS()
	mustMount(t, "/", newMemFS(1))
	Mkdir("/d")
	fd1, _ := Open(testPID, "/d/a", OCreate)
	Close(testPID, fd1)
	fd2, _ := Open(testPID, "/d/b", OCreate)
	Close(testPID, fd2)

	dfd, err := Open(testPID, "/d", 0)
	if err != nil {
		t.Fatalf("Open dir: %v", err)
	}
	ents, gerr := Getdents(testPID, dfd, 0)
	if gerr != nil || len(ents) != 2 {
		t.Fatalf("Getdents: ents=%v err=%v", ents, gerr)
	}
}
