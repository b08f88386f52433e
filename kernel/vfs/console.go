package vfs

import "hammeros/kernel"

// ConsoleReadByteFn and ConsoleWriteFn back fd 0/1/2 (the serial port
// and VGA text buffer are the only console devices this kernel has).
// kernel/kmain sets these once the PS/2 and serial/VGA drivers are up,
// following the same nil-until-wired hook convention kernel/vma uses for
// its mmap backing (IncInodeRefFn/ReadInodeFn).
var (
	ConsoleReadByteFn func() byte
	ConsoleWriteFn    func([]byte)
)

// InstallStdFDs installs fd 0 (stdin, console input), fd 1 and fd 2
// (stdout/stderr, console output) for a freshly created process, mirroring
// the stdio convention every Unix-like kernel establishes before a
// process's first instruction runs.
func InstallStdFDs(pid uint32) {
	fdLock.Lock()
	defer fdLock.Unlock()

	install(pid, 0, &OpenFile{Kind: KindConsoleIn})
	install(pid, 1, &OpenFile{Kind: KindConsoleOut})
	install(pid, 2, &OpenFile{Kind: KindConsoleOut})
}

func readConsole(buf []byte) (int, *kernel.Error) {
	if ConsoleReadByteFn == nil || len(buf) == 0 {
		return 0, ErrIoError
	}
	buf[0] = ConsoleReadByteFn()
	return 1, nil
}

func writeConsole(buf []byte) (int, *kernel.Error) {
	if ConsoleWriteFn == nil {
		return 0, ErrIoError
	}
	ConsoleWriteFn(buf)
	return len(buf), nil
}
