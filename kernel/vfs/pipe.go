package vfs

import (
	"hammeros/kernel"
	ksync "hammeros/kernel/sync"
)

// pipeBufSize is the fixed capacity of an in-kernel pipe's ring buffer: one
// page worth of buffering.
const pipeBufSize = 4096

// pipe is a byte ring buffer shared between a read and a write OpenFile.
// Neither endpoint is backed by a FileSystem inode: pipes are purely
// in-kernel: pipe is its own primitive here rather than a filesystem
// feature.
type pipe struct {
	buf         [pipeBufSize]byte
	r, w        int
	count       int
	lock        ksync.SleepMutex
	notEmpty    *ksync.Semaphore
	notFull     *ksync.Semaphore
	readClosed  bool
	writeClosed bool
}

func newPipe() *pipe {
	return &pipe{
		notEmpty: ksync.NewSemaphore(0),
		notFull:  ksync.NewSemaphore(pipeBufSize),
	}
}

// Pipe creates a connected pipe pair for pid and installs its two ends as
// freshly allocated fds, lowest-numbered read end first.
func Pipe(pid uint32) (readFD, writeFD int, err *kernel.Error) {
	fdLock.Lock()
	defer fdLock.Unlock()

	p := newPipe()

	readFD, err = allocFD(pid)
	if err != nil {
		return -1, -1, err
	}
	install(pid, readFD, &OpenFile{Kind: KindPipeRead, pipe: p})

	writeFD, err = allocFD(pid)
	if err != nil {
		delete(fds, fdKey{pid, readFD})
		return -1, -1, err
	}
	install(pid, writeFD, &OpenFile{Kind: KindPipeWrite, pipe: p})

	return readFD, writeFD, nil
}

func (p *pipe) closeRead() {
	p.lock.Lock()
	p.readClosed = true
	p.lock.Unlock()
	p.notFull.Post() // unblock a writer waiting on a now-abandoned pipe
}

func (p *pipe) closeWrite() {
	p.lock.Lock()
	p.writeClosed = true
	p.lock.Unlock()
	p.notEmpty.Post() // unblock a reader so it observes EOF
}

// read blocks until at least one byte is available or the write end has
// closed (EOF, returned as n=0, err=nil).
func (p *pipe) read(buf []byte) (int, *kernel.Error) {
	for {
		p.notEmpty.Acquire()

		p.lock.Lock()
		if p.count > 0 {
			break
		}
		closed := p.writeClosed
		p.lock.Unlock()
		if closed {
			return 0, nil
		}
		// stale permit for bytes an earlier read already consumed: wait again
	}

	n := 0
	for n < len(buf) && p.count > 0 {
		buf[n] = p.buf[p.r]
		p.r = (p.r + 1) % pipeBufSize
		p.count--
		n++
	}
	p.lock.Unlock()

	for i := 0; i < n; i++ {
		p.notFull.Post()
	}
	if p.count > 0 {
		p.notEmpty.Post() // more remains for the next reader
	}
	return n, nil
}

// write blocks while the buffer is full; writing to a pipe whose read end
// has closed fails with ErrIoError (the POSIX EPIPE case, approximated
// here since this kernel does not deliver SIGPIPE).
func (p *pipe) write(buf []byte) (int, *kernel.Error) {
	n := 0
	for n < len(buf) {
		p.notFull.Acquire()

		p.lock.Lock()
		if p.readClosed {
			p.lock.Unlock()
			return n, ErrIoError
		}
		p.buf[p.w] = buf[n]
		p.w = (p.w + 1) % pipeBufSize
		p.count++
		p.lock.Unlock()

		p.notEmpty.Post()
		n++
	}
	return n, nil
}
