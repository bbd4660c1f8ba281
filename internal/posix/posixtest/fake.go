//go:build unix

// Package posixtest provides a deterministic posix.Syscalls for tests.
package posixtest

import (
	"bytes"
	"fmt"
	"sort"
	"sync"

	"golang.org/x/sys/unix"

	"github.com/deixis/shellcap/internal/posix"
)

// Op names a posix.Syscalls operation.
type Op string

// Operations that can be counted and made to fail.
const (
	OpPopen  Op = "popen"
	OpFileno Op = "fileno"
	OpDup    Op = "dup"
	OpDup2   Op = "dup2"
	OpPclose Op = "pclose"
	OpRead   Op = "read"
	OpClose  Op = "close"
)

// firstFD is the lowest descriptor number the fake hands out. Anything
// below it is treated as a real descriptor owned by the caller.
const firstFD = 1 << 24

// pipe is the resource behind the stream's descriptor.
const pipe = -1

// Fake is a posix.Syscalls that never starts a process.
//
// Popen yields a stream whose reads return Stdout. Stderr is written to
// whatever real descriptor fd 2 has been redirected to with Dup2 when Popen
// is called, which lets callers capture it in a real file. Pclose reports
// ExitStatus, or Signal if it is non-zero.
//
// Descriptors handed out by the fake are virtual. The fake tracks which are
// open so tests can assert that every path releases them exactly once.
type Fake struct {
	Stdout     []byte
	Stderr     []byte
	ExitStatus int
	Signal     int

	// ReadChunk caps the bytes returned by one Read. Zero means no cap.
	ReadChunk int

	// Strerrors overrides the text returned by Strerror. Values are
	// returned verbatim, so they may be unterminated or invalid UTF-8.
	Strerrors map[int][]byte

	mu        sync.Mutex
	errno     int
	nextFD    int
	open      map[int]int // fd -> resource
	released  map[int]bool
	stderrRes int
	stdout    *bytes.Reader
	calls     map[Op]int
	failures  map[Op]map[int]int // op -> nth call -> errno
	commands  []string
	doubles   int
	errnoRead int
}

type stream struct {
	fd     int
	cmd    string
	closed bool
}

func (s *stream) String() string {
	return fmt.Sprintf("fake stream %q (fd %d)", s.cmd, s.fd)
}

// NewFake returns a Fake whose command prints stdout and stderr and exits
// with status 0.
func NewFake(stdout, stderr string) *Fake {
	return &Fake{Stdout: []byte(stdout), Stderr: []byte(stderr)}
}

// FailOn makes the nth call (1-based) of op fail with errno.
func (f *Fake) FailOn(op Op, nth int, errno int) *Fake {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.init()
	if f.failures[op] == nil {
		f.failures[op] = make(map[int]int)
	}
	f.failures[op][nth] = errno
	return f
}

// Calls returns how many times op was invoked.
func (f *Fake) Calls(op Op) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

// ErrnoReads returns how many times Errno was invoked.
func (f *Fake) ErrnoReads() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.errnoRead
}

// OpenDescriptors returns the virtual descriptors that are still open.
func (f *Fake) OpenDescriptors() []int {
	f.mu.Lock()
	defer f.mu.Unlock()
	fds := make([]int, 0, len(f.open))
	for fd := range f.open {
		fds = append(fds, fd)
	}
	sort.Ints(fds)
	return fds
}

// DoubleCloses returns how many times an already released descriptor was
// closed again.
func (f *Fake) DoubleCloses() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.doubles
}

// StderrRedirected reports whether fd 2 currently points anywhere other
// than the original stderr.
func (f *Fake) StderrRedirected() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.init()
	return f.stderrRes != posix.Stderr
}

// Commands returns the text of every command passed to Popen.
func (f *Fake) Commands() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.commands...)
}

func (f *Fake) Popen(cmd *posix.Command) posix.Stream {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.enter(OpPopen) {
		return nil
	}
	f.commands = append(f.commands, cmd.String())

	if f.stderrRes >= 0 && f.stderrRes < firstFD && f.stderrRes != posix.Stderr && len(f.Stderr) > 0 {
		_, _ = unix.Write(f.stderrRes, f.Stderr)
	}

	f.stdout = bytes.NewReader(f.Stdout)
	return &stream{fd: f.alloc(pipe), cmd: cmd.String()}
}

func (f *Fake) Fileno(s posix.Stream) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.enter(OpFileno) {
		return -1
	}
	fs, ok := s.(*stream)
	if !ok || fs == nil || fs.closed {
		f.errno = int(unix.EBADF)
		return -1
	}
	return fs.fd
}

func (f *Fake) Dup(fd int) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.enter(OpDup) {
		return -1
	}
	res, ok := f.resource(fd)
	if !ok {
		f.errno = int(unix.EBADF)
		return -1
	}
	return f.alloc(res)
}

func (f *Fake) Dup2(src, dst int) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.enter(OpDup2) {
		return -1
	}
	res, ok := f.resource(src)
	if !ok {
		f.errno = int(unix.EBADF)
		return -1
	}
	switch {
	case dst == posix.Stderr:
		f.stderrRes = res
	case dst >= firstFD:
		if _, open := f.open[dst]; !open {
			f.errno = int(unix.EBADF)
			return -1
		}
		f.open[dst] = res
	}
	return dst
}

func (f *Fake) Pclose(s posix.Stream) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	fail := f.enter(OpPclose)
	fs, ok := s.(*stream)
	if !ok || fs == nil {
		f.errno = int(unix.EBADF)
		return -1
	}
	if fs.closed {
		f.errno = int(unix.ECHILD)
		return -1
	}
	// The stream is gone even if waiting for the process failed.
	fs.closed = true
	f.release(fs.fd)
	if fail {
		return -1
	}

	if f.Signal != 0 {
		return f.Signal
	}
	return f.ExitStatus << 8
}

func (f *Fake) Read(fd int, p []byte) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.enter(OpRead) {
		return -1
	}
	res, open := f.open[fd]
	if !open {
		f.errno = int(unix.EBADF)
		return -1
	}
	if res != pipe || f.stdout == nil {
		return 0
	}
	if f.ReadChunk > 0 && len(p) > f.ReadChunk {
		p = p[:f.ReadChunk]
	}
	n, _ := f.stdout.Read(p)
	return n
}

func (f *Fake) Close(fd int) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	fail := f.enter(OpClose)
	if _, open := f.open[fd]; !open {
		if f.released[fd] {
			f.doubles++
		}
		f.errno = int(unix.EBADF)
		return -1
	}
	// close(2) releases the descriptor even when it reports an error.
	f.release(fd)
	if fail {
		return -1
	}
	return 0
}

func (f *Fake) Errno() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errnoRead++
	return f.errno
}

func (f *Fake) Strerror(errno int) []byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	if b, ok := f.Strerrors[errno]; ok {
		return b
	}
	return append([]byte(unix.Errno(errno).Error()), 0)
}

func (f *Fake) init() {
	if f.calls != nil {
		return
	}
	f.nextFD = firstFD
	f.open = make(map[int]int)
	f.released = make(map[int]bool)
	f.stderrRes = posix.Stderr
	f.calls = make(map[Op]int)
	f.failures = make(map[Op]map[int]int)
}

// enter records a call to op and reports whether it must fail.
func (f *Fake) enter(op Op) bool {
	f.init()
	f.calls[op]++
	if errno, ok := f.failures[op][f.calls[op]]; ok {
		f.errno = errno
		return true
	}
	return false
}

// resource resolves what fd refers to: a virtual descriptor's resource,
// the current target of fd 2, or a real descriptor owned by the caller.
func (f *Fake) resource(fd int) (int, bool) {
	switch {
	case fd == posix.Stderr:
		return f.stderrRes, true
	case fd >= firstFD:
		res, open := f.open[fd]
		return res, open
	case fd >= 0:
		return fd, true
	default:
		return 0, false
	}
}

func (f *Fake) alloc(res int) int {
	fd := f.nextFD
	f.nextFD++
	f.open[fd] = res
	return fd
}

func (f *Fake) release(fd int) {
	if _, open := f.open[fd]; !open {
		if f.released[fd] {
			f.doubles++
		}
		return
	}
	delete(f.open, fd)
	f.released[fd] = true
}
