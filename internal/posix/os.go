//go:build unix

package posix

import (
	"fmt"
	"os"
	"syscall"

	"golang.org/x/sys/unix"
)

const shellPath = "/bin/sh"

// OS implements Syscalls against the running kernel.
//
// Go has no usable thread-local errno: a goroutine can move to another
// thread between two calls. OS latches the errno of its most recent failing
// call instead, and successful calls leave it untouched. An OS value must
// be used by one goroutine at a time, normally one value per command.
type OS struct {
	errno unix.Errno
}

// NewOS returns a Syscalls backed by the kernel.
func NewOS() *OS {
	return &OS{}
}

type procStream struct {
	fd     int
	pid    int
	cmd    string
	closed bool
}

func (s *procStream) String() string {
	return fmt.Sprintf("sh -c %q (pid %d)", s.cmd, s.pid)
}

func (o *OS) Popen(cmd *Command) Stream {
	var p [2]int
	// Same dance as os.Pipe on platforms without pipe2: hold ForkLock so no
	// child is forked while the descriptors are still inheritable.
	syscall.ForkLock.RLock()
	err := unix.Pipe(p[:])
	if err == nil {
		unix.CloseOnExec(p[0])
		unix.CloseOnExec(p[1])
	}
	syscall.ForkLock.RUnlock()
	if err != nil {
		o.fail(err)
		return nil
	}

	text := unix.ByteSliceToString(cmd.Bytes())
	pid, err := syscall.ForkExec(shellPath, []string{"sh", "-c", text}, &syscall.ProcAttr{
		Env:   os.Environ(),
		Files: []uintptr{Stdin, uintptr(p[1]), Stderr},
	})
	if err != nil {
		o.fail(err)
		_ = unix.Close(p[0])
		_ = unix.Close(p[1])
		return nil
	}
	_ = unix.Close(p[1])

	return &procStream{fd: p[0], pid: pid, cmd: text}
}

func (o *OS) Fileno(s Stream) int {
	ps, ok := s.(*procStream)
	if !ok || ps == nil || ps.closed {
		o.errno = unix.EBADF
		return -1
	}
	return ps.fd
}

// Dup duplicates fd with close-on-exec set, so copies held by the parent
// never leak into a child started by Popen.
func (o *OS) Dup(fd int) int {
	nfd, err := unix.FcntlInt(uintptr(fd), unix.F_DUPFD_CLOEXEC, 0)
	if err != nil {
		o.fail(err)
		return -1
	}
	return nfd
}

func (o *OS) Dup2(src, dst int) int {
	if err := unix.Dup2(src, dst); err != nil {
		o.fail(err)
		return -1
	}
	return dst
}

func (o *OS) Pclose(s Stream) int {
	ps, ok := s.(*procStream)
	if !ok || ps == nil {
		o.errno = unix.EBADF
		return -1
	}
	if ps.closed {
		o.errno = unix.ECHILD
		return -1
	}
	ps.closed = true
	_ = unix.Close(ps.fd)

	var ws unix.WaitStatus
	for {
		_, err := unix.Wait4(ps.pid, &ws, 0, nil)
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			o.fail(err)
			return -1
		}
		return int(ws)
	}
}

func (o *OS) Read(fd int, p []byte) int {
	for {
		n, err := unix.Read(fd, p)
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			o.fail(err)
			return -1
		}
		return n
	}
}

func (o *OS) Close(fd int) int {
	if err := unix.Close(fd); err != nil {
		o.fail(err)
		return -1
	}
	return 0
}

func (o *OS) Errno() int {
	return int(o.errno)
}

func (o *OS) Strerror(errno int) []byte {
	return append([]byte(unix.Errno(errno).Error()), 0)
}

func (o *OS) fail(err error) {
	if errno, ok := err.(unix.Errno); ok {
		o.errno = errno
		return
	}
	o.errno = unix.EIO
}
