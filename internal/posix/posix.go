// Package posix is the seam between command execution and the POSIX
// piped-process primitives.
//
// Raw handles never leave this package: callers hold an opaque Stream and
// plain descriptor numbers, and every failure is signalled by a sentinel
// return value. The errno describing a failure must be read through
// Syscalls.Errno immediately after the failing call, before any other call
// on the same Syscalls value.
package posix

import (
	"fmt"
	"strings"

	"github.com/deixis/shellcap/internal/execerr"
)

// Standard descriptor numbers.
const (
	Stdin  = 0
	Stdout = 1
	Stderr = 2
)

// Stream is an opaque handle on a process started by Popen. It is owned by
// the caller until it is passed to Pclose.
type Stream interface {
	fmt.Stringer
}

// Syscalls exposes the operations needed to run a shell command with its
// stdout piped back to the caller and its stderr redirected elsewhere.
//
// Operations never panic. Failure is reported by a nil Stream or -1, after
// which Errno returns the cause.
type Syscalls interface {
	// Popen starts "/bin/sh -c cmd" with its stdout connected to the
	// returned stream, like popen(cmd, "r").
	Popen(cmd *Command) Stream

	// Fileno returns the descriptor underlying s. The descriptor belongs
	// to the stream: it is released by Pclose and must not be closed.
	Fileno(s Stream) int

	// Dup returns a new descriptor for the resource behind fd. The caller
	// owns it and must Close it exactly once.
	Dup(fd int) int

	// Dup2 makes dst refer to the resource behind src, closing whatever dst
	// referred to before.
	Dup2(src, dst int) int

	// Pclose closes s, waits for its process and returns the raw wait
	// status. Use ExitCode to decode it.
	Pclose(s Stream) int

	// Read reads up to len(p) bytes from fd. It returns 0 at end of file.
	Read(fd int, p []byte) int

	// Close releases a descriptor obtained from Dup.
	Close(fd int) int

	// Errno returns the error number left by the last failing call.
	Errno() int

	// Strerror returns the NUL-terminated description of errno.
	Strerror(errno int) []byte
}

// Command is a shell command held as a NUL-terminated buffer.
type Command struct {
	buf []byte
}

// NewCommand copies text into a NUL-terminated buffer. Text containing a
// NUL byte cannot be represented and yields an execerr.NullByteInCommand
// error naming the byte's position.
func NewCommand(text string) (*Command, error) {
	if i := strings.IndexByte(text, 0); i >= 0 {
		return nil, execerr.NullByte(i)
	}
	buf := make([]byte, len(text)+1)
	copy(buf, text)
	return &Command{buf: buf}, nil
}

// Bytes returns the command including its terminating NUL.
func (c *Command) Bytes() []byte {
	return c.buf
}

// String returns the command text without the terminator.
func (c *Command) String() string {
	return string(c.buf[:len(c.buf)-1])
}
