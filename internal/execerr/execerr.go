// Package execerr classifies command execution failures.
//
// Every failure surfaced by the runner is one of four kinds, each carrying a
// single descriptive message. Kernel-level failures are rendered with the
// errno and strerror text captured at the moment of failure.
package execerr

import "fmt"

// Kind identifies the class of a command execution failure.
type Kind int

const (
	// NullByteInCommand means the command text contained a NUL byte and
	// could not be converted into a C string.
	NullByteInCommand Kind = iota + 1
	// KernelError means a system call returned its failure sentinel.
	KernelError
	// FailedToReadStdout means the captured stdout could not be read or
	// decoded as text.
	FailedToReadStdout
	// FailedToReadStderr means the captured stderr could not be read or
	// decoded as text.
	FailedToReadStderr
)

func (k Kind) String() string {
	switch k {
	case NullByteInCommand:
		return "NullByteInCommand"
	case KernelError:
		return "KernelError"
	case FailedToReadStdout:
		return "FailedToReadStdout"
	case FailedToReadStderr:
		return "FailedToReadStderr"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Error is a classified failure. Two errors are equal when both their kind
// and message are equal.
type Error struct {
	Kind    Kind
	Message string
}

// Sentinels for errors.Is. Any *Error of the same kind matches.
var (
	ErrNullByte = &Error{Kind: NullByteInCommand}
	ErrKernel   = &Error{Kind: KernelError}
	ErrStdout   = &Error{Kind: FailedToReadStdout}
	ErrStderr   = &Error{Kind: FailedToReadStderr}
)

func (e *Error) Error() string {
	switch e.Kind {
	case NullByteInCommand:
		return fmt.Sprintf("Null byte in command: %q", e.Message)
	case FailedToReadStdout:
		return fmt.Sprintf("Couldn't read stdout: %q", e.Message)
	case FailedToReadStderr:
		return fmt.Sprintf("Couldn't read stderr: %q", e.Message)
	default:
		return fmt.Sprintf("%q", e.Message)
	}
}

// Is reports whether target is a sentinel of the same kind, or an equal error.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Message == "" {
		return e.Kind == t.Kind
	}
	return *e == *t
}

// NullByte returns a NullByteInCommand error for a NUL at position pos.
func NullByte(pos int) *Error {
	return &Error{
		Kind:    NullByteInCommand,
		Message: fmt.Sprintf("nul byte found in provided data at position: %d", pos),
	}
}

// Kernel returns a KernelError describing the call that just failed.
// It must be called before any other call on src.
func Kernel(src ErrnoSource, description string) *Error {
	return &Error{Kind: KernelError, Message: FormatKernelError(src, description)}
}

// Stdout returns a FailedToReadStdout error carrying err's text.
func Stdout(err error) *Error {
	return &Error{Kind: FailedToReadStdout, Message: err.Error()}
}

// Stderr returns a FailedToReadStderr error carrying err's text.
func Stderr(err error) *Error {
	return &Error{Kind: FailedToReadStderr, Message: err.Error()}
}
