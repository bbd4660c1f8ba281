package execerr

import (
	"fmt"

	"github.com/deixis/shellcap/internal/charset"
)

// ErrnoSource exposes the error state left by the last failing system call.
// Errno is only meaningful immediately after the failure, before any other
// call is made on the same source.
type ErrnoSource interface {
	Errno() int
	Strerror(errno int) []byte
}

// FormatKernelError renders the current errno of src as a diagnostic.
// description names the failing call (e.g. "popen failed").
//
// Errno is read exactly once. If the strerror text is not valid UTF-8 the
// decoder's error text is used in its place, so formatting never fails.
func FormatKernelError(src ErrnoSource, description string) string {
	errno := src.Errno()
	strerror, err := charset.CString(src.Strerror(errno))
	if err != nil {
		strerror = err.Error()
	}
	return fmt.Sprintf("Received errno %d, Description: %s, strerror output: %s.", errno, description, strerror)
}
