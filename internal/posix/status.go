//go:build unix

package posix

import "golang.org/x/sys/unix"

// ExitCode decodes a wait status returned by Pclose. A child killed by a
// signal reports 128 plus the signal number, as shells do.
func ExitCode(status int) int {
	ws := unix.WaitStatus(status)
	switch {
	case ws.Exited():
		return ws.ExitStatus()
	case ws.Signaled():
		return 128 + int(ws.Signal())
	default:
		return -1
	}
}
