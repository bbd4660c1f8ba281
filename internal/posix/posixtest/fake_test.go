//go:build unix

package posixtest

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"

	"github.com/deixis/shellcap/internal/posix"
)

func command(t *testing.T, text string) *posix.Command {
	t.Helper()
	cmd, err := posix.NewCommand(text)
	require.NoError(t, err)
	return cmd
}

func TestFake_StreamLifecycle(t *testing.T) {
	f := NewFake("hello", "")
	f.ExitStatus = 3
	f.ReadChunk = 2

	s := f.Popen(command(t, "echo hello"))
	require.NotNil(t, s)
	fd := f.Fileno(s)
	require.GreaterOrEqual(t, fd, firstFD)

	var got []byte
	buf := make([]byte, 16)
	for {
		n := f.Read(fd, buf)
		require.GreaterOrEqual(t, n, 0)
		if n == 0 {
			break
		}
		assert.LessOrEqual(t, n, 2)
		got = append(got, buf[:n]...)
	}
	assert.Equal(t, "hello", string(got))

	status := f.Pclose(s)
	assert.Equal(t, 3, posix.ExitCode(status))
	assert.Empty(t, f.OpenDescriptors())
	assert.Equal(t, []string{"echo hello"}, f.Commands())
	assert.Equal(t, 4, f.Calls(OpRead))
	assert.Equal(t, 1, f.Calls(OpPopen))
}

func TestFake_FailOn(t *testing.T) {
	f := NewFake("", "").FailOn(OpDup2, 2, int(unix.EMFILE))

	saved := f.Dup(posix.Stderr)
	require.GreaterOrEqual(t, saved, 0)
	assert.Equal(t, posix.Stderr, f.Dup2(5, posix.Stderr))
	assert.Equal(t, -1, f.Dup2(saved, posix.Stderr))
	assert.Equal(t, int(unix.EMFILE), f.Errno())
	assert.True(t, f.StderrRedirected())

	assert.Equal(t, 0, f.Close(saved))
	assert.Equal(t, 1, f.ErrnoReads())
}

func TestFake_DoubleClose(t *testing.T) {
	f := NewFake("", "")

	fd := f.Dup(posix.Stdin)
	require.Equal(t, 0, f.Close(fd))
	assert.Equal(t, -1, f.Close(fd))
	assert.Equal(t, int(unix.EBADF), f.Errno())
	assert.Equal(t, 1, f.DoubleCloses())

	s := f.Popen(command(t, "true"))
	require.Equal(t, 0, f.Close(f.Fileno(s)))
	f.Pclose(s)
	assert.Equal(t, 2, f.DoubleCloses(), "closing the stream descriptor before pclose is a double close")
}

func TestFake_PcloseTwice(t *testing.T) {
	f := NewFake("", "")
	s := f.Popen(command(t, "true"))
	assert.Equal(t, 0, f.Pclose(s))
	assert.Equal(t, -1, f.Pclose(s))
	assert.Equal(t, int(unix.ECHILD), f.Errno())
}

func TestFake_WritesStderrToRedirectTarget(t *testing.T) {
	f := NewFake("", "boom\n")

	spool, err := os.CreateTemp(t.TempDir(), "spool-*")
	require.NoError(t, err)
	defer spool.Close()

	saved := f.Dup(posix.Stderr)
	f.Dup2(int(spool.Fd()), posix.Stderr)
	s := f.Popen(command(t, "echo boom >&2"))
	f.Dup2(saved, posix.Stderr)
	f.Close(saved)
	f.Pclose(s)

	assert.False(t, f.StderrRedirected())
	data, err := os.ReadFile(spool.Name())
	require.NoError(t, err)
	assert.Equal(t, "boom\n", string(data))
}

func TestFake_Signal(t *testing.T) {
	f := NewFake("", "")
	f.Signal = 9
	s := f.Popen(command(t, "sleep 100"))
	assert.Equal(t, 137, posix.ExitCode(f.Pclose(s)))
}

func TestFake_Strerror(t *testing.T) {
	f := NewFake("", "")
	f.Strerrors = map[int][]byte{7: []byte("Hello\x00")}

	assert.Equal(t, []byte("Hello\x00"), f.Strerror(7))
	assert.Equal(t, append([]byte(unix.EBADF.Error()), 0), f.Strerror(int(unix.EBADF)))
}

func TestFake_FailedCloseReleases(t *testing.T) {
	f := NewFake("", "").FailOn(OpClose, 1, int(unix.EINTR)).FailOn(OpPclose, 1, int(unix.ECHILD))

	fd := f.Dup(posix.Stderr)
	assert.Equal(t, -1, f.Close(fd))
	assert.Equal(t, int(unix.EINTR), f.Errno())

	s := f.Popen(command(t, "true"))
	assert.Equal(t, -1, f.Pclose(s))
	assert.Equal(t, int(unix.ECHILD), f.Errno())

	assert.Empty(t, f.OpenDescriptors())
	assert.Zero(t, f.DoubleCloses())
}
