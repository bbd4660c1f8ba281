package execerr

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deixis/shellcap/internal/charset"
)

// stubErrno reports a fixed errno and strerror text and counts reads.
type stubErrno struct {
	errno    int
	strerror []byte
	reads    int
	asked    []int
}

func (s *stubErrno) Errno() int {
	s.reads++
	return s.errno
}

func (s *stubErrno) Strerror(errno int) []byte {
	s.asked = append(s.asked, errno)
	return s.strerror
}

func TestFormatKernelError_FormatsCorrectly(t *testing.T) {
	src := &stubErrno{errno: 7, strerror: []byte("Hello\x00")}
	assert.Equal(t,
		"Received errno 7, Description: My description, strerror output: Hello.",
		FormatKernelError(src, "My description"),
	)
}

func TestFormatKernelError_Table(t *testing.T) {
	tests := []struct {
		errno       int
		description string
		strerror    string
	}{
		{errno: 0, description: "", strerror: "Success"},
		{errno: 2, description: "popen failed", strerror: "no such file or directory"},
		{errno: 9, description: "dup2 failed restoring stderr", strerror: "bad file descriptor"},
		{errno: 24, description: "dup failed", strerror: "too many open files"},
		{errno: -1, description: "weird, but: fine", strerror: "Unknown error -1"},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("errno %d", tt.errno), func(t *testing.T) {
			src := &stubErrno{errno: tt.errno, strerror: append([]byte(tt.strerror), 0)}
			want := fmt.Sprintf("Received errno %d, Description: %s, strerror output: %s.", tt.errno, tt.description, tt.strerror)
			assert.Equal(t, want, FormatKernelError(src, tt.description))
			assert.Equal(t, []int{tt.errno}, src.asked, "strerror must describe the captured errno")
		})
	}
}

func TestFormatKernelError_ReadsErrnoOnce(t *testing.T) {
	src := &stubErrno{errno: 12, strerror: []byte("Cannot allocate memory\x00")}
	_ = FormatKernelError(src, "popen failed")
	assert.Equal(t, 1, src.reads)
}

func TestFormatKernelError_InvalidStrerror(t *testing.T) {
	bad := []byte{'H', 'i', 0xff, 0}
	src := &stubErrno{errno: 5, strerror: bad}

	_, decodeErr := charset.CString(bad)
	require.Error(t, decodeErr)

	got := FormatKernelError(src, "pclose failed")
	assert.Equal(t,
		fmt.Sprintf("Received errno 5, Description: pclose failed, strerror output: %s.", decodeErr),
		got,
	)
}

func TestFormatKernelError_UnterminatedStrerror(t *testing.T) {
	src := &stubErrno{errno: 4, strerror: []byte("Interrupted system call")}
	assert.Equal(t,
		"Received errno 4, Description: read failed, strerror output: Interrupted system call.",
		FormatKernelError(src, "read failed"),
	)
}
