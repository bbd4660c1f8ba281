package execerr

import (
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_Equality(t *testing.T) {
	a := Error{Kind: KernelError, Message: "Received errno 1"}
	b := Error{Kind: KernelError, Message: "Received errno 1"}
	c := Error{Kind: KernelError, Message: "Received errno 2"}
	d := Error{Kind: FailedToReadStdout, Message: "Received errno 1"}

	assert.Equal(t, a, b)
	assert.True(t, a == b)
	assert.NotEqual(t, a, c)
	assert.NotEqual(t, a, d)
}

func TestError_Message(t *testing.T) {
	tests := []struct {
		err  *Error
		want string
	}{
		{err: NullByte(3), want: `Null byte in command: "nul byte found in provided data at position: 3"`},
		{err: &Error{Kind: KernelError, Message: "Received errno 7"}, want: `"Received errno 7"`},
		{err: Stdout(io.ErrUnexpectedEOF), want: `Couldn't read stdout: "unexpected EOF"`},
		{err: Stderr(errors.New("bad bytes")), want: `Couldn't read stderr: "bad bytes"`},
	}

	for _, tt := range tests {
		t.Run(tt.err.Kind.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestError_Is(t *testing.T) {
	err := fmt.Errorf("running: %w", Stdout(io.ErrUnexpectedEOF))

	assert.ErrorIs(t, err, ErrStdout)
	assert.NotErrorIs(t, err, ErrStderr)
	assert.NotErrorIs(t, err, ErrKernel)
	assert.ErrorIs(t, err, &Error{Kind: FailedToReadStdout, Message: "unexpected EOF"})
	assert.NotErrorIs(t, err, &Error{Kind: FailedToReadStdout, Message: "other"})

	var classified *Error
	assert.ErrorAs(t, err, &classified)
	assert.Equal(t, FailedToReadStdout, classified.Kind)
}

func TestKernel(t *testing.T) {
	src := &stubErrno{errno: 24, strerror: []byte("too many open files\x00")}
	got := Kernel(src, "dup failed")
	assert.Equal(t, &Error{
		Kind:    KernelError,
		Message: "Received errno 24, Description: dup failed, strerror output: too many open files.",
	}, got)
	assert.ErrorIs(t, got, ErrKernel)
}

func TestKind_String(t *testing.T) {
	assert.Equal(t, "NullByteInCommand", NullByteInCommand.String())
	assert.Equal(t, "FailedToReadStderr", FailedToReadStderr.String())
	assert.Equal(t, "Kind(0)", Kind(0).String())
}
