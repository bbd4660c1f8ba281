package posix

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deixis/shellcap/internal/execerr"
)

func TestNewCommand(t *testing.T) {
	cmd, err := NewCommand("echo hello")
	require.NoError(t, err)
	assert.Equal(t, "echo hello", cmd.String())
	assert.Equal(t, []byte("echo hello\x00"), cmd.Bytes())
}

func TestNewCommand_Empty(t *testing.T) {
	cmd, err := NewCommand("")
	require.NoError(t, err)
	assert.Equal(t, "", cmd.String())
	assert.Equal(t, []byte{0}, cmd.Bytes())
}

func TestNewCommand_NullByte(t *testing.T) {
	_, err := NewCommand("echo a\x00b")
	require.Error(t, err)
	assert.Equal(t, execerr.NullByte(6), err)
	assert.ErrorIs(t, err, execerr.ErrNullByte)
}

func TestNewCommand_OwnsBuffer(t *testing.T) {
	text := "ls"
	cmd, err := NewCommand(text)
	require.NoError(t, err)
	cmd.Bytes()[0] = 'x'
	assert.Equal(t, "ls", text)
}
