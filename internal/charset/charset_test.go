package charset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode(t *testing.T) {
	tests := []struct {
		name  string
		label string
		in    []byte
		want  string
	}{
		{name: "default label", label: "", in: []byte("hello\n"), want: "hello\n"},
		{name: "utf-8", label: "utf-8", in: []byte("héllo"), want: "héllo"},
		{name: "utf8 alias", label: "UTF8", in: []byte("ok"), want: "ok"},
		{name: "latin1", label: "latin1", in: []byte{'c', 'a', 'f', 0xe9}, want: "café"},
		{name: "empty input", label: "", in: nil, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decode(tt.label, tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecode_InvalidUTF8(t *testing.T) {
	_, err := Decode("", []byte{'o', 'k', 0xff, 0xfe})
	require.Error(t, err)

	var de *DecodeError
	require.ErrorAs(t, err, &de)
	assert.NotNil(t, de.Unwrap())
	assert.Contains(t, err.Error(), "invalid text at byte offset")
}

func TestDecode_UnknownLabel(t *testing.T) {
	_, err := Decode("klingon", []byte("x"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown encoding "klingon"`)
}

func TestLookup(t *testing.T) {
	enc, err := Lookup("utf-8")
	require.NoError(t, err)
	assert.Nil(t, enc, "utf-8 is validated, not decoded")

	enc, err = Lookup("shift_jis")
	require.NoError(t, err)
	assert.NotNil(t, enc)
}

func TestCString(t *testing.T) {
	t.Run("stops at NUL", func(t *testing.T) {
		got, err := CString([]byte("Hello\x00garbage"))
		require.NoError(t, err)
		assert.Equal(t, "Hello", got)
	})

	t.Run("unterminated", func(t *testing.T) {
		got, err := CString([]byte("Hello"))
		require.NoError(t, err)
		assert.Equal(t, "Hello", got)
	})

	t.Run("invalid before NUL", func(t *testing.T) {
		_, err := CString([]byte{0xc3, 0x28, 0})
		assert.Error(t, err)
	})

	t.Run("invalid after NUL is ignored", func(t *testing.T) {
		got, err := CString([]byte{'o', 'k', 0, 0xff})
		require.NoError(t, err)
		assert.Equal(t, "ok", got)
	})
}
