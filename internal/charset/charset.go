// Package charset decodes captured process output and C strings into text.
package charset

import (
	"bytes"
	"fmt"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/transform"
)

// UTF8 is the canonical label of the default encoding.
const UTF8 = "utf-8"

// DecodeError reports bytes that are not valid in the expected encoding.
type DecodeError struct {
	Offset int // bytes decoded before the failure
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("invalid text at byte offset %d: %v", e.Offset, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Lookup resolves a WHATWG encoding label (e.g. "utf-8", "latin1",
// "shift_jis"). It returns a nil Encoding for UTF-8 and for the empty
// label: UTF-8 is validated strictly rather than decoded with
// replacement characters.
func Lookup(label string) (encoding.Encoding, error) {
	if label == "" {
		return nil, nil
	}
	enc, err := htmlindex.Get(label)
	if err != nil {
		return nil, fmt.Errorf("unknown encoding %q: %w", label, err)
	}
	if name, _ := htmlindex.Name(enc); name == UTF8 {
		return nil, nil
	}
	return enc, nil
}

// Decode converts b from the encoding named by label into a Go string.
func Decode(label string, b []byte) (string, error) {
	enc, err := Lookup(label)
	if err != nil {
		return "", err
	}
	if enc == nil {
		return validUTF8(b)
	}
	out, n, err := transform.Bytes(enc.NewDecoder(), b)
	if err != nil {
		return "", &DecodeError{Offset: n, Err: err}
	}
	return string(out), nil
}

// CString decodes a NUL-terminated UTF-8 string. Bytes after the first NUL
// are ignored; a missing terminator means the whole slice is used.
func CString(b []byte) (string, error) {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	return validUTF8(b)
}

func validUTF8(b []byte) (string, error) {
	out, n, err := transform.Bytes(encoding.UTF8Validator, b)
	if err != nil {
		return "", &DecodeError{Offset: n, Err: err}
	}
	return string(out), nil
}
