// Package sjis is the text-encoding collaborator for this module: a
// thin wrapper converting between Shift-JIS (the encoding used by the
// .bin header's string fields in the Gamecube edition) and UTF-8. The
// core packages never call this package directly — validation treats
// string fields as opaque NUL-padded byte arrays — but callers building
// a human-readable report use it to render those fields.
package sjis

import (
	"bytes"

	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/transform"
)

// ToUTF8 decodes a Shift-JIS byte slice (as found in a raw .bin string
// field) to a UTF-8 string. Trailing NUL padding is trimmed first.
func ToUTF8(sjis []byte) (string, error) {
	trimmed := Trim(sjis)
	if len(trimmed) == 0 {
		return "", nil
	}
	out, _, err := transform.Bytes(japanese.ShiftJIS.NewDecoder(), trimmed)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// FromUTF8 encodes a UTF-8 string to Shift-JIS bytes.
func FromUTF8(s string) ([]byte, error) {
	out, _, err := transform.Bytes(japanese.ShiftJIS.NewEncoder(), []byte(s))
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Trim returns the prefix of b up to (not including) the first NUL
// byte, or all of b if it contains no NUL. String fields in the .bin
// header are bounded by whichever comes first: a NUL byte or the fixed
// field width.
func Trim(b []byte) []byte {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		return b[:i]
	}
	return b
}

// PutFixed copies s (already Shift-JIS encoded) into dst, which must be
// a fixed-width field; s is truncated if it would overflow, and any
// remaining bytes in dst are zeroed.
func PutFixed(dst []byte, s []byte) {
	for i := range dst {
		dst[i] = 0
	}
	n := copy(dst, s)
	_ = n
}
