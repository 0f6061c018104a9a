package gost

import (
	"bytes"
	"errors"
)

// ErrInvalidPadding is returned when the trailing padding of a decrypted message is inconsistent.
var ErrInvalidPadding = errors.New("gost: invalid padding")

// Pad returns a copy of src with PKCS#7 padding appended. Between 1 and blockSize bytes are always
// added, each equal to the number of bytes added.
func Pad(src []byte, blockSize int) []byte {
	n := blockSize - len(src)%blockSize

	out := make([]byte, len(src), len(src)+n)
	copy(out, src)

	return append(out, bytes.Repeat([]byte{byte(n)}, n)...)
}

// Unpad returns src with its PKCS#7 padding removed. If the final byte is not a valid pad length or
// the padding bytes are not uniform, returns ErrInvalidPadding.
func Unpad(src []byte, blockSize int) ([]byte, error) {
	if len(src) == 0 || len(src)%blockSize != 0 {
		return nil, ErrInvalidPadding
	}

	n := int(src[len(src)-1])
	if n < 1 || n > blockSize {
		return nil, ErrInvalidPadding
	}

	for _, b := range src[len(src)-n:] {
		if int(b) != n {
			return nil, ErrInvalidPadding
		}
	}

	return src[:len(src)-n], nil
}
