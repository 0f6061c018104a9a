// Package digest provides the hash function Courier uses for message digests and key derivation.
//
// Every digest is SHA-256. Signatures are computed over the digest of a message interpreted as a
// big-endian integer, shared secrets are derived by hashing the fixed-width x-coordinate of an
// ECDH point, and private keys are wrapped under the hash of a password.
package digest

import (
	"crypto/sha256"
	"math/big"
)

const (
	Size      = sha256.Size // Size is the length of a digest in bytes.
	fieldSize = 32
)

// Sum returns the SHA-256 digest of data.
func Sum(data []byte) []byte {
	h := sha256.Sum256(data)

	return h[:]
}

// Int returns the digest of data as a big-endian integer.
func Int(data []byte) *big.Int {
	return new(big.Int).SetBytes(Sum(data))
}

// DeriveKey returns a symmetric key derived from the given field element, which is serialized to
// 32 big-endian bytes before hashing.
func DeriveKey(x *big.Int) []byte {
	return Sum(x.FillBytes(make([]byte, fieldSize)))
}

// PasswordKey returns a symmetric key derived from the UTF-8 encoding of the given password.
func PasswordKey(password string) []byte {
	return Sum([]byte(password))
}
