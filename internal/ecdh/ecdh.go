// Package ecdh provides elliptic curve Diffie-Hellman key agreement over secp256k1.
//
// Each identity holds an ECDH key pair separate from its signing key pair. Two parties derive the
// same symmetric key by multiplying their own private scalar by the other's public point and
// hashing the x-coordinate of the result.
package ecdh

import (
	"errors"
	"io"
	"math/big"

	"github.com/codahale/courier/internal/digest"
	"github.com/codahale/courier/internal/ec"
)

var (
	// ErrInvalidPublicKey is returned when the peer's public key is the point at infinity or is not
	// on the curve.
	ErrInvalidPublicKey = errors.New("ecdh: invalid public key")

	// ErrInvalidPrivateKey is returned when a private scalar is missing or outside [1, n-1].
	ErrInvalidPrivateKey = errors.New("ecdh: invalid private key")

	// ErrDegenerateSecret is returned when the shared point is the point at infinity.
	ErrDegenerateSecret = errors.New("ecdh: degenerate shared secret")
)

// PrivateKey is an ECDH private scalar and its public point.
type PrivateKey struct {
	D         *big.Int
	PublicKey *ec.Point
}

// GenerateKey returns a new random key pair.
func GenerateKey(r io.Reader) (*PrivateKey, error) {
	d, q, err := ec.GenerateKey(r)
	if err != nil {
		return nil, err
	}

	return &PrivateKey{D: d, PublicKey: q}, nil
}

// SharedKey returns the 32-byte symmetric key shared between the holder of d and the holder of
// the private key for q.
func SharedKey(d *big.Int, q *ec.Point) ([]byte, error) {
	if q.IsInfinity() || !ec.IsOnCurve(q) {
		return nil, ErrInvalidPublicKey
	}

	if !ec.IsValidScalar(d) {
		return nil, ErrInvalidPrivateKey
	}

	s := ec.ScalarMult(d, q)
	if s.IsInfinity() {
		return nil, ErrDegenerateSecret
	}

	return digest.DeriveKey(s.X), nil
}
