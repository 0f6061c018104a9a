// Package ecdsa implements ECDSA signatures over secp256k1.
//
// Signatures are computed over the SHA-256 digest of the message, reduced modulo the group order.
// Each signature draws a fresh nonce from the supplied random source.
package ecdsa

import (
	"io"
	"math/big"

	"github.com/codahale/courier/internal/digest"
	"github.com/codahale/courier/internal/ec"
)

// PrivateKey is an ECDSA private scalar and its public point.
type PrivateKey struct {
	D         *big.Int
	PublicKey *ec.Point
}

// Signature is an ECDSA signature.
type Signature struct {
	R, S *big.Int
}

// GenerateKey returns a new random key pair.
func GenerateKey(r io.Reader) (*PrivateKey, error) {
	d, q, err := ec.GenerateKey(r)
	if err != nil {
		return nil, err
	}

	return &PrivateKey{D: d, PublicKey: q}, nil
}

// Sign returns a signature of msg using the private scalar d.
func Sign(r io.Reader, d *big.Int, msg []byte) (*Signature, error) {
	z := hashToInt(msg)

	for {
		k, err := ec.RandomScalar(r)
		if err != nil {
			return nil, err
		}

		p := ec.ScalarBaseMult(k)
		if p.IsInfinity() {
			continue
		}

		rr := new(big.Int).Mod(p.X, ec.N)
		if rr.Sign() == 0 {
			continue
		}

		// s = k⁻¹(z + r·d) mod n
		s := new(big.Int).Mul(rr, d)
		s.Add(s, z)
		s.Mul(s, ec.Inverse(k, ec.N))
		s.Mod(s, ec.N)

		if s.Sign() == 0 {
			continue
		}

		return &Signature{R: rr, S: s}, nil
	}
}

// Verify returns true if sig is a valid signature of msg by the holder of the private key for q.
func Verify(q *ec.Point, msg []byte, sig *Signature) bool {
	if sig == nil || !ec.IsValidScalar(sig.R) || !ec.IsValidScalar(sig.S) {
		return false
	}

	if q.IsInfinity() || !ec.IsOnCurve(q) {
		return false
	}

	z := hashToInt(msg)
	w := ec.Inverse(sig.S, ec.N)

	u1 := new(big.Int).Mul(z, w)
	u1.Mod(u1, ec.N)

	u2 := new(big.Int).Mul(sig.R, w)
	u2.Mod(u2, ec.N)

	p := ec.Add(ec.ScalarBaseMult(u1), ec.ScalarMult(u2, q))
	if p.IsInfinity() {
		return false
	}

	return new(big.Int).Mod(p.X, ec.N).Cmp(sig.R) == 0
}

func hashToInt(msg []byte) *big.Int {
	z := digest.Int(msg)

	return z.Mod(z, ec.N)
}
