// Package dsa implements classic finite-field DSA signatures.
//
// This is an alternative signing key family to the elliptic curve signatures in package ecdsa. It
// has the same algebraic shape, with modular exponentiation in a prime-order subgroup of Z*ₚ in
// place of scalar multiplication. Messages are hashed with SHA-256 and reduced modulo Q.
package dsa

import (
	"crypto/rand"
	"errors"
	"io"
	"math/big"

	"github.com/codahale/courier/internal/digest"
)

const (
	pBits = 2048
	qBits = 256

	primalityRounds = 32
)

// ErrInvalidParameters is returned when a set of domain parameters fails validation.
var ErrInvalidParameters = errors.New("dsa: invalid domain parameters")

// Parameters are the domain parameters of a DSA group.
type Parameters struct {
	P, Q, G *big.Int
}

//nolint:gochecknoglobals // fixed group
var (
	// DefaultParameters is a fixed 2048-bit group with a 256-bit subgroup.
	DefaultParameters = &Parameters{
		P: mustHex("ceeccbb60762cfe0d72f39b0c74d2bdc11e9870a5a72248c4d33128025d5d6798a0f2f4e" +
			"594eb6687e07e90d91bb7c0a2963bd831df5978e84eb218bfdda91356951e96e3d4f20e21fcd37fe1b8" +
			"a6712a33f63083c3db6169dba3a5cff242cd784ee53405eea313187c1593882652530df48a18f3f95e8" +
			"1f469af6c4e35bdda4e9dc085f3dfe16e5ba10b2ef41e1279b0563027b1f339b757c644633aff29d1c0" +
			"bc6e3ec4485443dc8db2b7808776126d903ce0592c70a676a117d082780072727a8143f2ee74809210d" +
			"7f0819cf1e0e03c916a574c9f330a6c964d38c7397d7d860d1ffb12ac48029c1b4c5b2807718b1480ab" +
			"d4e8cf17beef20584cad7fa6b"),
		Q: mustHex("a41c7b0f3603ed6b503895555573275baac4c1373278deed79556f348f4f180f"),
		G: mustHex("506b7392062e18a3550c0c36b61a868fb6a87c28f6ffc187698f6c09d840312203cfafe0" +
			"b2e09af2a2304194f72eb150ed8aea3057960bbbdabf4d170739a3ae4cf7c479ee63d5fbc7886dd6f4bf" +
			"f69607b1891a660b8aad05de03e88fbdfcc130557cba39036efbcbdc9096761809fc1a97712a93a9282" +
			"751577622c454c430a20c2238737115ef18071fd8c321ae2874076a58c3f29ed9c654dbacc50292edaa" +
			"71d16de57ab12c616fec666749b545f17694aab1498e787ae85c8a3808862b92c5cd2dc5203b6551397" +
			"852484444c38afd52a66b2c1afdf152e2acefd27dd66da2b878f2d19596bd21b1258e9a83cbaa20cb52" +
			"86ec877c8a9f98327fefe4e6"),
	}

	one = big.NewInt(1)
)

// Validate checks that the parameters describe a prime-order subgroup of Z*ₚ of the expected
// sizes, returning ErrInvalidParameters if not.
func (params *Parameters) Validate() error {
	if params == nil || params.P == nil || params.Q == nil || params.G == nil {
		return ErrInvalidParameters
	}

	if params.P.BitLen() != pBits || params.Q.BitLen() != qBits {
		return ErrInvalidParameters
	}

	if !params.P.ProbablyPrime(primalityRounds) || !params.Q.ProbablyPrime(primalityRounds) {
		return ErrInvalidParameters
	}

	// q | p-1
	pm1 := new(big.Int).Sub(params.P, one)
	if new(big.Int).Mod(pm1, params.Q).Sign() != 0 {
		return ErrInvalidParameters
	}

	// 1 < g < p
	if params.G.Cmp(one) <= 0 || params.G.Cmp(params.P) >= 0 {
		return ErrInvalidParameters
	}

	// g^q ≡ 1 (mod p)
	if new(big.Int).Exp(params.G, params.Q, params.P).Cmp(one) != 0 {
		return ErrInvalidParameters
	}

	return nil
}

// PublicKey is a DSA public key.
type PublicKey struct {
	*Parameters
	Y *big.Int
}

// PrivateKey is a DSA private key.
type PrivateKey struct {
	PublicKey
	X *big.Int
}

// Signature is a DSA signature.
type Signature struct {
	R, S *big.Int
}

// GenerateKey returns a new random key pair in the given group.
func GenerateKey(r io.Reader, params *Parameters) (*PrivateKey, error) {
	x, err := randomExponent(r, params.Q)
	if err != nil {
		return nil, err
	}

	return &PrivateKey{
		PublicKey: PublicKey{
			Parameters: params,
			Y:          new(big.Int).Exp(params.G, x, params.P),
		},
		X: x,
	}, nil
}

// Sign returns a signature of msg using the given private key.
func Sign(r io.Reader, key *PrivateKey, msg []byte) (*Signature, error) {
	params := key.Parameters
	z := hashToInt(msg, params.Q)

	for {
		k, err := randomExponent(r, params.Q)
		if err != nil {
			return nil, err
		}

		// r = (g^k mod p) mod q
		rr := new(big.Int).Exp(params.G, k, params.P)
		rr.Mod(rr, params.Q)

		if rr.Sign() == 0 {
			continue
		}

		// s = k⁻¹(z + r·x) mod q
		s := new(big.Int).Mul(rr, key.X)
		s.Add(s, z)
		s.Mul(s, new(big.Int).ModInverse(k, params.Q))
		s.Mod(s, params.Q)

		if s.Sign() == 0 {
			continue
		}

		return &Signature{R: rr, S: s}, nil
	}
}

// Verify returns true if sig is a valid signature of msg by the holder of the private key for pub.
func Verify(pub *PublicKey, msg []byte, sig *Signature) bool {
	if pub == nil || pub.Parameters == nil || pub.Y == nil || sig == nil || sig.R == nil || sig.S == nil {
		return false
	}

	params := pub.Parameters

	if !inRange(sig.R, params.Q) || !inRange(sig.S, params.Q) {
		return false
	}

	// 1 < y < p and y^q ≡ 1 (mod p)
	if pub.Y.Cmp(one) <= 0 || pub.Y.Cmp(params.P) >= 0 {
		return false
	}

	if new(big.Int).Exp(pub.Y, params.Q, params.P).Cmp(one) != 0 {
		return false
	}

	z := hashToInt(msg, params.Q)

	w := new(big.Int).ModInverse(sig.S, params.Q)
	if w == nil {
		return false
	}

	u1 := new(big.Int).Mul(z, w)
	u1.Mod(u1, params.Q)

	u2 := new(big.Int).Mul(sig.R, w)
	u2.Mod(u2, params.Q)

	// v = (g^u1 · y^u2 mod p) mod q
	v := new(big.Int).Exp(params.G, u1, params.P)
	v.Mul(v, new(big.Int).Exp(pub.Y, u2, params.P))
	v.Mod(v, params.P)
	v.Mod(v, params.Q)

	return v.Cmp(sig.R) == 0
}

// randomExponent returns an integer selected uniformly from [1, q-1].
func randomExponent(r io.Reader, q *big.Int) (*big.Int, error) {
	k, err := rand.Int(r, new(big.Int).Sub(q, one))
	if err != nil {
		return nil, err
	}

	return k.Add(k, one), nil
}

func inRange(n, q *big.Int) bool {
	return n.Sign() > 0 && n.Cmp(q) < 0
}

func hashToInt(msg []byte, q *big.Int) *big.Int {
	z := digest.Int(msg)

	return z.Mod(z, q)
}

func mustHex(s string) *big.Int {
	n, ok := new(big.Int).SetString(s, 16)
	if !ok {
		panic("dsa: invalid constant " + s)
	}

	return n
}
