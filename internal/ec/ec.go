// Package ec provides affine point arithmetic over secp256k1.
//
// Courier uses secp256k1 for both key exchange and signatures. Points are kept in affine
// coordinates, and every inversion is a Fermat exponentiation modulo the field prime, so none of
// these operations run in constant time. They are unsuitable for use against an adversary who can
// measure timing.
package ec

import (
	"crypto/rand"
	"errors"
	"io"
	"math/big"
)

const (
	FieldSize = 32 // FieldSize is the length of an encoded field element in bytes.

	// PointSize is the length of an uncompressed SEC1 point encoding.
	PointSize = 1 + 2*FieldSize
)

//nolint:gochecknoglobals // curve constants
var (
	// P is the prime modulus of the field.
	P = mustHex("fffffffffffffffffffffffffffffffffffffffffffffffffffffffefffffc2f")

	// N is the order of the base point.
	N = mustHex("fffffffffffffffffffffffffffffffebaaedce6af48a03bbfd25e8cd0364141")

	// A and B are the coefficients of y² = x³ + ax + b.
	A = big.NewInt(0)
	B = big.NewInt(7)

	gx = mustHex("79be667ef9dcbbac55a06295ce870b07029bfcdb2dce28d959f2815b16f81798")
	gy = mustHex("483ada7726a3c4655da4fbfc0e1108a8fd17b448a68554199c47d08ffb10d4b8")


	two   = big.NewInt(2)
	three = big.NewInt(3)
)

var (
	// ErrNotOnCurve is returned when decoding a point which does not satisfy the curve equation.
	ErrNotOnCurve = errors.New("ec: point is not on the curve")

	// ErrInvalidEncoding is returned when decoding a malformed point.
	ErrInvalidEncoding = errors.New("ec: invalid point encoding")
)

// Point is an affine point on the curve. A point with nil coordinates, as well as a nil *Point,
// is the point at infinity.
type Point struct {
	X, Y *big.Int
}

// G returns the base point.
func G() *Point {
	return &Point{X: new(big.Int).Set(gx), Y: new(big.Int).Set(gy)}
}

// Infinity returns a new point at infinity, the identity of the group.
func Infinity() *Point {
	return &Point{}
}

// IsInfinity returns true if the receiver is the point at infinity.
func (p *Point) IsInfinity() bool {
	return p == nil || p.X == nil || p.Y == nil
}

// Equal returns true if both points are the same.
func (p *Point) Equal(q *Point) bool {
	if p.IsInfinity() || q.IsInfinity() {
		return p.IsInfinity() == q.IsInfinity()
	}

	return p.X.Cmp(q.X) == 0 && p.Y.Cmp(q.Y) == 0
}

// MarshalBinary encodes the point in uncompressed SEC1 form. The point at infinity is encoded as
// a single zero byte.
func (p *Point) MarshalBinary() ([]byte, error) {
	if p.IsInfinity() {
		return []byte{0}, nil
	}

	b := make([]byte, PointSize)
	b[0] = 4
	p.X.FillBytes(b[1 : 1+FieldSize])
	p.Y.FillBytes(b[1+FieldSize:])

	return b, nil
}

// UnmarshalBinary decodes a point from its uncompressed SEC1 form, rejecting points which are not
// on the curve.
func (p *Point) UnmarshalBinary(data []byte) error {
	if len(data) == 1 && data[0] == 0 {
		p.X, p.Y = nil, nil

		return nil
	}

	if len(data) != PointSize || data[0] != 4 {
		return ErrInvalidEncoding
	}

	q := &Point{
		X: new(big.Int).SetBytes(data[1 : 1+FieldSize]),
		Y: new(big.Int).SetBytes(data[1+FieldSize:]),
	}
	if !IsOnCurve(q) {
		return ErrNotOnCurve
	}

	*p = *q

	return nil
}

// IsOnCurve returns true if p satisfies y² ≡ x³ + ax + b (mod P). The point at infinity is always
// on the curve.
func IsOnCurve(p *Point) bool {
	if p.IsInfinity() {
		return true
	}

	if p.X.Sign() < 0 || p.X.Cmp(P) >= 0 || p.Y.Sign() < 0 || p.Y.Cmp(P) >= 0 {
		return false
	}

	lhs := new(big.Int).Mul(p.Y, p.Y)
	lhs.Mod(lhs, P)

	rhs := new(big.Int).Exp(p.X, three, P)
	rhs.Add(rhs, new(big.Int).Mul(A, p.X))
	rhs.Add(rhs, B)
	rhs.Mod(rhs, P)

	return lhs.Cmp(rhs) == 0
}

// Add returns p + q as a new point.
func Add(p, q *Point) *Point {
	if p.IsInfinity() {
		return q.clone()
	}

	if q.IsInfinity() {
		return p.clone()
	}

	// p + -p = ∞
	if p.X.Cmp(q.X) == 0 {
		sum := new(big.Int).Add(p.Y, q.Y)
		if sum.Mod(sum, P).Sign() == 0 {
			return Infinity()
		}
	}

	var slope *big.Int

	if p.Equal(q) {
		// (3x² + a) / 2y
		num := new(big.Int).Mul(p.X, p.X)
		num.Mul(num, three)
		num.Add(num, A)

		den := new(big.Int).Mul(two, p.Y)

		slope = num.Mul(num, Inverse(den.Mod(den, P), P))
	} else {
		// (y₂ - y₁) / (x₂ - x₁)
		num := new(big.Int).Sub(q.Y, p.Y)
		den := new(big.Int).Sub(q.X, p.X)

		slope = num.Mul(num, Inverse(den.Mod(den, P), P))
	}

	slope.Mod(slope, P)

	// x₃ = slope² - x₁ - x₂
	x := new(big.Int).Mul(slope, slope)
	x.Sub(x, p.X)
	x.Sub(x, q.X)
	x.Mod(x, P)

	// y₃ = slope(x₁ - x₃) - y₁
	y := new(big.Int).Sub(p.X, x)
	y.Mul(y, slope)
	y.Sub(y, p.Y)
	y.Mod(y, P)

	return &Point{X: x, Y: y}
}

// ScalarMult returns k·p using double-and-add. Its running time depends on the bit length of k.
func ScalarMult(k *big.Int, p *Point) *Point {
	if p.IsInfinity() || k == nil || new(big.Int).Mod(k, N).Sign() == 0 {
		return Infinity()
	}

	// Negative scalars multiply the negated point.
	if k.Sign() < 0 {
		k = new(big.Int).Neg(k)
		p = &Point{X: p.X, Y: new(big.Int).Sub(P, p.Y)}
	}

	acc := Infinity()
	addend := p

	for i := 0; i < k.BitLen(); i++ {
		if k.Bit(i) == 1 {
			acc = Add(acc, addend)
		}

		addend = Add(addend, addend)
	}

	return acc
}

func (p *Point) clone() *Point {
	if p.IsInfinity() {
		return Infinity()
	}

	return &Point{X: new(big.Int).Set(p.X), Y: new(big.Int).Set(p.Y)}
}

// ScalarBaseMult returns k·G.
func ScalarBaseMult(k *big.Int) *Point {
	return ScalarMult(k, G())
}

// Inverse returns a⁻¹ mod m for a prime modulus m, computed as a^(m-2) mod m.
func Inverse(a, m *big.Int) *big.Int {
	return new(big.Int).Exp(a, new(big.Int).Sub(m, two), m)
}

// RandomScalar returns a scalar selected uniformly from [1, N-1].
func RandomScalar(r io.Reader) (*big.Int, error) {
	k, err := rand.Int(r, new(big.Int).Sub(N, big.NewInt(1)))
	if err != nil {
		return nil, err
	}

	return k.Add(k, big.NewInt(1)), nil
}

// IsValidScalar returns true if k is in [1, N-1].
func IsValidScalar(k *big.Int) bool {
	return k != nil && k.Sign() > 0 && k.Cmp(N) < 0
}

// GenerateKey returns a new random private scalar and its public point.
func GenerateKey(r io.Reader) (*big.Int, *Point, error) {
	d, err := RandomScalar(r)
	if err != nil {
		return nil, nil, err
	}

	q := ScalarBaseMult(d)
	if q.IsInfinity() || !IsOnCurve(q) {
		return nil, nil, errors.New("ec: generated public key is not a valid curve point")
	}

	return d, q, nil
}

func mustHex(s string) *big.Int {
	n, ok := new(big.Int).SetString(s, 16)
	if !ok {
		panic("ec: invalid constant " + s)
	}

	return n
}
