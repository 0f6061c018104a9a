package courier

import (
	"encoding"
	"fmt"
	"math/big"

	"github.com/codahale/courier/internal/ec"
	"github.com/codahale/courier/store"
	"github.com/mr-tron/base58"
)

// PublicKey is a secp256k1 public key.
//
// It can be marshalled and unmarshalled as a base58 string for human consumption.
type PublicKey struct {
	q *ec.Point
}

// Equal returns true if both keys are the same point.
func (pk *PublicKey) Equal(other *PublicKey) bool {
	return other != nil && pk.q.Equal(other.q)
}

// String returns the public key as base58 text.
func (pk *PublicKey) String() string {
	text, err := pk.MarshalText()
	if err != nil {
		panic(err)
	}

	return string(text)
}

// MarshalBinary encodes the public key as an uncompressed 65-byte point.
func (pk *PublicKey) MarshalBinary() ([]byte, error) {
	return pk.q.MarshalBinary()
}

// UnmarshalBinary decodes the public key from an uncompressed 65-byte point.
func (pk *PublicKey) UnmarshalBinary(data []byte) error {
	var q ec.Point
	if err := q.UnmarshalBinary(data); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPublicKey, err)
	}

	if q.IsInfinity() {
		return ErrInvalidPublicKey
	}

	pk.q = &q

	return nil
}

// MarshalText encodes the public key into base58 text and returns the result.
func (pk *PublicKey) MarshalText() ([]byte, error) {
	b, err := pk.MarshalBinary()
	if err != nil {
		return nil, err
	}

	return []byte(base58.Encode(b)), nil
}

// UnmarshalText decodes the results of MarshalText and updates the receiver to contain the decoded
// public key.
func (pk *PublicKey) UnmarshalText(text []byte) error {
	data, err := base58.Decode(string(text))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPublicKey, err)
	}

	return pk.UnmarshalBinary(data)
}

var (
	_ encoding.BinaryMarshaler   = &PublicKey{}
	_ encoding.BinaryUnmarshaler = &PublicKey{}
	_ encoding.TextMarshaler     = &PublicKey{}
	_ encoding.TextUnmarshaler   = &PublicKey{}
	_ fmt.Stringer               = &PublicKey{}
)

// PublicKeys are the two public keys of an identity.
type PublicKeys struct {
	Signature *PublicKey `json:"signature"`
	Exchange  *PublicKey `json:"exchange"`
}

// toStorePoint converts a curve point to its stored form.
func toStorePoint(q *ec.Point) store.Point {
	return store.Point{new(big.Int).Set(q.X), new(big.Int).Set(q.Y)}
}

// fromStorePoint converts a stored point to a curve point, rejecting the point at infinity and
// points which are not on the curve.
func fromStorePoint(p store.Point) (*ec.Point, error) {
	if p[0] == nil || p[1] == nil {
		return nil, ErrInvalidPublicKey
	}

	q := &ec.Point{X: new(big.Int).Set(p[0]), Y: new(big.Int).Set(p[1])}
	if !ec.IsOnCurve(q) {
		return nil, ErrInvalidPublicKey
	}

	return q, nil
}
