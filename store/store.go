// Package store defines the persistence layer for identities and message envelopes.
//
// A Store holds two collections: an identity table keyed by username, whose records are never
// modified once written, and an append-only set of envelopes. Implementations live in the
// dirstore (JSON files in a directory) and boltstore (a single bbolt database) packages.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
)

var (
	// ErrNotFound is returned when no identity exists for a username.
	ErrNotFound = errors.New("store: not found")

	// ErrExists is returned when adding an identity for a username which is already registered.
	ErrExists = errors.New("store: already exists")

	// ErrIO is wrapped by errors from the underlying storage medium.
	ErrIO = errors.New("store: i/o error")
)

// Store persists identities and envelopes. Implementations are safe for use by multiple
// goroutines within a single process.
type Store interface {
	// Identity returns the record for the given username, or ErrNotFound.
	Identity(username string) (*Record, error)

	// AddIdentity stores a new record for the given username, or returns ErrExists.
	AddIdentity(username string, r *Record) error

	// PutEnvelope durably stores the envelope and returns its id.
	PutEnvelope(e *Envelope) (string, error)

	// Envelopes returns every stored envelope in a stable order.
	Envelopes() ([]*Envelope, error)

	// Close releases the store's resources.
	Close() error
}

// Point is an affine curve point as its x and y coordinates.
type Point [2]*big.Int

// Record is the persisted form of an identity: two public keys and the password-wrapped private
// keys, hex-encoded.
type Record struct {
	SignaturePublic     Point  `json:"dsa_public"`
	ExchangePublic      Point  `json:"ecdh_public"`
	WrappedSignatureKey string `json:"enc_dsa_priv"`
	WrappedExchangeKey  string `json:"enc_ecdh_priv"`
}

// Signature is a stored signature as its r and s components.
//
// Decoding from JSON never fails: any value which is not an array of exactly two integers decodes
// as a Signature with nil components, so the envelope carrying it is still delivered and fails
// verification.
type Signature [2]*big.Int

// UnmarshalJSON implements json.Unmarshaler.
func (s *Signature) UnmarshalJSON(b []byte) error {
	*s = Signature{}

	var parts []*big.Int
	if err := json.Unmarshal(b, &parts); err != nil || len(parts) != len(s) {
		return nil //nolint:nilerr // malformed signatures are reported by verification
	}

	s[0], s[1] = parts[0], parts[1]

	return nil
}

// Envelope is a stored message: an encrypted, signed payload from a sender to a recipient.
type Envelope struct {
	ID         string    `json:"-"`
	Sender     string    `json:"sender"`
	Recipient  string    `json:"recipient"`
	Timestamp  int64     `json:"timestamp"`
	IV         string    `json:"iv"`
	Ciphertext string    `json:"ciphertext"`
	Signature  Signature `json:"signature"`
}

// UnmarshalJSON implements json.Unmarshaler. Timestamps are accepted as integers or as fractional
// seconds, which are truncated.
func (e *Envelope) UnmarshalJSON(b []byte) error {
	type envelope Envelope

	aux := struct {
		*envelope
		Timestamp json.Number `json:"timestamp"`
	}{envelope: (*envelope)(e)}

	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}

	ts, err := parseTimestamp(aux.Timestamp)
	if err != nil {
		return err
	}

	e.Timestamp = ts

	return nil
}

func parseTimestamp(n json.Number) (int64, error) {
	if n == "" {
		return 0, nil
	}

	if i, err := n.Int64(); err == nil {
		return i, nil
	}

	f, err := n.Float64()
	if err != nil {
		return 0, fmt.Errorf("store: invalid timestamp %q: %w", n, err)
	}

	return int64(f), nil
}
