// Package courier implements a small store-and-forward secure messaging system.
//
// Each registered identity holds two secp256k1 key pairs: one for ECDSA signatures and one for
// ECDH key exchange. Both private keys are kept in the identity store encrypted under a key
// derived from the identity's password. To send a message, the sender derives a shared key with
// the recipient via ECDH, signs the plaintext with ECDSA, encrypts it with a GOST 28147-89 block
// cipher in CBC mode, and stores the resulting envelope. The recipient reverses the process and
// reports each message as verified or tampered.
//
// The primitives are implemented with math/big and do not run in constant time. You should not use
// this.
package courier

import (
	"encoding/hex"
	"errors"
	"strings"

	"github.com/codahale/courier/internal/digest"
	"github.com/codahale/courier/internal/ecdh"
	"github.com/codahale/courier/store"
)

var (
	// ErrDuplicateIdentity is returned when registering a username which is already registered.
	ErrDuplicateIdentity = errors.New("courier: identity already exists")

	// ErrIdentityNotFound is returned when no identity exists for a username.
	ErrIdentityNotFound = errors.New("courier: identity not found")

	// ErrAuthenticationFailed is returned when a password does not unlock an identity's keys.
	ErrAuthenticationFailed = errors.New("courier: authentication failed")

	// ErrRecipientNotFound is returned when sending a message to an unregistered username.
	ErrRecipientNotFound = errors.New("courier: recipient not found")

	// ErrInvalidPublicKey is returned when a public key is the point at infinity or not on the
	// curve.
	ErrInvalidPublicKey = ecdh.ErrInvalidPublicKey

	// ErrDegenerateSecret is returned when a key exchange produces the point at infinity.
	ErrDegenerateSecret = ecdh.ErrDegenerateSecret

	// ErrInvalidSignatureEncoding is returned when a stored signature is missing a component.
	ErrInvalidSignatureEncoding = errors.New("courier: invalid signature encoding")

	// ErrDecryptionFailed is returned when an envelope's ciphertext cannot be decoded or decrypted.
	ErrDecryptionFailed = errors.New("courier: decryption failed")

	// ErrStorage is wrapped by errors from the underlying store.
	ErrStorage = store.ErrIO

	// ErrKeyExchange is wrapped by errors deriving a shared key.
	ErrKeyExchange = errors.New("courier: key exchange failed")

	// ErrInvalidUsername is returned for usernames which are empty or contain path separators or
	// NUL bytes.
	ErrInvalidUsername = errors.New("courier: invalid username")

	// ErrSessionClosed is returned when using a Session after Logout.
	ErrSessionClosed = errors.New("courier: session closed")
)

// Recorder receives a description of each cryptographic step as it happens. Implementations must
// not retain or act on the details; they are informational only.
type Recorder interface {
	Record(title, details string)
}

// NopRecorder is a Recorder which discards everything.
type NopRecorder struct{}

// Record does nothing.
func (NopRecorder) Record(string, string) {}

// Checkpoint titles passed to a Recorder.
const (
	StepKeyGeneration = "Key Generation"
	StepKeyWrap       = "Key Wrap"
	StepSharedSecret  = "Shared Secret"
	StepSignature     = "Signature"
	StepEncryption    = "Encryption"
	StepDecryption    = "Decryption"
	StepVerification  = "Verification"
)

func validateUsername(username string) error {
	if username == "" || strings.ContainsAny(username, "/\\\x00") {
		return ErrInvalidUsername
	}

	return nil
}

// fingerprint returns a short, non-reversible tag for secret material.
func fingerprint(b []byte) string {
	return hex.EncodeToString(digest.Sum(b)[:4])
}

func orNop(rec Recorder) Recorder {
	if rec == nil {
		return NopRecorder{}
	}

	return rec
}
