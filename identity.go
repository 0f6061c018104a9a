package courier

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"

	"github.com/codahale/courier/internal/ecdh"
	"github.com/codahale/courier/internal/ecdsa"
	"github.com/codahale/courier/store"
)

// Identities registers and authenticates identities.
type Identities struct {
	store store.Store
	rec   Recorder
}

// NewIdentities returns an Identities backed by s. If rec is nil, nothing is recorded.
func NewIdentities(s store.Store, rec Recorder) *Identities {
	return &Identities{store: s, rec: orNop(rec)}
}

// Register creates a new identity with fresh signing and key exchange key pairs, wraps both private
// keys under the password, and stores the result.
func (ids *Identities) Register(username, password string) error {
	if err := validateUsername(username); err != nil {
		return err
	}

	if _, err := ids.store.Identity(username); err == nil {
		return ErrDuplicateIdentity
	} else if !errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("courier: looking up %q: %w", username, err)
	}

	// Generate independent key pairs for signing and key exchange.
	sig, err := ecdsa.GenerateKey(rand.Reader)
	if err != nil {
		return err
	}

	exc, err := ecdh.GenerateKey(rand.Reader)
	if err != nil {
		return err
	}

	sigPub, excPub := &PublicKey{q: sig.PublicKey}, &PublicKey{q: exc.PublicKey}
	ids.rec.Record(StepKeyGeneration,
		fmt.Sprintf("%s: signature key %s, exchange key %s", username, sigPub, excPub))

	// Wrap both private keys under the password.
	wrappedSig, err := wrapKey(password, sig.D)
	if err != nil {
		return err
	}

	wrappedExc, err := wrapKey(password, exc.D)
	if err != nil {
		return err
	}

	ids.rec.Record(StepKeyWrap, fmt.Sprintf("%s: wrapped %d and %d hex digits of key material",
		username, len(wrappedSig), len(wrappedExc)))

	r := &store.Record{
		SignaturePublic:     toStorePoint(sig.PublicKey),
		ExchangePublic:      toStorePoint(exc.PublicKey),
		WrappedSignatureKey: wrappedSig,
		WrappedExchangeKey:  wrappedExc,
	}

	if err := ids.store.AddIdentity(username, r); errors.Is(err, store.ErrExists) {
		return ErrDuplicateIdentity
	} else if err != nil {
		return fmt.Errorf("courier: storing %q: %w", username, err)
	}

	return nil
}

// Login unwraps the identity's private keys with the password and returns a Session holding them.
// A wrong password returns ErrAuthenticationFailed.
func (ids *Identities) Login(username, password string) (*Session, error) {
	r, err := ids.record(username)
	if err != nil {
		return nil, err
	}

	sigPub, err := fromStorePoint(r.SignaturePublic)
	if err != nil {
		return nil, ErrAuthenticationFailed
	}

	excPub, err := fromStorePoint(r.ExchangePublic)
	if err != nil {
		return nil, ErrAuthenticationFailed
	}

	sigD, err := unwrapKey(password, r.WrappedSignatureKey, sigPub)
	if err != nil {
		return nil, err
	}

	excD, err := unwrapKey(password, r.WrappedExchangeKey, excPub)
	if err != nil {
		return nil, err
	}

	return &Session{
		Username:  username,
		signature: &ecdsa.PrivateKey{D: sigD, PublicKey: sigPub},
		exchange:  &ecdh.PrivateKey{D: excD, PublicKey: excPub},
	}, nil
}

// PublicKeys returns the public keys of the given identity.
func (ids *Identities) PublicKeys(username string) (*PublicKeys, error) {
	r, err := ids.record(username)
	if err != nil {
		return nil, err
	}

	sigPub, err := fromStorePoint(r.SignaturePublic)
	if err != nil {
		return nil, err
	}

	excPub, err := fromStorePoint(r.ExchangePublic)
	if err != nil {
		return nil, err
	}

	return &PublicKeys{Signature: &PublicKey{q: sigPub}, Exchange: &PublicKey{q: excPub}}, nil
}

func (ids *Identities) record(username string) (*store.Record, error) {
	if err := validateUsername(username); err != nil {
		return nil, err
	}

	r, err := ids.store.Identity(username)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrIdentityNotFound
	} else if err != nil {
		return nil, fmt.Errorf("courier: looking up %q: %w", username, err)
	}

	return r, nil
}

// Session is an authenticated identity holding its unwrapped private keys.
type Session struct {
	Username string

	signature *ecdsa.PrivateKey
	exchange  *ecdh.PrivateKey
}

// PublicKeys returns the session identity's public keys.
func (s *Session) PublicKeys() *PublicKeys {
	if !s.active() {
		return nil
	}

	return &PublicKeys{
		Signature: &PublicKey{q: s.signature.PublicKey},
		Exchange:  &PublicKey{q: s.exchange.PublicKey},
	}
}

// Logout zeroes the session's private keys. The session cannot be used afterwards.
func (s *Session) Logout() {
	if s.signature != nil {
		zero(s.signature.D)
		s.signature = nil
	}

	if s.exchange != nil {
		zero(s.exchange.D)
		s.exchange = nil
	}
}

func (s *Session) active() bool {
	return s != nil && s.signature != nil && s.exchange != nil
}

func zero(n *big.Int) {
	if n == nil {
		return
	}

	words := n.Bits()
	for i := range words {
		words[i] = 0
	}

	n.SetInt64(0)
}
