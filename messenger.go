package courier

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"sort"
	"time"
	"unicode/utf8"

	"github.com/codahale/courier/internal/ec"
	"github.com/codahale/courier/internal/ecdh"
	"github.com/codahale/courier/internal/ecdsa"
	"github.com/codahale/courier/internal/gost"
	"github.com/codahale/courier/store"
)

// Status is the outcome of verifying a received message's signature.
type Status int

const (
	// Unverified is the status of an entry which could not be decrypted.
	Unverified Status = iota

	// Verified means the signature matches the sender's public key and the decrypted content.
	Verified

	// Tampered means the signature is malformed or does not match.
	Tampered
)

func (s Status) String() string {
	switch s {
	case Verified:
		return "Verified"
	case Tampered:
		return "Tampered"
	default:
		return "Unverified"
	}
}

// InboxEntry is a single received message. If Err is non-nil, the message could not be decrypted
// and only ID, Sender, and Timestamp are set.
type InboxEntry struct {
	ID        string
	Sender    string
	Timestamp time.Time
	Content   string
	Status    Status
	Err       error
}

// Messenger sends and receives messages between registered identities.
type Messenger struct {
	ids   *Identities
	store store.Store
	rec   Recorder
}

// NewMessenger returns a Messenger which resolves identities with ids and stores envelopes in s. If
// rec is nil, nothing is recorded.
func NewMessenger(ids *Identities, s store.Store, rec Recorder) *Messenger {
	return &Messenger{ids: ids, store: s, rec: orNop(rec)}
}

// Send signs and encrypts plaintext from the session's identity to recipient and stores the
// resulting envelope. Nothing is stored if any step fails.
func (m *Messenger) Send(session *Session, recipient, plaintext string) error {
	if !session.active() {
		return ErrSessionClosed
	}

	// Resolve the recipient.
	r, err := m.ids.record(recipient)
	if errors.Is(err, ErrIdentityNotFound) || errors.Is(err, ErrInvalidUsername) {
		return ErrRecipientNotFound
	} else if err != nil {
		return err
	}

	// Derive the shared key from the sender's private key and the recipient's public key.
	key, err := m.sharedKey(session, r)
	if err != nil {
		return err
	}

	m.rec.Record(StepSharedSecret, fmt.Sprintf("%s → %s: key %s", session.Username, recipient,
		fingerprint(key)))

	// Sign the plaintext with the sender's signature key.
	msg := []byte(plaintext)

	sig, err := ecdsa.Sign(rand.Reader, session.signature.D, msg)
	if err != nil {
		return err
	}

	m.rec.Record(StepSignature, fmt.Sprintf("r=%s s=%s", sig.R.Text(16), sig.S.Text(16)))

	// Encrypt the plaintext with a fresh IV.
	iv := make([]byte, gost.BlockSize)
	if _, err := rand.Read(iv); err != nil {
		return err
	}

	ciphertext, err := gost.EncryptCBC(key, iv, msg)
	if err != nil {
		return err
	}

	m.rec.Record(StepEncryption, fmt.Sprintf("iv=%x, %d bytes of ciphertext", iv, len(ciphertext)))

	// Store the envelope.
	if _, err := m.store.PutEnvelope(&store.Envelope{
		Sender:     session.Username,
		Recipient:  recipient,
		Timestamp:  time.Now().Unix(),
		IV:         hex.EncodeToString(iv),
		Ciphertext: hex.EncodeToString(ciphertext),
		Signature:  store.Signature{sig.R, sig.S},
	}); err != nil {
		return fmt.Errorf("courier: storing envelope: %w", err)
	}

	return nil
}

// CheckInbox decrypts and verifies every stored message addressed to the session's identity,
// oldest first. Messages which cannot be decrypted are returned as entries with Err set; only a
// failure to read the store returns an error.
func (m *Messenger) CheckInbox(session *Session) ([]InboxEntry, error) {
	if !session.active() {
		return nil, ErrSessionClosed
	}

	envelopes, err := m.store.Envelopes()
	if err != nil {
		return nil, fmt.Errorf("courier: reading envelopes: %w", err)
	}

	inbox := make([]*store.Envelope, 0, len(envelopes))

	for _, e := range envelopes {
		if e.Recipient == session.Username {
			inbox = append(inbox, e)
		}
	}

	sort.SliceStable(inbox, func(i, j int) bool {
		if inbox[i].Timestamp != inbox[j].Timestamp {
			return inbox[i].Timestamp < inbox[j].Timestamp
		}

		return inbox[i].ID < inbox[j].ID
	})

	entries := make([]InboxEntry, 0, len(inbox))
	for _, e := range inbox {
		entries = append(entries, m.open(session, e))
	}

	return entries, nil
}

// open decrypts and verifies a single envelope.
func (m *Messenger) open(session *Session, e *store.Envelope) InboxEntry {
	entry := InboxEntry{
		ID:        e.ID,
		Sender:    e.Sender,
		Timestamp: time.Unix(e.Timestamp, 0),
	}

	// Resolve the sender.
	r, err := m.ids.record(e.Sender)
	if errors.Is(err, ErrIdentityNotFound) || errors.Is(err, ErrInvalidUsername) {
		entry.Err = fmt.Errorf("%w: unknown sender %q", ErrIdentityNotFound, e.Sender)

		return entry
	} else if err != nil {
		entry.Err = err

		return entry
	}

	// Derive the shared key from the recipient's private key and the sender's public key.
	key, err := m.sharedKey(session, r)
	if err != nil {
		entry.Err = err

		return entry
	}

	m.rec.Record(StepSharedSecret, fmt.Sprintf("%s ← %s: key %s", session.Username, e.Sender,
		fingerprint(key)))

	// Decrypt the ciphertext.
	plaintext, err := decrypt(key, e)
	if err != nil {
		entry.Err = err

		return entry
	}

	m.rec.Record(StepDecryption, fmt.Sprintf("%s: %d bytes of plaintext", e.ID, len(plaintext)))

	entry.Content = string(plaintext)
	entry.Status = Tampered

	// Verify the signature against the decrypted plaintext.
	if verify(r, plaintext, e.Signature) {
		entry.Status = Verified
	}

	m.rec.Record(StepVerification, fmt.Sprintf("%s from %s: %s", e.ID, e.Sender, entry.Status))

	return entry
}

func (m *Messenger) sharedKey(session *Session, r *store.Record) ([]byte, error) {
	q, err := fromStorePoint(r.ExchangePublic)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrKeyExchange, err)
	}

	key, err := ecdh.SharedKey(session.exchange.D, q)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrKeyExchange, err)
	}

	return key, nil
}

func decrypt(key []byte, e *store.Envelope) ([]byte, error) {
	iv, err := hex.DecodeString(e.IV)
	if err != nil {
		return nil, fmt.Errorf("%w: iv: %v", ErrDecryptionFailed, err)
	}

	ciphertext, err := hex.DecodeString(e.Ciphertext)
	if err != nil {
		return nil, fmt.Errorf("%w: ciphertext: %v", ErrDecryptionFailed, err)
	}

	plaintext, err := gost.DecryptCBC(key, iv, ciphertext)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecryptionFailed, err)
	}

	if !utf8.Valid(plaintext) {
		return nil, fmt.Errorf("%w: plaintext is not UTF-8", ErrDecryptionFailed)
	}

	return plaintext, nil
}

func verify(r *store.Record, msg []byte, sig store.Signature) bool {
	s, err := decodeSignature(sig)
	if err != nil {
		return false
	}

	q, err := fromStorePoint(r.SignaturePublic)
	if err != nil {
		return false
	}

	return ecdsa.Verify(q, msg, s)
}

func decodeSignature(sig store.Signature) (*ecdsa.Signature, error) {
	if sig[0] == nil || sig[1] == nil || !ec.IsValidScalar(sig[0]) || !ec.IsValidScalar(sig[1]) {
		return nil, ErrInvalidSignatureEncoding
	}

	return &ecdsa.Signature{R: sig[0], S: sig[1]}, nil
}
