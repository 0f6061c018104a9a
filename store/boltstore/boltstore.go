// Package boltstore implements a store.Store with a single bbolt database file.
//
// Identities and envelopes are kept in separate buckets with CBOR-encoded values. Envelope keys
// come from the envelope bucket's sequence, zero-padded so that key order is write order.
package boltstore

import (
	"fmt"
	"time"

	"github.com/codahale/courier/store"
	"github.com/fxamacker/cbor/v2"
	bolt "go.etcd.io/bbolt"
)

const (
	metadataBucket   = "metadata"
	identitiesBucket = "identities"
	envelopesBucket  = "envelopes"
	versionKey       = "version"

	version     = 0
	openTimeout = 5 * time.Second
)

// Store is a bbolt-backed store.
type Store struct {
	db *bolt.DB
}

// Open creates or loads the database at path.
func Open(path string) (*Store, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: openTimeout})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", store.ErrIO, err)
	}

	if err := db.Update(func(tx *bolt.Tx) error {
		// Ensure that all the buckets exist.
		meta, err := tx.CreateBucketIfNotExists([]byte(metadataBucket))
		if err != nil {
			return err
		}

		if _, err := tx.CreateBucketIfNotExists([]byte(identitiesBucket)); err != nil {
			return err
		}

		if _, err := tx.CreateBucketIfNotExists([]byte(envelopesBucket)); err != nil {
			return err
		}

		if b := meta.Get([]byte(versionKey)); b != nil {
			if len(b) != 1 || b[0] != version {
				return fmt.Errorf("boltstore: incompatible version: %v", b)
			}

			return nil
		}

		return meta.Put([]byte(versionKey), []byte{version})
	}); err != nil {
		_ = db.Close()

		return nil, fmt.Errorf("%w: %v", store.ErrIO, err)
	}

	return &Store{db: db}, nil
}

// Identity returns the record for username, or store.ErrNotFound.
func (s *Store) Identity(username string) (*store.Record, error) {
	var r *store.Record

	if err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(identitiesBucket)).Get([]byte(username))
		if b == nil {
			return store.ErrNotFound
		}

		r = new(store.Record)

		return cbor.Unmarshal(b, r)
	}); err != nil {
		return nil, wrap(err)
	}

	return r, nil
}

// AddIdentity adds a record for username, or returns store.ErrExists.
func (s *Store) AddIdentity(username string, r *store.Record) error {
	v, err := cbor.Marshal(r)
	if err != nil {
		return err
	}

	return wrap(s.db.Update(func(tx *bolt.Tx) error {
		bkt := tx.Bucket([]byte(identitiesBucket))
		if bkt.Get([]byte(username)) != nil {
			return store.ErrExists
		}

		return bkt.Put([]byte(username), v)
	}))
}

// PutEnvelope stores the envelope under the next sequence number and returns that number as its
// id.
func (s *Store) PutEnvelope(e *store.Envelope) (string, error) {
	v, err := cbor.Marshal(e)
	if err != nil {
		return "", err
	}

	var id string

	if err := s.db.Update(func(tx *bolt.Tx) error {
		bkt := tx.Bucket([]byte(envelopesBucket))

		// Allocate a unique identifier for this envelope.
		seq, err := bkt.NextSequence()
		if err != nil {
			return err
		}

		id = fmt.Sprintf("%020d", seq)

		return bkt.Put([]byte(id), v)
	}); err != nil {
		return "", wrap(err)
	}

	return id, nil
}

// Envelopes returns every stored envelope in write order. Values which cannot be decoded are
// skipped.
func (s *Store) Envelopes() ([]*store.Envelope, error) {
	var envelopes []*store.Envelope

	if err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(envelopesBucket)).ForEach(func(k, v []byte) error {
			var e store.Envelope
			if err := cbor.Unmarshal(v, &e); err != nil {
				return nil //nolint:nilerr // skip undecodable envelopes
			}

			e.ID = string(k)
			envelopes = append(envelopes, &e)

			return nil
		})
	}); err != nil {
		return nil, wrap(err)
	}

	return envelopes, nil
}

// Close syncs and closes the database.
func (s *Store) Close() error {
	if err := s.db.Sync(); err != nil {
		_ = s.db.Close()

		return wrap(err)
	}

	return wrap(s.db.Close())
}

func wrap(err error) error {
	switch err {
	case nil, store.ErrNotFound, store.ErrExists:
		return err
	default:
		return fmt.Errorf("%w: %v", store.ErrIO, err)
	}
}

var _ store.Store = &Store{}
