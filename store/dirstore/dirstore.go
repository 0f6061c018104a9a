// Package dirstore implements a store.Store as JSON files in a directory.
//
// Identities are kept in a single users.json file holding one object keyed by username. Each
// registration rewrites the whole file through a temporary file and a rename. Envelopes are
// written one per file under messages/, named after the recipient and the time of writing.
package dirstore

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/codahale/courier/store"
)

const (
	usersFile   = "users.json"
	messagesDir = "messages"
	msgExt      = ".msg"

	maxCollisions = 1000
)

//nolint:gochecknoglobals // constant
var signatureKey = []byte(`"signature"`)

// Store is a directory-backed store.
type Store struct {
	sync.Mutex

	dir string
}

// Open returns a Store rooted at dir, creating the directory layout if needed.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(filepath.Join(dir, messagesDir), 0o700); err != nil {
		return nil, fmt.Errorf("%w: %v", store.ErrIO, err)
	}

	return &Store{dir: dir}, nil
}

// Identity returns the record for username, or store.ErrNotFound.
func (s *Store) Identity(username string) (*store.Record, error) {
	s.Lock()
	defer s.Unlock()

	users, err := s.readUsers()
	if err != nil {
		return nil, err
	}

	r, ok := users[username]
	if !ok || r == nil {
		return nil, store.ErrNotFound
	}

	return r, nil
}

// AddIdentity adds a record for username, or returns store.ErrExists.
func (s *Store) AddIdentity(username string, r *store.Record) error {
	s.Lock()
	defer s.Unlock()

	users, err := s.readUsers()
	if err != nil {
		return err
	}

	if _, ok := users[username]; ok {
		return store.ErrExists
	}

	users[username] = r

	return s.writeUsers(users)
}

// PutEnvelope writes the envelope to a new file and returns its id, which is the file's name
// without extension.
func (s *Store) PutEnvelope(e *store.Envelope) (string, error) {
	s.Lock()
	defer s.Unlock()

	b, err := json.Marshal(e)
	if err != nil {
		return "", err
	}

	base := e.Recipient + "_" + strconv.FormatInt(time.Now().UnixNano(), 10)

	f, id, err := s.createUnique(base)
	if err != nil {
		return "", err
	}

	if _, err := f.Write(b); err != nil {
		_ = f.Close()
		_ = os.Remove(f.Name())

		return "", fmt.Errorf("%w: %v", store.ErrIO, err)
	}

	if err := f.Close(); err != nil {
		_ = os.Remove(f.Name())

		return "", fmt.Errorf("%w: %v", store.ErrIO, err)
	}

	return id, nil
}

// Envelopes returns every readable envelope in the messages directory, ordered by file name.
// Files which cannot be read or parsed, and files without the envelope extension, are skipped. A
// file whose only damage is to its signature is returned with the signature cleared.
func (s *Store) Envelopes() ([]*store.Envelope, error) {
	s.Lock()
	defer s.Unlock()

	dir := filepath.Join(s.dir, messagesDir)

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", store.ErrIO, err)
	}

	envelopes := make([]*store.Envelope, 0, len(entries))

	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, msgExt) {
			continue
		}

		b, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			continue
		}

		e, err := decodeEnvelope(b)
		if err != nil {
			continue
		}

		e.ID = strings.TrimSuffix(name, msgExt)
		envelopes = append(envelopes, e)
	}

	return envelopes, nil
}

// Close is a no-op.
func (s *Store) Close() error {
	return nil
}

func (s *Store) createUnique(base string) (*os.File, string, error) {
	dir := filepath.Join(s.dir, messagesDir)
	id := base

	for i := 1; i <= maxCollisions; i++ {
		f, err := os.OpenFile(filepath.Join(dir, id+msgExt), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
		if err == nil {
			return f, id, nil
		}

		if !errors.Is(err, os.ErrExist) {
			return nil, "", fmt.Errorf("%w: %v", store.ErrIO, err)
		}

		id = base + "-" + strconv.Itoa(i)
	}

	return nil, "", fmt.Errorf("%w: too many envelopes named %s", store.ErrIO, base)
}

// decodeEnvelope parses an envelope file. If the file is not valid JSON, it is parsed again with
// the signature value replaced by null.
func decodeEnvelope(b []byte) (*store.Envelope, error) {
	var e store.Envelope

	err := json.Unmarshal(b, &e)
	if err == nil {
		return &e, nil
	}

	cleared, ok := clearSignature(b)
	if !ok {
		return nil, err
	}

	e = store.Envelope{}
	if err := json.Unmarshal(cleared, &e); err != nil {
		return nil, err
	}

	return &e, nil
}

// clearSignature returns a copy of b with the value of the last signature key replaced by null. The
// value runs to its closing bracket or, if that is missing, to the end of the enclosing object.
func clearSignature(b []byte) ([]byte, bool) {
	i := bytes.LastIndex(b, signatureKey)
	if i < 0 {
		return nil, false
	}

	start := i + len(signatureKey)

	colon := bytes.IndexByte(b[start:], ':')
	if colon < 0 {
		return nil, false
	}

	start += colon + 1

	end := bytes.LastIndexByte(b, '}')
	if end < start {
		return nil, false
	}

	if j := bytes.IndexByte(b[start:end], ']'); j >= 0 {
		end = start + j + 1
	}

	cleared := make([]byte, 0, len(b))
	cleared = append(cleared, b[:start]...)
	cleared = append(cleared, "null"...)
	cleared = append(cleared, b[end:]...)

	return cleared, true
}

func (s *Store) readUsers() (map[string]*store.Record, error) {
	b, err := os.ReadFile(filepath.Join(s.dir, usersFile))
	if errors.Is(err, os.ErrNotExist) {
		return make(map[string]*store.Record), nil
	} else if err != nil {
		return nil, fmt.Errorf("%w: %v", store.ErrIO, err)
	}

	users := make(map[string]*store.Record)
	if err := json.Unmarshal(b, &users); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", store.ErrIO, usersFile, err)
	}

	return users, nil
}

func (s *Store) writeUsers(users map[string]*store.Record) error {
	b, err := json.MarshalIndent(users, "", "  ")
	if err != nil {
		return err
	}

	f, err := os.CreateTemp(s.dir, "users-*.tmp")
	if err != nil {
		return fmt.Errorf("%w: %v", store.ErrIO, err)
	}

	if _, err := f.Write(b); err != nil {
		_ = f.Close()
		_ = os.Remove(f.Name())

		return fmt.Errorf("%w: %v", store.ErrIO, err)
	}

	if err := f.Close(); err != nil {
		_ = os.Remove(f.Name())

		return fmt.Errorf("%w: %v", store.ErrIO, err)
	}

	if err := os.Rename(f.Name(), filepath.Join(s.dir, usersFile)); err != nil {
		_ = os.Remove(f.Name())

		return fmt.Errorf("%w: %v", store.ErrIO, err)
	}

	return nil
}

var _ store.Store = &Store{}
