package main

import (
	"fmt"
	"math/big"
	"os"

	"github.com/alecthomas/kong"
	"github.com/codahale/courier"
	"github.com/codahale/courier/store/dirstore"
)

type demoCmd struct {
	Message string `default:"Pay me 100 NIS" help:"The message Alice sends to Bob."`
}

func (cmd *demoCmd) Run(_ *kong.Context, env *environment) error {
	dir, err := os.MkdirTemp("", "courier-demo")
	if err != nil {
		return err
	}

	defer func() { _ = os.RemoveAll(dir) }()

	s, err := dirstore.Open(dir)
	if err != nil {
		return err
	}

	defer func() { _ = s.Close() }()

	ids := courier.NewIdentities(s, env.rec)
	m := courier.NewMessenger(ids, s, env.rec)
	out := env.stdout

	// Register both identities.
	_, _ = fmt.Fprintln(out, "=== 1. Key Generation ===")

	for _, name := range []string{"alice", "bob"} {
		if err := ids.Register(name, name+"-demo"); err != nil {
			return err
		}

		keys, err := ids.PublicKeys(name)
		if err != nil {
			return err
		}

		_, _ = fmt.Fprintf(out, "%s signature key: %s\n%s exchange key:  %s\n", name, keys.Signature,
			name, keys.Exchange)
	}

	alice, err := ids.Login("alice", "alice-demo")
	if err != nil {
		return err
	}

	defer alice.Logout()

	bob, err := ids.Login("bob", "bob-demo")
	if err != nil {
		return err
	}

	defer bob.Logout()

	// Alice signs, encrypts, and sends.
	_, _ = fmt.Fprintln(out, "\n=== 2. Alice Sends (Sign, Encrypt) ===")

	if err := m.Send(alice, "bob", cmd.Message); err != nil {
		return err
	}

	_, _ = fmt.Fprintf(out, "sent %q\n", cmd.Message)

	// Bob decrypts and verifies.
	_, _ = fmt.Fprintln(out, "\n=== 3. Bob Receives (Decrypt, Verify) ===")

	inbox, err := m.CheckInbox(bob)
	if err != nil {
		return err
	}

	if err := printInbox(out, inbox); err != nil {
		return err
	}

	// Mallory replays the envelope with a modified signature.
	_, _ = fmt.Fprintln(out, "\n=== 4. Tampered Signature ===")

	envelopes, err := s.Envelopes()
	if err != nil {
		return err
	}

	for _, e := range envelopes {
		forged := *e
		forged.Signature[1] = new(big.Int).Xor(e.Signature[1], big.NewInt(1))

		if _, err := s.PutEnvelope(&forged); err != nil {
			return err
		}
	}

	inbox, err = m.CheckInbox(bob)
	if err != nil {
		return err
	}

	return printInbox(out, inbox)
}
