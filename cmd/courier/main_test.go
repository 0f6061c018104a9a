package main

import (
	"bufio"
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/alecthomas/kong"
	"github.com/codahale/courier"
	"github.com/codahale/courier/internal/config"
	"github.com/codahale/courier/internal/log"
	"github.com/codahale/gubbins/assert"
)

func newTestEnvironment(t *testing.T, backend, stdin string) (*environment, *bytes.Buffer) {
	t.Helper()

	cfg := config.Default()
	cfg.Store.Backend = backend
	cfg.Store.DataDir = t.TempDir()

	logs, err := log.New("", "DEBUG", true)
	if err != nil {
		t.Fatal(err)
	}

	logger := logs.GetLogger("courier-test")
	out := bytes.NewBuffer(nil)

	env := &environment{
		cfg:     cfg,
		backend: logs,
		log:     logger,
		rec:     &log.Recorder{Log: logger},
		stdin:   bufio.NewReader(strings.NewReader(stdin)),
		stdout:  out,
	}

	t.Cleanup(func() { _ = env.Close() })

	return env, out
}

func TestCommands(t *testing.T) {
	t.Parallel()

	for _, backend := range []string{config.BackendDir, config.BackendBolt} {
		backend := backend

		t.Run(backend, func(t *testing.T) {
			t.Parallel()

			env, out := newTestEnvironment(t, backend, "alice-pw\nbob-pw\nalice-pw\nbob-pw\n")

			for _, cmd := range []interface {
				Run(*kong.Context, *environment) error
			}{
				&registerCmd{Username: "alice"},
				&registerCmd{Username: "bob"},
				&sendCmd{Username: "alice", Recipient: "bob", Message: "hello"},
				&inboxCmd{Username: "bob"},
				&keysCmd{Username: "alice"},
			} {
				if err := cmd.Run(nil, env); err != nil {
					t.Fatal(err)
				}
			}

			s := out.String()

			assert.Equal(t, "registered", true, strings.Contains(s, "Registered alice."))
			assert.Equal(t, "sent", true, strings.Contains(s, "Message sent securely to bob."))
			assert.Equal(t, "received", true, strings.Contains(s, "alice (Verified): hello"))
			assert.Equal(t, "keys", true, strings.Contains(s, "signature: "))
		})
	}
}

func TestSendWrongPassword(t *testing.T) {
	t.Parallel()

	env, _ := newTestEnvironment(t, config.BackendDir, "alice-pw\nwrong\n")

	if err := (&registerCmd{Username: "alice"}).Run(nil, env); err != nil {
		t.Fatal(err)
	}

	err := (&sendCmd{Username: "alice", Recipient: "alice", Message: "hi"}).Run(nil, env)

	assert.Equal(t, "error", true, errors.Is(err, courier.ErrAuthenticationFailed))
}

func TestAskPasswordWithoutNewline(t *testing.T) {
	t.Parallel()

	env, _ := newTestEnvironment(t, config.BackendDir, "secret")

	password, err := env.askPassword("")
	if err != nil {
		t.Fatal(err)
	}

	assert.Equal(t, "password", "secret", password)

	if _, err := env.askPassword(""); err == nil {
		t.Error("read a password from empty input")
	}
}

func TestDemo(t *testing.T) {
	t.Parallel()

	env, out := newTestEnvironment(t, config.BackendDir, "")

	if err := (&demoCmd{Message: "Pay me 100 NIS"}).Run(nil, env); err != nil {
		t.Fatal(err)
	}

	s := out.String()

	assert.Equal(t, "verified", true, strings.Contains(s, "alice (Verified): Pay me 100 NIS"))
	assert.Equal(t, "tampered", true, strings.Contains(s, "alice (FAKE/TAMPERED): Pay me 100 NIS"))
}

func TestPrintInbox(t *testing.T) {
	t.Parallel()

	buf := bytes.NewBuffer(nil)
	ts := time.Unix(0, 0).UTC()

	if err := printInbox(buf, []courier.InboxEntry{
		{Sender: "alice", Timestamp: ts, Content: "hi", Status: courier.Verified},
		{Sender: "alice", Timestamp: ts, Content: "pay me", Status: courier.Tampered},
		{Sender: "carol", Timestamp: ts, Err: courier.ErrIdentityNotFound},
	}); err != nil {
		t.Fatal(err)
	}

	assert.Equal(t, "output",
		"[1970-01-01T00:00:00Z] alice (Verified): hi\n"+
			"[1970-01-01T00:00:00Z] alice (FAKE/TAMPERED): pay me\n"+
			"[1970-01-01T00:00:00Z] carol: error: courier: identity not found\n",
		buf.String())
}
