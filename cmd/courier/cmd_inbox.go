package main

import (
	"fmt"
	"io"
	"time"

	"github.com/alecthomas/kong"
	"github.com/codahale/courier"
)

type inboxCmd struct {
	Username string `arg:"" help:"The receiving identity."`
}

func (cmd *inboxCmd) Run(_ *kong.Context, env *environment) error {
	ids, m, err := env.open()
	if err != nil {
		return err
	}

	session, err := env.login(ids, cmd.Username)
	if err != nil {
		return err
	}

	defer session.Logout()

	inbox, err := m.CheckInbox(session)
	if err != nil {
		return err
	}

	return printInbox(env.stdout, inbox)
}

func printInbox(w io.Writer, inbox []courier.InboxEntry) error {
	if len(inbox) == 0 {
		_, err := fmt.Fprintln(w, "No messages.")

		return err
	}

	for _, entry := range inbox {
		var err error

		ts := entry.Timestamp.Format(time.RFC3339)

		if entry.Err != nil {
			_, err = fmt.Fprintf(w, "[%s] %s: error: %v\n", ts, entry.Sender, entry.Err)
		} else {
			_, err = fmt.Fprintf(w, "[%s] %s (%s): %s\n", ts, entry.Sender, label(entry.Status),
				entry.Content)
		}

		if err != nil {
			return err
		}
	}

	return nil
}

// label returns the inbox label for a verification status.
func label(s courier.Status) string {
	if s == courier.Tampered {
		return "FAKE/TAMPERED"
	}

	return s.String()
}
