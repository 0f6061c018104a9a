package main

import (
	"fmt"

	"github.com/alecthomas/kong"
)

type sendCmd struct {
	Username  string `arg:"" help:"The sending identity."`
	Recipient string `arg:"" help:"The receiving identity."`
	Message   string `arg:"" help:"The message to send."`
}

func (cmd *sendCmd) Run(_ *kong.Context, env *environment) error {
	ids, m, err := env.open()
	if err != nil {
		return err
	}

	session, err := env.login(ids, cmd.Username)
	if err != nil {
		return err
	}

	defer session.Logout()

	if err := m.Send(session, cmd.Recipient, cmd.Message); err != nil {
		return err
	}

	_, err = fmt.Fprintf(env.stdout, "Message sent securely to %s.\n", cmd.Recipient)

	return err
}
