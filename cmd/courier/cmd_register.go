package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/alecthomas/kong"
	"golang.org/x/term"
)

var errPasswordMismatch = errors.New("passwords do not match")

type registerCmd struct {
	Username string `arg:"" help:"The name of the new identity."`
}

func (cmd *registerCmd) Run(_ *kong.Context, env *environment) error {
	ids, _, err := env.open()
	if err != nil {
		return err
	}

	password, err := env.askPassword(fmt.Sprintf("Password for %s: ", cmd.Username))
	if err != nil {
		return err
	}

	// Confirm interactively entered passwords.
	if term.IsTerminal(int(os.Stdin.Fd())) {
		confirm, err := env.askPassword("Confirm password: ")
		if err != nil {
			return err
		}

		if confirm != password {
			return errPasswordMismatch
		}
	}

	if err := ids.Register(cmd.Username, password); err != nil {
		return err
	}

	env.log.Noticef("registered %s", cmd.Username)

	_, err = fmt.Fprintf(env.stdout, "Registered %s.\n", cmd.Username)

	return err
}
