package main

import (
	"fmt"

	"github.com/alecthomas/kong"
)

type keysCmd struct {
	Username string `arg:"" help:"The identity whose keys to print."`
}

func (cmd *keysCmd) Run(_ *kong.Context, env *environment) error {
	ids, _, err := env.open()
	if err != nil {
		return err
	}

	keys, err := ids.PublicKeys(cmd.Username)
	if err != nil {
		return err
	}

	_, err = fmt.Fprintf(env.stdout, "signature: %s\nexchange:  %s\n", keys.Signature, keys.Exchange)

	return err
}
