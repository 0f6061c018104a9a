package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/codahale/courier"
	"github.com/codahale/courier/internal/config"
	"github.com/codahale/courier/internal/log"
	"github.com/codahale/courier/store"
	"golang.org/x/term"
	"gopkg.in/op/go-logging.v1"
)

type cli struct {
	Config  string `type:"path" help:"The path to a TOML configuration file."`
	DataDir string `type:"path" help:"The data directory, overriding the configuration."`

	Register registerCmd `cmd:"" help:"Register a new identity."`
	Send     sendCmd     `cmd:"" help:"Send a message to another identity."`
	Inbox    inboxCmd    `cmd:"" help:"Decrypt and verify received messages."`
	Keys     keysCmd     `cmd:"" help:"Print an identity's public keys."`
	Demo     demoCmd     `cmd:"" help:"Walk through a full exchange between two throwaway identities."`
}

func main() {
	var cli cli

	ctx := kong.Parse(&cli,
		kong.Name("courier"),
		kong.Description("A store-and-forward secure messenger."),
	)

	env, err := newEnvironment(&cli)
	ctx.FatalIfErrorf(err)

	err = ctx.Run(env)

	if cerr := env.Close(); err == nil {
		err = cerr
	}

	ctx.FatalIfErrorf(err)
}

// environment is shared by all commands.
type environment struct {
	cfg     *config.Config
	backend *log.Backend
	log     *logging.Logger
	rec     courier.Recorder
	stdin   *bufio.Reader
	stdout  io.Writer

	store store.Store
}

func newEnvironment(cli *cli) (*environment, error) {
	cfg := config.Default()

	if cli.Config != "" {
		var err error

		cfg, err = config.LoadFile(cli.Config)
		if err != nil {
			return nil, err
		}
	}

	if cli.DataDir != "" {
		cfg.Store.DataDir = cli.DataDir
	}

	backend, err := log.New(cfg.Logging.File, cfg.Logging.Level, cfg.Logging.Disable)
	if err != nil {
		return nil, err
	}

	logger := backend.GetLogger("courier")

	return &environment{
		cfg:     cfg,
		backend: backend,
		log:     logger,
		rec:     &log.Recorder{Log: logger},
		stdin:   bufio.NewReader(os.Stdin),
		stdout:  os.Stdout,
	}, nil
}

// open opens the configured store and returns the identity store and messenger backed by it.
func (env *environment) open() (*courier.Identities, *courier.Messenger, error) {
	if env.store == nil {
		s, err := env.cfg.Store.Open()
		if err != nil {
			return nil, nil, err
		}

		env.log.Debugf("opened %s store in %s", env.cfg.Store.Backend, env.cfg.Store.DataDir)

		env.store = s
	}

	ids := courier.NewIdentities(env.store, env.rec)

	return ids, courier.NewMessenger(ids, env.store, env.rec), nil
}

// login prompts for the password of the given identity and logs in.
func (env *environment) login(ids *courier.Identities, username string) (*courier.Session, error) {
	password, err := env.askPassword(fmt.Sprintf("Password for %s: ", username))
	if err != nil {
		return nil, err
	}

	session, err := ids.Login(username, password)
	if err != nil {
		env.log.Warningf("login failed for %s: %v", username, err)

		return nil, err
	}

	env.log.Noticef("logged in as %s", username)

	return session, nil
}

// askPassword reads a password without echo if stdin is a terminal, otherwise reads a single line
// from stdin.
func (env *environment) askPassword(prompt string) (string, error) {
	fd := int(os.Stdin.Fd())

	if term.IsTerminal(fd) {
		defer func() { _, _ = fmt.Fprintln(os.Stderr) }()

		_, _ = fmt.Fprint(os.Stderr, prompt)

		b, err := term.ReadPassword(fd)
		if err != nil {
			return "", err
		}

		return string(b), nil
	}

	line, err := env.stdin.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", fmt.Errorf("reading password: %w", err)
	}

	return strings.TrimRight(line, "\r\n"), nil
}

// Close closes the store and the log backend.
func (env *environment) Close() error {
	var err error

	if env.store != nil {
		err = env.store.Close()
	}

	if lerr := env.backend.Close(); err == nil {
		err = lerr
	}

	return err
}
