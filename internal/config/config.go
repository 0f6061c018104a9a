// Package config implements the configuration for the courier command.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/codahale/courier/store"
	"github.com/codahale/courier/store/boltstore"
	"github.com/codahale/courier/store/dirstore"
)

const (
	BackendDir  = "dir"  // BackendDir stores identities and envelopes as JSON files.
	BackendBolt = "bolt" // BackendBolt stores identities and envelopes in a bbolt database.

	defaultBackend  = BackendDir
	defaultDataDir  = "data"
	defaultLogLevel = "INFO"

	boltFile = "courier.db"
)

// Store is the storage configuration.
type Store struct {
	// Backend is either "dir" or "bolt".
	Backend string

	// DataDir is the directory holding the store's files.
	DataDir string
}

func (sCfg *Store) validate() error {
	switch strings.ToLower(sCfg.Backend) {
	case BackendDir, BackendBolt:
		sCfg.Backend = strings.ToLower(sCfg.Backend)
	case "":
		sCfg.Backend = defaultBackend
	default:
		return fmt.Errorf("config: Store: Backend '%v' is invalid", sCfg.Backend)
	}

	if sCfg.DataDir == "" {
		sCfg.DataDir = defaultDataDir
	}

	return nil
}

// Open opens the configured store.
func (sCfg *Store) Open() (store.Store, error) {
	switch sCfg.Backend {
	case BackendBolt:
		if err := os.MkdirAll(sCfg.DataDir, 0o700); err != nil {
			return nil, fmt.Errorf("%w: %v", store.ErrIO, err)
		}

		return boltstore.Open(filepath.Join(sCfg.DataDir, boltFile))
	default:
		return dirstore.Open(sCfg.DataDir)
	}
}

// Logging is the logging configuration.
type Logging struct {
	// Disable disables logging entirely.
	Disable bool

	// File specifies the log file, if omitted stderr will be used.
	File string

	// Level specifies the log level.
	Level string
}

func (lCfg *Logging) validate() error {
	lvl := strings.ToUpper(lCfg.Level)
	switch lvl {
	case "ERROR", "WARNING", "NOTICE", "INFO", "DEBUG":
	case "":
		lvl = defaultLogLevel
	default:
		return fmt.Errorf("config: Logging: Level '%v' is invalid", lCfg.Level)
	}

	lCfg.Level = lvl

	return nil
}

// Config is the top level courier configuration.
type Config struct {
	Store   *Store
	Logging *Logging
}

// FixupAndValidate applies defaults to config entries and validates the configuration sections.
func (c *Config) FixupAndValidate() error {
	// Handle missing sections.
	if c.Store == nil {
		c.Store = new(Store)
	}

	if c.Logging == nil {
		c.Logging = new(Logging)
	}

	if err := c.Store.validate(); err != nil {
		return err
	}

	return c.Logging.validate()
}

// Default returns a configuration with every default applied.
func Default() *Config {
	c := new(Config)
	if err := c.FixupAndValidate(); err != nil {
		panic(err)
	}

	return c
}

// Load parses and validates the provided buffer b as a config file body and returns the Config.
func Load(b []byte) (*Config, error) {
	cfg := new(Config)

	md, err := toml.Decode(string(b), cfg)
	if err != nil {
		return nil, err
	}

	if undecoded := md.Undecoded(); len(undecoded) != 0 {
		return nil, fmt.Errorf("config: Undecoded keys in config file: %v", undecoded)
	}

	if err := cfg.FixupAndValidate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadFile loads, parses, and validates the provided file and returns the Config.
func LoadFile(f string) (*Config, error) {
	b, err := os.ReadFile(f)
	if err != nil {
		return nil, err
	}

	return Load(b)
}
