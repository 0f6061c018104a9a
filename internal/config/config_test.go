package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/codahale/courier/internal/log"
	"github.com/codahale/gubbins/assert"
)

func TestDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := Load(nil)
	if err != nil {
		t.Fatal(err)
	}

	assert.Equal(t, "backend", BackendDir, cfg.Store.Backend)
	assert.Equal(t, "data dir", "data", cfg.Store.DataDir)
	assert.Equal(t, "level", "INFO", cfg.Logging.Level)
	assert.Equal(t, "disable", false, cfg.Logging.Disable)
	assert.Equal(t, "default", cfg, Default())
}

func TestDefaultLevelRecordsCheckpoints(t *testing.T) {
	t.Parallel()

	buf := bytes.NewBuffer(nil)

	b, err := log.NewWriter(buf, Default().Logging.Level)
	if err != nil {
		t.Fatal(err)
	}

	rec := &log.Recorder{Log: b.GetLogger("config-test")}
	rec.Record("Key Generation", "alice")

	assert.Equal(t, "recorded", true, strings.Contains(buf.String(), "[Key Generation] alice"))
}

func TestLoad(t *testing.T) {
	t.Parallel()

	cfg, err := Load([]byte(`
[Store]
  Backend = "Bolt"
  DataDir = "/var/lib/courier"

[Logging]
  File = "/var/log/courier.log"
  Level = "debug"
`))
	if err != nil {
		t.Fatal(err)
	}

	assert.Equal(t, "config", &Config{
		Store:   &Store{Backend: BackendBolt, DataDir: "/var/lib/courier"},
		Logging: &Logging{File: "/var/log/courier.log", Level: "DEBUG"},
	}, cfg)
}

func TestLoadRejectsUndecodedKeys(t *testing.T) {
	t.Parallel()

	if _, err := Load([]byte("[Store]\nBackends = \"dir\"\n")); err == nil {
		t.Error("accepted an unknown key")
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	t.Parallel()

	if _, err := Load([]byte("[Store]\nBackend = \"s3\"\n")); err == nil {
		t.Error("accepted an unknown backend")
	}

	if _, err := Load([]byte("[Logging]\nLevel = \"LOUD\"\n")); err == nil {
		t.Error("accepted an unknown level")
	}
}

func TestLoadFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "courier.toml")
	if err := os.WriteFile(path, []byte("[Logging]\nDisable = true\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	assert.Equal(t, "disable", true, cfg.Logging.Disable)
}

func TestOpenStores(t *testing.T) {
	t.Parallel()

	for _, backend := range []string{BackendDir, BackendBolt} {
		sCfg := &Store{Backend: backend, DataDir: filepath.Join(t.TempDir(), "nested")}

		s, err := sCfg.Open()
		if err != nil {
			t.Fatal(err)
		}

		envelopes, err := s.Envelopes()
		if err != nil {
			t.Fatal(err)
		}

		assert.Equal(t, backend, 0, len(envelopes))

		if err := s.Close(); err != nil {
			t.Fatal(err)
		}
	}
}
