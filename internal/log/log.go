// Package log provides the logging backend for the courier command, built on go-logging.
package log

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"gopkg.in/op/go-logging.v1"
)

const logFormat = "%{time:15:04:05.000} %{level:.4s} %{module}: %{message}"

// Backend is a leveled log backend writing to stderr, a file, or nowhere.
type Backend struct {
	sync.RWMutex

	leveled logging.LeveledBackend
	w       io.Writer
	closer  io.Closer
}

// New returns a backend at the given level. If disable is set, everything is discarded. Otherwise
// output is appended to file, or written to stderr if file is empty.
func New(file, level string, disable bool) (*Backend, error) {
	lvl, err := levelFromString(level)
	if err != nil {
		return nil, err
	}

	b := new(Backend)

	switch {
	case disable:
		b.w = io.Discard
	case file == "":
		b.w = os.Stderr
	default:
		f, err := os.OpenFile(file, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
		if err != nil {
			return nil, fmt.Errorf("log: failed to open log file: %w", err)
		}

		b.w, b.closer = f, f
	}

	b.init(lvl)

	return b, nil
}

// NewWriter returns a backend at the given level writing to w.
func NewWriter(w io.Writer, level string) (*Backend, error) {
	lvl, err := levelFromString(level)
	if err != nil {
		return nil, err
	}

	b := &Backend{w: w}
	b.init(lvl)

	return b, nil
}

func (b *Backend) init(lvl logging.Level) {
	formatted := logging.NewBackendFormatter(
		logging.NewLogBackend(b.w, "", 0),
		logging.MustStringFormatter(logFormat),
	)

	b.leveled = logging.AddModuleLevel(formatted)
	b.leveled.SetLevel(lvl, "")
}

// Log implements logging.Backend.
func (b *Backend) Log(level logging.Level, calldepth int, record *logging.Record) error {
	b.RLock()
	defer b.RUnlock()

	return b.leveled.Log(level, calldepth, record)
}

// GetLevel implements logging.Leveled.
func (b *Backend) GetLevel(module string) logging.Level {
	b.RLock()
	defer b.RUnlock()

	return b.leveled.GetLevel(module)
}

// SetLevel implements logging.Leveled.
func (b *Backend) SetLevel(level logging.Level, module string) {
	b.Lock()
	defer b.Unlock()

	b.leveled.SetLevel(level, module)
}

// IsEnabledFor implements logging.Leveled.
func (b *Backend) IsEnabledFor(level logging.Level, module string) bool {
	b.RLock()
	defer b.RUnlock()

	return b.leveled.IsEnabledFor(level, module)
}

// GetLogger returns a per-module logger that writes to the backend.
func (b *Backend) GetLogger(module string) *logging.Logger {
	l := logging.MustGetLogger(module)
	l.SetBackend(b)

	return l
}

// Close closes the log file, if any.
func (b *Backend) Close() error {
	b.Lock()
	defer b.Unlock()

	if b.closer == nil {
		return nil
	}

	err := b.closer.Close()
	b.closer = nil

	return err
}

// Recorder logs each cryptographic checkpoint at the info level.
type Recorder struct {
	Log *logging.Logger
}

// Record logs the checkpoint.
func (r *Recorder) Record(title, details string) {
	r.Log.Infof("[%s] %s", title, details)
}

func levelFromString(l string) (logging.Level, error) {
	switch strings.ToUpper(l) {
	case "ERROR":
		return logging.ERROR, nil
	case "WARNING":
		return logging.WARNING, nil
	case "NOTICE":
		return logging.NOTICE, nil
	case "INFO":
		return logging.INFO, nil
	case "DEBUG":
		return logging.DEBUG, nil
	default:
		return logging.CRITICAL, fmt.Errorf("log: invalid level: '%v'", l)
	}
}

var _ logging.LeveledBackend = &Backend{}
