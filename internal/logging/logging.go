// Package logging configures the process-wide logrus logger.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
)

var (
	root    = logrus.New()
	rootMu  sync.Mutex
	closer  io.Closer
	entries = make(map[string]*logrus.Entry)
)

// EnvLevel overrides the configured level when set.
const EnvLevel = "DECKHAND_LOG_LEVEL"

// Setup points the root logger at file with JSON lines. An empty file logs
// to stderr as text. The returned function closes the file.
func Setup(level, file string) (func() error, error) {
	rootMu.Lock()
	defer rootMu.Unlock()

	if env := strings.TrimSpace(os.Getenv(EnvLevel)); env != "" {
		level = env
	}
	lvl, err := logrus.ParseLevel(strings.TrimSpace(level))
	if err != nil {
		lvl = logrus.InfoLevel
	}
	root.SetLevel(lvl)

	if closer != nil {
		_ = closer.Close()
		closer = nil
	}

	if strings.TrimSpace(file) == "" {
		root.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
		root.SetOutput(os.Stderr)
		return func() error { return nil }, nil
	}

	if err := os.MkdirAll(filepath.Dir(file), 0o755); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}
	f, err := os.OpenFile(file, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	root.SetFormatter(&logrus.JSONFormatter{})
	root.SetOutput(f)
	closer = f
	return func() error {
		rootMu.Lock()
		defer rootMu.Unlock()
		if closer == f {
			closer = nil
		}
		return f.Close()
	}, nil
}

// For returns the logger for a component, creating it on first use.
func For(component string) *logrus.Entry {
	rootMu.Lock()
	defer rootMu.Unlock()
	if e, ok := entries[component]; ok {
		return e
	}
	e := root.WithField("component", component)
	entries[component] = e
	return e
}

// Discard silences the root logger. Tests and short CLI commands use it.
func Discard() {
	rootMu.Lock()
	defer rootMu.Unlock()
	root.SetOutput(io.Discard)
}
