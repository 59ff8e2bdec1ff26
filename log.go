package main

import (
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/mitchellh/go-homedir"
	gap "github.com/muesli/go-app-paths"
)

func getLogFilePath() (string, error) {
	dir, err := gap.NewScope(gap.User, "pitts").CacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "pitts.log"), nil
}

// setupLog sends diagnostics to the log file, and to stderr as well when
// toStderr is set. The returned func closes the file.
func setupLog(level, path string, toStderr bool) (func() error, error) {
	log.SetOutput(io.Discard)
	if lvl, err := log.ParseLevel(level); err == nil {
		log.SetLevel(lvl)
	}

	noop := func() error { return nil }
	if toStderr {
		log.SetOutput(os.Stderr)
	}

	if path == "" {
		p, err := getLogFilePath()
		if err != nil {
			return noop, err
		}
		path = p
	}
	path, err := homedir.Expand(path)
	if err != nil {
		return noop, err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil { //nolint:gosec
		// log disabled
		return noop, nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644) //nolint:gosec
	if err != nil {
		// log disabled
		return noop, nil
	}

	if toStderr {
		log.SetOutput(io.MultiWriter(os.Stderr, f))
	} else {
		log.SetOutput(f)
	}
	return f.Close, nil
}
