package main

import (
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/cracker/internal/config"
	gap "github.com/muesli/go-app-paths"
)

var logFile io.Writer = io.Discard

func getLogFilePath() (string, error) {
	dir, err := gap.NewScope(gap.User, config.Name).CacheDir()
	if err != nil {
		return "", err //nolint:wrapcheck
	}
	return filepath.Join(dir, config.Name+".log"), nil
}

func setupLog() (func() error, error) {
	log.SetOutput(io.Discard)

	path, err := getLogFilePath()
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil { //nolint:gosec
		return nil, err //nolint:wrapcheck
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644) //nolint:gosec
	if err != nil {
		return nil, err //nolint:wrapcheck
	}
	logFile = f
	log.SetOutput(f)
	log.SetLevel(log.DebugLevel)
	return f.Close, nil
}

// enableDebugOutput mirrors the log file to stderr.
func enableDebugOutput() {
	log.SetOutput(io.MultiWriter(logFile, os.Stderr))
}
