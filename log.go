package main

import (
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	gap "github.com/muesli/go-app-paths"
)

func getLogFilePath() (string, error) {
	if p := os.Getenv("TTSBYTES_LOG_FILE"); p != "" {
		return expandPath(p), nil
	}
	dir, err := gap.NewScope(gap.User, "ttsbytes").CacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "ttsbytes.log"), nil
}

// setupLog sends log output to a file so stdout stays free for audio.
func setupLog() (func() error, error) {
	log.SetOutput(io.Discard)

	logFile, err := getLogFilePath()
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(logFile), 0o755); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(logFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}
	log.SetDefault(log.NewWithOptions(f, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "2006-01-02 15:04:05.000",
		Level:           log.InfoLevel,
	}))
	return f.Close, nil
}
