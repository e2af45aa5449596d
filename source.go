package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/atotto/clipboard"
)

var markdownExtensions = []string{".md", ".mdown", ".mkdn", ".mkd", ".markdown"}

// source provides a readable transcript.
type source struct {
	reader io.ReadCloser
	path   string
	text   string
}

func (s *source) read() (string, error) {
	if s.reader == nil {
		return s.text, nil
	}
	defer s.reader.Close() //nolint:errcheck

	b, err := io.ReadAll(s.reader)
	if err != nil {
		return "", fmt.Errorf("unable to read transcript: %w", err)
	}
	return string(b), nil
}

// isMarkdown reports whether the transcript came from a markdown file.
func (s *source) isMarkdown() bool {
	ext := strings.ToLower(filepath.Ext(s.path))
	for _, v := range markdownExtensions {
		if ext == v {
			return true
		}
	}
	return false
}

// resolveSource picks the transcript source: the clipboard, a pipe on
// stdin, or the single argument.
func resolveSource(args []string) (*source, error) {
	if opts.clipboard {
		if len(args) > 0 {
			return nil, errors.New("cannot use both --clipboard and a transcript argument")
		}
		text, err := clipboard.ReadAll()
		if err != nil {
			return nil, fmt.Errorf("unable to read clipboard: %w", err)
		}
		return &source{text: text}, nil
	}

	// if stdin is a pipe then use stdin for input. note that you can also
	// explicitly use a - to read from stdin.
	if len(args) == 0 {
		yes, err := stdinIsPipe()
		if err != nil {
			return nil, err
		}
		if !yes {
			return nil, errors.New("missing transcript: pass it as an argument, a file, or on stdin")
		}
		return &source{reader: os.Stdin}, nil
	}

	return sourceFromArg(args[0])
}

// sourceFromArg treats arg as stdin ("-"), a readable file, or else the
// transcript itself.
func sourceFromArg(arg string) (*source, error) {
	if arg == "-" {
		return &source{reader: os.Stdin}, nil
	}

	path := expandPath(arg)
	if st, err := os.Stat(path); err == nil && !st.IsDir() {
		r, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("unable to open file: %w", err)
		}
		return &source{reader: r, path: path}, nil
	}

	return &source{text: arg}, nil
}

func stdinIsPipe() (bool, error) {
	stat, err := os.Stdin.Stat()
	if err != nil {
		return false, fmt.Errorf("unable to open file: %w", err)
	}
	if stat.Mode()&os.ModeCharDevice == 0 || stat.Size() > 0 {
		return true, nil
	}
	return false, nil
}
