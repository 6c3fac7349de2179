// Package fileio provides the small set of file operations used for mock
// fixtures, configuration files and recorder output.
package fileio

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrCannotResolve is returned when a path does not name a regular file.
var ErrCannotResolve = errors.New("cannot resolve file")

const bom = "\ufeff"

// Read reads the whole file at path as a string, removing a leading BOM.
func Read(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimPrefix(string(data), bom), nil
}

// AbsolutePath resolves path against the current working directory.
// It fails unless the result names an existing regular file.
func AbsolutePath(path string) (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("getting current directory: %w", err)
	}

	abs := path
	if !filepath.IsAbs(abs) {
		abs = filepath.Join(cwd, path)
	}

	info, err := os.Stat(abs)
	if err != nil || info.IsDir() {
		return "", fmt.Errorf("%w: %s (cwd: %s)", ErrCannotResolve, path, cwd)
	}
	return abs, nil
}

// Writer writes whole files. Failures are not returned to the caller; they
// are reported to OnError instead, so writes can be issued fire-and-forget.
type Writer struct {
	// OnError receives write failures (nil = ignore).
	OnError func(path string, err error)
	// Perm is the mode used when creating files. Defaults to 0644.
	Perm os.FileMode
}

// Write replaces the content of the file at path. Parent directories are
// not created.
func (w *Writer) Write(path string, content []byte) {
	perm := w.Perm
	if perm == 0 {
		perm = 0644
	}
	if err := os.WriteFile(path, content, perm); err != nil && w.OnError != nil {
		w.OnError(path, err)
	}
}
