// Package fileformats holds the error taxonomy shared by the codecs and the
// extension based dispatch used by the command line tools.
package fileformats

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
)

// ErrFormat marks structural failures: header fields inconsistent with the
// file content, truncated files, malformed delimiters. These are fatal for
// the current file, in contrast with per-value parse failures which resolve
// to NaN/NoData and never surface as errors.
var ErrFormat = errors.New("invalid file format")

// FormatError carries the offending path so batch tools can report context.
type FormatError struct {
	Path   string
	Reason string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("%s: %s", e.Path, e.Reason)
}

func (e *FormatError) Is(target error) bool { return target == ErrFormat }

func Errorf(path, format string, args ...any) error {
	return &FormatError{Path: path, Reason: fmt.Sprintf(format, args...)}
}

// File is the part of a codec file object the tools handle generically.
type File interface {
	FilePath() string
	// ReleaseMemory drops loaded data while keeping header metadata;
	// safe to call repeatedly.
	ReleaseMemory(forceGC bool)
}

// ReaderFunc opens a file, deferring the bulk read when lazy is set.
type ReaderFunc func(path string, lazy bool) (File, error)

var (
	mu       sync.RWMutex
	registry = map[string]ReaderFunc{}
)

// Register binds a file extension (".idf") to a reader. Codec packages call
// this from init, so importing a codec is what makes its extension known.
func Register(ext string, fn ReaderFunc) {
	mu.Lock()
	defer mu.Unlock()
	registry[strings.ToLower(ext)] = fn
}

// Open dispatches on the path's extension.
func Open(path string, lazy bool) (File, error) {
	ext := strings.ToLower(filepath.Ext(path))

	mu.RLock()
	fn, ok := registry[ext]
	mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("no reader registered for %q files", ext)
	}
	return fn(path, lazy)
}
