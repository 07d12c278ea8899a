// Package source opens the raw dataset tables by file name, either from a
// local directory or from a remote base URL.
package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// ErrNotFound is returned when a table does not exist at the source
var ErrNotFound = errors.New("table not found")

// Source opens a table by file name (e.g. "metro.csv")
type Source interface {
	Open(ctx context.Context, name string) (io.ReadCloser, error)
}

// Dir reads tables from a local directory
type Dir struct {
	Root string
}

// Open implements Source
func (d Dir) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if name == "" || strings.Contains(name, "..") || filepath.IsAbs(name) {
		return nil, fmt.Errorf("invalid table name %q", name)
	}

	f, err := os.Open(filepath.Join(d.Root, name))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		return nil, fmt.Errorf("failed to open %s: %w", name, err)
	}
	return f, nil
}

// String describes the source for log lines
func (d Dir) String() string {
	return "dir:" + d.Root
}

// New returns an HTTP source when baseURL is set, otherwise a directory source
func New(dataDir, baseURL string, timeout time.Duration, retries int) (Source, error) {
	if baseURL != "" {
		return NewHTTP(HTTPConfig{BaseURL: baseURL, Timeout: timeout, MaxRetries: retries})
	}
	if dataDir == "" {
		return nil, errors.New("either a data directory or a base URL is required")
	}
	return Dir{Root: dataDir}, nil
}
