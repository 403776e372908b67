package config

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/lc/ruleconf/internal/filesys"
)

// Loader loads one declared location into a configuration.
type Loader interface {
	Load(location string) (Config, error)
}

// FileLoader loads configuration documents from a filesystem.
type FileLoader struct {
	fs filesys.ReadFS
}

// Verify FileLoader implements Loader interface.
var _ Loader = (*FileLoader)(nil)

// NewFileLoader returns a loader reading through fs.
func NewFileLoader(fs filesys.ReadFS) *FileLoader {
	return &FileLoader{fs: fs}
}

// Load reads and parses the document at path. A missing file yields
// ErrSourceNotFound and a malformed one ErrInvalidConfig.
func (l *FileLoader) Load(path string) (Config, error) {
	fi, err := l.fs.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrSourceNotFound, path)
		}
		return nil, fmt.Errorf("inspecting config file: %w", err)
	}
	if fi.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", ErrSourceNotFound, path)
	}

	data, err := l.fs.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	doc, err := Parse(path, data)
	if err != nil {
		return nil, err
	}
	return doc, nil
}
