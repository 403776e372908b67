package resource

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/lc/ruleconf/internal/config"
	"github.com/lc/ruleconf/internal/filesys"
	"github.com/lc/ruleconf/internal/mount"
)

// Mounter is the part of the mount table the loader needs.
type Mounter interface {
	EnsureMounted(location string)
	ReadFile(location, name string) ([]byte, error)
}

var _ Mounter = (*mount.Table)(nil)

// Loader reads located resources into configurations. Archive locations
// are mounted before they are read.
type Loader struct {
	mounts Mounter
	fs     filesys.ReadFS
}

// NewLoader returns a loader using mounts for archives and fs for directories.
func NewLoader(mounts Mounter, fs filesys.ReadFS) *Loader {
	return &Loader{mounts: mounts, fs: fs}
}

// Load reads and parses the resource at loc.
func (l *Loader) Load(loc Location) (config.Config, error) {
	var (
		data []byte
		err  error
	)
	if loc.Archive {
		l.mounts.EnsureMounted(loc.MountID())
		data, err = l.mounts.ReadFile(loc.MountID(), loc.Name)
	} else {
		data, err = l.fs.ReadFile(filepath.Join(loc.Root, filepath.FromSlash(loc.Name)))
	}
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) || errors.Is(err, mount.ErrNotMounted) {
			return nil, fmt.Errorf("%w: %s", config.ErrSourceNotFound, loc)
		}
		return nil, fmt.Errorf("reading resource %s: %w", loc, err)
	}

	doc, err := config.Parse(loc.String(), data)
	if err != nil {
		return nil, err
	}
	return doc, nil
}
