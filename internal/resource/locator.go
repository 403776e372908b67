// Package resource resolves classpath-style resource names against an
// ordered list of roots. A root is either a directory or a zip-format
// archive (.jar, .zip); the same name may be found in several roots, in
// which case every match is returned in root order.
package resource

import (
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"github.com/lc/ruleconf/internal/filesys"
	"github.com/lc/ruleconf/internal/log"
	"github.com/lc/ruleconf/internal/mount"
)

// ErrEmptyResourceSet is returned when a resource name matches no root.
var ErrEmptyResourceSet = errors.New("resource matched no classpath entry")

// ClasspathEnv names the environment variable holding default roots.
const ClasspathEnv = "RULECONF_CLASSPATH"

// Location is one concrete match of a resource name.
type Location struct {
	Root    string
	Name    string
	Archive bool
}

// MountID identifies the virtual filesystem the location lives in.
func (l Location) MountID() string { return l.Root }

func (l Location) String() string {
	if l.Archive {
		return "jar:file:" + filepath.ToSlash(l.Root) + "!/" + l.Name
	}
	return "file:" + filepath.ToSlash(filepath.Join(l.Root, filepath.FromSlash(l.Name)))
}

// Locator resolves names against its roots.
type Locator struct {
	fs    filesys.ReadFS
	roots []string
}

// NewLocator returns a locator over roots, searched in order.
func NewLocator(fs filesys.ReadFS, roots ...string) *Locator {
	return &Locator{fs: fs, roots: slices.Clone(roots)}
}

// ClasspathFromEnv splits $RULECONF_CLASSPATH on the OS list separator.
func ClasspathFromEnv() []string {
	return SplitClasspath(os.Getenv(ClasspathEnv))
}

// SplitClasspath splits a list of roots joined with the OS list separator.
func SplitClasspath(v string) []string {
	var roots []string
	for _, r := range filepath.SplitList(v) {
		if r = strings.TrimSpace(r); r != "" {
			roots = append(roots, r)
		}
	}
	return roots
}

// Roots returns the roots in search order.
func (l *Locator) Roots() []string { return slices.Clone(l.roots) }

// Resolve returns every location holding name. Unreadable archives are
// skipped with a warning.
func (l *Locator) Resolve(name string) ([]Location, error) {
	clean := strings.TrimPrefix(path.Clean("/"+filepath.ToSlash(name)), "/")

	var found []Location
	for _, root := range l.roots {
		if IsArchive(root) {
			entries, err := mount.Entries(root)
			if err != nil {
				log.Warn("resource: skipping unreadable archive", "root", root, "error", err)
				continue
			}
			if slices.Contains(entries, clean) {
				found = append(found, Location{Root: root, Name: clean, Archive: true})
			}
			continue
		}

		fi, err := l.fs.Stat(filepath.Join(root, filepath.FromSlash(clean)))
		if err == nil && !fi.IsDir() {
			found = append(found, Location{Root: root, Name: clean})
		}
	}

	if len(found) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyResourceSet, name)
	}
	return found, nil
}

// IsArchive reports whether root names a zip-format archive.
func IsArchive(root string) bool {
	switch strings.ToLower(filepath.Ext(root)) {
	case ".jar", ".zip":
		return true
	default:
		return false
	}
}
