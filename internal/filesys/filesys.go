// Package filesys is the filesystem seam for ruleconf. Loaders read through
// ReadFS and the config generator writes through FileOps, so both can be
// exercised in tests without touching the disk.
package filesys

import (
	"io/fs"
	"os"
	"path/filepath"

	"github.com/lc/ruleconf/internal/log"
)

// ReadFS is what configuration and resource loaders need.
type ReadFS interface {
	Stat(string) (fs.FileInfo, error)
	ReadFile(string) ([]byte, error)
}

// FileOps is what AtomicWrite needs.
type FileOps interface {
	Open(string) (*os.File, error)
	MkdirAll(string, os.FileMode) error
	CreateTemp(string, string) (*os.File, error)
	Rename(string, string) error
	Remove(string) error
	Chmod(string, os.FileMode) error
}

// OS returns the implementation backed by the local disk.
func OS() OsFS {
	return OsFS{}
}

// OsFS implements ReadFS and FileOps by delegating to package os.
type OsFS struct{}

func (OsFS) Stat(p string) (fs.FileInfo, error)           { return os.Stat(p) }
func (OsFS) ReadFile(p string) ([]byte, error)            { return os.ReadFile(p) }
func (OsFS) Open(p string) (*os.File, error)              { return os.Open(p) }
func (OsFS) MkdirAll(p string, m os.FileMode) error       { return os.MkdirAll(p, m) }
func (OsFS) CreateTemp(dir, pat string) (*os.File, error) { return os.CreateTemp(dir, pat) }
func (OsFS) Rename(old, newName string) error             { return os.Rename(old, newName) }
func (OsFS) Remove(p string) error                        { return os.Remove(p) }
func (OsFS) Chmod(p string, m os.FileMode) error          { return os.Chmod(p, m) }

var (
	_ ReadFS  = OsFS{}
	_ FileOps = OsFS{}
)

// AtomicWrite replaces dst with data so readers never observe a partially
// written file. The parent directory is created when missing:
//
//  1. temp file next to dst
//  2. write, fsync, close
//  3. chmod to perm
//  4. rename over dst
//  5. fsync the directory (best effort)
func AtomicWrite(ops FileOps, dst string, data []byte, perm fs.FileMode) error {
	dir := filepath.Dir(dst)
	if err := ops.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := ops.CreateTemp(dir, ".ruleconf-*")
	if err != nil {
		return err
	}
	discard := func(cause error) error {
		if removeErr := ops.Remove(tmp.Name()); removeErr != nil {
			log.Warn("filesys: failed to remove temp file", "path", tmp.Name(), "error", removeErr)
		}
		return cause
	}

	if _, err = tmp.Write(data); err == nil {
		err = tmp.Sync()
	}
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return discard(err)
	}
	if err := ops.Chmod(tmp.Name(), perm); err != nil {
		return discard(err)
	}
	if err := ops.Rename(tmp.Name(), dst); err != nil {
		return discard(err)
	}

	if d, err := ops.Open(dir); err == nil {
		if syncErr := d.Sync(); syncErr != nil {
			log.Debug("filesys: directory sync failed", "dir", dir, "error", syncErr)
		}
		_ = d.Close()
	}
	return nil
}
