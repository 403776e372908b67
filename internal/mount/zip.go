package mount

import (
	"fmt"
	"io"
	"io/fs"
	"strings"

	"github.com/klauspost/compress/zip"
)

// ZipOpener mounts zip-format archives (.zip and .jar) from the local disk.
// The location identifier is the archive path.
type ZipOpener struct{}

var _ Opener = ZipOpener{}

func (ZipOpener) Open(location string) (Handle, error) {
	rc, err := zip.OpenReader(location)
	if err != nil {
		return nil, fmt.Errorf("opening archive %s: %w", location, err)
	}
	files := make(map[string]*zip.File, len(rc.File))
	for _, f := range rc.File {
		files[f.Name] = f
	}
	return &zipHandle{rc: rc, files: files}, nil
}

type zipHandle struct {
	rc    *zip.ReadCloser
	files map[string]*zip.File // entry name -> file
}

func (h *zipHandle) ReadFile(name string) ([]byte, error) {
	f, ok := h.files[strings.TrimPrefix(name, "/")]
	if !ok || f.FileInfo().IsDir() {
		return nil, fmt.Errorf("%s: %w", name, fs.ErrNotExist)
	}
	r, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", name, err)
	}
	defer r.Close()
	return io.ReadAll(r)
}

func (h *zipHandle) Close() error { return h.rc.Close() }

// Entries lists the file entries of the archive at location without
// registering a mount.
func Entries(location string) ([]string, error) {
	rc, err := zip.OpenReader(location)
	if err != nil {
		return nil, fmt.Errorf("opening archive %s: %w", location, err)
	}
	defer rc.Close()

	names := make([]string, 0, len(rc.File))
	for _, f := range rc.File {
		if !f.FileInfo().IsDir() {
			names = append(names, f.Name)
		}
	}
	return names, nil
}
