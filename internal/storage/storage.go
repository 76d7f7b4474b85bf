// Package storage is the filesystem handle for backup artifacts. All file
// access goes through an afero.Fs so tests can run against memory.
package storage

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/klauspost/compress/zip"
	"github.com/spf13/afero"
)

const (
	BackupsDir = "backups"
	TempDir    = "temp"
)

var zipSignature = []byte("PK\x03\x04")

// Storage reads and writes files below a storage root.
type Storage struct {
	fs   afero.Fs
	root string
}

// New returns a Storage over fs rooted at root.
func New(fs afero.Fs, root string) *Storage {
	return &Storage{fs: fs, root: root}
}

// NewOS returns a Storage over the operating system filesystem.
func NewOS(root string) *Storage {
	return New(afero.NewOsFs(), root)
}

// Path joins elem onto the storage root.
func (s *Storage) Path(elem ...string) string {
	return filepath.Join(append([]string{s.root}, elem...)...)
}

// BackupsPath returns the directory backups are written to.
func (s *Storage) BackupsPath() string {
	return s.Path(BackupsDir)
}

// Resolve returns the path of an existing file. A relative name that does
// not exist as given is looked up in the backups directory.
func (s *Storage) Resolve(name string) (string, error) {
	if s.Exists(name) {
		return name, nil
	}
	if !filepath.IsAbs(name) {
		candidate := filepath.Join(s.BackupsPath(), name)
		if s.Exists(candidate) {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("%s: %w", name, os.ErrNotExist)
}

// Exists reports whether path names an existing regular file.
func (s *Storage) Exists(path string) bool {
	info, err := s.fs.Stat(path)
	return err == nil && !info.IsDir()
}

// MakeDir creates path and any missing parents.
func (s *Storage) MakeDir(path string) error {
	if err := s.fs.MkdirAll(path, 0755); err != nil {
		return fmt.Errorf("creating directory %s: %w", path, err)
	}
	return nil
}

// ReadFile returns the content of path.
func (s *Storage) ReadFile(path string) ([]byte, error) {
	data, err := afero.ReadFile(s.fs, path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return data, nil
}

// WriteFile writes data to path, creating the parent directory first.
func (s *Storage) WriteFile(path string, data []byte) error {
	if err := s.MakeDir(filepath.Dir(path)); err != nil {
		return err
	}
	if err := afero.WriteFile(s.fs, path, data, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// Remove deletes path. A missing file is not an error.
func (s *Storage) Remove(path string) error {
	if err := s.fs.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("removing %s: %w", path, err)
	}
	return nil
}

// TempPath returns a unique scratch path for name inside the temp directory,
// so concurrent runs never share an intermediate file.
func (s *Storage) TempPath(name string) string {
	ext := filepath.Ext(name)
	base := strings.TrimSuffix(filepath.Base(name), ext)
	return s.Path(TempDir, fmt.Sprintf("%s_%s%s", base, uuid.NewString(), ext))
}

// Zip packs src into a new single-entry archive at dst.
func (s *Storage) Zip(src, dst, entry string) (err error) {
	in, err := s.fs.Open(src)
	if err != nil {
		return fmt.Errorf("opening %s: %w", src, err)
	}
	defer in.Close()

	if err := s.MakeDir(filepath.Dir(dst)); err != nil {
		return err
	}
	out, err := s.fs.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("creating archive %s: %w", dst, err)
	}
	defer func() {
		if cerr := out.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("closing archive %s: %w", dst, cerr)
		}
	}()

	zw := zip.NewWriter(out)
	w, err := zw.CreateHeader(&zip.FileHeader{Name: entry, Method: zip.Deflate})
	if err != nil {
		return fmt.Errorf("adding %s to archive: %w", entry, err)
	}
	if _, err := io.Copy(w, in); err != nil {
		return fmt.Errorf("compressing %s: %w", src, err)
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("finishing archive %s: %w", dst, err)
	}
	return nil
}

// IsZip reports whether path starts with a zip local file header.
func (s *Storage) IsZip(path string) (bool, error) {
	f, err := s.fs.Open(path)
	if err != nil {
		return false, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	head := make([]byte, len(zipSignature))
	n, err := io.ReadFull(f, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return false, fmt.Errorf("reading %s: %w", path, err)
	}
	return bytes.Equal(head[:n], zipSignature), nil
}

// ReadZipEntry returns the name and content of the first file in the
// archive at path.
func (s *Storage) ReadZipEntry(path string) (string, []byte, error) {
	f, err := s.fs.Open(path)
	if err != nil {
		return "", nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return "", nil, fmt.Errorf("reading %s: %w", path, err)
	}
	zr, err := zip.NewReader(f, info.Size())
	if err != nil {
		return "", nil, fmt.Errorf("opening archive %s: %w", path, err)
	}

	for _, file := range zr.File {
		if file.FileInfo().IsDir() {
			continue
		}
		rc, err := file.Open()
		if err != nil {
			return "", nil, fmt.Errorf("opening %s in archive: %w", file.Name, err)
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return "", nil, fmt.Errorf("extracting %s: %w", file.Name, err)
		}
		return file.Name, data, nil
	}
	return "", nil, fmt.Errorf("archive %s is empty", path)
}
