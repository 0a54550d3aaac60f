package generator

import (
	"os"
	"time"
)

// FileSystem is the I/O surface the generator suspends on. Implementations
// must be safe for concurrent use.
type FileSystem interface {
	ReadFile(path string) ([]byte, error)
	ModTime(path string) (time.Time, error)
	// WriteTemp stores data in a new private file and returns its path.
	WriteTemp(data []byte) (string, error)
}

// OSFileSystem reads from the local disk and writes template bodies under
// TempDir (os.TempDir when empty).
type OSFileSystem struct {
	TempDir string
}

func (OSFileSystem) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path) // #nosec G304 -- paths come from walking the site root
}

func (OSFileSystem) ModTime(path string) (time.Time, error) {
	info, err := os.Stat(path)
	if err != nil {
		return time.Time{}, err
	}
	return info.ModTime(), nil
}

func (o OSFileSystem) WriteTemp(data []byte) (string, error) {
	f, err := os.CreateTemp(o.TempDir, "jasg-*")
	if err != nil {
		return "", err
	}
	name := f.Name()
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		_ = os.Remove(name)
		return "", err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(name)
		return "", err
	}
	return name, nil
}
