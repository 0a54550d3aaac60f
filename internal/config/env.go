package config

import (
	"errors"
	"io/fs"
	"log/slog"
	"path/filepath"

	"github.com/joho/godotenv"
)

// envFiles are tried in order. godotenv.Load never overrides variables that
// are already set, so earlier files and the real environment win.
var envFiles = []string{".env", ".env.local"}

// LoadEnv loads .env style files from dir into the process environment.
// Missing files are skipped.
func LoadEnv(dir string) ([]string, error) {
	var loaded []string
	for _, name := range envFiles {
		path := filepath.Join(dir, name)
		if err := godotenv.Load(path); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return loaded, err
		}
		slog.Debug("Loaded environment file", slog.String("path", path))
		loaded = append(loaded, path)
	}
	return loaded, nil
}
