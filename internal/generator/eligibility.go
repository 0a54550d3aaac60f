package generator

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/jasg/internal/config"
)

// sourceFile is one eligible file in walk order.
type sourceFile struct {
	index int
	// path is where the walk found the file; realPath has symlinks resolved.
	path     string
	realPath string
}

// rules decides eligibility and classification. All directories are
// absolute and symlink-free.
type rules struct {
	root      string
	configDir string
	outputDir string
	layoutDir string
}

func newRules(root string, cfg *config.SiteConfiguration) rules {
	r := rules{
		root:      root,
		configDir: filepath.Join(root, config.ConfigDirName),
		outputDir: filepath.Join(root, cfg.OutputDirectory()),
	}
	if cfg.HasLayoutDirectory() {
		r.layoutDir = filepath.Join(root, cfg.LayoutDirectory())
	}
	return r
}

// isUnder reports whether path is dir or lies inside it. "_site2/a" is not
// under "_site".
func isUnder(path, dir string) bool {
	if dir == "" {
		return false
	}
	if path == dir {
		return true
	}
	return strings.HasPrefix(path, dir+string(filepath.Separator))
}

func (r rules) eligible(realPath string) bool {
	if strings.HasPrefix(filepath.Base(realPath), ".") {
		return false
	}
	return !isUnder(realPath, r.configDir) && !isUnder(realPath, r.outputDir)
}

// isLayoutPath is the single classification predicate: it picks the Layout
// variant and suppresses computed defaults.
func (r rules) isLayoutPath(realPath string) bool {
	return isUnder(realPath, r.layoutDir)
}

// collect walks the root in lexical order and returns the eligible files.
// Reserved directories are pruned without descending.
func (r rules) collect(ctx context.Context) ([]sourceFile, error) {
	var files []sourceFile
	err := filepath.WalkDir(r.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return newFileError(path, StageWalk, ErrSourceRead, err)
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if d.IsDir() {
			if path != r.root && (isUnder(path, r.configDir) || isUnder(path, r.outputDir)) {
				return filepath.SkipDir
			}
			return nil
		}

		realPath, ok, err := resolveRegular(path, d)
		if err != nil {
			return newFileError(path, StageWalk, ErrSourceRead, err)
		}
		if !ok || !r.eligible(path) || !r.eligible(realPath) {
			return nil
		}
		files = append(files, sourceFile{index: len(files), path: path, realPath: realPath})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

// resolveRegular returns the real path of a regular file, following a
// symlink entry. Links to directories and other special files are not content.
func resolveRegular(path string, d fs.DirEntry) (string, bool, error) {
	if d.Type().IsRegular() {
		return path, true, nil
	}
	if d.Type()&fs.ModeSymlink == 0 {
		return "", false, nil
	}
	real, err := filepath.EvalSymlinks(path)
	if err != nil {
		if os.IsNotExist(err) {
			// Dangling links carry no content.
			return "", false, nil
		}
		return "", false, fmt.Errorf("resolve symlink: %w", err)
	}
	info, err := os.Stat(real)
	if err != nil {
		return "", false, err
	}
	return real, info.Mode().IsRegular(), nil
}
