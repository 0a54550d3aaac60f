package generator

import (
	"fmt"
	"path/filepath"
	"time"

	"git.home.luguber.info/inful/jasg/internal/config"
	"git.home.luguber.info/inful/jasg/internal/frontmatter"
	"git.home.luguber.info/inful/jasg/internal/naming"
)

// Front matter keys the generator computes.
const (
	KeyDate       = "date"
	KeyLayout     = "layout"
	KeyTitle      = "title"
	KeyOutputPath = "output_path"
)

// resolveDate prefers a YYYY-MM-DD file name prefix and falls back to the
// modification time.
func (g *Generator) resolveDate(f sourceFile) (time.Time, error) {
	path := f.path
	if prefix, ok := naming.DatePrefix(filepath.Base(path)); ok {
		date, err := time.Parse(naming.DateLayout, prefix)
		if err != nil {
			return time.Time{}, newFileError(path, StageDate, ErrDateFormat, fmt.Errorf("%q: %w", prefix, err))
		}
		return date, nil
	}
	mtime, err := g.fs.ModTime(f.realPath)
	if err != nil {
		return time.Time{}, newFileError(path, StageDate, ErrSourceRead, err)
	}
	return mtime, nil
}

// buildFrontMatter layers computed values under the author's block. Values
// the block already defines (non-null) always win. Layout files only get
// a date.
func buildFrontMatter(cfg *config.SiteConfiguration, root string, rawFrontMatter string, date time.Time, path string, layout bool) (frontmatter.FrontMatter, error) {
	fm, err := frontmatter.New(rawFrontMatter)
	if err != nil {
		return frontmatter.FrontMatter{}, newFileError(path, StageParse, ErrParse, err)
	}

	data := map[string]any{KeyDate: date.Format(naming.DateLayout)}
	if !layout {
		name := filepath.Base(path)
		data[KeyLayout] = cfg.DefaultLayoutName()
		data[KeyTitle] = naming.TitleFromFileName(name)
		data[KeyOutputPath] = outputPath(root, cfg.OutputDirectory(), path)
	}
	return fm.WithData(data), nil
}

// outputPath is <root>/<output_directory>/<dir relative to root>/<stem>.html.
func outputPath(root, outputDirectory, path string) string {
	relDir, err := filepath.Rel(root, filepath.Dir(path))
	if err != nil {
		relDir = "."
	}
	return filepath.Join(root, outputDirectory, relDir, naming.Stem(filepath.Base(path))+".html")
}
