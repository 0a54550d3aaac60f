package content

import (
	"errors"
	"io/fs"
	"os"
)

// Template pairs a body format (the file extension, e.g. "md") with a
// durable handle to the body: a private copy that outlives changes to the
// source file.
type Template struct {
	format      string
	contentPath string
}

// NewTemplate builds a Template for a materialized body copy.
func NewTemplate(format, contentPath string) Template {
	return Template{format: format, contentPath: contentPath}
}

// Format is the body format.
func (t Template) Format() string { return t.format }

// ContentPath is the location of the body copy.
func (t Template) ContentPath() string { return t.contentPath }

// Contents reads the body copy.
func (t Template) Contents() ([]byte, error) {
	return os.ReadFile(t.contentPath)
}

// Remove deletes the body copy. Removing an already removed copy is not an error.
func (t Template) Remove() error {
	if t.contentPath == "" {
		return nil
	}
	if err := os.Remove(t.contentPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}
