// Package content models processed source files: publishable pages and the
// layouts they are rendered through.
package content

import (
	"time"

	"git.home.luguber.info/inful/jasg/internal/frontmatter"
)

// Type discriminates the Content variants.
type Type string

const (
	TypePage   Type = "page"
	TypeLayout Type = "layout"
)

// Content is one source file after metadata resolution. Values are immutable.
type Content interface {
	Type() Type
	Path() string
	Date() time.Time
	FrontMatter() frontmatter.FrontMatter
	Template() Template
}

type item struct {
	path        string
	date        time.Time
	frontMatter frontmatter.FrontMatter
	template    Template
}

func (i item) Path() string                         { return i.path }
func (i item) Date() time.Time                      { return i.date }
func (i item) FrontMatter() frontmatter.FrontMatter { return i.frontMatter }
func (i item) Template() Template                   { return i.template }

// Page is a publishable content file.
type Page struct{ item }

// NewPage builds a Page.
func NewPage(path string, date time.Time, fm frontmatter.FrontMatter, tpl Template) *Page {
	return &Page{item{path: path, date: date, frontMatter: fm, template: tpl}}
}

// Type implements Content.
func (*Page) Type() Type { return TypePage }

// Layout is a content file used as a rendering template for pages.
type Layout struct{ item }

// NewLayout builds a Layout.
func NewLayout(path string, date time.Time, fm frontmatter.FrontMatter, tpl Template) *Layout {
	return &Layout{item{path: path, date: date, frontMatter: fm, template: tpl}}
}

// Type implements Content.
func (*Layout) Type() Type { return TypeLayout }

// New builds the variant named by t.
func New(t Type, path string, date time.Time, fm frontmatter.FrontMatter, tpl Template) Content {
	if t == TypeLayout {
		return NewLayout(path, date, fm, tpl)
	}
	return NewPage(path, date, fm, tpl)
}
