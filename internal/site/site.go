// Package site holds the aggregate produced by one generation run: the site
// configuration plus every processed content item.
package site

import (
	"errors"
	"path/filepath"
	"slices"
	"sync"

	"git.home.luguber.info/inful/jasg/internal/config"
	"git.home.luguber.info/inful/jasg/internal/content"
)

// Site is safe for concurrent use. Only the generator adds content; once a
// run returns, the Site is treated as read-only by consumers.
type Site struct {
	root   string
	config *config.SiteConfiguration

	mu       sync.RWMutex
	contents []content.Content
	byPath   map[string]content.Content
}

// New creates an empty Site for a root directory.
func New(root string, cfg *config.SiteConfiguration) *Site {
	return &Site{
		root:   root,
		config: cfg,
		byPath: make(map[string]content.Content),
	}
}

// Root is the absolute site root the content was read from.
func (s *Site) Root() string { return s.root }

// Configuration returns the site configuration.
func (s *Site) Configuration() *config.SiteConfiguration { return s.config }

// AddContent appends c. Adding a second item for the same source path
// replaces the lookup entry but both stay in Contents.
func (s *Site) AddContent(c content.Content) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.contents = append(s.contents, c)
	s.byPath[c.Path()] = c
}

// Contents returns the items in insertion order.
func (s *Site) Contents() []content.Content {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.contents)
}

// Len is the number of content items.
func (s *Site) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.contents)
}

// Pages returns the Page items in insertion order.
func (s *Site) Pages() []content.Content { return s.ofType(content.TypePage) }

// Layouts returns the Layout items in insertion order.
func (s *Site) Layouts() []content.Content { return s.ofType(content.TypeLayout) }

func (s *Site) ofType(t content.Type) []content.Content {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []content.Content
	for _, c := range s.contents {
		if c.Type() == t {
			out = append(out, c)
		}
	}
	return out
}

// ByPath looks an item up by its absolute source path.
func (s *Site) ByPath(path string) (content.Content, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.byPath[path]
	return c, ok
}

// Layout finds a layout by base name (the value pages carry in their
// `layout` front matter), e.g. "default.html".
func (s *Site) Layout(name string) (content.Content, bool) {
	for _, l := range s.Layouts() {
		if filepath.Base(l.Path()) == name {
			return l, true
		}
	}
	return nil, false
}

// Cleanup removes every template body copy. The Site must not be used for
// rendering afterwards.
func (s *Site) Cleanup() error {
	var errs []error
	for _, c := range s.Contents() {
		if err := c.Template().Remove(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
