// Package manifest records what a generation run produced: the site
// configuration and, per content item, its classification, date, front
// matter and fingerprint. Manifests are written as YAML.
package manifest

import (
	"crypto/sha256"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/jasg/internal/content"
	"git.home.luguber.info/inful/jasg/internal/frontmatter"
	"git.home.luguber.info/inful/jasg/internal/naming"
	"git.home.luguber.info/inful/jasg/internal/site"
)

// SiteManifest is a snapshot of one generated Site.
type SiteManifest struct {
	ID            string        `yaml:"id"`
	Timestamp     time.Time     `yaml:"timestamp"`
	Root          string        `yaml:"root"`
	Configuration Configuration `yaml:"configuration"`
	Contents      []Entry       `yaml:"contents"`
}

// Configuration mirrors config.json.
type Configuration struct {
	DefaultLayout   string `yaml:"default_layout"`
	LayoutDirectory string `yaml:"layout_directory"`
	OutputDirectory string `yaml:"output_directory"`
}

// Entry describes one content item. Path is relative to Root.
type Entry struct {
	Type        content.Type            `yaml:"type"`
	Path        string                  `yaml:"path"`
	Date        string                  `yaml:"date"`
	Format      string                  `yaml:"format"`
	FrontMatter frontmatter.FrontMatter `yaml:"front_matter"`
	Fingerprint string                  `yaml:"fingerprint"`
}

// Build snapshots s. Entries follow the Site's insertion order.
func Build(s *site.Site, runID string, now time.Time) (*SiteManifest, error) {
	cfg := s.Configuration()
	m := &SiteManifest{
		ID:        runID,
		Timestamp: now.UTC(),
		Root:      s.Root(),
		Configuration: Configuration{
			DefaultLayout:   cfg.DefaultLayoutName(),
			LayoutDirectory: filepath.ToSlash(cfg.LayoutDirectory()),
			OutputDirectory: filepath.ToSlash(cfg.OutputDirectory()),
		},
	}

	for _, c := range s.Contents() {
		fp, err := content.Fingerprint(c)
		if err != nil {
			return nil, fmt.Errorf("fingerprint %s: %w", c.Path(), err)
		}
		rel, err := filepath.Rel(s.Root(), c.Path())
		if err != nil {
			rel = c.Path()
		}
		m.Contents = append(m.Contents, Entry{
			Type:        c.Type(),
			Path:        filepath.ToSlash(rel),
			Date:        c.Date().Format(naming.DateLayout),
			Format:      c.Template().Format(),
			FrontMatter: c.FrontMatter(),
			Fingerprint: fp,
		})
	}
	return m, nil
}

// ToYAML serializes the manifest.
func (m *SiteManifest) ToYAML() ([]byte, error) {
	data, err := yaml.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("marshal manifest: %w", err)
	}
	return data, nil
}

// FromYAML deserializes a manifest.
func FromYAML(data []byte) (*SiteManifest, error) {
	var m SiteManifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("unmarshal manifest: %w", err)
	}
	return &m, nil
}

// WriteFile writes the manifest to path, creating parent directories.
func (m *SiteManifest) WriteFile(path string) error {
	data, err := m.ToYAML()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("create manifest directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	return nil
}

// ReadFile loads a manifest written by WriteFile.
func ReadFile(path string) (*SiteManifest, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- path is supplied by the operator
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	return FromYAML(data)
}

// Hash is a digest of the configuration and content fingerprints. Two runs
// over an unchanged tree hash equal even though ID and Timestamp differ.
func (m *SiteManifest) Hash() (string, error) {
	type hashEntry struct {
		Type        content.Type `yaml:"type"`
		Path        string       `yaml:"path"`
		Fingerprint string       `yaml:"fingerprint"`
	}
	hashInput := struct {
		Configuration Configuration `yaml:"configuration"`
		Contents      []hashEntry   `yaml:"contents"`
	}{Configuration: m.Configuration}
	for _, e := range m.Contents {
		hashInput.Contents = append(hashInput.Contents, hashEntry{Type: e.Type, Path: e.Path, Fingerprint: e.Fingerprint})
	}

	data, err := yaml.Marshal(hashInput)
	if err != nil {
		return "", fmt.Errorf("marshal for hash: %w", err)
	}
	sum := sha256.Sum256(data)
	return fmt.Sprintf("%x", sum), nil
}

// Diff lists the paths whose entries were added, removed or changed between
// two manifests. A nil manifest has no entries.
func Diff(prev, next *SiteManifest) (added, removed, changed []string) {
	if prev == nil {
		prev = &SiteManifest{}
	}
	if next == nil {
		next = &SiteManifest{}
	}
	before := make(map[string]string, len(prev.Contents))
	for _, e := range prev.Contents {
		before[e.Path] = e.Fingerprint
	}
	seen := make(map[string]bool, len(next.Contents))
	for _, e := range next.Contents {
		seen[e.Path] = true
		fp, ok := before[e.Path]
		switch {
		case !ok:
			added = append(added, e.Path)
		case fp != e.Fingerprint:
			changed = append(changed, e.Path)
		}
	}
	for _, e := range prev.Contents {
		if !seen[e.Path] {
			removed = append(removed, e.Path)
		}
	}
	return added, removed, changed
}
