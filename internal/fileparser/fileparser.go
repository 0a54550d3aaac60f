// Package fileparser defines the contract for splitting a raw content file
// into its metadata block and body, plus the default YAML implementation.
package fileparser

import (
	"git.home.luguber.info/inful/jasg/internal/frontmatter"
)

// Results is the read-only outcome of parsing a single file.
type Results struct {
	rawFrontMatter string
	rawContents    string
}

// NewResults builds Results; used by FileParser implementations.
func NewResults(rawFrontMatter, rawContents string) Results {
	return Results{rawFrontMatter: rawFrontMatter, rawContents: rawContents}
}

// RawFrontMatter is the metadata block without delimiters.
func (r Results) RawFrontMatter() string { return r.rawFrontMatter }

// RawContents is the body text.
func (r Results) RawContents() string { return r.rawContents }

// FileParser splits raw file bytes. Implementations must be stateless per
// call; the generator invokes Parse from several goroutines at once.
type FileParser interface {
	Parse(raw []byte) (Results, error)
}

// YAMLParser parses `---` delimited YAML front matter.
type YAMLParser struct{}

// NewYAMLParser returns the default parser.
func NewYAMLParser() YAMLParser { return YAMLParser{} }

// Parse implements FileParser. Files without a block parse to empty front
// matter and a body equal to the whole file.
func (YAMLParser) Parse(raw []byte) (Results, error) {
	doc, err := frontmatter.Split(raw)
	if err != nil {
		return Results{}, err
	}
	return NewResults(string(doc.Block), string(doc.Body)), nil
}

// Func adapts a plain function to FileParser.
type Func func(raw []byte) (Results, error)

// Parse implements FileParser.
func (f Func) Parse(raw []byte) (Results, error) { return f(raw) }
