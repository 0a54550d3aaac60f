package markdown

import (
	"net/url"
	"strings"
)

// Options controls how Markdown bodies are parsed for analysis.
type Options struct {
	// GFM enables GitHub Flavored Markdown, including bare URL autolinks.
	GFM bool
}

type LinkKind string

const (
	LinkKindInline              LinkKind = "inline"
	LinkKindImage               LinkKind = "image"
	LinkKindAuto                LinkKind = "auto"
	LinkKindReferenceDefinition LinkKind = "reference_definition"
)

type Link struct {
	Kind        LinkKind
	Destination string
}

// IsLocal reports whether the destination points into the site rather than
// at another host, a mail address or the current page.
func (l Link) IsLocal() bool {
	d := strings.TrimSpace(l.Destination)
	if d == "" || strings.HasPrefix(d, "#") || strings.HasPrefix(d, "//") {
		return false
	}
	u, err := url.Parse(d)
	if err != nil {
		return false
	}
	return u.Scheme == "" && u.Host == ""
}

// Target is the destination path with query and fragment removed and
// percent-escapes decoded.
func (l Link) Target() string {
	d := strings.TrimSpace(l.Destination)
	if i := strings.IndexAny(d, "?#"); i >= 0 {
		d = d[:i]
	}
	if unescaped, err := url.PathUnescape(d); err == nil {
		return unescaped
	}
	return d
}
