package content

import (
	"fmt"
	"strings"

	"github.com/inful/mdfp"

	"git.home.luguber.info/inful/jasg/internal/frontmatter"
)

// Fingerprint hashes a content item's variant, front matter, and body.
// The template handle location is not hashed; unchanged sources fingerprint
// identically across runs.
func Fingerprint(c Content) (string, error) {
	body, err := c.Template().Contents()
	if err != nil {
		return "", fmt.Errorf("read template body for %s: %w", c.Path(), err)
	}

	fields := c.FrontMatter().Map()
	delete(fields, mdfp.FingerprintField)
	fields["_type"] = string(c.Type())
	fields["_format"] = c.Template().Format()

	serialized, err := frontmatter.SerializeYAML(fields)
	if err != nil {
		return "", fmt.Errorf("serialize front matter for %s: %w", c.Path(), err)
	}
	fm := strings.TrimSuffix(string(serialized), "\n")

	return mdfp.CalculateFingerprintFromParts(fm, string(body)), nil
}
