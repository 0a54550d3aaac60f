// Package frontmatter splits YAML metadata blocks from content files and
// models the resulting metadata as an immutable, ordered key/value record.
package frontmatter

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// FrontMatter is an immutable ordered mapping of metadata keys to values.
//
// The zero value is an empty FrontMatter. Enrichment never mutates a value in
// place; WithData returns a new FrontMatter.
type FrontMatter struct {
	keys   []string
	values map[string]any
}

// New builds a FrontMatter from a raw YAML block (without delimiters).
// Keys keep their document order.
func New(raw string) (FrontMatter, error) {
	if strings.TrimSpace(raw) == "" {
		return FrontMatter{}, nil
	}

	var doc yaml.Node
	if err := yaml.Unmarshal([]byte(raw), &doc); err != nil {
		return FrontMatter{}, err
	}
	if doc.Kind == 0 || len(doc.Content) == 0 {
		return FrontMatter{}, nil
	}

	return fromNode(doc.Content[0])
}

// UnmarshalYAML decodes a mapping node, keeping document order.
func (f *FrontMatter) UnmarshalYAML(node *yaml.Node) error {
	fm, err := fromNode(node)
	if err != nil {
		return err
	}
	*f = fm
	return nil
}

func fromNode(root *yaml.Node) (FrontMatter, error) {
	if root.Kind == yaml.ScalarNode && root.Tag == "!!null" {
		return FrontMatter{}, nil
	}
	if root.Kind != yaml.MappingNode {
		return FrontMatter{}, fmt.Errorf("frontmatter must be a mapping, got %s", kindName(root.Kind))
	}

	fm := FrontMatter{values: make(map[string]any, len(root.Content)/2)}
	for i := 0; i+1 < len(root.Content); i += 2 {
		keyNode, valNode := root.Content[i], root.Content[i+1]
		var value any
		if err := valNode.Decode(&value); err != nil {
			return FrontMatter{}, fmt.Errorf("decode frontmatter key %q: %w", keyNode.Value, err)
		}
		if _, dup := fm.values[keyNode.Value]; !dup {
			fm.keys = append(fm.keys, keyNode.Value)
		}
		fm.values[keyNode.Value] = value
	}
	return fm, nil
}

// FromMap builds a FrontMatter from already decoded data. Keys are sorted.
func FromMap(data map[string]any) FrontMatter {
	return FrontMatter{}.WithData(data)
}

// Get returns the value for key.
func (f FrontMatter) Get(key string) (any, bool) {
	v, ok := f.values[key]
	return v, ok
}

// GetString returns the value for key when it is a string.
func (f FrontMatter) GetString(key string) (string, bool) {
	s, ok := f.values[key].(string)
	return s, ok
}

// Has reports whether key is present, even with a null value.
func (f FrontMatter) Has(key string) bool {
	_, ok := f.values[key]
	return ok
}

// Keys returns the keys in insertion order.
func (f FrontMatter) Keys() []string {
	return slices.Clone(f.keys)
}

// Len is the number of keys.
func (f FrontMatter) Len() int {
	return len(f.keys)
}

// Map returns a shallow copy of the data.
func (f FrontMatter) Map() map[string]any {
	out := make(map[string]any, len(f.values))
	maps.Copy(out, f.values)
	return out
}

// WithData returns a new FrontMatter with data layered over f. Keys already
// present in f keep their value; only absent keys are added, in sorted order.
// A key holding an explicit null counts as absent and is filled in place.
func (f FrontMatter) WithData(data map[string]any) FrontMatter {
	out := FrontMatter{
		keys:   slices.Clone(f.keys),
		values: make(map[string]any, len(f.values)+len(data)),
	}
	maps.Copy(out.values, f.values)

	for _, k := range slices.Sorted(maps.Keys(data)) {
		existing, exists := out.values[k]
		if exists && existing != nil {
			continue
		}
		if !exists {
			out.keys = append(out.keys, k)
		}
		out.values[k] = data[k]
	}
	return out
}

func kindName(k yaml.Kind) string {
	switch k {
	case yaml.SequenceNode:
		return "sequence"
	case yaml.ScalarNode:
		return "scalar"
	case yaml.AliasNode:
		return "alias"
	default:
		return "document"
	}
}
