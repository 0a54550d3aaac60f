// Package config loads the per-site configuration stored under <root>/.jasg.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	foundationerrors "git.home.luguber.info/inful/jasg/internal/foundation/errors"
)

const (
	// ConfigDirName is the reserved configuration directory under the site root.
	ConfigDirName = ".jasg"
	// ConfigFileName is the configuration document inside ConfigDirName.
	ConfigFileName = "config.json"
	// DefaultOutputDirectory is used when config.json omits output_directory.
	DefaultOutputDirectory = "_site"
)

// SiteConfiguration is the decoded config.json. It is read-only after Load.
type SiteConfiguration struct {
	defaultLayout   string
	layoutDirectory string
	outputDirectory string
}

type rawConfiguration struct {
	DefaultLayout   string  `json:"default_layout"`
	LayoutDirectory string  `json:"layout_directory"`
	OutputDirectory *string `json:"output_directory"`
}

// New builds a configuration from explicit values. An empty outputDirectory
// falls back to DefaultOutputDirectory; an empty layoutDirectory disables
// layout classification. A layoutDirectory of "." makes the whole root the
// layout directory.
func New(defaultLayout, layoutDirectory, outputDirectory string) *SiteConfiguration {
	if outputDirectory == "" {
		outputDirectory = DefaultOutputDirectory
	}
	return &SiteConfiguration{
		defaultLayout:   defaultLayout,
		layoutDirectory: cleanRelative(layoutDirectory),
		outputDirectory: cleanRelative(outputDirectory),
	}
}

func cleanRelative(dir string) string {
	if dir == "" {
		return ""
	}
	return filepath.Clean(filepath.FromSlash(dir))
}

// DefaultLayoutName is the layout applied to pages that do not name one.
func (c *SiteConfiguration) DefaultLayoutName() string { return c.defaultLayout }

// LayoutDirectory is relative to the site root; empty means none configured.
func (c *SiteConfiguration) LayoutDirectory() string { return c.layoutDirectory }

// OutputDirectory is relative to the site root.
func (c *SiteConfiguration) OutputDirectory() string { return c.outputDirectory }

// HasLayoutDirectory reports whether layout classification is enabled.
func (c *SiteConfiguration) HasLayoutDirectory() bool { return c.layoutDirectory != "" }

// Path returns the location of config.json for a site root.
func Path(root string) string {
	return filepath.Join(root, ConfigDirName, ConfigFileName)
}

// Load reads and decodes <root>/.jasg/config.json.
func Load(root string) (*SiteConfiguration, error) {
	path := Path(root)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, foundationerrors.WrapError(err, foundationerrors.CategoryConfig, "read site configuration").
			Fatal().
			UserAction().
			WithContext("path", path).
			Build()
	}
	return Parse(path, data)
}

// Parse decodes a configuration document; path is only used for error context.
// The document must be a single JSON object.
func Parse(path string, data []byte) (*SiteConfiguration, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(data, &top); err != nil {
		return nil, invalid(path, fmt.Errorf("decode %s: %w", ConfigFileName, err))
	}
	if top == nil {
		return nil, invalid(path, fmt.Errorf("decode %s: top-level value must be an object, got null", ConfigFileName))
	}
	var raw rawConfiguration
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, invalid(path, fmt.Errorf("decode %s: %w", ConfigFileName, err))
	}

	output := DefaultOutputDirectory
	if raw.OutputDirectory != nil && *raw.OutputDirectory != "" {
		output = *raw.OutputDirectory
	}
	if filepath.IsAbs(output) || filepath.IsAbs(raw.LayoutDirectory) {
		return nil, foundationerrors.ConfigError("layout_directory and output_directory must be relative to the site root").
			WithContext("path", path).
			Build()
	}
	if cleanRelative(output) == "." {
		return nil, foundationerrors.ConfigError("output_directory must not be the site root").
			WithContext("path", path).
			WithContext("output_directory", output).
			Build()
	}
	return New(raw.DefaultLayout, raw.LayoutDirectory, output), nil
}

func invalid(path string, err error) error {
	return foundationerrors.WrapError(err, foundationerrors.CategoryConfig, "invalid site configuration").
		Fatal().
		UserAction().
		WithContext("path", path).
		Build()
}
