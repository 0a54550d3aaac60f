package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	foundationerrors "git.home.luguber.info/inful/jasg/internal/foundation/errors"
)

func writeConfig(t *testing.T, root, body string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Join(root, ConfigDirName), 0o750))
	require.NoError(t, os.WriteFile(Path(root), []byte(body), 0o600))
}

func TestLoad_ReadsAllFields(t *testing.T) {
	root := t.TempDir()
	writeConfig(t, root, `{"layout_directory":"_layouts","output_directory":"public","default_layout":"default.html"}`)

	cfg, err := Load(root)
	require.NoError(t, err)
	require.Equal(t, "default.html", cfg.DefaultLayoutName())
	require.Equal(t, "_layouts", cfg.LayoutDirectory())
	require.Equal(t, "public", cfg.OutputDirectory())
	require.True(t, cfg.HasLayoutDirectory())
}

func TestLoad_EmptyLayoutDirectoryDisablesLayouts(t *testing.T) {
	root := t.TempDir()
	writeConfig(t, root, `{"layout_directory":"","output_directory":"_site","default_layout":"default.html"}`)

	cfg, err := Load(root)
	require.NoError(t, err)
	require.Empty(t, cfg.LayoutDirectory())
	require.False(t, cfg.HasLayoutDirectory())
}

func TestLoad_MissingOutputDirectoryUsesDefault(t *testing.T) {
	root := t.TempDir()
	writeConfig(t, root, `{"default_layout":"default.html"}`)

	cfg, err := Load(root)
	require.NoError(t, err)
	require.Equal(t, DefaultOutputDirectory, cfg.OutputDirectory())
}

func TestLoad_MissingFileIsConfigError(t *testing.T) {
	_, err := Load(t.TempDir())
	require.Error(t, err)
	require.True(t, foundationerrors.HasCategory(err, foundationerrors.CategoryConfig))

	ce, ok := foundationerrors.AsClassified(err)
	require.True(t, ok)
	require.True(t, ce.IsFatal())
}

func TestLoad_MalformedJSONIsConfigError(t *testing.T) {
	root := t.TempDir()
	writeConfig(t, root, `{"layout_directory": `)

	_, err := Load(root)
	require.Error(t, err)
	require.True(t, foundationerrors.HasCategory(err, foundationerrors.CategoryConfig))
}

func TestParse_RejectsAbsoluteDirectories(t *testing.T) {
	_, err := Parse("config.json", []byte(`{"output_directory":"/var/www"}`))
	require.Error(t, err)
}

func TestNew_CleansDirectories(t *testing.T) {
	cfg := New("default.html", "./layouts/", "")
	require.Equal(t, "layouts", cfg.LayoutDirectory())
	require.Equal(t, "_site", cfg.OutputDirectory())

	root := New("d", ".", "")
	require.Equal(t, ".", root.LayoutDirectory())
	require.True(t, root.HasLayoutDirectory())
}

func TestParse_RejectsInvalidDocuments(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"null", `null`},
		{"trailing data", `{"default_layout":"d"} garbage`},
		{"second object", `{"default_layout":"d"}{"default_layout":"e"}`},
		{"array", `[{"default_layout":"d"}]`},
		{"string", `"config"`},
		{"number", `42`},
		{"empty", ``},
		{"wrong field type", `{"default_layout":3}`},
		{"output is root", `{"output_directory":"."}`},
		{"output cleans to root", `{"output_directory":"public/.."}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse("config.json", []byte(tc.body))
			require.Error(t, err)
			require.True(t, foundationerrors.HasCategory(err, foundationerrors.CategoryConfig))
		})
	}
}

func TestParse_AcceptsEmptyObjectAndRootLayoutDirectory(t *testing.T) {
	cfg, err := Parse("config.json", []byte(`{}`))
	require.NoError(t, err)
	require.Equal(t, DefaultOutputDirectory, cfg.OutputDirectory())
	require.False(t, cfg.HasLayoutDirectory())

	cfg, err = Parse("config.json", []byte(`{"layout_directory":".","default_layout":"d"}`))
	require.NoError(t, err)
	require.Equal(t, ".", cfg.LayoutDirectory())
}

func TestLoadEnv_DoesNotOverrideExisting(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("JASG_TEST_A=from-file\nJASG_TEST_B=from-file\n"), 0o600))
	t.Setenv("JASG_TEST_A", "from-env")
	t.Setenv("JASG_TEST_B", "")
	require.NoError(t, os.Unsetenv("JASG_TEST_B"))

	loaded, err := LoadEnv(dir)
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	require.Equal(t, "from-env", os.Getenv("JASG_TEST_A"))
	require.Equal(t, "from-file", os.Getenv("JASG_TEST_B"))
}
