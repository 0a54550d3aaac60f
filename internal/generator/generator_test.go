package generator

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/jasg/internal/content"
	"git.home.luguber.info/inful/jasg/internal/fileparser"
	foundationerrors "git.home.luguber.info/inful/jasg/internal/foundation/errors"
	"git.home.luguber.info/inful/jasg/internal/site"
	"git.home.luguber.info/inful/jasg/internal/testutil"
)

const defaultConfig = testutil.DefaultConfig

// tempFS keeps template copies in a per-test directory so tests can check
// that nothing leaks.
func tempFS(t *testing.T) (OSFileSystem, string) {
	t.Helper()
	dir := t.TempDir()
	return OSFileSystem{TempDir: dir}, dir
}

func generate(t *testing.T, root string, opts ...Option) *site.Site {
	t.Helper()
	fsys, _ := tempFS(t)
	s, err := New(root, nil, append([]Option{WithFileSystem(fsys)}, opts...)...).GenerateSite(context.Background())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Cleanup() })
	return s
}

func relPaths(t *testing.T, root string, s *site.Site) []string {
	t.Helper()
	var out []string
	for _, c := range s.Contents() {
		rel, err := filepath.Rel(root, c.Path())
		require.NoError(t, err)
		out = append(out, filepath.ToSlash(rel))
	}
	return out
}

func mustGet(t *testing.T, s *site.Site, path string) content.Content {
	t.Helper()
	c, ok := s.ByPath(path)
	require.True(t, ok, "missing content for %s", path)
	return c
}

func TestGenerateSite_ExcludesReservedAndHiddenFiles(t *testing.T) {
	root := testutil.NewSiteRoot(t, defaultConfig, map[string]string{
		"index.md":              "# home\n",
		".hidden.md":            "secret\n",
		"posts/.draft.md":       "draft\n",
		".jasg/notes.md":        "config notes\n",
		"_site/index.html":      "<html></html>\n",
		"_site/posts/old.md":    "generated\n",
		"_site2/kept.md":        "not the output dir\n",
		"posts/2021-01-01-a.md": "a\n",
		".well/b.md":            "only the base name is checked\n",
	})

	s := generate(t, root)
	require.Equal(t, []string{".well/b.md", "_site2/kept.md", "index.md", "posts/2021-01-01-a.md"}, relPaths(t, root, s))
}

func TestGenerateSite_UsesConfiguredOutputDirectory(t *testing.T) {
	root := testutil.NewSiteRoot(t, `{"layout_directory":"","output_directory":"public","default_layout":"default.html"}`, map[string]string{
		"public/index.md": "generated\n",
		"_site/page.md":   "ordinary content\n",
	})

	s := generate(t, root)
	require.Equal(t, []string{"_site/page.md"}, relPaths(t, root, s))

	out, ok := mustGet(t, s, filepath.Join(root, "_site", "page.md")).FrontMatter().GetString(KeyOutputPath)
	require.True(t, ok)
	require.Equal(t, filepath.Join(root, "public", "_site", "page.html"), out)
}

func TestGenerateSite_DateFromFileNamePrefix(t *testing.T) {
	root := testutil.NewSiteRoot(t, defaultConfig, map[string]string{"2021-03-05-hello.md": "hi\n"})
	path := filepath.Join(root, "2021-03-05-hello.md")
	require.NoError(t, os.Chtimes(path, time.Now(), time.Date(2019, 7, 1, 12, 0, 0, 0, time.UTC)))

	c := mustGet(t, generate(t, root), path)
	require.Equal(t, "2021-03-05", c.Date().Format("2006-01-02"))
	date, _ := c.FrontMatter().GetString(KeyDate)
	require.Equal(t, "2021-03-05", date)
}

func TestGenerateSite_DateFromModificationTime(t *testing.T) {
	root := testutil.NewSiteRoot(t, defaultConfig, map[string]string{"hello.md": "hi\n"})
	path := filepath.Join(root, "hello.md")
	mtime := time.Date(2020, 11, 2, 9, 30, 0, 0, time.Local)
	require.NoError(t, os.Chtimes(path, mtime, mtime))

	c := mustGet(t, generate(t, root), path)
	require.True(t, c.Date().Equal(mtime), "date %v != mtime %v", c.Date(), mtime)
	date, _ := c.FrontMatter().GetString(KeyDate)
	require.Equal(t, "2020-11-02", date)
}

func TestGenerateSite_InvalidDatePrefixIsDateFormatError(t *testing.T) {
	root := testutil.NewSiteRoot(t, defaultConfig, map[string]string{
		"2021-02-30-x.md": "x\n",
		"ok.md":           "ok\n",
	})
	fsys, tmpDir := tempFS(t)

	s, err := New(root, nil, WithFileSystem(fsys)).GenerateSite(context.Background())
	require.Nil(t, s)
	require.ErrorIs(t, err, ErrDateFormat)
	require.NotErrorIs(t, err, ErrParse)

	var fe *FileError
	require.ErrorAs(t, err, &fe)
	require.Equal(t, filepath.Join(root, "2021-02-30-x.md"), fe.Path)
	require.Equal(t, StageDate, fe.Stage)

	testutil.NewFileAssertions(t, tmpDir).AssertFileCount(".", 0)
}

func TestGenerateSite_AuthorValuesWinOverComputedDefaults(t *testing.T) {
	root := testutil.NewSiteRoot(t, defaultConfig, map[string]string{
		"2021-03-05-my-first-post.md": "---\ntitle: Author Title\nlayout: post.html\n---\nbody\n",
	})

	fm := mustGet(t, generate(t, root), filepath.Join(root, "2021-03-05-my-first-post.md")).FrontMatter()
	title, _ := fm.GetString(KeyTitle)
	layout, _ := fm.GetString(KeyLayout)
	require.Equal(t, "Author Title", title)
	require.Equal(t, "post.html", layout)
}

func TestGenerateSite_ComputedPageDefaults(t *testing.T) {
	root := testutil.NewSiteRoot(t, defaultConfig, map[string]string{
		"posts/2021-03-05-my-first-post.md": "---\ntags: [go]\n---\n# Post\n",
		"about.md":                          "About\n",
	})
	s := generate(t, root)

	post := mustGet(t, s, filepath.Join(root, "posts", "2021-03-05-my-first-post.md"))
	require.Equal(t, content.TypePage, post.Type())
	fm := post.FrontMatter()
	require.Equal(t, []string{"tags", "date", "layout", "output_path", "title"}, fm.Keys())

	title, _ := fm.GetString(KeyTitle)
	require.Equal(t, "My First Post", title)
	layout, _ := fm.GetString(KeyLayout)
	require.Equal(t, "default.html", layout)
	out, _ := fm.GetString(KeyOutputPath)
	require.Equal(t, filepath.Join(root, "_site", "posts", "2021-03-05-my-first-post.html"), out)

	aboutOut, _ := mustGet(t, s, filepath.Join(root, "about.md")).FrontMatter().GetString(KeyOutputPath)
	require.Equal(t, filepath.Join(root, "_site", "about.html"), aboutOut)
}

func TestGenerateSite_LayoutFilesOnlyReceiveDate(t *testing.T) {
	root := testutil.NewSiteRoot(t, defaultConfig, map[string]string{
		"_layouts/default.html":        "<main>{{ content }}</main>\n",
		"_layouts/partials/nav.html":   "---\nname: nav\n---\n<nav></nav>\n",
		"_layouts-old/not-layout.html": "page\n",
	})
	s := generate(t, root)

	layout := mustGet(t, s, filepath.Join(root, "_layouts", "default.html"))
	require.Equal(t, content.TypeLayout, layout.Type())
	require.Equal(t, []string{KeyDate}, layout.FrontMatter().Keys())

	nav := mustGet(t, s, filepath.Join(root, "_layouts", "partials", "nav.html"))
	require.Equal(t, content.TypeLayout, nav.Type())
	require.Equal(t, []string{"name", KeyDate}, nav.FrontMatter().Keys())

	other := mustGet(t, s, filepath.Join(root, "_layouts-old", "not-layout.html"))
	require.Equal(t, content.TypePage, other.Type())
	require.True(t, other.FrontMatter().Has(KeyTitle))

	require.Len(t, s.Layouts(), 2)
	found, ok := s.Layout("default.html")
	require.True(t, ok)
	require.Equal(t, layout.Path(), found.Path())
}

func TestGenerateSite_EmptyLayoutDirectoryMeansNoLayouts(t *testing.T) {
	root := testutil.NewSiteRoot(t, `{"layout_directory":"","output_directory":"_site","default_layout":"default.html"}`, map[string]string{
		"_layouts/default.html": "<main></main>\n",
		"index.md":              "home\n",
	})
	s := generate(t, root)

	require.Empty(t, s.Layouts())
	require.Len(t, s.Pages(), 2)
	fm := mustGet(t, s, filepath.Join(root, "_layouts", "default.html")).FrontMatter()
	require.True(t, fm.Has(KeyTitle))
	require.True(t, fm.Has(KeyOutputPath))
}

func TestGenerateSite_RootLayoutDirectoryMakesEverythingALayout(t *testing.T) {
	root := testutil.NewSiteRoot(t, `{"layout_directory":".","output_directory":"_site","default_layout":"default.html"}`, map[string]string{
		"index.md":       "home\n",
		"posts/a.md":     "a\n",
		"_site/built.md": "out\n",
		".jasg/extra.md": "reserved\n",
	})
	s := generate(t, root)

	require.Empty(t, s.Pages())
	require.Len(t, s.Layouts(), 2)
	fm := mustGet(t, s, filepath.Join(root, "posts", "a.md")).FrontMatter()
	require.Equal(t, []string{KeyDate}, fm.Keys())
}

func TestGenerateSite_TemplateHoldsBodyCopy(t *testing.T) {
	root := testutil.NewSiteRoot(t, defaultConfig, map[string]string{
		"page.html.tmpl": "---\ntitle: T\n---\n<p>body</p>\n",
	})
	path := filepath.Join(root, "page.html.tmpl")
	s := generate(t, root)
	tpl := mustGet(t, s, path).Template()

	require.Equal(t, "html", tpl.Format())
	require.NotEqual(t, path, tpl.ContentPath())

	// The copy outlives changes to the source.
	require.NoError(t, os.WriteFile(path, []byte("rewritten"), 0o600))
	body, err := tpl.Contents()
	require.NoError(t, err)
	require.Equal(t, "<p>body</p>\n", string(body))

	require.NoError(t, s.Cleanup())
	_, err = os.Stat(tpl.ContentPath())
	require.True(t, os.IsNotExist(err))
}

func TestGenerateSite_ItemCountIndependentOfConcurrency(t *testing.T) {
	files := make(map[string]string)
	var want []string
	for i := range 60 {
		rel := fmt.Sprintf("dir%d/page-%02d.md", i%3, i)
		files[rel] = fmt.Sprintf("---\nn: %d\n---\nbody %d\n", i, i)
		want = append(want, rel)
	}
	root := testutil.NewSiteRoot(t, defaultConfig, files)

	var expected []string
	for d := range 3 {
		for _, rel := range want {
			if filepath.Dir(rel) == fmt.Sprintf("dir%d", d) {
				expected = append(expected, rel)
			}
		}
	}

	for _, n := range []int{1, 2, 8, 64} {
		t.Run(fmt.Sprintf("workers=%d", n), func(t *testing.T) {
			s := generate(t, root, WithConcurrency(n))
			require.Equal(t, 60, s.Len())
			require.Equal(t, expected, relPaths(t, root, s), "contents follow walk order")
		})
	}
}

func TestGenerateSite_IsIdempotent(t *testing.T) {
	root := testutil.NewSiteRoot(t, defaultConfig, map[string]string{
		"index.md":              "---\ntitle: Home\n---\nWelcome\n",
		"2021-03-05-post.md":    "Post body\n",
		"_layouts/default.html": "<main></main>\n",
		"_site/index.html":      "stale output\n",
	})

	fingerprints := func() map[string]string {
		out := make(map[string]string)
		for _, c := range generate(t, root).Contents() {
			fp, err := content.Fingerprint(c)
			require.NoError(t, err)
			out[c.Path()] = fp
		}
		return out
	}
	first := fingerprints()
	require.Len(t, first, 3)
	require.Equal(t, first, fingerprints())
}

func TestGenerateSite_FailFastLeavesNoPartialSite(t *testing.T) {
	files := map[string]string{"bad.md": "BAD"}
	for i := range 20 {
		files[fmt.Sprintf("page-%02d.md", i)] = "ok\n"
	}
	root := testutil.NewSiteRoot(t, defaultConfig, files)
	fsys, tmpDir := tempFS(t)

	var calls atomic.Int32
	parser := fileparser.Func(func(raw []byte) (fileparser.Results, error) {
		calls.Add(1)
		if string(raw) == "BAD" {
			return fileparser.Results{}, errors.New("boom")
		}
		return fileparser.NewYAMLParser().Parse(raw)
	})

	for _, n := range []int{1, 4} {
		calls.Store(0)
		s, err := New(root, parser, WithFileSystem(fsys), WithConcurrency(n)).GenerateSite(context.Background())
		require.Nil(t, s)
		require.ErrorIs(t, err, ErrParse)

		var fe *FileError
		require.ErrorAs(t, err, &fe)
		require.Equal(t, filepath.Join(root, "bad.md"), fe.Path)
		require.Equal(t, StageParse, fe.Stage)

		testutil.NewFileAssertions(t, tmpDir).AssertFileCount(".", 0)

		if n == 1 {
			// bad.md sorts first; the queue behind it is skipped.
			require.Equal(t, int32(1), calls.Load())
		}
	}
}

func TestGenerateSite_MissingConfigAbortsBeforeWalking(t *testing.T) {
	root := testutil.NewSiteRoot(t, "", map[string]string{"index.md": "home\n"})
	var reads atomic.Int32
	fsys := countingFS{OSFileSystem: OSFileSystem{TempDir: t.TempDir()}, reads: &reads}

	_, err := New(root, nil, WithFileSystem(fsys)).GenerateSite(context.Background())
	require.ErrorIs(t, err, ErrConfigLoad)
	require.True(t, foundationerrors.HasCategory(Classify(err), foundationerrors.CategoryConfig))
	require.Zero(t, reads.Load())
}

func TestGenerateSite_CanceledContext(t *testing.T) {
	root := testutil.NewSiteRoot(t, defaultConfig, map[string]string{"index.md": "home\n"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s, err := New(root, nil).GenerateSite(ctx)
	require.Nil(t, s)
	require.ErrorIs(t, err, context.Canceled)
}

func TestGenerateSite_TemplateWriteFailure(t *testing.T) {
	root := testutil.NewSiteRoot(t, defaultConfig, map[string]string{"index.md": "home\n"})
	fsys := failingTempFS{OSFileSystem: OSFileSystem{TempDir: t.TempDir()}}

	_, err := New(root, nil, WithFileSystem(fsys)).GenerateSite(context.Background())
	require.ErrorIs(t, err, ErrTemplate)
	require.True(t, foundationerrors.HasCategory(Classify(err), foundationerrors.CategoryFileSystem))
}

func TestGenerateSite_ReusesRunIDFromContext(t *testing.T) {
	ctx := ContextWithRunID(context.Background(), "run-1")
	id, ok := RunIDFromContext(ctx)
	require.True(t, ok)
	require.Equal(t, "run-1", id)

	_, ok = RunIDFromContext(context.Background())
	require.False(t, ok)
}

type countingFS struct {
	OSFileSystem
	reads *atomic.Int32
}

func (c countingFS) ReadFile(path string) ([]byte, error) {
	c.reads.Add(1)
	return c.OSFileSystem.ReadFile(path)
}

type failingTempFS struct{ OSFileSystem }

func (failingTempFS) WriteTemp([]byte) (string, error) {
	return "", errors.New("disk full")
}
