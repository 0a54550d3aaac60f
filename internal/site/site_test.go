package site

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/jasg/internal/config"
	"git.home.luguber.info/inful/jasg/internal/content"
	"git.home.luguber.info/inful/jasg/internal/frontmatter"
)

func newItem(t content.Type, path, body string) content.Content {
	return content.New(t, path, time.Now(), frontmatter.FrontMatter{}, content.NewTemplate("md", body))
}

func TestAddContent_KeepsInsertionOrder(t *testing.T) {
	s := New("/site", config.New("default.html", "_layouts", "_site"))
	s.AddContent(newItem(content.TypePage, "/site/b.md", ""))
	s.AddContent(newItem(content.TypeLayout, "/site/_layouts/default.html", ""))
	s.AddContent(newItem(content.TypePage, "/site/a.md", ""))

	var paths []string
	for _, c := range s.Contents() {
		paths = append(paths, c.Path())
	}
	require.Equal(t, []string{"/site/b.md", "/site/_layouts/default.html", "/site/a.md"}, paths)
	require.Len(t, s.Pages(), 2)
	require.Len(t, s.Layouts(), 1)
	require.Equal(t, "default.html", s.Configuration().DefaultLayoutName())

	got, ok := s.ByPath("/site/a.md")
	require.True(t, ok)
	require.Equal(t, content.TypePage, got.Type())

	l, ok := s.Layout("default.html")
	require.True(t, ok)
	require.Equal(t, content.TypeLayout, l.Type())
	_, ok = s.Layout("missing.html")
	require.False(t, ok)
}

func TestContents_ReturnsCopy(t *testing.T) {
	s := New("/site", config.New("", "", ""))
	s.AddContent(newItem(content.TypePage, "/site/a.md", ""))
	items := s.Contents()
	items[0] = nil
	require.NotNil(t, s.Contents()[0])
}

func TestAddContent_ConcurrentAppendsAreNotLost(t *testing.T) {
	s := New("/site", config.New("", "", ""))
	const n = 200
	var wg sync.WaitGroup
	wg.Add(n)
	for i := range n {
		go func() {
			defer wg.Done()
			s.AddContent(newItem(content.TypePage, fmt.Sprintf("/site/%d.md", i), ""))
		}()
	}
	wg.Wait()
	require.Equal(t, n, s.Len())
}

func TestCleanup_RemovesBodies(t *testing.T) {
	dir := t.TempDir()
	body := filepath.Join(dir, "body")
	require.NoError(t, os.WriteFile(body, []byte("x"), 0o600))

	s := New(dir, config.New("", "", ""))
	s.AddContent(newItem(content.TypePage, filepath.Join(dir, "a.md"), body))
	require.NoError(t, s.Cleanup())
	_, err := os.Stat(body)
	require.True(t, os.IsNotExist(err))
}
