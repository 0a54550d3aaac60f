package linkcheck

import (
	"testing"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/jasg/internal/markdown"
)

func TestExtractHTMLLinks(t *testing.T) {
	body := []byte(`<html><head><link rel="stylesheet" href="/style.css"><script src="app.js"></script></head>
<body><a href="about.html">About</a><img src="logo.png" alt=""><a>no href</a></body></html>`)

	links, err := extractLinks("html", body, markdown.Options{})
	require.NoError(t, err)

	var dests []string
	for _, l := range links {
		dests = append(dests, l.Destination)
	}
	require.Equal(t, []string{"/style.css", "app.js", "about.html", "logo.png"}, dests)
	require.Equal(t, markdown.LinkKindImage, links[3].Kind)
}

func TestExtractLinks_UnknownFormat(t *testing.T) {
	links, err := extractLinks("txt", []byte("[a](b.md)"), markdown.Options{})
	require.NoError(t, err)
	require.Empty(t, links)
}

func TestShouldVerify(t *testing.T) {
	for dest, want := range map[string]bool{
		"page.md":              true,
		"https://example.com":  true,
		"":                     false,
		"#anchor":              false,
		"mailto:a@example.com": false,
		"{{ page.url }}":       false,
		"javascript:void(0)":   false,
	} {
		require.Equal(t, want, shouldVerify(markdown.Link{Destination: dest}), dest)
	}
}
