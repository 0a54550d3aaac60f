package linkcheck

import (
	"bytes"
	"strings"

	"golang.org/x/net/html"

	"git.home.luguber.info/inful/jasg/internal/markdown"
)

// isHTMLFormat reports whether a template format holds HTML markup.
func isHTMLFormat(format string) bool {
	switch format {
	case "html", "htm":
		return true
	}
	return false
}

// extractLinks pulls link destinations out of a template body according to
// its format. Formats without a link syntax yield nothing.
func extractLinks(format string, body []byte, opts markdown.Options) ([]markdown.Link, error) {
	switch {
	case markdown.IsMarkdownFormat(format):
		return markdown.ExtractLinks(body, opts)
	case isHTMLFormat(format):
		return extractHTMLLinks(body)
	default:
		return nil, nil
	}
}

// linkAttrs maps elements to the attribute holding their destination.
var linkAttrs = map[string]string{
	"a":      "href",
	"link":   "href",
	"img":    "src",
	"script": "src",
	"video":  "src",
	"audio":  "src",
	"source": "src",
}

func extractHTMLLinks(body []byte) ([]markdown.Link, error) {
	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	var links []markdown.Link
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			if attr, ok := linkAttrs[n.Data]; ok {
				if dest := strings.TrimSpace(getAttr(n, attr)); dest != "" {
					kind := markdown.LinkKindInline
					if n.Data == "img" {
						kind = markdown.LinkKindImage
					}
					links = append(links, markdown.Link{Kind: kind, Destination: dest})
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return links, nil
}

func getAttr(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}

// isTemplateExpression reports destinations a renderer fills in later, such
// as "{{ page.url }}".
func isTemplateExpression(dest string) bool {
	return strings.Contains(dest, "{{") || strings.Contains(dest, "{%")
}
