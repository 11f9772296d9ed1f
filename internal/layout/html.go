package layout

import (
	"fmt"
	"os"
	"strings"

	"golang.org/x/net/html"
)

// HTMLProvider handles HTML files. h1-h6 become heading spans, list items
// become bulleted spans, other block text becomes body spans.
type HTMLProvider struct{}

func (p *HTMLProvider) Open(path string) (Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open html: %w", err)
	}
	defer f.Close()

	doc, err := html.Parse(f)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	var b flowBuilder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			if level := headingLevel(n.Data); level > 0 {
				b.heading(level, TextContent(n))
				return
			}

			// Skip non-content elements.
			switch n.Data {
			case "script", "style", "nav", "footer", "header", "table":
				return
			case "li":
				b.bullet(TextContent(n))
				return
			case "p", "td", "blockquote", "pre":
				b.add(TextContent(n), bodySize, isStrongOnly(n))
				return
			}
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}

	if body := FindElement(doc, "body"); body != nil {
		walk(body)
	} else {
		walk(doc)
	}
	return b.document(), nil
}

func headingLevel(tag string) int {
	switch tag {
	case "h1":
		return 1
	case "h2":
		return 2
	case "h3":
		return 3
	case "h4":
		return 4
	case "h5":
		return 5
	case "h6":
		return 6
	}
	return 0
}

// isStrongOnly reports whether every non-blank text node under n sits
// inside <b> or <strong>.
func isStrongOnly(n *html.Node) bool {
	seen := false
	ok := true
	var visit func(*html.Node, bool)
	visit = func(n *html.Node, strong bool) {
		if n.Type == html.ElementNode && (n.Data == "b" || n.Data == "strong") {
			strong = true
		}
		if n.Type == html.TextNode && strings.TrimSpace(n.Data) != "" {
			seen = true
			if !strong {
				ok = false
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			visit(c, strong)
		}
	}
	visit(n, false)
	return seen && ok
}

// TextContent returns the concatenated, trimmed text under n.
func TextContent(n *html.Node) string {
	var buf strings.Builder
	var extract func(*html.Node)
	extract = func(n *html.Node) {
		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extract(c)
		}
	}
	extract(n)
	return strings.TrimSpace(buf.String())
}

// FindElement returns the first element named tag in document order.
func FindElement(n *html.Node, tag string) *html.Node {
	if n.Type == html.ElementNode && n.Data == tag {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := FindElement(c, tag); found != nil {
			return found
		}
	}
	return nil
}
