package layout

import (
	"bytes"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// MarkdownProvider handles Markdown files using goldmark. A thematic break
// (---) starts a new page.
type MarkdownProvider struct{}

func (p *MarkdownProvider) Open(path string) (Document, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read markdown: %w", err)
	}

	md := goldmark.New()
	doc := md.Parser().Parse(text.NewReader(src))

	var b flowBuilder
	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		switch node := n.(type) {
		case *ast.Heading:
			b.heading(node.Level, extractText(node, src))
		case *ast.ThematicBreak:
			b.newPage()
		case *ast.List:
			i := node.Start
			for item := node.FirstChild(); item != nil; item = item.NextSibling() {
				t := extractText(item, src)
				if node.IsOrdered() {
					b.body(strconv.Itoa(i) + ". " + t)
					i++
				} else {
					b.bullet(t)
				}
			}
		case *ast.Paragraph:
			b.add(extractText(node, src), bodySize, isEmphasisOnly(node))
		default:
			b.body(extractText(n, src))
		}
	}
	return b.document(), nil
}

// isEmphasisOnly reports whether a paragraph consists of one strong span.
func isEmphasisOnly(p *ast.Paragraph) bool {
	if p.ChildCount() != 1 {
		return false
	}
	em, ok := p.FirstChild().(*ast.Emphasis)
	return ok && em.Level >= 2
}

// extractText gets the text content of a goldmark AST node.
func extractText(n ast.Node, src []byte) string {
	var buf bytes.Buffer
	if n.Type() == ast.TypeBlock && n.ChildCount() == 0 {
		lines := n.Lines()
		for i := 0; i < lines.Len(); i++ {
			line := lines.At(i)
			buf.Write(line.Value(src))
		}
	}
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		switch t := c.(type) {
		case *ast.Text:
			buf.Write(t.Segment.Value(src))
			if t.HardLineBreak() || t.SoftLineBreak() {
				buf.WriteByte(' ')
			}
		case *ast.String:
			buf.Write(t.Value)
		default:
			if c.Type() == ast.TypeBlock && buf.Len() > 0 {
				buf.WriteByte(' ')
			}
			buf.WriteString(extractText(c, src))
		}
	}
	return strings.TrimSpace(buf.String())
}
