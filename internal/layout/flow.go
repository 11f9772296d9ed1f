package layout

import (
	"fmt"
	"strings"

	"github.com/dgallion1/docintel/internal/doctree"
)

// Formats without physical layout (DOCX, HTML, Markdown, text) are laid out
// as a flow of synthetic spans whose sizes mirror the markup's heading
// levels, so the same heading heuristics apply to every format.
const (
	bodySize   = 11.0
	bulletMark = "• "
)

var headingSizes = [...]float64{24, 20, 16, 14, 13, 12}

// headingSize returns the synthetic font size for heading level 1-6.
func headingSize(level int) float64 {
	if level < 1 {
		return bodySize
	}
	if level > len(headingSizes) {
		level = len(headingSizes)
	}
	return headingSizes[level-1]
}

// flowDocument is an in-memory Document built from synthetic spans.
type flowDocument struct {
	pages [][]doctree.TextSpan
}

// flowBuilder appends synthetic spans top to bottom.
type flowBuilder struct {
	pages [][]doctree.TextSpan
	y     float64
}

func (b *flowBuilder) heading(level int, text string) {
	b.add(text, headingSize(level), true)
}

func (b *flowBuilder) body(text string) {
	b.add(text, bodySize, false)
}

func (b *flowBuilder) bullet(text string) {
	b.add(bulletMark+text, bodySize, false)
}

func (b *flowBuilder) add(text string, size float64, bold bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}
	if len(b.pages) == 0 {
		b.newPage()
	}
	font := "Synthetic-Regular"
	if bold {
		font = "Synthetic-Bold"
	}
	p := len(b.pages) - 1
	b.pages[p] = append(b.pages[p], doctree.TextSpan{
		Text:   text,
		Size:   size,
		Font:   font,
		Bold:   bold,
		Origin: doctree.Point{X: 0, Y: b.y},
		BBox:   doctree.BBox{X0: 0, Y0: b.y, X1: float64(len([]rune(text))) * size * 0.5, Y1: b.y + size},
		Page:   len(b.pages),
	})
	b.y += size * 1.2
}

func (b *flowBuilder) newPage() {
	b.pages = append(b.pages, nil)
	b.y = 0
}

func (b *flowBuilder) document() *flowDocument {
	return &flowDocument{pages: b.pages}
}

func (d *flowDocument) PageCount() int { return len(d.pages) }

func (d *flowDocument) Spans(n int) ([]doctree.TextSpan, error) {
	if n < 1 || n > len(d.pages) {
		return nil, fmt.Errorf("page %d out of range", n)
	}
	out := make([]doctree.TextSpan, len(d.pages[n-1]))
	copy(out, d.pages[n-1])
	return out, nil
}

// RawText joins the page's spans with newlines.
func (d *flowDocument) RawText(n int) (string, error) {
	if n < 1 || n > len(d.pages) {
		return "", fmt.Errorf("page %d out of range", n)
	}
	lines := make([]string, 0, len(d.pages[n-1]))
	for _, s := range d.pages[n-1] {
		lines = append(lines, s.Text)
	}
	return strings.Join(lines, "\n"), nil
}

func (d *flowDocument) Close() error { return nil }
