package layout

import (
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/dgallion1/docintel/internal/doctree"
	pdflib "github.com/ledongthuc/pdf"
)

// PDFProvider reads PDFs with ledongthuc/pdf and groups positioned glyphs
// into spans.
type PDFProvider struct{}

func (p *PDFProvider) Open(path string) (Document, error) {
	f, reader, err := pdflib.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	return &pdfDocument{file: f, reader: reader}, nil
}

type pdfDocument struct {
	file   *os.File
	reader *pdflib.Reader
}

func (d *pdfDocument) PageCount() int { return d.reader.NumPage() }

func (d *pdfDocument) Spans(n int) ([]doctree.TextSpan, error) {
	if n < 1 || n > d.reader.NumPage() {
		return nil, fmt.Errorf("page %d out of range", n)
	}
	page := d.reader.Page(n)
	if page.V.IsNull() {
		return nil, nil
	}
	return groupGlyphs(page.Content().Text), nil
}

func (d *pdfDocument) RawText(n int) (string, error) {
	if n < 1 || n > d.reader.NumPage() {
		return "", fmt.Errorf("page %d out of range", n)
	}
	page := d.reader.Page(n)
	if page.V.IsNull() {
		return "", nil
	}
	return page.GetPlainText(nil)
}

func (d *pdfDocument) Close() error { return d.file.Close() }

// groupGlyphs merges consecutive glyphs that share font, size and baseline
// into spans, inserting a space where the horizontal gap looks like one.
// Order follows the content stream.
func groupGlyphs(glyphs []pdflib.Text) []doctree.TextSpan {
	var (
		spans []doctree.TextSpan
		cur   *glyphRun
	)
	for _, g := range glyphs {
		if g.S == "" {
			continue
		}
		if cur != nil && cur.accepts(g) {
			cur.add(g)
			continue
		}
		if cur != nil {
			spans = append(spans, cur.span())
		}
		cur = newGlyphRun(g)
	}
	if cur != nil {
		spans = append(spans, cur.span())
	}
	return spans
}

type glyphRun struct {
	font  string
	size  float64
	x0, y float64
	end   float64
	sb    strings.Builder
}

func newGlyphRun(g pdflib.Text) *glyphRun {
	r := &glyphRun{font: g.Font, size: g.FontSize, x0: g.X, y: g.Y, end: g.X + g.W}
	r.sb.WriteString(g.S)
	return r
}

func (r *glyphRun) unit() float64 { return math.Max(r.size, 1) }

func (r *glyphRun) accepts(g pdflib.Text) bool {
	if g.Font != r.font || math.Abs(g.FontSize-r.size) > 0.01 {
		return false
	}
	if math.Abs(g.Y-r.y) > r.unit()*0.3 {
		return false
	}
	gap := g.X - r.end
	return gap > -r.unit()*0.5 && gap < r.unit()*2
}

func (r *glyphRun) add(g pdflib.Text) {
	if g.X-r.end > r.unit()*0.2 &&
		!strings.HasSuffix(r.sb.String(), " ") && !strings.HasPrefix(g.S, " ") {
		r.sb.WriteByte(' ')
	}
	r.sb.WriteString(g.S)
	r.end = math.Max(r.end, g.X+g.W)
}

func (r *glyphRun) span() doctree.TextSpan {
	return doctree.TextSpan{
		Text:   r.sb.String(),
		Size:   r.size,
		Font:   r.font,
		Origin: doctree.Point{X: r.x0, Y: r.y},
		BBox:   doctree.BBox{X0: r.x0, Y0: r.y, X1: r.end, Y1: r.y + r.size},
	}
}
