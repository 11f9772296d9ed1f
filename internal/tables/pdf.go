package tables

import (
	"fmt"
	"strings"

	"github.com/dgallion1/docintel/internal/doctree"
	"github.com/dgallion1/docintel/internal/layout"
	"github.com/tsawler/tabula/model"
	tabtables "github.com/tsawler/tabula/tables"
)

// PDFSource finds tables by running tabula's geometric detector over the
// positioned spans of each page.
type PDFSource struct {
	detector tabtables.Detector
}

// NewPDFSource returns a PDFSource with a geometric detector in its default
// configuration.
func NewPDFSource() *PDFSource {
	return &PDFSource{detector: tabtables.NewGeometricDetector()}
}

func (s *PDFSource) Grids(path string) ([]Grid, error) {
	doc, err := (&layout.PDFProvider{}).Open(path)
	if err != nil {
		return nil, err
	}
	defer doc.Close()

	var grids []Grid
	for i, spans := range layout.Collect(doc, nil) {
		found, err := s.detectPage(i+1, spans)
		if err != nil {
			return grids, fmt.Errorf("detect tables on page %d: %w", i+1, err)
		}
		grids = append(grids, found...)
	}
	return grids, nil
}

func (s *PDFSource) detectPage(page int, spans []doctree.TextSpan) ([]Grid, error) {
	if len(spans) == 0 {
		return nil, nil
	}
	tables, err := s.detector.Detect(pageModel(page, spans))
	if err != nil {
		return nil, err
	}
	grids := make([]Grid, 0, len(tables))
	for _, t := range tables {
		if rows := gridRows(t); len(rows) > 0 {
			grids = append(grids, Grid{Page: page, Rows: rows})
		}
	}
	return grids, nil
}

// pageModel converts spans into tabula text fragments. Span boxes already use
// PDF coordinates with y growing upwards.
func pageModel(page int, spans []doctree.TextSpan) *model.Page {
	p := model.NewPage(0, 0)
	p.Number = page
	for _, s := range spans {
		b := s.BBox
		p.RawText = append(p.RawText, model.TextFragment{
			Text:     s.Text,
			BBox:     model.NewBBox(b.X0, b.Y0, b.X1-b.X0, b.Y1-b.Y0),
			FontSize: s.Size,
			FontName: s.Font,
		})
	}
	return p
}

// gridRows flattens a detected table into strings. The detector's grid also
// yields the gaps between text as rows and columns, so rows and columns that
// are empty throughout are removed.
func gridRows(t *model.Table) [][]string {
	if t == nil || len(t.Rows) == 0 {
		return nil
	}
	cols := len(t.Rows[0])
	keep := make([]bool, cols)
	for _, row := range t.Rows {
		for j, cell := range row {
			if j < cols && strings.TrimSpace(cell.Text) != "" {
				keep[j] = true
			}
		}
	}

	var rows [][]string
	for _, row := range t.Rows {
		out := make([]string, 0, cols)
		empty := true
		for j, cell := range row {
			if j >= cols || !keep[j] {
				continue
			}
			text := strings.TrimSpace(cell.Text)
			if text != "" {
				empty = false
			}
			out = append(out, text)
		}
		if !empty {
			rows = append(rows, out)
		}
	}
	return rows
}
