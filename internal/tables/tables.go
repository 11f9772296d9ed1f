// Package tables extracts tables from documents and tags their header rows
// with a detected language.
package tables

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/dgallion1/docintel/internal/doctree"
	"github.com/dgallion1/docintel/internal/lang"
	"github.com/dgallion1/docintel/internal/layout"
	"github.com/dgallion1/docintel/internal/normalize"
)

// Grid is an untagged table as read from a source: row 0 holds the headers.
type Grid struct {
	Page int
	Rows [][]string
}

// Source reads raw grids from one file format.
type Source interface {
	Grids(path string) ([]Grid, error)
}

// SourceFor returns the Source for path's extension, or an error wrapping
// layout.ErrUnsupportedFormat for formats that carry no tables.
func SourceFor(path string) (Source, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".pdf":
		return NewPDFSource(), nil
	case ".docx":
		return &DOCXSource{}, nil
	case ".csv":
		return &CSVSource{}, nil
	default:
		return nil, fmt.Errorf("%w: no table source for %s", layout.ErrUnsupportedFormat, ext)
	}
}

// Extractor turns grids into language-tagged tables.
type Extractor struct {
	classifier *lang.Classifier
	normalizer *normalize.Normalizer
	log        *slog.Logger
}

func NewExtractor(c *lang.Classifier, n *normalize.Normalizer, log *slog.Logger) *Extractor {
	if log == nil {
		log = slog.Default()
	}
	return &Extractor{classifier: c, normalizer: n, log: log}
}

// Extract returns the tables of path in page order. Unsupported formats and
// read failures yield an empty, non-nil slice.
func (e *Extractor) Extract(path string) []doctree.Table {
	out := []doctree.Table{}
	src, err := SourceFor(path)
	if err != nil {
		return out
	}
	grids, err := src.Grids(path)
	if err != nil {
		e.log.Warn("table extraction failed", "path", path, "error", err)
		return out
	}
	for _, g := range grids {
		if t, ok := e.Build(g); ok {
			out = append(out, t)
		}
	}
	return out
}

// Build converts one grid. Grids whose header row has fewer than two cells,
// or no non-empty header cell, are rejected. Data rows with no non-empty
// cell are dropped.
func (e *Extractor) Build(g Grid) (doctree.Table, bool) {
	if len(g.Rows) == 0 || len(g.Rows[0]) < 2 {
		return doctree.Table{}, false
	}

	var columns []string
	for _, c := range g.Rows[0] {
		if c = layout.CleanText(c); c != "" {
			columns = append(columns, c)
		}
	}
	if len(columns) == 0 {
		return doctree.Table{}, false
	}

	l := e.classifier.Detect(strings.Join(columns, " "))
	for i, c := range columns {
		columns[i] = e.normalizer.Normalize(c, l)
	}

	data := [][]string{}
	for _, row := range g.Rows[1:] {
		if hasContent(row) {
			data = append(data, row)
		}
	}

	t := doctree.Table{Page: g.Page, Data: data}
	t.Headers.Set(l, columns)
	return t, true
}

func hasContent(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return true
		}
	}
	return false
}
