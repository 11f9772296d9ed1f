package tables

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"unicode"

	"github.com/dgallion1/docintel/internal/doctree"
	"github.com/dgallion1/docintel/internal/lang"
	"github.com/dgallion1/docintel/internal/layout"
	"github.com/dgallion1/docintel/internal/normalize"
	"github.com/tsawler/tabula/model"
)

type scriptIdentifier struct{}

func (scriptIdentifier) Identify(text string) (string, error) {
	for _, r := range text {
		if unicode.Is(unicode.Devanagari, r) {
			return "mr", nil
		}
	}
	return "en", nil
}

func newTestExtractor() *Extractor {
	return NewExtractor(lang.NewClassifier(scriptIdentifier{}), normalize.New(normalize.Options{}), nil)
}

func TestBuild(t *testing.T) {
	g := Grid{Page: 3, Rows: [][]string{
		{" Name ", "", "Price  (USD)"},
		{"Tea", "", "2"},
		{"", " ", ""},
		{"Coffee", "", "3"},
	}}
	tbl, ok := newTestExtractor().Build(g)
	if !ok {
		t.Fatal("expected table to be accepted")
	}
	headers, ok := tbl.Headers.Get(doctree.LangEN)
	if !ok || len(headers) != 2 || headers[0] != "Name" || headers[1] != "Price (USD)" {
		t.Errorf("unexpected headers %+v", tbl.Headers)
	}
	if tbl.Page != 3 {
		t.Errorf("expected page 3, got %d", tbl.Page)
	}
	if len(tbl.Data) != 2 || tbl.Data[1][0] != "Coffee" {
		t.Errorf("expected empty row dropped, got %v", tbl.Data)
	}
}

func TestBuild_Rejects(t *testing.T) {
	e := newTestExtractor()
	tests := map[string]Grid{
		"no rows":       {Page: 1},
		"single column": {Page: 1, Rows: [][]string{{"Only"}, {"x"}}},
		"blank header":  {Page: 1, Rows: [][]string{{"", " "}, {"a", "b"}}},
	}
	for name, g := range tests {
		if _, ok := e.Build(g); ok {
			t.Errorf("%s: expected grid to be rejected", name)
		}
	}
}

func TestBuild_DevanagariHeaders(t *testing.T) {
	g := Grid{Page: 1, Rows: [][]string{{"नाव", "किंमत"}, {"चहा", "10"}}}
	tbl, ok := newTestExtractor().Build(g)
	if !ok {
		t.Fatal("expected table")
	}
	if !tbl.Headers.Has(doctree.LangMR) || tbl.Headers.Has(doctree.LangEN) {
		t.Errorf("expected headers tagged mr only, got %+v", tbl.Headers)
	}
}

func TestExtract_CSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prices.csv")
	if err := os.WriteFile(path, []byte("item,price\ntea,2\n,\ncoffee,3\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	got := newTestExtractor().Extract(path)
	if len(got) != 1 {
		t.Fatalf("expected 1 table, got %d", len(got))
	}
	if len(got[0].Data) != 2 || got[0].Page != 1 {
		t.Errorf("unexpected table %+v", got[0])
	}
}

func TestExtract_FailuresYieldEmpty(t *testing.T) {
	e := newTestExtractor()
	if got := e.Extract(filepath.Join(t.TempDir(), "missing.pdf")); got == nil || len(got) != 0 {
		t.Errorf("expected empty non-nil slice for missing file, got %#v", got)
	}
	if got := e.Extract("notes.md"); got == nil || len(got) != 0 {
		t.Errorf("expected empty slice for markdown, got %#v", got)
	}
}

func TestSourceFor(t *testing.T) {
	if _, err := SourceFor("a.txt"); !errors.Is(err, layout.ErrUnsupportedFormat) {
		t.Errorf("expected ErrUnsupportedFormat, got %v", err)
	}
	for _, name := range []string{"a.pdf", "b.DOCX", "c.csv"} {
		if _, err := SourceFor(name); err != nil {
			t.Errorf("SourceFor(%s): %v", name, err)
		}
	}
}

func TestGridRows_DropsGapColumns(t *testing.T) {
	tbl := model.NewTable(4, 3)
	set := func(r, c int, s string) { tbl.GetCell(r, c).Text = s }
	set(0, 0, "Name")
	set(0, 2, "Qty")
	set(2, 0, "Apples")
	set(2, 2, " 4 ")

	rows := gridRows(tbl)
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %v", rows)
	}
	if len(rows[0]) != 2 || rows[0][1] != "Qty" || rows[1][1] != "4" {
		t.Errorf("unexpected rows %v", rows)
	}
}

func TestPageModel(t *testing.T) {
	spans := []doctree.TextSpan{{Text: "Cell", Size: 10, Font: "F", BBox: doctree.BBox{X0: 50, Y0: 700, X1: 80, Y1: 710}}}
	p := pageModel(2, spans)
	if p.Number != 2 || len(p.RawText) != 1 {
		t.Fatalf("unexpected page %+v", p)
	}
	b := p.RawText[0].BBox
	if b.X != 50 || b.Y != 700 || b.Width != 30 || b.Height != 10 {
		t.Errorf("unexpected bbox %+v", b)
	}
}
