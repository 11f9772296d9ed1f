package outline

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"unicode"

	"github.com/dgallion1/docintel/internal/doctree"
	"github.com/dgallion1/docintel/internal/lang"
	"github.com/dgallion1/docintel/internal/layout"
	"github.com/dgallion1/docintel/internal/normalize"
)

// scriptIdentifier labels any text containing Devanagari as Hindi.
type scriptIdentifier struct{}

func (scriptIdentifier) Identify(text string) (string, error) {
	for _, r := range text {
		if unicode.Is(unicode.Devanagari, r) {
			return "hi", nil
		}
	}
	return "en", nil
}

func newTestExtractor() *Extractor {
	return NewExtractor(lang.NewClassifier(scriptIdentifier{}), normalize.New(normalize.Options{}), nil)
}

func span(text string, size float64, bold bool) doctree.TextSpan {
	return doctree.TextSpan{Text: text, Size: size, Bold: bold}
}

func TestBuild_SinglePageHeading(t *testing.T) {
	pages := layout.Pages{{
		span("INTRODUCTION", 18, true),
		span("This is body text.", 11, false),
	}}
	out := newTestExtractor().Build(pages)

	if got, _ := out.Title.Get(doctree.LangEN); got != "INTRODUCTION" || out.Title.Len() != 1 {
		t.Errorf("unexpected title %+v", out.Title)
	}
	if len(out.Outline) != 1 {
		t.Fatalf("expected 1 heading, got %+v", out.Outline)
	}
	h := out.Outline[0]
	if h.Level != doctree.H1 || h.Page != 1 {
		t.Errorf("unexpected heading %+v", h)
	}
	if got, _ := h.Text.Get(doctree.LangEN); got != "INTRODUCTION" {
		t.Errorf("expected case preserved, got %q", got)
	}
	if out.Tables == nil || len(out.Tables) != 0 {
		t.Errorf("expected empty non-nil tables, got %#v", out.Tables)
	}
}

func TestDetectNoise_Threshold(t *testing.T) {
	var pages layout.Pages
	for i := 1; i <= 6; i++ {
		page := []doctree.TextSpan{span(fmt.Sprintf("Section %d", i), 11, false)}
		if i != 3 {
			page = append(page, span("CONFIDENTIAL", 20, true))
		}
		pages = append(pages, page)
	}
	noise := DetectNoise(pages)
	if !noise.Has("CONFIDENTIAL") {
		t.Fatal("expected string on 5 of 6 pages to be noise")
	}
	if noise.Has("Section 1") {
		t.Error("single-page string should not be noise")
	}

	out := newTestExtractor().Build(pages)
	for _, h := range out.Outline {
		if doctree.TextKey(h.Text) == doctree.TextKey(doctree.TextOf(doctree.LangEN, "CONFIDENTIAL")) {
			t.Errorf("noise leaked into outline: %+v", h)
		}
	}
	if out.Title.Has(doctree.LangEN) {
		if got, _ := out.Title.Get(doctree.LangEN); got == "CONFIDENTIAL" {
			t.Error("noise leaked into title")
		}
	}
}

func TestTitle_IgnoresLargerNoise(t *testing.T) {
	var pages layout.Pages
	for i := 1; i <= 6; i++ {
		page := []doctree.TextSpan{span("CONFIDENTIAL", 20, true)}
		if i == 1 {
			page = append(page, span("Annual Report", 16, true))
		}
		page = append(page, span(fmt.Sprintf("Body text %d", i), 11, false))
		pages = append(pages, page)
	}

	out := newTestExtractor().Build(pages)
	if got, _ := out.Title.Get(doctree.LangEN); got != "Annual Report" || out.Title.Len() != 1 {
		t.Errorf("expected title from largest non-noise span, got %+v", out.Title)
	}
}

func TestTitle_OnlyNoiseOnFirstPage(t *testing.T) {
	pages := layout.Pages{
		{span("Draft", 14, false)},
		{span("Draft", 14, false), span("Content", 11, false)},
	}
	title := newTestExtractor().Title(pages, DetectNoise(pages))
	if !title.IsEmpty() {
		t.Errorf("expected empty title, got %+v", title)
	}
}

func TestDetectNoise_Idempotent(t *testing.T) {
	pages := layout.Pages{
		{span("Header", 9, false), span("Header", 9, false), span("a", 11, false)},
		{span("Header", 9, false), span("b", 11, false)},
	}
	a := DetectNoise(pages)
	b := DetectNoise(pages)
	if fmt.Sprint(a.Sorted()) != fmt.Sprint(b.Sorted()) {
		t.Errorf("noise differs between runs: %v vs %v", a.Sorted(), b.Sorted())
	}
	if !a.Has("Header") {
		t.Error("expected Header on both pages to be noise")
	}
}

func TestNoiseThreshold(t *testing.T) {
	tests := map[int]int{1: 2, 2: 2, 3: 2, 5: 3, 6: 4, 10: 6}
	for pages, want := range tests {
		if got := NoiseThreshold(pages); got != want {
			t.Errorf("NoiseThreshold(%d) = %d, want %d", pages, got, want)
		}
	}
}

func TestDetectNoise_LongStringsIgnored(t *testing.T) {
	long := ""
	for i := 0; i < 85; i++ {
		long += "x"
	}
	pages := layout.Pages{{span(long, 11, false)}, {span(long, 11, false)}}
	if DetectNoise(pages).Has(long) {
		t.Error("strings of 80+ characters should never be noise")
	}
}

func TestMedianBodySize(t *testing.T) {
	pages := layout.Pages{{span("a", 10, false), span("b", 11, false), span("c", 12, false), span("big", 30, false)}}
	if got := MedianBodySize(pages); got != 11 {
		t.Errorf("expected 11, got %v", got)
	}
	if got := MedianBodySize(layout.Pages{{span("big", 30, false)}}); got != 12 {
		t.Errorf("expected default 12, got %v", got)
	}
}

func TestRules(t *testing.T) {
	next := span("• item", 11, false)
	tests := []struct {
		name string
		ctx  SpanContext
		want []string
	}{
		{"bold large", SpanContext{Span: span("Overview", 14, true), Index: 3, Median: 11}, []string{"bold-large"}},
		{"bold too small", SpanContext{Span: span("Overview", 12, true), Index: 3, Median: 11}, nil},
		{"first on page", SpanContext{Span: span("Overview", 14, false), Index: 0, Median: 11}, []string{"first-on-page"}},
		{"all caps", SpanContext{Span: span("SUMMARY", 11, false), Index: 2, Median: 11}, []string{"all-caps"}},
		{"all caps small", SpanContext{Span: span("SUMMARY", 9, false), Index: 2, Median: 11}, nil},
		{"introduces list", SpanContext{Span: span("Steps", 11, false), Index: 1, Next: &next, Median: 11}, []string{"introduces-list"}},
		{"body", SpanContext{Span: span("plain text", 11, false), Index: 1, Median: 11}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := matchRules(DefaultRules, tt.ctx)
			if fmt.Sprint(got) != fmt.Sprint(tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsAllCaps(t *testing.T) {
	tests := map[string]bool{
		"INTRODUCTION":    true,
		"PART 2":          true,
		"AB":              false,
		"Introduction":    false,
		"123":             false,
		"परिचय":           false,
		"SUMMARY सारांश": true,
	}
	for s, want := range tests {
		if got := IsAllCaps(s); got != want {
			t.Errorf("IsAllCaps(%q) = %v, want %v", s, got, want)
		}
	}
}

func TestAssignLevels(t *testing.T) {
	en := func(s string) doctree.LocalizedText { return doctree.TextOf(doctree.LangEN, s) }
	cands := []Candidate{
		{Text: en("A"), Page: 1, Size: 24},
		{Text: en("B"), Page: 1, Size: 23},
		{Text: en("C"), Page: 2, Size: 18},
		{Text: en("D"), Page: 2, Size: 14},
		{Text: en("E"), Page: 3, Size: 12},
	}
	got := AssignLevels(cands)
	want := []doctree.HeadingLevel{doctree.H1, doctree.H1, doctree.H3, doctree.H3, doctree.H3}
	// distinct sizes: 24, 23, 18... so tier two is 23 and 23*0.95=21.85.
	for i, w := range want {
		if got[i].Level != w {
			t.Errorf("candidate %d: got %s, want %s", i, got[i].Level, w)
		}
	}
}

func TestAssignLevels_Monotonic(t *testing.T) {
	en := doctree.TextOf(doctree.LangEN, "x")
	cands := []Candidate{{Text: en, Size: 10}, {Text: en, Size: 16}, {Text: en, Size: 20}, {Text: en, Size: 13}}
	got := AssignLevels(cands)
	rank := map[doctree.HeadingLevel]int{doctree.H1: 1, doctree.H2: 2, doctree.H3: 3}
	for i := range cands {
		for j := range cands {
			if cands[i].Size >= cands[j].Size && rank[got[i].Level] > rank[got[j].Level] {
				t.Errorf("size %v got %s but smaller size %v got %s", cands[i].Size, got[i].Level, cands[j].Size, got[j].Level)
			}
		}
	}
}

func TestDedup(t *testing.T) {
	en := func(s string) doctree.LocalizedText { return doctree.TextOf(doctree.LangEN, s) }
	entries := []doctree.HeadingEntry{
		{Level: doctree.H1, Text: en("Intro"), Page: 1},
		{Level: doctree.H1, Text: en("Intro"), Page: 1},
		{Level: doctree.H1, Text: en("Intro"), Page: 2},
		{Level: doctree.H2, Text: en("Intro"), Page: 1},
	}
	got := Dedup(entries)
	if len(got) != 3 {
		t.Fatalf("expected 3 entries, got %+v", got)
	}
	if got[1].Page != 2 || got[2].Level != doctree.H2 {
		t.Errorf("unexpected order %+v", got)
	}
}

func TestBuild_PagesInRange(t *testing.T) {
	pages := layout.Pages{
		{span("Chapter One", 20, true), span("text", 11, false)},
		{},
		{span("Chapter Two", 20, true), span("- bullet", 11, false)},
	}
	out := newTestExtractor().Build(pages)
	if len(out.Outline) == 0 {
		t.Fatal("expected headings")
	}
	for _, h := range out.Outline {
		if h.Page < 1 || h.Page > len(pages) {
			t.Errorf("heading page %d outside [1,%d]", h.Page, len(pages))
		}
	}
	if out.Outline[len(out.Outline)-1].Page != 3 {
		t.Errorf("expected last heading on page 3, got %+v", out.Outline)
	}
}

func TestBuild_DevanagariHeading(t *testing.T) {
	pages := layout.Pages{{span("परिचय  और  उद्देश्य", 20, true), span("body", 11, false)}}
	out := newTestExtractor().Build(pages)
	if len(out.Outline) != 1 {
		t.Fatalf("expected one heading, got %+v", out.Outline)
	}
	got, ok := out.Outline[0].Text.Get(doctree.LangHI)
	if !ok || got != "परिचय और उद्देश्य" {
		t.Errorf("unexpected Hindi heading %q", got)
	}
}

func TestExtractFile_Unreadable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.pdf")
	if err := os.WriteFile(path, []byte("not a pdf"), 0o644); err != nil {
		t.Fatal(err)
	}
	out := newTestExtractor().ExtractFile(path)
	if !out.Title.IsEmpty() || len(out.Outline) != 0 || len(out.Tables) != 0 {
		t.Errorf("expected empty outline, got %+v", out)
	}
	if out.Outline == nil {
		t.Error("expected non-nil outline slice")
	}
}
