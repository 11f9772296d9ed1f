package rank

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/dgallion1/docintel/internal/doctree"
	"github.com/dgallion1/docintel/internal/embed"
)

// markerEmbedder scores text by the first marker it contains. The query
// embeds to [1, 0], so the dot product equals the marker's weight.
type markerEmbedder struct {
	weights map[string]float32
	fail    string
	calls   int
}

func (m *markerEmbedder) Dimension() int { return 2 }

func (m *markerEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	m.calls++
	if m.fail != "" && strings.Contains(text, m.fail) {
		return nil, errors.New("model unavailable")
	}
	if strings.HasPrefix(text, "Analyst ") {
		return []float32{1, 0}, nil
	}
	for marker, w := range m.weights {
		if strings.Contains(text, marker) {
			return []float32{w, 0}, nil
		}
	}
	return []float32{0, 1}, nil
}

func heading(text string, page int) doctree.HeadingEntry {
	return doctree.HeadingEntry{Level: doctree.H1, Text: doctree.TextOf(doctree.LangEN, text), Page: page}
}

func englishPages(texts ...string) []Page {
	pages := make([]Page, len(texts))
	for i, t := range texts {
		pages[i] = Page{Text: t, Lang: doctree.LangEN}
	}
	return pages
}

func fixedRanker(e embed.Embedder, opts Options) *Ranker {
	r := New(e, opts, nil)
	r.now = func() time.Time { return time.Date(2025, 7, 1, 9, 30, 0, 0, time.UTC) }
	return r
}

func TestSections_ExcerptFallsBackToPageStart(t *testing.T) {
	page := strings.Repeat("abcdefghij", 30)
	doc := Document{
		Name:    "a.pdf",
		Outline: doctree.Outline{Outline: []doctree.HeadingEntry{heading("Not On Page", 1)}},
		Pages:   englishPages(page),
	}
	secs := New(&markerEmbedder{}, Options{}, nil).Sections(doc)
	if len(secs) != 1 {
		t.Fatalf("expected 1 section, got %d", len(secs))
	}
	got, _ := secs[0].RefinedText.Get(doctree.LangEN)
	if got != page[:200] {
		t.Errorf("expected first 200 characters, got %q", got)
	}
}

func TestSections_DropsHeadingsWithoutText(t *testing.T) {
	doc := Document{
		Name: "a.pdf",
		Outline: doctree.Outline{Outline: []doctree.HeadingEntry{
			heading("Empty Page", 1),
			heading("Out Of Range", 7),
			{Level: doctree.H2, Text: doctree.TextOf(doctree.LangHI, "परिचय"), Page: 2},
		}},
		Pages: englishPages("", "English only page"),
	}
	if secs := New(&markerEmbedder{}, Options{}, nil).Sections(doc); len(secs) != 0 {
		t.Errorf("expected no sections, got %+v", secs)
	}
}

func TestSections_DevanagariHeadingOnMatchingPage(t *testing.T) {
	doc := Document{
		Name:    "hi.pdf",
		Outline: doctree.Outline{Outline: []doctree.HeadingEntry{{Level: doctree.H1, Text: doctree.TextOf(doctree.LangHI, "परिचय"), Page: 1}}},
		Pages:   []Page{{Text: "भूमिका परिचय यह दस्तावेज़", Lang: doctree.LangHI}},
	}
	secs := New(&markerEmbedder{}, Options{}, nil).Sections(doc)
	if len(secs) != 1 {
		t.Fatalf("expected 1 section, got %d", len(secs))
	}
	if got, _ := secs[0].RefinedText.Get(doctree.LangHI); got != "परिचय यह दस्तावेज़" {
		t.Errorf("unexpected excerpt %q", got)
	}
	if secs[0].RefinedText.Has(doctree.LangEN) {
		t.Error("unexpected English excerpt")
	}
}

func TestSections_KeywordGate(t *testing.T) {
	doc := Document{
		Name: "pharma.pdf",
		Outline: doctree.Outline{Outline: []doctree.HeadingEntry{
			heading("Dosage", 1),
			heading("History", 2),
		}},
		Pages: englishPages("Dosage of the Drug is 5mg daily.", "History of the company since 1901."),
	}

	secs := New(&markerEmbedder{}, Options{KeywordFilter: true, Keywords: []string{"drug"}}, nil).Sections(doc)
	if len(secs) != 1 || secs[0].PageNumber != 1 {
		t.Fatalf("expected only the dosage section, got %+v", secs)
	}

	secs = New(&markerEmbedder{}, Options{Keywords: []string{"drug"}}, nil).Sections(doc)
	if len(secs) != 2 {
		t.Errorf("gate is off by default, got %d sections", len(secs))
	}
}

func TestRank_InterleavesDocumentsByScore(t *testing.T) {
	e := &markerEmbedder{weights: map[string]float32{
		"Alpha": 0.2, "Bravo": 0.9, "Charlie": 0.5, "Delta": 0.7,
	}}
	docs := []Document{
		{
			Name:    "one.pdf",
			Outline: doctree.Outline{Outline: []doctree.HeadingEntry{heading("Alpha", 1), heading("Bravo", 2)}},
			Pages:   englishPages("Alpha text", "Bravo text"),
		},
		{
			Name:    "two.pdf",
			Outline: doctree.Outline{Outline: []doctree.HeadingEntry{heading("Charlie", 1), heading("Delta", 2)}},
			Pages:   englishPages("Charlie text", "Delta text"),
		},
	}
	res, err := fixedRanker(e, Options{}).Rank(context.Background(), "Analyst", "review filings", docs)
	if err != nil {
		t.Fatal(err)
	}

	want := []string{"Bravo", "Delta", "Charlie", "Alpha"}
	if len(res.ExtractedSections) != len(want) {
		t.Fatalf("expected %d sections, got %d", len(want), len(res.ExtractedSections))
	}
	for i, w := range want {
		s := res.ExtractedSections[i]
		if title, _ := s.SectionTitle.Get(doctree.LangEN); title != w {
			t.Errorf("rank %d: expected %s, got %s", i+1, w, title)
		}
		if s.ImportanceRank != i+1 {
			t.Errorf("rank %d: importance_rank %d", i+1, s.ImportanceRank)
		}
		if res.SubSectionAnalysis[i].Document != s.Document || res.SubSectionAnalysis[i].PageNumber != s.PageNumber {
			t.Errorf("rank %d: sub-section out of step with extracted section", i+1)
		}
	}

	md := res.Metadata
	if len(md.InputDocuments) != 2 || md.InputDocuments[1] != "two.pdf" {
		t.Errorf("unexpected input documents %v", md.InputDocuments)
	}
	if md.ProcessingTimestamp != "2025-07-01T09:30:00" || md.Persona != "Analyst" || md.JobToBeDone != "review filings" {
		t.Errorf("unexpected metadata %+v", md)
	}
}

func TestRank_EqualScoresKeepDiscoveryOrder(t *testing.T) {
	e := &markerEmbedder{}
	doc := Document{
		Name:    "a.pdf",
		Outline: doctree.Outline{Outline: []doctree.HeadingEntry{heading("First", 1), heading("Second", 2), heading("Third", 3)}},
		Pages:   englishPages("First", "Second", "Third"),
	}
	res, err := fixedRanker(e, Options{}).Rank(context.Background(), "Analyst", "x", []Document{doc})
	if err != nil {
		t.Fatal(err)
	}
	for i, s := range res.ExtractedSections {
		if s.PageNumber != i+1 {
			t.Errorf("expected discovery order, got page %d at rank %d", s.PageNumber, i+1)
		}
	}
}

func TestRank_EmbeddingFailureSurfaces(t *testing.T) {
	e := &markerEmbedder{fail: "Broken"}
	doc := Document{
		Name:    "a.pdf",
		Outline: doctree.Outline{Outline: []doctree.HeadingEntry{heading("Fine", 1), heading("Broken", 2)}},
		Pages:   englishPages("Fine", "Broken"),
	}
	if _, err := fixedRanker(e, Options{}).Rank(context.Background(), "Analyst", "x", []Document{doc}); err == nil {
		t.Fatal("expected embedding error")
	}
}

func TestRank_EmptyInputs(t *testing.T) {
	r := fixedRanker(&markerEmbedder{}, Options{})
	if _, err := r.Rank(context.Background(), " ", "", nil); !errors.Is(err, ErrNoQuery) {
		t.Errorf("expected ErrNoQuery, got %v", err)
	}
	res, err := r.Rank(context.Background(), "Analyst", "x", nil)
	if err != nil {
		t.Fatal(err)
	}
	if res.ExtractedSections == nil || res.SubSectionAnalysis == nil || len(res.ExtractedSections) != 0 {
		t.Errorf("expected empty non-nil lists, got %+v", res)
	}
}

func TestRank_WithHashEmbedder(t *testing.T) {
	doc := Document{
		Name: "travel.pdf",
		Outline: doctree.Outline{Outline: []doctree.HeadingEntry{
			heading("Coastal Adventures", 1),
			heading("Tax Filing Deadlines", 2),
		}},
		Pages: englishPages(
			"Coastal Adventures: beach hopping, snorkeling and nightlife for groups of friends.",
			"Tax Filing Deadlines: quarterly estimated payments are due in April and June.",
		),
	}
	r := fixedRanker(embed.NewHash(0), Options{})
	res, err := r.Rank(context.Background(), "Travel Planner", "plan a beach trip with snorkeling for friends", []Document{doc})
	if err != nil {
		t.Fatal(err)
	}
	if res.ExtractedSections[0].PageNumber != 1 {
		t.Errorf("expected coastal section first, got %+v", res.ExtractedSections)
	}
}

func TestSectionText(t *testing.T) {
	var s doctree.Section
	s.SectionTitle.Set(doctree.LangHI, "परिचय")
	s.SectionTitle.Set(doctree.LangEN, "Intro")
	s.RefinedText.Set(doctree.LangEN, "Intro body")
	if got := SectionText(s); got != "Intro परिचय Intro body" {
		t.Errorf("unexpected section text %q", got)
	}
}
