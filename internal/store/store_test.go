package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/dgallion1/docintel/internal/doctree"
)

func openTemp(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "db", "docintel.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleOutline() doctree.Outline {
	o := doctree.EmptyOutline()
	o.Title = doctree.TextOf(doctree.LangEN, "Annual Report")
	o.Outline = []doctree.HeadingEntry{
		{Level: doctree.H1, Text: doctree.TextOf(doctree.LangEN, "Overview"), Page: 1},
		{Level: doctree.H2, Text: doctree.TextOf(doctree.LangHI, "परिचय"), Page: 2},
	}
	return o
}

func TestOutlineRoundTrip(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()

	if _, ok, err := s.GetOutline(ctx, "missing"); err != nil || ok {
		t.Fatalf("expected miss, got ok=%v err=%v", ok, err)
	}
	if err := s.PutOutline(ctx, "abc", "report.pdf", sampleOutline()); err != nil {
		t.Fatal(err)
	}
	got, ok, err := s.GetOutline(ctx, "abc")
	if err != nil || !ok {
		t.Fatalf("expected hit, got ok=%v err=%v", ok, err)
	}
	if len(got.Outline) != 2 || got.Outline[1].Page != 2 {
		t.Errorf("unexpected outline %+v", got)
	}
	if text, _ := got.Outline[1].Text.Get(doctree.LangHI); text != "परिचय" {
		t.Errorf("expected Hindi heading preserved, got %q", text)
	}

	recs, err := s.ListOutlines(ctx, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 1 || recs[0].Name != "report.pdf" || recs[0].Headings != 2 {
		t.Errorf("unexpected records %+v", recs)
	}

	if err := s.PutOutline(ctx, "abc", "renamed.pdf", doctree.EmptyOutline()); err != nil {
		t.Fatal(err)
	}
	recs, _ = s.ListOutlines(ctx, 10)
	if len(recs) != 1 || recs[0].Name != "renamed.pdf" || recs[0].Headings != 0 {
		t.Errorf("expected upsert, got %+v", recs)
	}

	deleted, err := s.DeleteOutline(ctx, "abc")
	if err != nil || !deleted {
		t.Fatalf("expected delete, got %v %v", deleted, err)
	}
	if deleted, _ := s.DeleteOutline(ctx, "abc"); deleted {
		t.Error("second delete should report nothing removed")
	}
}

func TestResultRoundTrip(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()

	r := doctree.RankedResult{
		Metadata: doctree.Metadata{InputDocuments: []string{"a.pdf"}, Persona: "Chef", JobToBeDone: "menu"},
		ExtractedSections: []doctree.ExtractedSection{
			{Document: "a.pdf", PageNumber: 3, SectionTitle: doctree.TextOf(doctree.LangEN, "Soups"), ImportanceRank: 1},
		},
		SubSectionAnalysis: []doctree.SubSection{},
	}
	if err := s.PutResult(ctx, "job-1", r); err != nil {
		t.Fatal(err)
	}
	got, ok, err := s.GetResult(ctx, "job-1")
	if err != nil || !ok {
		t.Fatalf("expected hit, got ok=%v err=%v", ok, err)
	}
	if got.Metadata.Persona != "Chef" || len(got.ExtractedSections) != 1 || got.ExtractedSections[0].PageNumber != 3 {
		t.Errorf("unexpected result %+v", got)
	}
	if _, ok, _ := s.GetResult(ctx, "job-2"); ok {
		t.Error("expected miss for unknown job")
	}

	n, err := s.PruneResults(ctx, -time.Hour)
	if err != nil || n != 1 {
		t.Errorf("expected 1 pruned, got %d (%v)", n, err)
	}
}

func TestOpenMemory(t *testing.T) {
	s, err := Open(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	if err := s.PutOutline(context.Background(), "h", "n", doctree.EmptyOutline()); err != nil {
		t.Fatal(err)
	}
}
