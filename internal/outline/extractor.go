// Package outline infers a document's title and H1–H3 heading hierarchy
// from font-size and layout heuristics.
package outline

import (
	"log/slog"
	"unicode/utf8"

	"github.com/dgallion1/docintel/internal/doctree"
	"github.com/dgallion1/docintel/internal/lang"
	"github.com/dgallion1/docintel/internal/layout"
	"github.com/dgallion1/docintel/internal/normalize"
)

// Extractor builds outlines. It is safe for concurrent use.
type Extractor struct {
	classifier *lang.Classifier
	normalizer *normalize.Normalizer
	rules      []Rule
	log        *slog.Logger
}

// NewExtractor returns an Extractor using DefaultRules.
func NewExtractor(c *lang.Classifier, n *normalize.Normalizer, log *slog.Logger) *Extractor {
	if log == nil {
		log = slog.Default()
	}
	return &Extractor{classifier: c, normalizer: n, rules: DefaultRules, log: log}
}

// WithRules returns a copy of e using rules instead of DefaultRules.
func (e *Extractor) WithRules(rules []Rule) *Extractor {
	cp := *e
	cp.rules = rules
	return &cp
}

// ExtractFile opens path and builds its outline. Unreadable or unsupported
// files produce EmptyOutline.
func (e *Extractor) ExtractFile(path string) doctree.Outline {
	doc, err := layout.Open(path)
	if err != nil {
		e.log.Warn("outline: open failed", "path", path, "error", err)
		return doctree.EmptyOutline()
	}
	defer doc.Close()
	return e.Build(layout.Collect(doc, e.log))
}

// Build runs noise detection, title inference and heading detection over
// collected pages. Tables are left empty for the caller to merge.
func (e *Extractor) Build(pages layout.Pages) doctree.Outline {
	out := doctree.EmptyOutline()
	if len(pages) == 0 {
		return out
	}

	noise := DetectNoise(pages)
	out.Title = e.Title(pages, noise)

	cands := e.Candidates(pages, noise, MedianBodySize(pages))
	out.Outline = Dedup(AssignLevels(cands))

	e.log.Debug("outline built",
		"pages", len(pages),
		"noise", len(noise),
		"candidates", len(cands),
		"headings", len(out.Outline),
	)
	return out
}

// Title collects every distinct non-noise text among the largest-size spans
// on page 1. Each is stored under its detected language; a later string in
// the same language replaces an earlier one.
func (e *Extractor) Title(pages layout.Pages, noise NoiseSet) doctree.LocalizedText {
	var title doctree.LocalizedText
	if len(pages) == 0 || len(pages[0]) == 0 {
		return title
	}
	var first []doctree.TextSpan
	for _, s := range pages[0] {
		if !noise.Has(s.Text) {
			first = append(first, s)
		}
	}
	if len(first) == 0 {
		return title
	}

	maxSize := first[0].Size
	for _, s := range first[1:] {
		maxSize = max(maxSize, s.Size)
	}

	seen := make(map[string]bool)
	for _, s := range first {
		if s.Size != maxSize || seen[s.Text] {
			continue
		}
		seen[s.Text] = true
		l := e.classifier.Detect(s.Text)
		if text := e.normalizer.Normalize(s.Text, l); text != "" {
			title.Set(l, text)
		}
	}
	return title
}

// Candidates applies the heading rules to every non-noise span of at least
// two characters, in page order.
func (e *Extractor) Candidates(pages layout.Pages, noise NoiseSet, median float64) []Candidate {
	var cands []Candidate
	for pi, spans := range pages {
		for i, s := range spans {
			if noise.Has(s.Text) || utf8.RuneCountInString(s.Text) < minHeadingLen {
				continue
			}
			ctx := SpanContext{Span: s, Index: i, Median: median}
			if i+1 < len(spans) {
				ctx.Next = &spans[i+1]
			}
			matched := matchRules(e.rules, ctx)
			if len(matched) == 0 {
				continue
			}
			l := e.classifier.Detect(s.Text)
			text := e.normalizer.Normalize(s.Text, l)
			if text == "" {
				continue
			}
			cands = append(cands, Candidate{
				Text:  doctree.TextOf(l, text),
				Page:  pi + 1,
				Size:  s.Size,
				Rules: matched,
			})
		}
	}
	return cands
}
