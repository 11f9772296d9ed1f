package outline

import (
	"regexp"
	"sort"
	"unicode"
	"unicode/utf8"

	"github.com/dgallion1/docintel/internal/doctree"
	"github.com/dgallion1/docintel/internal/layout"
)

// Body text is assumed to sit between 8 and 14 points.
const (
	bodyMinSize     = 8.0
	bodyMaxSize     = 14.0
	defaultBodySize = 12.0
	levelTolerance  = 0.95
	minHeadingLen   = 2
)

// MedianBodySize returns the median size of all spans sized within the body
// band, or 12 when there are none.
func MedianBodySize(pages layout.Pages) float64 {
	var sizes []float64
	for _, spans := range pages {
		for _, s := range spans {
			if s.Size >= bodyMinSize && s.Size <= bodyMaxSize {
				sizes = append(sizes, s.Size)
			}
		}
	}
	if len(sizes) == 0 {
		return defaultBodySize
	}
	sort.Float64s(sizes)
	return sizes[len(sizes)/2]
}

// SpanContext is what a Rule sees about one span.
type SpanContext struct {
	Span   doctree.TextSpan
	Index  int               // position on its page
	Next   *doctree.TextSpan // following span on the same page, if any
	Median float64           // document median body size
}

// Rule is one independent heading predicate.
type Rule struct {
	Name  string
	Match func(SpanContext) bool
}

var listMarker = regexp.MustCompile(`^[\x{2022}\x{2023}\x{25E6}\x{2043}\x{2219}\x{2217}\-*0-9]`)

// DefaultRules are the heading predicates. Any one match makes a span a
// candidate.
var DefaultRules = []Rule{
	{Name: "bold-large", Match: func(c SpanContext) bool {
		return c.Span.Bold && c.Span.Size > c.Median*1.1
	}},
	{Name: "first-on-page", Match: func(c SpanContext) bool {
		return c.Index == 0 && c.Span.Size > c.Median*1.2
	}},
	{Name: "all-caps", Match: func(c SpanContext) bool {
		return IsAllCaps(c.Span.Text) && c.Span.Size >= c.Median
	}},
	{Name: "introduces-list", Match: func(c SpanContext) bool {
		return c.Next != nil && listMarker.MatchString(c.Next.Text)
	}},
}

// IsAllCaps reports whether s is longer than two characters, has at least
// one cased letter and no lowercase letters. Uncased scripts are ignored.
func IsAllCaps(s string) bool {
	if utf8.RuneCountInString(s) <= 2 {
		return false
	}
	cased := false
	for _, r := range s {
		switch {
		case unicode.IsLower(r):
			return false
		case unicode.IsUpper(r), unicode.IsTitle(r):
			cased = true
		}
	}
	return cased
}

// Candidate is a span flagged as a heading, pending level assignment.
type Candidate struct {
	Text  doctree.LocalizedText
	Page  int
	Size  float64
	Rules []string
}

// matchRules returns the names of the rules matching c.
func matchRules(rules []Rule, c SpanContext) []string {
	var names []string
	for _, r := range rules {
		if r.Match(c) {
			names = append(names, r.Name)
		}
	}
	return names
}

// AssignLevels clusters candidate sizes document-wide: the largest distinct
// size and anything within 5% of it is H1, the second tier H2, the rest H3.
func AssignLevels(cands []Candidate) []doctree.HeadingEntry {
	tiers := distinctSizesDesc(cands)
	out := make([]doctree.HeadingEntry, 0, len(cands))
	for _, c := range cands {
		out = append(out, doctree.HeadingEntry{
			Level: levelFor(c.Size, tiers),
			Text:  c.Text,
			Page:  c.Page,
		})
	}
	return out
}

func distinctSizesDesc(cands []Candidate) []float64 {
	seen := make(map[float64]bool)
	var sizes []float64
	for _, c := range cands {
		if !seen[c.Size] {
			seen[c.Size] = true
			sizes = append(sizes, c.Size)
		}
	}
	sort.Sort(sort.Reverse(sort.Float64Slice(sizes)))
	return sizes
}

func levelFor(size float64, tiers []float64) doctree.HeadingLevel {
	switch {
	case len(tiers) > 0 && size >= tiers[0]*levelTolerance:
		return doctree.H1
	case len(tiers) > 1 && size >= tiers[1]*levelTolerance:
		return doctree.H2
	default:
		return doctree.H3
	}
}

// Dedup drops entries whose (level, text, page) was already seen, keeping
// first-seen order.
func Dedup(entries []doctree.HeadingEntry) []doctree.HeadingEntry {
	type key struct {
		level doctree.HeadingLevel
		text  string
		page  int
	}
	seen := make(map[key]bool, len(entries))
	out := make([]doctree.HeadingEntry, 0, len(entries))
	for _, e := range entries {
		k := key{e.Level, doctree.TextKey(e.Text), e.Page}
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, e)
	}
	return out
}
