package normalize

import (
	_ "embed"
	"math"
	"strings"
	"unicode"
)

//go:embed words.txt
var defaultWords string

// Unknown substrings are priced per piece plus per rune so that an unknown
// run stays in one piece instead of shattering into letters.
const (
	unknownBase    = 50.0
	unknownPerRune = 1.5
	maxRunLength   = 256
)

// Segmenter infers word boundaries in text that lost its spaces, using a
// Zipf cost model over a frequency-ordered word list: the word at rank r
// costs log((r+1) * log N).
type Segmenter struct {
	cost map[string]float64
}

// NewSegmenter builds a Segmenter from words ordered most frequent first.
// Duplicate entries keep their first rank.
func NewSegmenter(words []string) *Segmenter {
	s := &Segmenter{cost: make(map[string]float64, len(words))}
	logN := math.Log(math.Max(float64(len(words)), 3))
	for i, w := range words {
		w = strings.ToLower(strings.TrimSpace(w))
		if w == "" {
			continue
		}
		if _, ok := s.cost[w]; ok {
			continue
		}
		s.cost[w] = math.Log(float64(i+1) * logN)
	}
	return s
}

// DefaultSegmenter returns a Segmenter over the embedded English word list.
func DefaultSegmenter() *Segmenter {
	return NewSegmenter(strings.Split(defaultWords, "\n"))
}

// Known reports whether w is in the word list.
func (s *Segmenter) Known(w string) bool {
	_, ok := s.cost[strings.ToLower(w)]
	return ok
}

// Split breaks text into words. Digit runs are kept whole and input casing
// is preserved. Characters other than letters, digits and apostrophes drop.
func (s *Segmenter) Split(text string) []string {
	var out []string
	for _, run := range splitRuns(text) {
		if unicode.IsDigit(run[0]) || len(run) > maxRunLength || !hasASCIILetter(run) {
			out = append(out, string(run))
			continue
		}
		out = append(out, s.segment(run)...)
	}
	return out
}

// hasASCIILetter reports whether run holds a letter the word list can know.
func hasASCIILetter(run []rune) bool {
	for _, r := range run {
		if r < unicode.MaxASCII && unicode.IsLetter(r) {
			return true
		}
	}
	return false
}

func (s *Segmenter) segment(run []rune) []string {
	n := len(run)
	lower := make([]rune, n)
	for i, r := range run {
		lower[i] = unicode.ToLower(r)
	}

	cost := make([]float64, n+1)
	back := make([]int, n+1)
	for i := 1; i <= n; i++ {
		cost[i], back[i] = math.Inf(1), 1
		for k := 1; k <= i; k++ {
			c := cost[i-k] + s.wordCost(lower[i-k:i])
			if c < cost[i] {
				cost[i], back[i] = c, k
			}
		}
	}

	var rev []string
	for i := n; i > 0; i -= back[i] {
		tok := string(run[i-back[i] : i])
		if len(rev) > 0 && strings.EqualFold(rev[len(rev)-1], "'s") && tok != "'" {
			rev[len(rev)-1] = tok + rev[len(rev)-1]
			continue
		}
		rev = append(rev, tok)
	}

	out := make([]string, len(rev))
	for i, tok := range rev {
		out[len(rev)-1-i] = tok
	}
	return out
}

func (s *Segmenter) wordCost(w []rune) float64 {
	if c, ok := s.cost[string(w)]; ok {
		return c
	}
	return unknownBase + unknownPerRune*float64(len(w))
}

// splitRuns returns maximal runs of letters (with apostrophes and combining
// marks) and of digits.
func splitRuns(text string) [][]rune {
	const (
		other = iota
		letter
		digit
	)
	var (
		out  [][]rune
		cur  []rune
		kind = other
	)
	for _, r := range text {
		k := other
		switch {
		case unicode.IsDigit(r):
			k = digit
		case unicode.IsLetter(r), unicode.Is(unicode.M, r), r == '\'':
			k = letter
		}
		if k != kind && len(cur) > 0 {
			out = append(out, cur)
			cur = nil
		}
		kind = k
		if k != other {
			cur = append(cur, r)
		}
	}
	if len(cur) > 0 {
		out = append(out, cur)
	}
	return out
}
