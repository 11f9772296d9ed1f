package normalize

import (
	"strings"

	"github.com/clipperhouse/uax29/v2/words"
	"golang.org/x/text/unicode/norm"
)

const danda = "।"

// HasInvalidDevanagari reports whether s contains no character from the
// Devanagari block (U+0900-U+097F). Text tagged hi or mr that fails this
// check was most likely decoded with a broken font mapping.
func HasInvalidDevanagari(s string) bool {
	for _, r := range s {
		if r >= 0x0900 && r <= 0x097F {
			return false
		}
	}
	return true
}

// tokenizeIndic splits text on UAX #29 word boundaries, composes each token
// to NFC and rejoins with single spaces. A space before the danda is removed.
func tokenizeIndic(text string) string {
	seg := words.FromString(text)
	var toks []string
	for seg.Next() {
		tok := strings.TrimSpace(seg.Value())
		if tok == "" {
			continue
		}
		toks = append(toks, norm.NFC.String(tok))
	}
	return strings.ReplaceAll(strings.Join(toks, " "), " "+danda, danda)
}

var sentenceEnds = []string{danda, ".", ",", "!", "?"}

// punctuationFallback puts a space after sentence punctuation and collapses
// repeated spaces.
func punctuationFallback(text string) string {
	for _, p := range sentenceEnds {
		text = strings.ReplaceAll(text, p, p+" ")
	}
	for strings.Contains(text, "  ") {
		text = strings.ReplaceAll(text, "  ", " ")
	}
	return strings.TrimSpace(text)
}
