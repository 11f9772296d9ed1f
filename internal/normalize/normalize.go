// Package normalize repairs extracted text units per language: English runs
// that lost their spaces are re-segmented, Devanagari text is re-tokenized.
package normalize

import (
	"strings"

	"github.com/dgallion1/docintel/internal/doctree"
)

// Options controls normalization behavior.
type Options struct {
	// PunctuationFallback disables script-aware tokenization for hi/mr and
	// only spaces out sentence punctuation.
	PunctuationFallback bool
}

// Normalizer is safe for concurrent use once constructed.
type Normalizer struct {
	seg  *Segmenter
	opts Options
}

// New returns a Normalizer backed by the embedded English word list.
func New(opts Options) *Normalizer {
	return &Normalizer{seg: DefaultSegmenter(), opts: opts}
}

// NewWithSegmenter returns a Normalizer using seg for English text.
func NewWithSegmenter(seg *Segmenter, opts Options) *Normalizer {
	return &Normalizer{seg: seg, opts: opts}
}

// Normalize repairs text for lang. Case is never changed.
func (n *Normalizer) Normalize(text string, lang doctree.Lang) string {
	if lang.IsDevanagari() {
		text = strings.TrimSpace(text)
		if text == "" {
			return ""
		}
		if n.opts.PunctuationFallback {
			return punctuationFallback(text)
		}
		return tokenizeIndic(text)
	}
	return n.english(text)
}

// english leaves already segmented text alone apart from trimming.
func (n *Normalizer) english(text string) string {
	if strings.Contains(text, " ") {
		return strings.TrimSpace(text)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return ""
	}
	return strings.Join(n.seg.Split(text), " ")
}
