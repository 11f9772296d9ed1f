package embed

import (
	"context"
	"hash/fnv"
	"strings"
	"unicode"

	"github.com/clipperhouse/uax29/v2/words"
	"golang.org/x/text/unicode/norm"
)

// DefaultHashDimension is the vector size used when none is configured.
const DefaultHashDimension = 384

// HashEmbedder is an offline embedder: UAX #29 word tokens and adjacent
// token pairs are hashed into signed buckets. Texts sharing vocabulary get
// similar vectors; there is no semantic generalization beyond that.
type HashEmbedder struct {
	dim int
}

func NewHash(dim int) *HashEmbedder {
	if dim <= 0 {
		dim = DefaultHashDimension
	}
	return &HashEmbedder{dim: dim}
}

func (h *HashEmbedder) Dimension() int { return h.dim }

func (h *HashEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	toks := Tokens(text)
	if len(toks) == 0 {
		return nil, ErrEmptyInput
	}

	v := make([]float32, h.dim)
	for i, tok := range toks {
		h.add(v, tok, 1)
		if i > 0 {
			h.add(v, toks[i-1]+" "+tok, 0.5)
		}
	}
	return Normalize(v), nil
}

func (h *HashEmbedder) add(v []float32, feature string, weight float32) {
	f := fnv.New64a()
	f.Write([]byte(feature))
	sum := f.Sum64()
	idx := int(sum % uint64(h.dim))
	if sum>>63 == 1 {
		weight = -weight
	}
	v[idx] += weight
}

// Tokens returns the lowercased NFC word tokens of text, skipping
// whitespace and punctuation segments.
func Tokens(text string) []string {
	seg := words.FromString(text)
	var out []string
	for seg.Next() {
		tok := seg.Value()
		if !hasWordRune(tok) {
			continue
		}
		out = append(out, strings.ToLower(norm.NFC.String(tok)))
	}
	return out
}

func hasWordRune(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.Is(unicode.Mn, r) {
			return true
		}
	}
	return false
}
