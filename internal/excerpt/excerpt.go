// Package excerpt cuts fixed-size text windows out of page text and caps
// text sent to the embedder.
package excerpt

import (
	"strings"
	"unicode/utf8"
)

// DefaultSize is the excerpt length in characters.
const DefaultSize = 200

// Locate returns the trimmed window of size characters starting at the first
// occurrence of anchor in page, or at the start of page when anchor does not
// occur. The second result is the window start as a character offset.
func Locate(page, anchor string, size int) (string, int) {
	if size <= 0 {
		size = DefaultSize
	}
	byteIdx := strings.Index(page, anchor)
	if byteIdx < 0 {
		byteIdx = 0
	}
	start := utf8.RuneCountInString(page[:byteIdx])

	rest := page[byteIdx:]
	end := len(rest)
	n := 0
	for i := range rest {
		if n == size {
			end = i
			break
		}
		n++
	}
	return strings.TrimSpace(rest[:end]), start
}

// EstimateTokens gives a rough token count, about 1.33 tokens per word.
func EstimateTokens(text string) int {
	if text == "" {
		return 0
	}
	words := len(strings.Fields(text))
	tokens := int(float64(words) * 1.33)
	if tokens < 1 {
		tokens = 1
	}
	return tokens
}

// TruncateTokens keeps the leading words of text whose estimate fits within
// maxTokens. Non-positive maxTokens disables the cap.
func TruncateTokens(text string, maxTokens int) string {
	if maxTokens <= 0 || EstimateTokens(text) <= maxTokens {
		return text
	}
	words := strings.Fields(text)
	keep := max(int(float64(maxTokens)/1.33), 1)
	if keep > len(words) {
		keep = len(words)
	}
	return strings.Join(words[:keep], " ")
}
