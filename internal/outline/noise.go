package outline

import (
	"math"
	"sort"
	"unicode/utf8"

	"github.com/dgallion1/docintel/internal/layout"
)

// Noise strings recur on at least noiseFraction of the pages (and on at
// least two) and are shorter than noiseMaxLen characters.
const (
	noiseFraction = 0.6
	noiseMaxLen   = 80
)

// NoiseSet holds cleaned span texts treated as running headers, footers or
// watermarks.
type NoiseSet map[string]struct{}

// Has reports whether s is noise.
func (n NoiseSet) Has(s string) bool {
	_, ok := n[s]
	return ok
}

// Sorted returns the noise strings in lexical order.
func (n NoiseSet) Sorted() []string {
	out := make([]string, 0, len(n))
	for s := range n {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// NoiseThreshold returns the page count a string must reach to be noise.
func NoiseThreshold(numPages int) int {
	return max(2, int(math.Ceil(noiseFraction*float64(numPages))))
}

// DetectNoise counts, for each distinct span text, the number of pages it
// appears on. Repeats within one page count once.
func DetectNoise(pages layout.Pages) NoiseSet {
	counts := make(map[string]int)
	for _, spans := range pages {
		seen := make(map[string]bool, len(spans))
		for _, s := range spans {
			text := layout.CleanText(s.Text)
			if seen[text] {
				continue
			}
			seen[text] = true
			counts[text]++
		}
	}

	threshold := NoiseThreshold(len(pages))
	noise := make(NoiseSet)
	for text, c := range counts {
		n := utf8.RuneCountInString(text)
		if c >= threshold && n > 0 && n < noiseMaxLen {
			noise[text] = struct{}{}
		}
	}
	return noise
}
