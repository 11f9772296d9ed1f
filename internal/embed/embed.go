// Package embed maps text to unit-length vectors.
//
// An Embedder is constructed once per process and passed explicitly to the
// ranker. Constructing the OpenAI-compatible client is cheap; the first call
// pays the connection setup. The hash embedder needs no model at all.
package embed

import (
	"context"
	"errors"
	"fmt"
	"math"
)

// ErrEmptyInput is returned for blank text.
var ErrEmptyInput = errors.New("embed: empty input")

// ErrDimensionMismatch is returned by Dot for vectors of different lengths.
var ErrDimensionMismatch = errors.New("embed: vector dimension mismatch")

// Embedder returns a unit-normalized vector for text. Identical input yields
// identical output.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Dimension() int
}

// Normalize scales v to unit length in place and returns it. A zero vector
// is returned unchanged.
func Normalize(v []float32) []float32 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return v
	}
	inv := 1 / math.Sqrt(sum)
	for i, x := range v {
		v[i] = float32(float64(x) * inv)
	}
	return v
}

// Dot returns the dot product of a and b, which for unit vectors is their
// cosine similarity.
func Dot(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("%w: %d vs %d", ErrDimensionMismatch, len(a), len(b))
	}
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum, nil
}
