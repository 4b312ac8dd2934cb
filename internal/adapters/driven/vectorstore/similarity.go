// Package vectorstore holds the similarity helpers shared by the brute-force
// vector store backends. Backends live in sub-packages.
package vectorstore

import (
	"math"
	"sort"

	"github.com/custodia-labs/docchat/internal/core/domain"
)

// Cosine returns the cosine similarity of a and b, or 0 when the lengths
// differ or either vector has zero magnitude.
func Cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// TopK sorts matches by descending score, breaking ties by id, and keeps
// at most k of them.
func TopK(matches []domain.VectorMatch, k int) []domain.VectorMatch {
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		return matches[i].ID < matches[j].ID
	})
	if k >= 0 && len(matches) > k {
		matches = matches[:k]
	}
	return matches
}
