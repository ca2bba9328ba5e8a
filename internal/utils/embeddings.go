package utils

import (
	"fmt"
	"math"
)

// CosineSimilarity calculates the cosine similarity between two vectors.
func CosineSimilarity(vec1, vec2 []float32) (float32, error) {
	if len(vec1) == 0 || len(vec2) == 0 {
		return 0, fmt.Errorf("vectors cannot be empty")
	}
	if len(vec1) != len(vec2) {
		return 0, fmt.Errorf("vectors must have the same dimension (%d vs %d)", len(vec1), len(vec2))
	}

	var dot, sq1, sq2 float64
	for i := range vec1 {
		dot += float64(vec1[i]) * float64(vec2[i])
		sq1 += float64(vec1[i]) * float64(vec1[i])
		sq2 += float64(vec2[i]) * float64(vec2[i])
	}

	mag := math.Sqrt(sq1) * math.Sqrt(sq2)
	if mag == 0 {
		return 0, nil
	}
	return float32(dot / mag), nil
}
