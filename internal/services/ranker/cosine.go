package ranker

import "math"

// cosineSimilarity returns the cosine of the angle between two embedding
// vectors, a value in [-1, 1]. Mismatched lengths, empty vectors, and
// zero-norm vectors all score 0.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(b) == 0 || len(a) != len(b) {
		return 0.0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0.0
	}

	score := dot / (math.Sqrt(normA) * math.Sqrt(normB))

	// Guard against floating point drift outside the valid range
	if score > 1.0 {
		score = 1.0
	}
	if score < -1.0 {
		score = -1.0
	}
	return score
}
