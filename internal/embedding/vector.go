// Package embedding provides the gateway to the external text encoder and
// the vector math used for similarity ranking and query refinement.
package embedding

import "math"

// CosineSimilarity returns the cosine similarity of a and b in [-1, 1].
// It returns 0.0 when either vector has zero magnitude or when the
// dimensions differ, so callers never divide by zero or panic on
// mismatched encoder output.
func CosineSimilarity(a, b []float64) float64 {
	if len(a) == 0 || len(b) == 0 || len(a) != len(b) {
		return 0.0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}

	if normA == 0 || normB == 0 {
		return 0.0
	}

	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// RefineTowardCentroid nudges the query vector toward the centroid of the
// candidate vectors: query + alpha*(centroid - query). This biases retrieval
// toward the semantic neighborhood of the current candidate set. It is a
// pre-ranking adjustment applied once, not per candidate.
//
// The query is returned unchanged when there are no candidates or when the
// candidate dimensions do not match the query.
func RefineTowardCentroid(query []float64, candidates [][]float64, alpha float64) []float64 {
	if len(candidates) == 0 || len(query) == 0 {
		return query
	}

	centroid := make([]float64, len(query))
	n := 0
	for _, c := range candidates {
		if len(c) != len(query) {
			continue
		}
		for i, v := range c {
			centroid[i] += v
		}
		n++
	}
	if n == 0 {
		return query
	}

	refined := make([]float64, len(query))
	for i := range query {
		centroid[i] /= float64(n)
		refined[i] = query[i] + alpha*(centroid[i]-query[i])
	}
	return refined
}
