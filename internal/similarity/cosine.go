// Package similarity provides the vector math shared by the dataset matcher
// and the knowledge retriever.
package similarity

import "math"

// Epsilon is the tolerance used when comparing cosine scores. Two scores
// within Epsilon are treated as equal, which keeps top-1 selection
// deterministic across platforms despite floating-point drift.
const Epsilon = 1e-9

// Cosine computes cosine similarity between two vectors.
//
// Returns a value in [-1, 1] where 1 means identical direction. Mismatched
// lengths and zero vectors score 0 rather than erroring; the corpus loader
// guarantees well-formed vectors, so those cases only arise with an empty
// query embedding.
func Cosine(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, magA, magB float64
	for i := range a {
		dot += a[i] * b[i]
		magA += a[i] * a[i]
		magB += b[i] * b[i]
	}
	if magA == 0 || magB == 0 {
		return 0
	}
	return dot / (math.Sqrt(magA) * math.Sqrt(magB))
}
