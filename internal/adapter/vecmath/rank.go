// Package vecmath holds the exact nearest-neighbour search shared by the
// in-process vector stores.
package vecmath

import (
	"math"
	"sort"
)

// Candidate is a stored vector considered for a query.
type Candidate struct {
	ID     string
	Vector []float32
}

// Neighbour is a ranked candidate with its cosine distance to the query.
type Neighbour struct {
	ID       string
	Distance float64
}

// CosineSimilarity calculates the cosine similarity between two vectors.
// Zero vectors and mismatched lengths have similarity 0.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}

	var dotProduct, normA, normB float64
	for i := range a {
		dotProduct += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dotProduct / (math.Sqrt(normA) * math.Sqrt(normB))
}

// Nearest returns the k candidates closest to query by cosine distance,
// closest first. Equal distances are ordered by id.
func Nearest(query []float32, candidates []Candidate, k int) []Neighbour {
	if k <= 0 || len(candidates) == 0 {
		return nil
	}

	out := make([]Neighbour, 0, len(candidates))
	for _, c := range candidates {
		out = append(out, Neighbour{
			ID:       c.ID,
			Distance: 1 - CosineSimilarity(query, c.Vector),
		})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Distance != out[j].Distance {
			return out[i].Distance < out[j].Distance
		}
		return out[i].ID < out[j].ID
	})

	if k < len(out) {
		out = out[:k]
	}
	return out
}
