package utils

import (
	"errors"
	"math"
	"sort"
)

var (
	ErrEmptyVector       = errors.New("vectors cannot be empty")
	ErrDimensionMismatch  = errors.New("vectors must have the same dimension")
)

// CosineSimilarity returns the cosine of the angle between a and b. A zero
// vector has similarity 0 with everything.
func CosineSimilarity(a, b []float32) (float32, error) {
	if len(a) == 0 || len(b) == 0 {
		return 0, ErrEmptyVector
	}
	if len(a) != len(b) {
		return 0, ErrDimensionMismatch
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0, nil
	}
	return float32(dot / (math.Sqrt(normA) * math.Sqrt(normB))), nil
}

// Scored pairs an item with its similarity to a query.
type Scored[T any] struct {
	Item  T
	Score float32
}

// TopK ranks items by cosine similarity to query and keeps the best k.
// Items whose vector cannot be compared with the query are skipped and
// reported through skip, when non-nil. Ties keep input order.
func TopK[T any](query []float32, items []T, vector func(T) []float32, k int, skip func(T, error)) []Scored[T] {
	scored := make([]Scored[T], 0, len(items))
	for _, item := range items {
		score, err := CosineSimilarity(query, vector(item))
		if err != nil {
			if skip != nil {
				skip(item, err)
			}
			continue
		}
		scored = append(scored, Scored[T]{Item: item, Score: score})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})
	if k >= 0 && k < len(scored) {
		scored = scored[:k]
	}
	return scored
}
