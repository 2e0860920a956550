// Package search implements the retrieval core: cosine-similarity ranking
// over the embedding store, a dependency-free lexical fallback, query
// intent classification, and the orchestrator that composes them.
package search

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/clientiq/clientiq/internal/vectorstore"
)

// ErrDimensionMismatch indicates a stored vector's length disagrees with
// the query vector's. This is a precondition violation, not a transient
// failure: the whole similarity pass is abandoned, never retried
// per-vector.
var ErrDimensionMismatch = errors.New("vector dimension mismatch")

// Candidate is a transient scored reference to a record. Scores are
// comparable within one retrieval call but not across calls that used
// different ranking methods: cosine similarity and lexical scores live on
// different scales.
type Candidate struct {
	CustomerID string
	Score      float64
}

// CosineSimilarity returns dot(a,b) / (‖a‖·‖b‖), or 0 when either norm is
// zero. Assumes equal lengths (caller's responsibility).
func CosineSimilarity(a, b []float32) float64 {
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// RankBySimilarity scores query against every entry, discards non-positive
// similarities, and returns the top limit candidates in descending score
// order. Ties keep store order (stable sort). Returns ErrDimensionMismatch
// if any stored vector's length differs from the query's.
func RankBySimilarity(query []float32, entries []vectorstore.Entry, limit int) ([]Candidate, error) {
	candidates := make([]Candidate, 0, len(entries))
	for _, e := range entries {
		if len(e.Vector) != len(query) {
			return nil, fmt.Errorf("%w: entry %q has dimension %d, query has %d",
				ErrDimensionMismatch, e.CustomerID, len(e.Vector), len(query))
		}

		score := CosineSimilarity(query, e.Vector)
		if score <= 0 {
			continue
		}
		candidates = append(candidates, Candidate{CustomerID: e.CustomerID, Score: score})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})

	if limit > 0 && len(candidates) > limit {
		candidates = candidates[:limit]
	}
	return candidates, nil
}
