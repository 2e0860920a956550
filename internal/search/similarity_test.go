package search

import (
	"errors"
	"math"
	"testing"

	"github.com/clientiq/clientiq/internal/vectorstore"
)

func TestCosineSimilarityProperties(t *testing.T) {
	vectors := [][]float32{
		{1, 0, 0},
		{0.5, 0.5, 0},
		{-1, 2, 3},
		{0.1, -0.2, 0.9},
	}

	for i, a := range vectors {
		for j, b := range vectors {
			ab := CosineSimilarity(a, b)
			ba := CosineSimilarity(b, a)
			if ab != ba {
				t.Errorf("sim(v%d,v%d) = %v but sim(v%d,v%d) = %v, want symmetric", i, j, ab, j, i, ba)
			}
			if ab < -1.0000001 || ab > 1.0000001 {
				t.Errorf("sim(v%d,v%d) = %v, want within [-1, 1]", i, j, ab)
			}
		}

		if self := CosineSimilarity(a, a); math.Abs(self-1) > 1e-9 {
			t.Errorf("sim(v%d,v%d) = %v, want 1", i, i, self)
		}
	}
}

func TestCosineSimilarityZeroNorm(t *testing.T) {
	zero := []float32{0, 0, 0}
	v := []float32{1, 2, 3}

	if got := CosineSimilarity(zero, v); got != 0 {
		t.Errorf("sim(zero, v) = %v, want 0", got)
	}
	if got := CosineSimilarity(v, zero); got != 0 {
		t.Errorf("sim(v, zero) = %v, want 0", got)
	}
	if got := CosineSimilarity(zero, zero); got != 0 {
		t.Errorf("sim(zero, zero) = %v, want 0", got)
	}
}

func entriesFromVectors(vectors ...[]float32) []vectorstore.Entry {
	entries := make([]vectorstore.Entry, len(vectors))
	for i, v := range vectors {
		entries[i] = vectorstore.Entry{
			CustomerID: "CUST-10000" + string(rune('0'+i)),
			Vector:     v,
		}
	}
	return entries
}

func TestRankBySimilarityOrderingAndLimit(t *testing.T) {
	query := []float32{1, 0}
	entries := entriesFromVectors(
		[]float32{0.2, 0.98}, // low similarity
		[]float32{1, 0},      // identical: similarity 1
		[]float32{0.9, 0.1},  // high
		[]float32{-1, 0},     // negative: excluded
		[]float32{0, 1},      // orthogonal: zero, excluded
	)

	got, err := RankBySimilarity(query, entries, 10)
	if err != nil {
		t.Fatalf("RankBySimilarity: %v", err)
	}

	if len(got) != 3 {
		t.Fatalf("got %d candidates, want 3 (non-positive scores excluded)", len(got))
	}
	for i := 1; i < len(got); i++ {
		if got[i].Score > got[i-1].Score {
			t.Errorf("candidates not in descending score order: %v", got)
		}
	}
	if got[0].CustomerID != "CUST-100001" {
		t.Errorf("best candidate = %q, want the identical vector", got[0].CustomerID)
	}
	for _, c := range got {
		if c.Score <= 0 {
			t.Errorf("candidate %q has non-positive score %v", c.CustomerID, c.Score)
		}
	}

	// The limit bounds the result.
	limited, err := RankBySimilarity(query, entries, 2)
	if err != nil {
		t.Fatalf("RankBySimilarity: %v", err)
	}
	if len(limited) != 2 {
		t.Errorf("got %d candidates with limit 2", len(limited))
	}
}

func TestRankBySimilarityStableTies(t *testing.T) {
	query := []float32{1, 0}
	// Both entries have identical direction, hence identical similarity.
	entries := entriesFromVectors(
		[]float32{2, 0},
		[]float32{5, 0},
	)

	got, err := RankBySimilarity(query, entries, 10)
	if err != nil {
		t.Fatalf("RankBySimilarity: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d candidates, want 2", len(got))
	}
	if got[0].CustomerID != "CUST-100000" || got[1].CustomerID != "CUST-100001" {
		t.Errorf("tie broke store order: %v", got)
	}
}

func TestRankBySimilarityDimensionMismatch(t *testing.T) {
	query := []float32{1, 0, 0}
	entries := entriesFromVectors([]float32{1, 0})

	_, err := RankBySimilarity(query, entries, 10)
	if !errors.Is(err, ErrDimensionMismatch) {
		t.Fatalf("err = %v, want ErrDimensionMismatch", err)
	}
}
