package search

import (
	"sort"
	"strings"

	"github.com/clientiq/clientiq/internal/customer"
)

// Lexical scoring constants. The verbatim bonus dominates so an exact
// phrase match always outranks scattered term hits.
const (
	verbatimMatchScore = 10
	termMatchScore     = 2
	minTermLength      = 3
)

// LexicalScore computes the term-overlap score of a query against a
// record's lower-cased descriptive text: +10 when the whole query appears
// verbatim as a substring, +2 for every distinct term longer than 2
// characters present anywhere in the text.
func LexicalScore(query string, r customer.Record) int {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return 0
	}
	text := strings.ToLower(customer.Profile(r))

	score := 0
	if strings.Contains(text, q) {
		score += verbatimMatchScore
	}

	seen := make(map[string]struct{})
	for _, term := range strings.Fields(q) {
		if len(term) < minTermLength {
			continue
		}
		if _, dup := seen[term]; dup {
			continue
		}
		seen[term] = struct{}{}
		if strings.Contains(text, term) {
			score += termMatchScore
		}
	}
	return score
}

// RankLexical scores every record against the query, drops zero scores,
// and returns the top limit candidates in descending score order (stable
// on ties). It has no external dependency and never fails; it is the
// guaranteed fallback when vector search is unavailable.
func RankLexical(query string, records []customer.Record, limit int) []Candidate {
	candidates := make([]Candidate, 0, len(records))
	for _, r := range records {
		score := LexicalScore(query, r)
		if score == 0 {
			continue
		}
		candidates = append(candidates, Candidate{CustomerID: r.ID, Score: float64(score)})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})

	if limit > 0 && len(candidates) > limit {
		candidates = candidates[:limit]
	}
	return candidates
}
