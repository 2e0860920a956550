package search

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/clientiq/clientiq/internal/customer"
)

// DefaultLimit is the retrieval limit for ordinary (non-comprehensive)
// queries.
const DefaultLimit = 3

// defaultTopN is used when a top-N phrasing carries no explicit number.
const defaultTopN = 5

// Intent patterns. All matching is case-insensitive on the raw query.
var (
	customerIDRe = regexp.MustCompile(`(?i)\bcust-\d{5,6}\b`)

	comprehensiveRes = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\b(?:all|every)\s+customers?\b`),
		regexp.MustCompile(`(?i)\bhow\s+many\s+customers\b`),
		regexp.MustCompile(`(?i)\bcount\b`),
		regexp.MustCompile(`(?i)\bnumber\s+of\s+customers\b`),
		regexp.MustCompile(`(?i)\bcustomers?\s+(?:with|having|more\s+than)\b`),
		regexp.MustCompile(`(?i)\bwhich\s+customers\b`),
		regexp.MustCompile(`(?i)\bfind\s+customers\b`),
		regexp.MustCompile(`(?i)\b(?:whole|entire|complete|full)\s+database\b`),
	}

	topNRe     = regexp.MustCompile(`(?i)\btop\s+(\d+)\b`)
	mostRe     = regexp.MustCompile(`(?i)\b(?:(\d+)\s+)?customers?\s+with\s+(?:the\s+)?(?:most|highest|greatest)\b`)
	moreThanRe = regexp.MustCompile(`(?i)\bmore\s+than\s+(\d+)\b`)
	listNRe    = regexp.MustCompile(`(?i)\blist\s+(\d+)\b`)
)

// Classifier decides retrieval breadth and detects shortcut intents from
// raw query text. It is a pure function of the loaded record collection
// plus the query string; it performs no I/O.
type Classifier struct {
	customers *customer.Store
}

// NewClassifier builds a classifier over the loaded record collection.
func NewClassifier(customers *customer.Store) *Classifier {
	return &Classifier{customers: customers}
}

// IsComprehensive reports whether the query calls for a database-wide scan
// rather than a handful of best matches.
func (c *Classifier) IsComprehensive(query string) bool {
	for _, re := range comprehensiveRes {
		if re.MatchString(query) {
			return true
		}
	}
	return false
}

// Limit returns the active retrieval limit for the query: the full
// collection size for comprehensive queries, DefaultLimit otherwise.
func (c *Classifier) Limit(query string) int {
	if c.IsComprehensive(query) {
		return c.customers.Len()
	}
	return DefaultLimit
}

// ShortcutByID looks for an explicit customer identifier in the query and
// resolves it against the collection. A hit short-circuits retrieval
// entirely, regardless of any other query content.
func (c *Classifier) ShortcutByID(query string) (customer.Record, bool) {
	id := customerIDRe.FindString(query)
	if id == "" {
		return customer.Record{}, false
	}
	return c.customers.ByID(id)
}

// ShortcutByName collects every record whose full "first last" name
// appears in the query (there may be more than one same-named record),
// truncated to limit.
func (c *Classifier) ShortcutByName(query string, limit int) []customer.Record {
	q := strings.ToLower(query)

	var matches []customer.Record
	for _, r := range c.customers.All() {
		name := strings.ToLower(r.FullName())
		if name == "" || !strings.Contains(name, " ") {
			continue
		}
		if strings.Contains(q, name) {
			matches = append(matches, r)
			if limit > 0 && len(matches) == limit {
				break
			}
		}
	}
	return matches
}

// ProductFilter evaluates the structured product sub-intent. It only
// applies inside comprehensive mode and only when the query mentions
// products; callers check both. Returns false when the query does not
// mention products at all.
//
// A "more than N" clause takes precedence over a bare "top N" so that
// "top 3 customers with more than 2 products" filters first and then
// truncates to 3.
func (c *Classifier) ProductFilter(query string, limit int) ([]customer.Record, bool) {
	if !strings.Contains(strings.ToLower(query), "product") {
		return nil, false
	}

	byCount := c.recordsByProductCount()

	if m := moreThanRe.FindStringSubmatch(query); m != nil {
		threshold, _ := strconv.Atoi(m[1])

		filtered := make([]customer.Record, 0, len(byCount))
		for _, r := range byCount {
			if len(r.Products) > threshold {
				filtered = append(filtered, r)
			}
		}

		// An accompanying "top N" or "list N" clause bounds the filtered
		// set; otherwise the active limit applies.
		if n, ok := requestedN(query); ok {
			return truncate(filtered, n), true
		}
		return truncate(filtered, limit), true
	}

	if n, ok := topNIntent(query); ok {
		return truncate(byCount, n), true
	}

	return truncate(byCount, limit), true
}

// recordsByProductCount returns the collection sorted by descending
// product count, ties keeping original order.
func (c *Classifier) recordsByProductCount() []customer.Record {
	all := c.customers.All()
	sorted := make([]customer.Record, len(all))
	copy(sorted, all)

	sort.SliceStable(sorted, func(i, j int) bool {
		return len(sorted[i].Products) > len(sorted[j].Products)
	})
	return sorted
}

// topNIntent reports a "top N" or "N customers with most/highest/greatest"
// phrasing, defaulting to 5 when the phrasing carries no number.
func topNIntent(query string) (int, bool) {
	if m := topNRe.FindStringSubmatch(query); m != nil {
		n, _ := strconv.Atoi(m[1])
		return n, true
	}
	if m := mostRe.FindStringSubmatch(query); m != nil {
		if m[1] != "" {
			n, _ := strconv.Atoi(m[1])
			return n, true
		}
		return defaultTopN, true
	}
	return 0, false
}

// requestedN extracts an explicit result bound from a "top N" or "list N"
// clause.
func requestedN(query string) (int, bool) {
	if m := topNRe.FindStringSubmatch(query); m != nil {
		n, _ := strconv.Atoi(m[1])
		return n, true
	}
	if m := listNRe.FindStringSubmatch(query); m != nil {
		n, _ := strconv.Atoi(m[1])
		return n, true
	}
	return 0, false
}

func truncate(records []customer.Record, limit int) []customer.Record {
	if limit > 0 && len(records) > limit {
		return records[:limit]
	}
	return records
}
