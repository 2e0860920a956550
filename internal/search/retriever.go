package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/clientiq/clientiq/internal/customer"
	"github.com/clientiq/clientiq/internal/embed"
	"github.com/clientiq/clientiq/internal/vectorstore"
)

// Method identifies which ranking path produced a retrieval result. The
// fallback path is an explicit branch, not an exception artifact, so
// callers can see (and log) which ranker answered.
type Method string

const (
	// MethodNone means nothing was retrieved (empty query).
	MethodNone Method = "none"

	// MethodIdentifier is the identifier shortcut: the query named a
	// record by its CUST id.
	MethodIdentifier Method = "identifier"

	// MethodName is the full-name shortcut.
	MethodName Method = "name"

	// MethodStructured is the comprehensive product-count filter.
	MethodStructured Method = "structured"

	// MethodVector is cosine similarity over the embedding store.
	MethodVector Method = "vector"

	// MethodLexical is the term-overlap fallback.
	MethodLexical Method = "lexical"
)

// Result is the outcome of one retrieval call. Records are ordered by
// descending score or priority as defined by whichever ranker produced
// them; the orchestrator never re-sorts.
type Result struct {
	Records       []customer.Record
	Method        Method
	Comprehensive bool
}

// EmbeddingStore is the slice of the vector store the retriever reads.
type EmbeddingStore interface {
	All(ctx context.Context) ([]vectorstore.Entry, error)
}

// Retriever orchestrates a retrieval call: shortcut checks first, then
// breadth classification, then the structured product filter or vector
// search with lexical fallback.
type Retriever struct {
	customers  *customer.Store
	classifier *Classifier
	provider   embed.Provider
	store      EmbeddingStore
	logger     *slog.Logger
}

// NewRetriever wires the orchestrator. provider and store may fail at
// query time; the lexical fallback covers both.
func NewRetriever(customers *customer.Store, provider embed.Provider, store EmbeddingStore, logger *slog.Logger) *Retriever {
	if logger == nil {
		logger = slog.Default()
	}
	return &Retriever{
		customers:  customers,
		classifier: NewClassifier(customers),
		provider:   provider,
		store:      store,
		logger:     logger,
	}
}

// Retrieve returns the most relevant records for a free-text query.
//
// An empty or whitespace-only query yields an empty result, not an error.
// Identifier and name shortcuts take precedence over everything else,
// including comprehensive phrasing. Any failure on the vector path
// (provider error, empty store, dimension mismatch) falls back to lexical
// ranking over the full collection, which cannot fail.
func (r *Retriever) Retrieve(ctx context.Context, query string) Result {
	if strings.TrimSpace(query) == "" {
		return Result{Method: MethodNone}
	}

	if rec, ok := r.classifier.ShortcutByID(query); ok {
		return Result{Records: []customer.Record{rec}, Method: MethodIdentifier}
	}

	comprehensive := r.classifier.IsComprehensive(query)
	limit := DefaultLimit
	if comprehensive {
		limit = r.customers.Len()
	}

	if matches := r.classifier.ShortcutByName(query, limit); len(matches) > 0 {
		return Result{Records: matches, Method: MethodName, Comprehensive: comprehensive}
	}

	if comprehensive {
		if records, ok := r.classifier.ProductFilter(query, limit); ok {
			return Result{Records: records, Method: MethodStructured, Comprehensive: true}
		}
	}

	records, err := r.vectorSearch(ctx, query, limit)
	if err != nil {
		r.logger.Warn("vector retrieval failed, falling back to lexical search",
			"error", err,
			"comprehensive", comprehensive,
		)
		return Result{
			Records:       r.lexicalSearch(query, limit),
			Method:        MethodLexical,
			Comprehensive: comprehensive,
		}
	}

	return Result{Records: records, Method: MethodVector, Comprehensive: comprehensive}
}

func (r *Retriever) vectorSearch(ctx context.Context, query string, limit int) ([]customer.Record, error) {
	queryVec, err := r.provider.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}

	entries, err := r.store.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading embedding store: %w", err)
	}
	if len(entries) == 0 {
		return nil, errors.New("embedding store is empty")
	}

	candidates, err := RankBySimilarity(queryVec, entries, limit)
	if err != nil {
		return nil, err
	}

	return r.resolve(candidates), nil
}

func (r *Retriever) lexicalSearch(query string, limit int) []customer.Record {
	return r.resolve(RankLexical(query, r.customers.All(), limit))
}

// resolve maps ranked candidates back to records, preserving rank order.
// A candidate whose identifier no longer resolves (stale store entry) is
// dropped rather than surfaced.
func (r *Retriever) resolve(candidates []Candidate) []customer.Record {
	records := make([]customer.Record, 0, len(candidates))
	for _, c := range candidates {
		rec, ok := r.customers.ByID(c.CustomerID)
		if !ok {
			r.logger.Warn("ranked candidate has no source record", "customer_id", c.CustomerID)
			continue
		}
		records = append(records, rec)
	}
	return records
}
