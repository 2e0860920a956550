// Package vectorstore implements the durable embedding store: a key-value
// mapping from customer identifier to its precomputed vector and the
// descriptive text the vector was produced from.
//
// The store is built once by Populate and read-only afterwards, except for
// the explicit Upsert path used when a single source record changes. Two
// backends implement the same contract: a file-backed SQLite store (the
// default) and a PostgreSQL/pgvector store for deployments that already
// run Postgres.
package vectorstore

import (
	"context"
	"encoding/json"
	"fmt"

	"golang.org/x/time/rate"

	"github.com/clientiq/clientiq/internal/customer"
)

// Entry is one stored embedding: the record identifier, the dense vector,
// and the descriptive text used to produce it. Every vector in a populated
// store has the same length D, fixed by the embedding provider.
type Entry struct {
	CustomerID  string
	DisplayName string
	Content     string
	Vector      []float32
}

// Store is the embedding store contract shared by both backends.
type Store interface {
	// Populate embeds every record's descriptive text and persists the
	// resulting entries inside one transaction. A provider failure for an
	// individual record is logged and that record omitted; it does not
	// fail the run. Populate is a no-op when the store already holds at
	// least one entry.
	Populate(ctx context.Context, records []customer.Record) error

	// All returns every stored entry in population order.
	All(ctx context.Context) ([]Entry, error)

	// Upsert re-embeds one record and replaces (or inserts) its entry.
	Upsert(ctx context.Context, r customer.Record) error

	// Count reports the number of stored entries.
	Count(ctx context.Context) (int, error)
}

// batchSize is how many provider calls run concurrently during Populate.
// Batches are issued strictly in sequence to avoid overwhelming the
// provider; only requests within a batch overlap.
const batchSize = 5

// Option configures a backend constructor.
type Option func(*options)

type options struct {
	limiter *rate.Limiter
}

// WithProviderRate paces embedding-provider calls during Populate. The
// default of 5 requests/second matches typical free-tier embedding quotas.
func WithProviderRate(limiter *rate.Limiter) Option {
	return func(o *options) {
		o.limiter = limiter
	}
}

func buildOptions(opts []Option) options {
	o := options{
		limiter: rate.NewLimiter(rate.Limit(5), batchSize),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// encodeVector serializes a vector for the SQLite backend. JSON keeps the
// column human-inspectable; at hundreds to low thousands of rows the size
// overhead is irrelevant.
func encodeVector(v []float32) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("encoding vector: %w", err)
	}
	return string(data), nil
}

func decodeVector(s string) ([]float32, error) {
	var v []float32
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return nil, fmt.Errorf("decoding stored vector: %w", err)
	}
	return v, nil
}
