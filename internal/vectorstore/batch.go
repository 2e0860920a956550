package vectorstore

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/clientiq/clientiq/internal/customer"
	"github.com/clientiq/clientiq/internal/embed"
)

// embedRecords embeds every record's profile text, batchSize at a time.
// Requests within a batch run concurrently; batches run in sequence. A
// provider failure for one record is logged and its slot skipped — the
// remaining records still embed. Entries come back in record order.
//
// Only a context error aborts the run: if the caller is gone there is no
// point finishing the remaining batches.
func embedRecords(ctx context.Context, provider embed.Provider, limiter *rate.Limiter, records []customer.Record, logger *slog.Logger) ([]Entry, error) {
	entries := make([]*Entry, len(records))

	for start := 0; start < len(records); start += batchSize {
		end := min(start+batchSize, len(records))

		g, gctx := errgroup.WithContext(ctx)
		for i := start; i < end; i++ {
			g.Go(func() error {
				r := records[i]
				if limiter != nil {
					if err := limiter.Wait(gctx); err != nil {
						return err
					}
				}

				content := customer.Profile(r)
				vector, err := provider.Embed(gctx, content)
				if err != nil {
					// Partial failure: this record stays absent from
					// similarity search until a later Upsert retries it.
					logger.Warn("embedding failed, omitting record from store",
						"customer_id", r.ID,
						"error", err,
					)
					return nil
				}

				entries[i] = &Entry{
					CustomerID:  r.ID,
					DisplayName: customer.DisplayName(r),
					Content:     content,
					Vector:      vector,
				}
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
	}

	out := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if e != nil {
			out = append(out, *e)
		}
	}
	return out, nil
}
