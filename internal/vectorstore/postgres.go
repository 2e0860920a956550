package vectorstore

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
	"golang.org/x/time/rate"

	"github.com/clientiq/clientiq/internal/customer"
	"github.com/clientiq/clientiq/internal/embed"
)

// Postgres is the pgvector-backed embedding store, for deployments that
// already run PostgreSQL. Entries live in a single customer_embeddings
// table with a vector column; the seq column preserves population order.
type Postgres struct {
	pool     *pgxpool.Pool
	provider embed.Provider
	limiter  *rate.Limiter
	logger   *slog.Logger
}

// NewPostgres creates the store and ensures its schema exists. The vector
// extension must be installable by the connecting role.
func NewPostgres(ctx context.Context, pool *pgxpool.Pool, provider embed.Provider, logger *slog.Logger, opts ...Option) (*Postgres, error) {
	if logger == nil {
		logger = slog.Default()
	}
	o := buildOptions(opts)

	p := &Postgres{
		pool:     pool,
		provider: provider,
		limiter:  o.limiter,
		logger:   logger,
	}
	if err := p.ensureSchema(ctx); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Postgres) ensureSchema(ctx context.Context) error {
	statements := []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,
		`CREATE TABLE IF NOT EXISTS customer_embeddings (
			customer_id  TEXT PRIMARY KEY,
			display_name TEXT NOT NULL,
			content      TEXT NOT NULL,
			embedding    vector NOT NULL,
			seq          BIGINT GENERATED ALWAYS AS IDENTITY
		)`,
	}
	for _, stmt := range statements {
		if _, err := p.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensuring embedding schema: %w", err)
		}
	}
	return nil
}

// Populate embeds every record and persists the results in one
// transaction. No-op when the store already holds entries.
func (p *Postgres) Populate(ctx context.Context, records []customer.Record) error {
	n, err := p.Count(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		p.logger.Debug("embedding store already populated", "entries", n)
		return nil
	}

	entries, err := embedRecords(ctx, p.provider, p.limiter, records, p.logger)
	if err != nil {
		return fmt.Errorf("embedding records: %w", err)
	}

	tx, err := p.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("beginning population transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	// Serialize against a concurrent Populate from another process; the
	// re-check under the lock makes the second one a no-op.
	if _, err := tx.Exec(ctx, `LOCK TABLE customer_embeddings IN EXCLUSIVE MODE`); err != nil {
		return fmt.Errorf("locking embedding table: %w", err)
	}
	var locked int
	if err := tx.QueryRow(ctx, `SELECT COUNT(*) FROM customer_embeddings`).Scan(&locked); err != nil {
		return fmt.Errorf("re-counting embeddings: %w", err)
	}
	if locked > 0 {
		p.logger.Debug("embedding store populated by concurrent process", "entries", locked)
		return nil
	}

	for _, e := range entries {
		if err := upsertEntryPgx(ctx, tx, e); err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing population transaction: %w", err)
	}

	p.logger.Info("embedding store populated",
		"entries", len(entries),
		"skipped", len(records)-len(entries),
	)
	return nil
}

// All returns every stored entry in population order.
func (p *Postgres) All(ctx context.Context) ([]Entry, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT customer_id, display_name, content, embedding
		FROM customer_embeddings
		ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("querying embedding store: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var vec pgvector.Vector
		if err := rows.Scan(&e.CustomerID, &e.DisplayName, &e.Content, &vec); err != nil {
			return nil, fmt.Errorf("scanning embedding row: %w", err)
		}
		e.Vector = vec.Slice()
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading embedding store: %w", err)
	}
	return entries, nil
}

// Upsert re-embeds a single record and replaces its entry.
func (p *Postgres) Upsert(ctx context.Context, r customer.Record) error {
	content := customer.Profile(r)
	vector, err := p.provider.Embed(ctx, content)
	if err != nil {
		return fmt.Errorf("embedding record %q: %w", r.ID, err)
	}

	e := Entry{
		CustomerID:  r.ID,
		DisplayName: customer.DisplayName(r),
		Content:     content,
		Vector:      vector,
	}
	if err := upsertEntryPgx(ctx, p.pool, e); err != nil {
		return err
	}

	p.logger.Debug("upserted embedding", "customer_id", r.ID, "dimension", len(vector))
	return nil
}

// Count reports the number of stored entries.
func (p *Postgres) Count(ctx context.Context) (int, error) {
	var n int
	if err := p.pool.QueryRow(ctx, `SELECT COUNT(*) FROM customer_embeddings`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting embeddings: %w", err)
	}
	return n, nil
}

// pgxExecutor is satisfied by both *pgxpool.Pool and pgx.Tx.
type pgxExecutor interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

func upsertEntryPgx(ctx context.Context, exec pgxExecutor, e Entry) error {
	_, err := exec.Exec(ctx, `
		INSERT INTO customer_embeddings (customer_id, display_name, content, embedding)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (customer_id) DO UPDATE SET
			display_name = EXCLUDED.display_name,
			content = EXCLUDED.content,
			embedding = EXCLUDED.embedding`,
		e.CustomerID, e.DisplayName, e.Content, pgvector.NewVector(e.Vector),
	)
	if err != nil {
		return fmt.Errorf("writing embedding %q: %w", e.CustomerID, err)
	}
	return nil
}
