package vectorstore

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/gofrs/flock"
	"golang.org/x/time/rate"

	"github.com/clientiq/clientiq/internal/customer"
	"github.com/clientiq/clientiq/internal/embed"
)

// SQLite is the default, file-backed embedding store. Entries live in two
// associated tables joined on customer_id: profiles (identifier, display
// name, descriptive text) and embeddings (identifier, serialized vector).
//
// Reads need no locking beyond SQLite's own; Populate takes a file lock so
// two processes never embed the same collection twice.
type SQLite struct {
	db       *sql.DB
	provider embed.Provider
	limiter  *rate.Limiter
	lock     *flock.Flock
	logger   *slog.Logger
}

// NewSQLite creates a SQLite-backed store over an opened database (see
// database.Open). lockPath is the population lock file, conventionally
// next to the database file.
func NewSQLite(db *sql.DB, provider embed.Provider, lockPath string, logger *slog.Logger, opts ...Option) *SQLite {
	if logger == nil {
		logger = slog.Default()
	}
	o := buildOptions(opts)

	return &SQLite{
		db:       db,
		provider: provider,
		limiter:  o.limiter,
		lock:     flock.New(lockPath),
		logger:   logger,
	}
}

// Populate embeds every record and persists the results in one
// transaction. No-op when the store already holds entries, so process
// restarts skip re-embedding.
func (s *SQLite) Populate(ctx context.Context, records []customer.Record) error {
	n, err := s.Count(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		s.logger.Debug("embedding store already populated", "entries", n)
		return nil
	}

	// Single writer across processes. Lock() blocks until the peer is
	// done, after which the re-check below sees its entries.
	if err := s.lock.Lock(); err != nil {
		return fmt.Errorf("acquiring population lock: %w", err)
	}
	defer func() {
		if err := s.lock.Unlock(); err != nil {
			s.logger.Warn("releasing population lock", "error", err)
		}
	}()

	n, err = s.Count(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		s.logger.Debug("embedding store populated by concurrent process", "entries", n)
		return nil
	}

	entries, err := embedRecords(ctx, s.provider, s.limiter, records, s.logger)
	if err != nil {
		return fmt.Errorf("embedding records: %w", err)
	}

	// One all-or-nothing transaction: a crash mid-population leaves the
	// prior (empty) state, never a half-written batch.
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning population transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, e := range entries {
		if err := upsertEntryTx(ctx, tx, e); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing population transaction: %w", err)
	}

	s.logger.Info("embedding store populated",
		"entries", len(entries),
		"skipped", len(records)-len(entries),
	)
	return nil
}

// All returns every stored entry in population order.
func (s *SQLite) All(ctx context.Context) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT p.customer_id, p.display_name, p.content, e.vector
		FROM profiles p
		JOIN embeddings e ON e.customer_id = p.customer_id
		ORDER BY p.rowid`)
	if err != nil {
		return nil, fmt.Errorf("querying embedding store: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var encoded string
		if err := rows.Scan(&e.CustomerID, &e.DisplayName, &e.Content, &encoded); err != nil {
			return nil, fmt.Errorf("scanning embedding row: %w", err)
		}
		if e.Vector, err = decodeVector(encoded); err != nil {
			return nil, fmt.Errorf("entry %q: %w", e.CustomerID, err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading embedding store: %w", err)
	}
	return entries, nil
}

// Upsert re-embeds a single record and replaces its entry. Unlike
// Populate, a provider failure here is returned to the caller: the whole
// point of Upsert is retrying or refreshing that one record.
func (s *SQLite) Upsert(ctx context.Context, r customer.Record) error {
	content := customer.Profile(r)
	vector, err := s.provider.Embed(ctx, content)
	if err != nil {
		return fmt.Errorf("embedding record %q: %w", r.ID, err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning upsert transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	e := Entry{
		CustomerID:  r.ID,
		DisplayName: customer.DisplayName(r),
		Content:     content,
		Vector:      vector,
	}
	if err := upsertEntryTx(ctx, tx, e); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing upsert: %w", err)
	}

	s.logger.Debug("upserted embedding", "customer_id", r.ID, "dimension", len(vector))
	return nil
}

// Count reports the number of stored entries.
func (s *SQLite) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM embeddings`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting embeddings: %w", err)
	}
	return n, nil
}

func upsertEntryTx(ctx context.Context, tx *sql.Tx, e Entry) error {
	encoded, err := encodeVector(e.Vector)
	if err != nil {
		return fmt.Errorf("entry %q: %w", e.CustomerID, err)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO profiles (customer_id, display_name, content)
		VALUES (?, ?, ?)
		ON CONFLICT (customer_id) DO UPDATE SET
			display_name = excluded.display_name,
			content = excluded.content`,
		e.CustomerID, e.DisplayName, e.Content,
	); err != nil {
		return fmt.Errorf("writing profile %q: %w", e.CustomerID, err)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO embeddings (customer_id, vector)
		VALUES (?, ?)
		ON CONFLICT (customer_id) DO UPDATE SET vector = excluded.vector`,
		e.CustomerID, encoded,
	); err != nil {
		return fmt.Errorf("writing embedding %q: %w", e.CustomerID, err)
	}

	return nil
}
