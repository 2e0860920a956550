package vectorstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/clientiq/clientiq/internal/customer"
	"github.com/clientiq/clientiq/internal/database"
	"github.com/clientiq/clientiq/internal/embed"
	"github.com/clientiq/clientiq/internal/log"
)

func openTestDB(t *testing.T) (*sql.DB, string) {
	t.Helper()

	dir := t.TempDir()
	db, err := database.Open(filepath.Join(dir, "embeddings.db"))
	if err != nil {
		t.Fatalf("opening database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrating database: %v", err)
	}
	return db, filepath.Join(dir, "embeddings.db.lock")
}

// countingProvider embeds deterministically and counts calls. Population
// embeds batches concurrently, so the counter is mutex-guarded.
type countingProvider struct {
	mu     sync.Mutex
	calls  int
	failOn map[string]bool
}

func (p *countingProvider) Embed(_ context.Context, text string) ([]float32, error) {
	p.mu.Lock()
	p.calls++
	p.mu.Unlock()

	if p.failOn[text] {
		return nil, fmt.Errorf("%w: simulated", embed.ErrProvider)
	}
	// A cheap deterministic vector derived from the text length.
	return []float32{float32(len(text)), 1}, nil
}

func (p *countingProvider) callCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

func testRecords(n int) []customer.Record {
	records := make([]customer.Record, n)
	for i := range records {
		records[i] = customer.Record{
			ID:        fmt.Sprintf("CUST-10%04d", i),
			FirstName: "Test",
			LastName:  fmt.Sprintf("Customer%d", i),
		}
	}
	return records
}

func newTestStore(t *testing.T, provider embed.Provider) *SQLite {
	t.Helper()
	db, lockPath := openTestDB(t)
	return NewSQLite(db, provider, lockPath, log.NewNop())
}

func TestPopulateAndAll(t *testing.T) {
	provider := &countingProvider{}
	store := newTestStore(t, provider)
	records := testRecords(7)

	if err := store.Populate(context.Background(), records); err != nil {
		t.Fatalf("Populate: %v", err)
	}

	entries, err := store.All(context.Background())
	if err != nil {
		t.Fatalf("All: %v", err)
	}
	if len(entries) != len(records) {
		t.Fatalf("got %d entries, want %d", len(entries), len(records))
	}
	for i, e := range entries {
		if e.CustomerID != records[i].ID {
			t.Errorf("entry %d = %q, want %q (population order)", i, e.CustomerID, records[i].ID)
		}
		if e.Content != customer.Profile(records[i]) {
			t.Errorf("entry %d content does not match the record's profile text", i)
		}
		if len(e.Vector) != 2 {
			t.Errorf("entry %d vector has %d components, want 2", i, len(e.Vector))
		}
	}
}

func TestPopulateIdempotent(t *testing.T) {
	provider := &countingProvider{}
	store := newTestStore(t, provider)
	records := testRecords(3)

	if err := store.Populate(context.Background(), records); err != nil {
		t.Fatalf("first Populate: %v", err)
	}
	callsAfterFirst := provider.callCount()

	if err := store.Populate(context.Background(), records); err != nil {
		t.Fatalf("second Populate: %v", err)
	}
	if got := provider.callCount(); got != callsAfterFirst {
		t.Errorf("second Populate called the provider %d more times, want 0",
			got-callsAfterFirst)
	}

	n, err := store.Count(context.Background())
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if n != len(records) {
		t.Errorf("Count = %d after repeated Populate, want %d", n, len(records))
	}
}

func TestPopulateSkipsFailedRecords(t *testing.T) {
	records := testRecords(4)
	provider := &countingProvider{failOn: map[string]bool{
		customer.Profile(records[1]): true,
	}}
	store := newTestStore(t, provider)

	if err := store.Populate(context.Background(), records); err != nil {
		t.Fatalf("Populate: %v", err)
	}

	entries, err := store.All(context.Background())
	if err != nil {
		t.Fatalf("All: %v", err)
	}
	if len(entries) != len(records)-1 {
		t.Fatalf("got %d entries, want %d (failed record skipped)", len(entries), len(records)-1)
	}
	for _, e := range entries {
		if e.CustomerID == records[1].ID {
			t.Errorf("entry %q stored despite provider failure", e.CustomerID)
		}
	}
}

func TestPopulateAbortsOnCancel(t *testing.T) {
	provider := &countingProvider{}
	store := newTestStore(t, provider)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := store.Populate(ctx, testRecords(3))
	if err == nil {
		t.Fatal("Populate succeeded with a cancelled context")
	}
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}

	n, err := store.Count(context.Background())
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if n != 0 {
		t.Errorf("Count = %d after aborted Populate, want 0", n)
	}
}

func TestUpsert(t *testing.T) {
	provider := &countingProvider{}
	store := newTestStore(t, provider)

	rec := customer.Record{ID: "CUST-100001", FirstName: "Ada", LastName: "Lovelace"}
	if err := store.Upsert(context.Background(), rec); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	// Change the record and upsert again; the entry is replaced, not
	// duplicated.
	rec.Notes = "Moved to a new branch"
	if err := store.Upsert(context.Background(), rec); err != nil {
		t.Fatalf("second Upsert: %v", err)
	}

	entries, err := store.All(context.Background())
	if err != nil {
		t.Fatalf("All: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("got %d entries, want 1", len(entries))
	}
	if entries[0].Content != customer.Profile(rec) {
		t.Error("entry content was not replaced by the second Upsert")
	}
}

func TestUpsertReturnsProviderError(t *testing.T) {
	rec := customer.Record{ID: "CUST-100001", FirstName: "Ada", LastName: "Lovelace"}
	provider := &countingProvider{failOn: map[string]bool{
		customer.Profile(rec): true,
	}}
	store := newTestStore(t, provider)

	err := store.Upsert(context.Background(), rec)
	if !errors.Is(err, embed.ErrProvider) {
		t.Fatalf("err = %v, want embed.ErrProvider", err)
	}

	n, err := store.Count(context.Background())
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if n != 0 {
		t.Errorf("Count = %d after failed Upsert, want 0", n)
	}
}

func TestVectorRoundTrip(t *testing.T) {
	v := []float32{0.25, -1.5, 0, 3.125}
	encoded, err := encodeVector(v)
	if err != nil {
		t.Fatalf("encodeVector: %v", err)
	}
	decoded, err := decodeVector(encoded)
	if err != nil {
		t.Fatalf("decodeVector: %v", err)
	}
	if len(decoded) != len(v) {
		t.Fatalf("got %d components, want %d", len(decoded), len(v))
	}
	for i := range v {
		if decoded[i] != v[i] {
			t.Errorf("component %d = %v, want %v", i, decoded[i], v[i])
		}
	}
}
