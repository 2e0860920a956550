package customer

import (
	"os"
	"path/filepath"
	"testing"
)

func TestStoreByID(t *testing.T) {
	store := NewStore([]Record{
		{ID: "CUST-100001", FirstName: "Ana"},
		{ID: "CUST-100002", FirstName: "Ben"},
	})

	tests := []struct {
		name   string
		lookup string
		wantOK bool
		wantID string
	}{
		{"exact", "CUST-100001", true, "CUST-100001"},
		{"lowercase", "cust-100002", true, "CUST-100002"},
		{"surrounding space", "  CUST-100001 ", true, "CUST-100001"},
		{"missing", "CUST-999999", false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := store.ByID(tt.lookup)
			if ok != tt.wantOK {
				t.Fatalf("ByID(%q) ok = %v, want %v", tt.lookup, ok, tt.wantOK)
			}
			if ok && got.ID != tt.wantID {
				t.Errorf("ByID(%q) = %q, want %q", tt.lookup, got.ID, tt.wantID)
			}
		})
	}
}

func TestStoreDuplicateIDKeepsFirst(t *testing.T) {
	store := NewStore([]Record{
		{ID: "CUST-100001", FirstName: "First"},
		{ID: "CUST-100001", FirstName: "Second"},
	})

	got, ok := store.ByID("CUST-100001")
	if !ok {
		t.Fatal("ByID returned no record")
	}
	if got.FirstName != "First" {
		t.Errorf("duplicate lookup resolved to %q, want the first record", got.FirstName)
	}
	if store.Len() != 2 {
		t.Errorf("Len = %d, want 2 (collection order preserved)", store.Len())
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "customers.json")
	data := `[
		{"id": "CUST-100001", "firstName": "Ana", "lastName": "Silva",
		 "products": [{"type": "savings", "accountNumber": "SAV-1", "balance": 100, "interestRate": 1}]},
		{"id": "CUST-100002", "firstName": "Ben", "lastName": "Okafor", "products": []}
	]`
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}

	store, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if store.Len() != 2 {
		t.Fatalf("Len = %d, want 2", store.Len())
	}

	r, ok := store.ByID("CUST-100001")
	if !ok {
		t.Fatal("CUST-100001 not found")
	}
	if len(r.Products) != 1 || r.Products[0].Kind() != KindSavings {
		t.Errorf("products = %+v", r.Products)
	}
}

func TestLoadFileErrors(t *testing.T) {
	if _, err := LoadFile(filepath.Join(t.TempDir(), "absent.json")); err == nil {
		t.Error("expected error for missing file")
	}

	path := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFile(path); err == nil {
		t.Error("expected error for malformed JSON")
	}
}
