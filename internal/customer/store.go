package customer

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// Store is the immutable, ordered collection of customer records. It is
// populated once at startup and safe for concurrent readers; nothing
// mutates it afterwards.
type Store struct {
	records []Record
	byID    map[string]int
}

// NewStore builds a Store over records, preserving their order. Later
// duplicates of an identifier are ignored for lookup purposes.
func NewStore(records []Record) *Store {
	byID := make(map[string]int, len(records))
	for i, r := range records {
		key := normalizeID(r.ID)
		if _, exists := byID[key]; !exists {
			byID[key] = i
		}
	}
	return &Store{records: records, byID: byID}
}

// LoadFile reads a JSON array of customer records from path.
func LoadFile(path string) (*Store, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading customer data: %w", err)
	}

	var records []Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("parsing customer data %q: %w", path, err)
	}

	return NewStore(records), nil
}

// All returns the full record collection in load order. The returned slice
// is shared; callers must treat it as read-only.
func (s *Store) All() []Record {
	return s.records
}

// Len returns the number of records in the collection.
func (s *Store) Len() int {
	return len(s.records)
}

// ByID looks up a record by its identifier, case-insensitively.
func (s *Store) ByID(id string) (Record, bool) {
	i, ok := s.byID[normalizeID(id)]
	if !ok {
		return Record{}, false
	}
	return s.records[i], true
}

func normalizeID(id string) string {
	return strings.ToUpper(strings.TrimSpace(id))
}
