package customer

import (
	"fmt"
	"strings"
)

// missing is the literal rendered for absent fields in a profile.
const missing = "N/A"

// Profile builds the canonical descriptive text for a record. This exact
// representation is what gets embedded for similarity search, and (lower
// cased) what the lexical ranker scores against, so the two retrieval paths
// see the same view of a customer.
func Profile(r Record) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Customer ID: %s\n", orMissing(r.ID))
	fmt.Fprintf(&b, "Name: %s\n", orMissing(r.FullName()))
	fmt.Fprintf(&b, "Email: %s\n", orMissing(r.Email))
	fmt.Fprintf(&b, "Phone: %s\n", orMissing(r.Phone))
	fmt.Fprintf(&b, "Address: %s\n", orMissing(formatAddress(r.Address)))
	fmt.Fprintf(&b, "Products: %s\n", orMissing(formatProducts(r.Products)))
	fmt.Fprintf(&b, "Satisfaction Rating: %s\n", formatRating(r.Rating))
	fmt.Fprintf(&b, "Join Date: %s\n", orMissing(r.JoinDate))
	fmt.Fprintf(&b, "Notes: %s", orMissing(r.Notes))

	return b.String()
}

// DisplayName is the human-readable label stored alongside a profile in the
// embedding store. Falls back to the identifier for nameless records.
func DisplayName(r Record) string {
	if name := r.FullName(); name != "" {
		return name
	}
	return r.ID
}

func orMissing(s string) string {
	if strings.TrimSpace(s) == "" {
		return missing
	}
	return s
}

func formatAddress(a Address) string {
	parts := make([]string, 0, 5)
	for _, p := range []string{a.Street, a.City, a.State, a.Zip, a.Country} {
		if strings.TrimSpace(p) != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}

func formatProducts(ps Products) string {
	if len(ps) == 0 {
		return ""
	}
	labels := make([]string, len(ps))
	for i, p := range ps {
		// Type tags use underscores; profiles read better with spaces.
		labels[i] = strings.ReplaceAll(string(p.Kind()), "_", " ")
	}
	return strings.Join(labels, ", ")
}

func formatRating(r *float64) string {
	if r == nil {
		return missing
	}
	return strings.TrimSuffix(strings.TrimSuffix(fmt.Sprintf("%.1f", *r), "0"), ".")
}
