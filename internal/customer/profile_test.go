package customer

import (
	"strings"
	"testing"
)

func TestProfileCompleteRecord(t *testing.T) {
	rating := 4.0
	r := Record{
		ID:        "CUST-100042",
		FirstName: "Maria",
		LastName:  "Lopez",
		Email:     "maria@example.com",
		Phone:     "+1-555-0100",
		Address:   Address{Street: "12 Elm St", City: "Springfield", State: "IL", Zip: "62701", Country: "USA"},
		Products: Products{
			Savings{AccountNumber: "SAV-42"},
			CreditCard{CardNumber: "4111-42"},
		},
		Rating:   &rating,
		JoinDate: "2020-06-01",
		Notes:    "prefers email contact",
	}

	got := Profile(r)

	for _, want := range []string{
		"Customer ID: CUST-100042",
		"Name: Maria Lopez",
		"Email: maria@example.com",
		"Phone: +1-555-0100",
		"Address: 12 Elm St, Springfield, IL, 62701, USA",
		"Products: savings, credit card",
		"Satisfaction Rating: 4",
		"Join Date: 2020-06-01",
		"Notes: prefers email contact",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("profile missing %q\nprofile:\n%s", want, got)
		}
	}
}

func TestProfileMissingFieldsRenderNA(t *testing.T) {
	got := Profile(Record{ID: "CUST-100001"})

	for _, want := range []string{
		"Name: N/A",
		"Email: N/A",
		"Phone: N/A",
		"Address: N/A",
		"Products: N/A",
		"Satisfaction Rating: N/A",
		"Join Date: N/A",
		"Notes: N/A",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("profile missing %q\nprofile:\n%s", want, got)
		}
	}
}

func TestProfileRatingFormat(t *testing.T) {
	tests := []struct {
		name   string
		rating float64
		want   string
	}{
		{"whole number drops decimals", 4.0, "Satisfaction Rating: 4\n"},
		{"half rating keeps decimal", 3.5, "Satisfaction Rating: 3.5\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := Record{Rating: &tt.rating}
			if got := Profile(r); !strings.Contains(got, tt.want) {
				t.Errorf("profile does not contain %q:\n%s", tt.want, got)
			}
		})
	}
}

func TestDisplayName(t *testing.T) {
	named := Record{ID: "CUST-100001", FirstName: "Ana", LastName: "Silva"}
	if got := DisplayName(named); got != "Ana Silva" {
		t.Errorf("DisplayName = %q, want %q", got, "Ana Silva")
	}

	nameless := Record{ID: "CUST-100002"}
	if got := DisplayName(nameless); got != "CUST-100002" {
		t.Errorf("DisplayName = %q, want identifier fallback", got)
	}
}
