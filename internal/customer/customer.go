// Package customer defines the customer profile data model and the
// immutable in-memory record collection the retrieval engine works on.
//
// Records are read-only inputs: nothing in this module mutates a Record
// after loading. Products form a closed set of variants (savings, checking,
// credit card, loan, fixed deposit, investment) decoded from a JSON type
// tag and accessed via exhaustive switching on ProductKind.
package customer

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ProductKind identifies one of the closed set of product variants.
type ProductKind string

const (
	KindSavings      ProductKind = "savings"
	KindChecking     ProductKind = "checking"
	KindCreditCard   ProductKind = "credit_card"
	KindLoan         ProductKind = "loan"
	KindFixedDeposit ProductKind = "fixed_deposit"
	KindInvestment   ProductKind = "investment"
)

// Product is the shared minimal shape of all product variants: a type tag
// and an identifying number. Variant-specific numeric fields live on the
// concrete types; consumers switch exhaustively on Kind().
type Product interface {
	Kind() ProductKind
	Number() string
}

// Savings is an interest-bearing deposit account.
type Savings struct {
	AccountNumber string  `json:"accountNumber"`
	Balance       float64 `json:"balance"`
	InterestRate  float64 `json:"interestRate"`
}

func (Savings) Kind() ProductKind { return KindSavings }
func (p Savings) Number() string  { return p.AccountNumber }

// Checking is a transaction account with an overdraft allowance.
type Checking struct {
	AccountNumber  string  `json:"accountNumber"`
	Balance        float64 `json:"balance"`
	OverdraftLimit float64 `json:"overdraftLimit"`
}

func (Checking) Kind() ProductKind { return KindChecking }
func (p Checking) Number() string  { return p.AccountNumber }

// CreditCard carries a credit limit and the balance outstanding against it.
type CreditCard struct {
	CardNumber         string  `json:"cardNumber"`
	CreditLimit        float64 `json:"creditLimit"`
	OutstandingBalance float64 `json:"outstandingBalance"`
}

func (CreditCard) Kind() ProductKind { return KindCreditCard }
func (p CreditCard) Number() string  { return p.CardNumber }

// Loan is an amortizing loan with a remaining balance.
type Loan struct {
	LoanNumber         string  `json:"loanNumber"`
	Principal          float64 `json:"principal"`
	OutstandingBalance float64 `json:"outstandingBalance"`
	InterestRate       float64 `json:"interestRate"`
}

func (Loan) Kind() ProductKind { return KindLoan }
func (p Loan) Number() string  { return p.LoanNumber }

// FixedDeposit is a term deposit held until a maturity date.
type FixedDeposit struct {
	AccountNumber string  `json:"accountNumber"`
	Principal     float64 `json:"principal"`
	InterestRate  float64 `json:"interestRate"`
	MaturityDate  string  `json:"maturityDate"`
}

func (FixedDeposit) Kind() ProductKind { return KindFixedDeposit }
func (p FixedDeposit) Number() string  { return p.AccountNumber }

// Investment is a managed portfolio account.
type Investment struct {
	AccountNumber  string  `json:"accountNumber"`
	PortfolioValue float64 `json:"portfolioValue"`
}

func (Investment) Kind() ProductKind { return KindInvestment }
func (p Investment) Number() string  { return p.AccountNumber }

// Products decodes a heterogeneous product list from its JSON type tags.
type Products []Product

// UnmarshalJSON decodes each element by its "type" field into the matching
// variant. Unknown type tags are an error: the variant set is closed.
func (ps *Products) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decoding product list: %w", err)
	}

	out := make(Products, 0, len(raw))
	for i, msg := range raw {
		var probe struct {
			Type ProductKind `json:"type"`
		}
		if err := json.Unmarshal(msg, &probe); err != nil {
			return fmt.Errorf("decoding product %d type tag: %w", i, err)
		}

		var p Product
		var err error
		switch probe.Type {
		case KindSavings:
			var v Savings
			err = json.Unmarshal(msg, &v)
			p = v
		case KindChecking:
			var v Checking
			err = json.Unmarshal(msg, &v)
			p = v
		case KindCreditCard:
			var v CreditCard
			err = json.Unmarshal(msg, &v)
			p = v
		case KindLoan:
			var v Loan
			err = json.Unmarshal(msg, &v)
			p = v
		case KindFixedDeposit:
			var v FixedDeposit
			err = json.Unmarshal(msg, &v)
			p = v
		case KindInvestment:
			var v Investment
			err = json.Unmarshal(msg, &v)
			p = v
		default:
			return fmt.Errorf("product %d: unknown product type %q", i, probe.Type)
		}
		if err != nil {
			return fmt.Errorf("decoding product %d (%s): %w", i, probe.Type, err)
		}
		out = append(out, p)
	}

	*ps = out
	return nil
}

// MarshalJSON re-encodes each product with its type tag restored.
func (ps Products) MarshalJSON() ([]byte, error) {
	out := make([]map[string]any, 0, len(ps))
	for _, p := range ps {
		inner, err := json.Marshal(p)
		if err != nil {
			return nil, fmt.Errorf("encoding product %q: %w", p.Number(), err)
		}
		m := make(map[string]any)
		if err := json.Unmarshal(inner, &m); err != nil {
			return nil, fmt.Errorf("re-encoding product %q: %w", p.Number(), err)
		}
		m["type"] = string(p.Kind())
		out = append(out, m)
	}
	return json.Marshal(out)
}

// Transaction is a single signed ledger entry on a customer account.
type Transaction struct {
	Date        string  `json:"date"`
	Amount      float64 `json:"amount"`
	Description string  `json:"description"`
}

// Address is a structured postal address.
type Address struct {
	Street  string `json:"street"`
	City    string `json:"city"`
	State   string `json:"state"`
	Zip     string `json:"zip"`
	Country string `json:"country"`
}

// Record is one customer profile. The identifier is unique and immutable,
// pattern CUST-NNNNNN. Rating is optional (nil when unrated); Notes and
// JoinDate may be empty.
type Record struct {
	ID           string        `json:"id"`
	FirstName    string        `json:"firstName"`
	LastName     string        `json:"lastName"`
	Email        string        `json:"email"`
	Phone        string        `json:"phone"`
	Address      Address       `json:"address"`
	Products     Products      `json:"products"`
	Transactions []Transaction `json:"transactions"`
	Rating       *float64      `json:"satisfactionRating,omitempty"`
	JoinDate     string        `json:"joinDate,omitempty"`
	Notes        string        `json:"notes,omitempty"`
}

// FullName returns "First Last" with whatever parts are present.
func (r Record) FullName() string {
	return strings.TrimSpace(r.FirstName + " " + r.LastName)
}

// ProductKinds returns the product type tags in product order.
func (r Record) ProductKinds() []ProductKind {
	kinds := make([]ProductKind, len(r.Products))
	for i, p := range r.Products {
		kinds[i] = p.Kind()
	}
	return kinds
}
