package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Transaction kinds accepted by Filter.Kind.
const (
	KindIncome  = "income"
	KindExpense = "expense"
)

// Filter holds the criteria applied to the transaction collection.
// Zero values mean "no constraint".
type Filter struct {
	From      time.Time        `json:"from,omitempty"`
	To        time.Time        `json:"to,omitempty"`
	Category  string           `json:"category,omitempty"`
	Merchant  string           `json:"merchant,omitempty"`
	MinAmount *decimal.Decimal `json:"minAmount,omitempty"`
	MaxAmount *decimal.Decimal `json:"maxAmount,omitempty"`
	Kind      string           `json:"kind,omitempty"`
}

// IsZero reports whether no criterion is set.
func (f Filter) IsZero() bool {
	return f.From.IsZero() && f.To.IsZero() && f.Category == "" && f.Merchant == "" &&
		f.MinAmount == nil && f.MaxAmount == nil && f.Kind == ""
}

// PageRequest selects a page of a listing. Pages start at 1.
type PageRequest struct {
	Page     int
	PageSize int
}

// Match reports whether t satisfies every criterion of f. Amount bounds compare
// the magnitude of the amount; date bounds are inclusive.
func (f Filter) Match(t Transaction) bool {
	if !f.From.IsZero() && t.Date.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && t.Date.After(f.To) {
		return false
	}
	if f.Category != "" && !strings.EqualFold(t.Category, f.Category) {
		return false
	}
	if f.Merchant != "" && !strings.Contains(strings.ToLower(t.Merchant.Name), strings.ToLower(f.Merchant)) {
		return false
	}
	magnitude := t.Amount.Abs()
	if f.MinAmount != nil && magnitude.LessThan(*f.MinAmount) {
		return false
	}
	if f.MaxAmount != nil && magnitude.GreaterThan(*f.MaxAmount) {
		return false
	}
	switch f.Kind {
	case "":
	case KindIncome:
		return t.Amount.IsPositive()
	case KindExpense:
		return t.Amount.IsNegative()
	default:
		return false
	}
	return true
}
