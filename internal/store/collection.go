package store

import (
	"math"

	"fintrack/internal/models"

	"github.com/shopspring/decimal"
)

// upsert returns a copy of items with item replacing the element of the same
// id, or appended when there is none.
func upsert[E any](items []E, item E, id func(E) string) []E {
	out := make([]E, len(items), len(items)+1)
	copy(out, items)
	key := id(item)
	for i := range out {
		if id(out[i]) == key {
			out[i] = item
			return out
		}
	}
	return append(out, item)
}

// removeID returns a copy of items without the element of the given id.
func removeID[E any](items []E, target string, id func(E) string) []E {
	out := make([]E, 0, len(items))
	for _, it := range items {
		if id(it) != target {
			out = append(out, it)
		}
	}
	return out
}

func findID[E any](items []E, target string, id func(E) string) (E, bool) {
	for _, it := range items {
		if id(it) == target {
			return it, true
		}
	}
	var zero E
	return zero, false
}

func transactionID(t models.Transaction) string { return t.ID }
func budgetID(b models.Budget) string           { return b.ID }
func categoryID(c models.BudgetCategory) string { return c.ID }
func goalID(g models.Goal) string               { return g.ID }
func investmentID(i models.Investment) string   { return i.ID }
func archiveID(a models.MonthlyArchive) string  { return a.ID }

var hundred = decimal.NewFromInt(100)

// percentOf returns part/whole*100, or 0 when whole is zero.
func percentOf(part, whole decimal.Decimal) float64 {
	if whole.IsZero() {
		return 0
	}
	p := part.Div(whole).Mul(hundred).InexactFloat64()
	if math.IsNaN(p) || math.IsInf(p, 0) {
		return 0
	}
	return p
}
