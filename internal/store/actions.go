package store

import (
	"strings"

	"github.com/shopspring/decimal"

	"fintrack/internal/models"
)

// Action is a synchronous transition applied through Root.Dispatch.
type Action interface {
	reduce(s *State) Slice
	name() string
}

// SetFilter replaces the transaction filter and restarts pagination.
type SetFilter struct {
	Filter models.Filter
}

func (a SetFilter) name() string { return "set filter" }

func (a SetFilter) reduce(s *State) Slice {
	t := &s.Transactions
	t.Filter = a.Filter
	t.Page = 0
	t.HasMore = true
	return SliceTransactions
}

// ClearFilter removes every transaction criterion and restarts pagination.
type ClearFilter struct{}

func (ClearFilter) name() string { return "clear filter" }

func (ClearFilter) reduce(s *State) Slice {
	return SetFilter{}.reduce(s)
}

// SetPageSize changes the transaction page size and restarts pagination.
type SetPageSize struct {
	Size int
}

func (a SetPageSize) name() string { return "set page size" }

func (a SetPageSize) reduce(s *State) Slice {
	t := &s.Transactions
	if a.Size > 0 {
		t.PageSize = a.Size
	}
	t.Page = 0
	t.HasMore = true
	return SliceTransactions
}

// SetPage records the last fetched page, so FetchMore continues after it.
type SetPage struct {
	Page int
}

func (a SetPage) name() string { return "set page" }

func (a SetPage) reduce(s *State) Slice {
	if a.Page >= 0 {
		s.Transactions.Page = a.Page
	}
	return SliceTransactions
}

// ClearError resets the error of one slice, or of every slice when Slice is
// empty. An unknown slice is ignored.
type ClearError struct {
	Slice Slice
}

func (a ClearError) name() string { return "clear error" }

func (a ClearError) reduce(s *State) Slice {
	if a.Slice == "" {
		for _, slice := range Slices {
			st, _ := s.status(slice)
			st.Error = ""
		}
		return ""
	}
	if st, ok := s.status(a.Slice); ok {
		st.Error = ""
	}
	return a.Slice
}

// ApplyQuotes sets the current price of every position whose symbol is quoted.
type ApplyQuotes struct {
	Prices map[string]decimal.Decimal
}

func (a ApplyQuotes) name() string { return "apply quotes" }

func (a ApplyQuotes) reduce(s *State) Slice {
	s.Investments.Items = applyPrices(s.Investments.Items, a.Prices)
	return SliceInvestments
}

func applyPrices(items []models.Investment, prices map[string]decimal.Decimal) []models.Investment {
	out := make([]models.Investment, len(items))
	for i, inv := range items {
		if price, ok := prices[inv.Symbol]; ok {
			inv.CurrentPrice = price
		} else if price, ok := prices[strings.ToUpper(inv.Symbol)]; ok {
			inv.CurrentPrice = price
		}
		out[i] = inv
	}
	return out
}
