package store

import (
	"time"

	"fintrack/internal/models"

	"github.com/shopspring/decimal"
)

// Slice names the fixed keys of the root state.
type Slice string

const (
	SliceAuth         Slice = "auth"
	SliceTransactions Slice = "transactions"
	SliceBudgets      Slice = "budgets"
	SliceInvestments  Slice = "investments"
)

// Slices lists every slice of the root state.
var Slices = []Slice{SliceAuth, SliceTransactions, SliceBudgets, SliceInvestments}

// Status is the request lifecycle of one slice. A zero LastUpdated means the
// slice was never successfully loaded.
type Status struct {
	Loading     bool
	Error       string
	LastUpdated time.Time

	pending int
}

// AuthState holds at most one authenticated session.
type AuthState struct {
	User            *models.User
	AccessToken     string
	RefreshToken    string
	ExpiresAt       time.Time
	IsAuthenticated bool
	Status
}

// TransactionState is the canonical transaction collection, the active filter
// and the views derived from them.
type TransactionState struct {
	Items    []models.Transaction
	Filter   models.Filter
	Filtered []models.Transaction

	Page     int // last page fetched, 0 before the first fetch
	PageSize int
	Total    int
	HasMore  bool

	TotalIncome   decimal.Decimal
	TotalExpenses decimal.Decimal
	Net           decimal.Decimal
	ByCategory    map[string]decimal.Decimal

	Archives []models.MonthlyArchive
	Status
}

// BudgetState holds budgets, savings goals and the store-wide totals.
type BudgetState struct {
	Budgets        []models.Budget
	Goals          []models.Goal
	TotalBudget    decimal.Decimal
	TotalSpent     decimal.Decimal
	TotalRemaining decimal.Decimal
	Status
}

// InvestmentState holds the positions and portfolio totals.
type InvestmentState struct {
	Items               []models.Investment
	TotalValue          decimal.Decimal
	TotalCost           decimal.Decimal
	TotalGain           decimal.Decimal
	TotalGainPercentage float64
	Status
}

// State is the root state. Values returned by Root.GetState are snapshots:
// the store never mutates a slice or map after publishing it, and callers
// must not either.
type State struct {
	Auth         AuthState
	Transactions TransactionState
	Budgets      BudgetState
	Investments  InvestmentState
}

func (s *State) status(slice Slice) (*Status, bool) {
	switch slice {
	case SliceAuth:
		return &s.Auth.Status, true
	case SliceTransactions:
		return &s.Transactions.Status, true
	case SliceBudgets:
		return &s.Budgets.Status, true
	case SliceInvestments:
		return &s.Investments.Status, true
	}
	return nil, false
}

// Status returns the request lifecycle of slice, or a zero Status for an
// unknown slice.
func (s State) Status(slice Slice) Status {
	if st, ok := s.status(slice); ok {
		return *st
	}
	return Status{}
}
