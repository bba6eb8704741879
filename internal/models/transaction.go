package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction statuses.
const (
	StatusPending   = "pending"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
)

// Merchant is embedded by copy in every transaction.
type Merchant struct {
	ID       string `bson:"id,omitempty" json:"id,omitempty"`
	Name     string `bson:"name" json:"name"`
	Category string `bson:"category,omitempty" json:"category,omitempty"`
}

// Account is the account a transaction was booked on, embedded by copy.
type Account struct {
	ID   string `bson:"id" json:"id"`
	Name string `bson:"name,omitempty" json:"name,omitempty"`
	Type string `bson:"type,omitempty" json:"type,omitempty"`
}

// Transaction represents one record in the transaction collection.
// A negative amount is an expense, a positive amount is an income.
type Transaction struct {
	ID          string          `bson:"_id" json:"id"`
	Amount      decimal.Decimal `bson:"amount" json:"amount"`
	Description string          `bson:"description" json:"description"`
	Category    string          `bson:"category" json:"category"`
	Merchant    Merchant        `bson:"merchant" json:"merchant"`
	Date        time.Time       `bson:"date" json:"date"`
	Account     Account         `bson:"account" json:"account"`
	Status      string          `bson:"status" json:"status"`
	Tags        []string        `bson:"tags,omitempty" json:"tags,omitempty"`
	Notes       string          `bson:"notes,omitempty" json:"notes,omitempty"`
	CreatedAt   time.Time       `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time       `bson:"updatedAt" json:"updatedAt"`
}

// IsExpense reports whether the transaction takes money out.
func (t Transaction) IsExpense() bool { return t.Amount.IsNegative() }

// HasTag reports whether tag is attached to the transaction.
func (t Transaction) HasTag(tag string) bool {
	for _, v := range t.Tags {
		if v == tag {
			return true
		}
	}
	return false
}

// TransactionInput is the payload of a create operation.
type TransactionInput struct {
	Amount      decimal.Decimal
	Description string
	Category    string
	Merchant    Merchant
	Date        time.Time
	Account     Account
	Status      string
	Tags        []string
	Notes       string
}

// TransactionPatch carries a partial update; nil fields are left untouched.
type TransactionPatch struct {
	Amount      *decimal.Decimal
	Description *string
	Category    *string
	Merchant    *Merchant
	Date        *time.Time
	Status      *string
	Tags        []string
	Notes       *string
}

// Apply returns a copy of t with the patch applied.
func (p TransactionPatch) Apply(t Transaction) Transaction {
	if p.Amount != nil {
		t.Amount = *p.Amount
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.Category != nil {
		t.Category = *p.Category
	}
	if p.Merchant != nil {
		t.Merchant = *p.Merchant
	}
	if p.Date != nil {
		t.Date = *p.Date
	}
	if p.Status != nil {
		t.Status = *p.Status
	}
	if p.Tags != nil {
		t.Tags = append([]string(nil), p.Tags...)
	}
	if p.Notes != nil {
		t.Notes = *p.Notes
	}
	return t
}

// NewTransaction builds a transaction from an input. Timestamps are left to the caller.
func NewTransaction(id string, in TransactionInput) Transaction {
	status := in.Status
	if status == "" {
		status = StatusCompleted
	}
	return Transaction{
		ID:          id,
		Amount:      in.Amount,
		Description: in.Description,
		Category:    in.Category,
		Merchant:    in.Merchant,
		Date:        in.Date,
		Account:     in.Account,
		Status:      status,
		Tags:        append([]string(nil), in.Tags...),
		Notes:       in.Notes,
	}
}

// TransactionPage is one page of a transaction listing.
type TransactionPage struct {
	Items    []Transaction `json:"items"`
	Page     int           `json:"page"`
	PageSize int           `json:"pageSize"`
	Total    int           `json:"total"`
	HasMore  bool          `json:"hasMore"`
}
