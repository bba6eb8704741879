package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Budget periods.
const (
	PeriodWeekly  = "weekly"
	PeriodMonthly = "monthly"
	PeriodYearly  = "yearly"
)

// BudgetCategory is one line of a budget. RemainingAmount and PercentageUsed are
// derived and never persisted.
type BudgetCategory struct {
	ID              string          `bson:"_id" json:"id"`
	Name            string          `bson:"name" json:"name"`
	BudgetedAmount  decimal.Decimal `bson:"budgetedAmount" json:"budgetedAmount"`
	SpentAmount     decimal.Decimal `bson:"spentAmount" json:"spentAmount"`
	Color           string          `bson:"color,omitempty" json:"color,omitempty"`
	RemainingAmount decimal.Decimal `bson:"-" json:"remainingAmount"`
	PercentageUsed  float64         `bson:"-" json:"percentageUsed"`
}

// Budget owns an ordered list of categories. Totals are derived.
type Budget struct {
	ID             string           `bson:"_id" json:"id"`
	Name           string           `bson:"name" json:"name"`
	Period         string           `bson:"period" json:"period"`
	StartDate      time.Time        `bson:"startDate" json:"startDate"`
	EndDate        time.Time        `bson:"endDate" json:"endDate"`
	Categories     []BudgetCategory `bson:"categories" json:"categories"`
	CreatedAt      time.Time        `bson:"createdAt" json:"createdAt"`
	UpdatedAt      time.Time        `bson:"updatedAt" json:"updatedAt"`
	TotalBudget    decimal.Decimal  `bson:"-" json:"totalBudget"`
	TotalSpent     decimal.Decimal  `bson:"-" json:"totalSpent"`
	TotalRemaining decimal.Decimal  `bson:"-" json:"totalRemaining"`
}

// Category returns the category with the given id.
func (b Budget) Category(id string) (BudgetCategory, bool) {
	for _, c := range b.Categories {
		if c.ID == id {
			return c, true
		}
	}
	return BudgetCategory{}, false
}

// CategoryInput is the payload to add a category to a budget.
type CategoryInput struct {
	Name           string
	BudgetedAmount decimal.Decimal
	SpentAmount    decimal.Decimal
	Color          string
}

// CategoryPatch is a partial category update.
type CategoryPatch struct {
	Name           *string
	BudgetedAmount *decimal.Decimal
	SpentAmount    *decimal.Decimal
	Color          *string
}

// Apply returns a copy of c with the patch applied.
func (p CategoryPatch) Apply(c BudgetCategory) BudgetCategory {
	if p.Name != nil {
		c.Name = *p.Name
	}
	if p.BudgetedAmount != nil {
		c.BudgetedAmount = *p.BudgetedAmount
	}
	if p.SpentAmount != nil {
		c.SpentAmount = *p.SpentAmount
	}
	if p.Color != nil {
		c.Color = *p.Color
	}
	return c
}

// BudgetInput is the payload of a budget create operation.
type BudgetInput struct {
	Name       string
	Period     string
	StartDate  time.Time
	EndDate    time.Time
	Categories []CategoryInput
}

// BudgetPatch is a partial budget update. Categories are edited through their own operations.
type BudgetPatch struct {
	Name      *string
	Period    *string
	StartDate *time.Time
	EndDate   *time.Time
}

// Apply returns a copy of b with the patch applied.
func (p BudgetPatch) Apply(b Budget) Budget {
	if p.Name != nil {
		b.Name = *p.Name
	}
	if p.Period != nil {
		b.Period = *p.Period
	}
	if p.StartDate != nil {
		b.StartDate = *p.StartDate
	}
	if p.EndDate != nil {
		b.EndDate = *p.EndDate
	}
	return b
}
