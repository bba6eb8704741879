package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Investment is a position in one instrument. CurrentValue, GainLoss and
// GainLossPercentage are derived and never persisted.
type Investment struct {
	ID                 string          `bson:"_id" json:"id"`
	Symbol             string          `bson:"symbol" json:"symbol"`
	Name               string          `bson:"name,omitempty" json:"name,omitempty"`
	Type               string          `bson:"type,omitempty" json:"type,omitempty"`
	Shares             decimal.Decimal `bson:"shares" json:"shares"`
	CurrentPrice       decimal.Decimal `bson:"currentPrice" json:"currentPrice"`
	TotalCost          decimal.Decimal `bson:"totalCost" json:"totalCost"`
	PurchaseDate       time.Time       `bson:"purchaseDate,omitempty" json:"purchaseDate,omitempty"`
	UpdatedAt          time.Time       `bson:"updatedAt" json:"updatedAt"`
	CurrentValue       decimal.Decimal `bson:"-" json:"currentValue"`
	GainLoss           decimal.Decimal `bson:"-" json:"gainLoss"`
	GainLossPercentage float64         `bson:"-" json:"gainLossPercentage"`
}

// InvestmentInput is the payload of an investment create operation.
type InvestmentInput struct {
	Symbol       string
	Name         string
	Type         string
	Shares       decimal.Decimal
	CurrentPrice decimal.Decimal
	TotalCost    decimal.Decimal
	PurchaseDate time.Time
}

// InvestmentPatch is a partial investment update.
type InvestmentPatch struct {
	Name         *string
	Shares       *decimal.Decimal
	CurrentPrice *decimal.Decimal
	TotalCost    *decimal.Decimal
}

// Apply returns a copy of i with the patch applied.
func (p InvestmentPatch) Apply(i Investment) Investment {
	if p.Name != nil {
		i.Name = *p.Name
	}
	if p.Shares != nil {
		i.Shares = *p.Shares
	}
	if p.CurrentPrice != nil {
		i.CurrentPrice = *p.CurrentPrice
	}
	if p.TotalCost != nil {
		i.TotalCost = *p.TotalCost
	}
	return i
}
