package store

import (
	"context"
	"testing"

	"fintrack/internal/models"
	"fintrack/internal/service"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fixedInvestments serves a fixed portfolio.
type fixedInvestments struct {
	service.InvestmentService
	items []models.Investment
}

func (f fixedInvestments) List(context.Context) service.Result[[]models.Investment] {
	return service.Ok(f.items)
}

func TestInvestments_DerivedValues(t *testing.T) {
	_, svc := seeded(t)
	r := newRoot(svc)
	require.NoError(t, r.Investments.Fetch(context.Background()))

	s := r.GetState().Investments
	require.Len(t, s.Items, 2)
	for _, it := range s.Items {
		assert.True(t, it.CurrentValue.Equal(it.Shares.Mul(it.CurrentPrice)), it.Symbol)
		assert.True(t, it.GainLoss.Equal(it.CurrentValue.Sub(it.TotalCost)), it.Symbol)
	}
	assertDecimal(t, "3448.5", s.TotalValue)
	assertDecimal(t, "3000", s.TotalCost)
	assertDecimal(t, "448.5", s.TotalGain)
	assert.InDelta(t, 14.95, s.TotalGainPercentage, 1e-9)
}

func TestInvestments_ZeroCostHasZeroPercentage(t *testing.T) {
	_, svc := seeded(t)
	svc.Investments = fixedInvestments{items: []models.Investment{{
		ID: "gift", Symbol: "GIFT", Shares: decimal.NewFromInt(3), CurrentPrice: decimal.NewFromInt(10),
	}}}
	r := newRoot(svc)
	require.NoError(t, r.Investments.Fetch(context.Background()))

	s := r.GetState().Investments
	assertDecimal(t, "30", s.Items[0].GainLoss)
	assert.Zero(t, s.Items[0].GainLossPercentage)
	assert.Zero(t, s.TotalGainPercentage)
}

func TestInvestments_PricesAndQuotes(t *testing.T) {
	b, svc := seeded(t)
	r := newRoot(svc)
	ctx := context.Background()
	require.NoError(t, r.Investments.Fetch(ctx))

	b.SetQuote("VTI", decimal.NewFromInt(260))
	quotes, err := r.Investments.RefreshPrices(ctx)
	require.NoError(t, err)
	assertDecimal(t, "260", quotes["VTI"])
	assertDecimal(t, "3547.5", r.GetState().Investments.TotalValue)

	r.Dispatch(ApplyQuotes{Prices: map[string]decimal.Decimal{"AAPL": decimal.NewFromInt(200)}})
	assertDecimal(t, "3600", r.GetState().Investments.TotalValue)

	var aapl models.Investment
	for _, it := range r.GetState().Investments.Items {
		if it.Symbol == "AAPL" {
			aapl = it
		}
	}
	updated, err := r.Investments.UpdatePrice(ctx, aapl.ID, decimal.NewFromInt(180))
	require.NoError(t, err)
	assertDecimal(t, "180", updated.CurrentPrice)
	assertDecimal(t, "3500", r.GetState().Investments.TotalValue)
}

func TestInvestments_CreateValidatesSymbol(t *testing.T) {
	_, svc := seeded(t)
	r := newRoot(svc)
	ctx := context.Background()

	_, err := r.Investments.Create(ctx, models.InvestmentInput{Symbol: "not valid"})
	require.Error(t, err)
	assert.Contains(t, r.GetState().Investments.Error, "symbol")

	inv, err := r.Investments.Create(ctx, models.InvestmentInput{
		Symbol: "MSFT", Shares: decimal.NewFromInt(2), CurrentPrice: decimal.NewFromInt(400), TotalCost: decimal.NewFromInt(700),
	})
	require.NoError(t, err)
	s := r.GetState().Investments
	assert.Empty(t, s.Error)
	assertDecimal(t, "800", s.Items[len(s.Items)-1].CurrentValue)

	require.NoError(t, r.Investments.Delete(ctx, inv.ID))
	_, ok := findID(r.GetState().Investments.Items, inv.ID, investmentID)
	assert.False(t, ok)
}
