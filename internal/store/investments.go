package store

import (
	"context"

	"fintrack/internal/models"
	"fintrack/internal/service"
	"fintrack/internal/validation"

	"github.com/shopspring/decimal"
)

// InvestmentStore owns the portfolio.
type InvestmentStore struct {
	root *Root
	svc  service.InvestmentService
}

func recomputeInvestments(inv *InvestmentState) {
	value, cost := decimal.Zero, decimal.Zero
	items := make([]models.Investment, len(inv.Items))
	for i, it := range inv.Items {
		it.CurrentValue = it.Shares.Mul(it.CurrentPrice)
		it.GainLoss = it.CurrentValue.Sub(it.TotalCost)
		it.GainLossPercentage = percentOf(it.GainLoss, it.TotalCost)
		value = value.Add(it.CurrentValue)
		cost = cost.Add(it.TotalCost)
		items[i] = it
	}
	inv.Items = items
	inv.TotalValue = value
	inv.TotalCost = cost
	inv.TotalGain = value.Sub(cost)
	inv.TotalGainPercentage = percentOf(inv.TotalGain, cost)
}

// Fetch replaces every position.
func (i *InvestmentStore) Fetch(ctx context.Context) error {
	_, err := run(ctx, i.root, operation[[]models.Investment]{
		slice: SliceInvestments,
		name:  "fetch investments",
		call:  i.svc.List,
		fulfilled: func(s *State, items []models.Investment) {
			s.Investments.Items = append([]models.Investment{}, items...)
		},
	})
	return err
}

// Create validates in, then adds the position.
func (i *InvestmentStore) Create(ctx context.Context, in models.InvestmentInput) (models.Investment, error) {
	const name = "create investment"
	if err := validation.Investment(in).Err(); err != nil {
		return models.Investment{}, i.root.reject(SliceInvestments, name, service.Invalid(err), nil)
	}
	return run(ctx, i.root, operation[models.Investment]{
		slice: SliceInvestments,
		name:  name,
		call: func(ctx context.Context) service.Result[models.Investment] {
			return i.svc.Create(ctx, in)
		},
		fulfilled: i.put,
	})
}

// Update applies p to a position.
func (i *InvestmentStore) Update(ctx context.Context, id string, p models.InvestmentPatch) (models.Investment, error) {
	return i.update(ctx, "update investment", id, p)
}

// UpdatePrice sets the current price of one position.
func (i *InvestmentStore) UpdatePrice(ctx context.Context, id string, price decimal.Decimal) (models.Investment, error) {
	return i.update(ctx, "update price", id, models.InvestmentPatch{CurrentPrice: &price})
}

func (i *InvestmentStore) update(ctx context.Context, name, id string, p models.InvestmentPatch) (models.Investment, error) {
	if err := validation.InvestmentPatch(p).Err(); err != nil {
		return models.Investment{}, i.root.reject(SliceInvestments, name, service.Invalid(err), nil)
	}
	return run(ctx, i.root, operation[models.Investment]{
		slice: SliceInvestments,
		name:  name,
		call: func(ctx context.Context) service.Result[models.Investment] {
			return i.svc.Update(ctx, id, p)
		},
		fulfilled: i.put,
	})
}

func (i *InvestmentStore) put(s *State, it models.Investment) {
	s.Investments.Items = upsert(s.Investments.Items, it, investmentID)
}

// Delete removes a position.
func (i *InvestmentStore) Delete(ctx context.Context, id string) error {
	_, err := run(ctx, i.root, operation[string]{
		slice: SliceInvestments,
		name:  "delete investment",
		call: func(ctx context.Context) service.Result[string] {
			return i.svc.Delete(ctx, id)
		},
		fulfilled: func(s *State, deleted string) {
			s.Investments.Items = removeID(s.Investments.Items, deleted, investmentID)
		},
	})
	return err
}

// RefreshPrices asks for a quote of every held symbol and applies the ones
// returned. Positions without a quote keep their price.
func (i *InvestmentStore) RefreshPrices(ctx context.Context) (map[string]decimal.Decimal, error) {
	var symbols []string
	seen := make(map[string]bool)
	for _, it := range i.root.GetState().Investments.Items {
		if !seen[it.Symbol] {
			seen[it.Symbol] = true
			symbols = append(symbols, it.Symbol)
		}
	}
	if len(symbols) == 0 {
		return map[string]decimal.Decimal{}, nil
	}
	return run(ctx, i.root, operation[map[string]decimal.Decimal]{
		slice: SliceInvestments,
		name:  "refresh prices",
		call: func(ctx context.Context) service.Result[map[string]decimal.Decimal] {
			return i.svc.Quotes(ctx, symbols)
		},
		fulfilled: func(s *State, prices map[string]decimal.Decimal) {
			s.Investments.Items = applyPrices(s.Investments.Items, prices)
		},
	})
}
