package mock

import (
	"context"
	"sort"
	"strings"

	"fintrack/internal/models"
	"fintrack/internal/service"
	"fintrack/internal/validation"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type investmentService struct{ b *Backend }

func (s *investmentService) List(ctx context.Context) service.Result[[]models.Investment] {
	return service.Guard(func() service.Result[[]models.Investment] {
		if err := s.b.wait(ctx); err != nil {
			return service.Fail(err, []models.Investment{})
		}
		s.b.mu.RLock()
		defer s.b.mu.RUnlock()
		items := make([]models.Investment, 0, len(s.b.investments))
		for _, inv := range s.b.investments {
			items = append(items, inv)
		}
		sort.Slice(items, func(i, j int) bool {
			if items[i].Symbol != items[j].Symbol {
				return items[i].Symbol < items[j].Symbol
			}
			return items[i].ID < items[j].ID
		})
		return service.Ok(items)
	})
}

func (s *investmentService) Create(ctx context.Context, in models.InvestmentInput) service.Result[models.Investment] {
	return service.Guard(func() service.Result[models.Investment] {
		if err := validation.Investment(in).Err(); err != nil {
			return service.Err[models.Investment](service.Invalid(err))
		}
		if err := s.b.wait(ctx); err != nil {
			return service.Err[models.Investment](err)
		}
		inv := models.Investment{
			ID:           uuid.NewString(),
			Symbol:       in.Symbol,
			Name:         in.Name,
			Type:         in.Type,
			Shares:       in.Shares,
			CurrentPrice: in.CurrentPrice,
			TotalCost:    in.TotalCost,
			PurchaseDate: in.PurchaseDate,
			UpdatedAt:    s.b.now(),
		}
		s.b.mu.Lock()
		defer s.b.mu.Unlock()
		s.b.investments[inv.ID] = inv
		if _, ok := s.b.quotes[inv.Symbol]; !ok {
			s.b.quotes[inv.Symbol] = inv.CurrentPrice
		}
		return service.Ok(inv)
	})
}

func (s *investmentService) Update(ctx context.Context, id string, p models.InvestmentPatch) service.Result[models.Investment] {
	return service.Guard(func() service.Result[models.Investment] {
		if err := validation.InvestmentPatch(p).Err(); err != nil {
			return service.Err[models.Investment](service.Invalid(err))
		}
		if err := s.b.wait(ctx); err != nil {
			return service.Err[models.Investment](err)
		}
		s.b.mu.Lock()
		defer s.b.mu.Unlock()
		inv, ok := s.b.investments[id]
		if !ok {
			return service.Err[models.Investment](service.NotFound("investment", id))
		}
		inv = p.Apply(inv)
		inv.UpdatedAt = s.b.now()
		s.b.investments[id] = inv
		if p.CurrentPrice != nil {
			s.b.quotes[inv.Symbol] = *p.CurrentPrice
		}
		return service.Ok(inv)
	})
}

func (s *investmentService) Delete(ctx context.Context, id string) service.Result[string] {
	return service.Guard(func() service.Result[string] {
		if err := s.b.wait(ctx); err != nil {
			return service.Err[string](err)
		}
		s.b.mu.Lock()
		defer s.b.mu.Unlock()
		if _, ok := s.b.investments[id]; !ok {
			return service.Err[string](service.NotFound("investment", id))
		}
		delete(s.b.investments, id)
		return service.Ok(id)
	})
}

// Quotes returns the known price of each symbol; unknown symbols are omitted.
func (s *investmentService) Quotes(ctx context.Context, symbols []string) service.Result[map[string]decimal.Decimal] {
	return service.Guard(func() service.Result[map[string]decimal.Decimal] {
		quotes := make(map[string]decimal.Decimal, len(symbols))
		if err := s.b.wait(ctx); err != nil {
			return service.Fail(err, quotes)
		}
		s.b.mu.RLock()
		defer s.b.mu.RUnlock()
		for _, sym := range symbols {
			if price, ok := s.b.quotes[strings.ToUpper(sym)]; ok {
				quotes[sym] = price
			}
		}
		return service.Ok(quotes)
	})
}
