package mock

import (
	"context"
	"fmt"
	"sort"
	"time"

	"fintrack/internal/models"
	"fintrack/internal/service"
	"fintrack/internal/validation"

	"github.com/google/uuid"
)

const defaultPageSize = 20

type transactionService struct{ b *Backend }

func (s *transactionService) List(ctx context.Context, f models.Filter, page models.PageRequest) service.Result[models.TransactionPage] {
	return service.Guard(func() service.Result[models.TransactionPage] {
		if page.Page < 1 {
			page.Page = 1
		}
		if page.PageSize <= 0 {
			page.PageSize = defaultPageSize
		}
		if err := s.b.wait(ctx); err != nil {
			return service.Err[models.TransactionPage](err)
		}
		s.b.mu.RLock()
		matched := make([]models.Transaction, 0, len(s.b.transactions))
		for _, tx := range s.b.transactions {
			if f.Match(tx) {
				matched = append(matched, tx)
			}
		}
		s.b.mu.RUnlock()
		sortByDate(matched)

		start := (page.Page - 1) * page.PageSize
		if start > len(matched) {
			start = len(matched)
		}
		end := start + page.PageSize
		if end > len(matched) {
			end = len(matched)
		}
		return service.Ok(models.TransactionPage{
			Items:    append([]models.Transaction(nil), matched[start:end]...),
			Page:     page.Page,
			PageSize: page.PageSize,
			Total:    len(matched),
			HasMore:  end < len(matched),
		})
	})
}

func (s *transactionService) Get(ctx context.Context, id string) service.Result[models.Transaction] {
	return service.Guard(func() service.Result[models.Transaction] {
		if id == "" {
			return service.Err[models.Transaction](fmt.Errorf("%w: id is required", service.ErrInvalidInput))
		}
		if err := s.b.wait(ctx); err != nil {
			return service.Err[models.Transaction](err)
		}
		s.b.mu.RLock()
		defer s.b.mu.RUnlock()
		tx, ok := s.b.transactions[id]
		if !ok {
			return service.Err[models.Transaction](service.NotFound("transaction", id))
		}
		return service.Ok(tx)
	})
}

func (s *transactionService) Create(ctx context.Context, in models.TransactionInput) service.Result[models.Transaction] {
	return service.Guard(func() service.Result[models.Transaction] {
		if err := validation.Transaction(in, s.b.now()).Err(); err != nil {
			return service.Err[models.Transaction](service.Invalid(err))
		}
		if err := s.b.wait(ctx); err != nil {
			return service.Err[models.Transaction](err)
		}
		tx := models.NewTransaction(uuid.NewString(), in)
		tx.CreatedAt = s.b.now()
		tx.UpdatedAt = tx.CreatedAt
		s.b.mu.Lock()
		defer s.b.mu.Unlock()
		s.b.transactions[tx.ID] = tx
		return service.Ok(tx)
	})
}

func (s *transactionService) Update(ctx context.Context, id string, p models.TransactionPatch) service.Result[models.Transaction] {
	return service.Guard(func() service.Result[models.Transaction] {
		if id == "" {
			return service.Err[models.Transaction](fmt.Errorf("%w: id is required", service.ErrInvalidInput))
		}
		if err := validation.TransactionPatch(p, s.b.now()).Err(); err != nil {
			return service.Err[models.Transaction](service.Invalid(err))
		}
		if err := s.b.wait(ctx); err != nil {
			return service.Err[models.Transaction](err)
		}
		s.b.mu.Lock()
		defer s.b.mu.Unlock()
		tx, ok := s.b.transactions[id]
		if !ok {
			return service.Err[models.Transaction](service.NotFound("transaction", id))
		}
		tx = p.Apply(tx)
		tx.UpdatedAt = s.b.now()
		s.b.transactions[id] = tx
		return service.Ok(tx)
	})
}

func (s *transactionService) Delete(ctx context.Context, id string) service.Result[string] {
	return service.Guard(func() service.Result[string] {
		if id == "" {
			return service.Err[string](fmt.Errorf("%w: id is required", service.ErrInvalidInput))
		}
		if err := s.b.wait(ctx); err != nil {
			return service.Err[string](err)
		}
		s.b.mu.Lock()
		defer s.b.mu.Unlock()
		if _, ok := s.b.transactions[id]; !ok {
			return service.Err[string](service.NotFound("transaction", id))
		}
		delete(s.b.transactions, id)
		return service.Ok(id)
	})
}

func (s *transactionService) Archive(ctx context.Context, month time.Time) service.Result[models.MonthlyArchive] {
	return service.Guard(func() service.Result[models.MonthlyArchive] {
		if month.IsZero() {
			return service.Err[models.MonthlyArchive](fmt.Errorf("%w: month is required", service.ErrInvalidInput))
		}
		if err := s.b.wait(ctx); err != nil {
			return service.Err[models.MonthlyArchive](err)
		}
		s.b.mu.Lock()
		defer s.b.mu.Unlock()
		all := make([]models.Transaction, 0, len(s.b.transactions))
		for _, tx := range s.b.transactions {
			all = append(all, tx)
		}
		sortByDate(all)
		archive := models.NewMonthlyArchive(month, all, s.b.now())
		if archive.TotalTransactions == 0 {
			return service.Err[models.MonthlyArchive](fmt.Errorf("no transactions to archive for %s", archive.ID))
		}
		s.b.archives[archive.ID] = archive
		return service.Ok(archive)
	})
}

func (s *transactionService) Archives(ctx context.Context, limit int) service.Result[[]models.MonthlyArchive] {
	return service.Guard(func() service.Result[[]models.MonthlyArchive] {
		if err := s.b.wait(ctx); err != nil {
			return service.Fail(err, []models.MonthlyArchive{})
		}
		s.b.mu.RLock()
		defer s.b.mu.RUnlock()
		archives := make([]models.MonthlyArchive, 0, len(s.b.archives))
		for _, a := range s.b.archives {
			archives = append(archives, a)
		}
		sort.Slice(archives, func(i, j int) bool { return archives[i].ID > archives[j].ID })
		if limit > 0 && len(archives) > limit {
			archives = archives[:limit]
		}
		return service.Ok(archives)
	})
}

// sortByDate orders newest first, ties broken by id.
func sortByDate(txs []models.Transaction) {
	sort.SliceStable(txs, func(i, j int) bool {
		if !txs[i].Date.Equal(txs[j].Date) {
			return txs[i].Date.After(txs[j].Date)
		}
		return txs[i].ID < txs[j].ID
	})
}
