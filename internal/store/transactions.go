package store

import (
	"context"
	"time"

	"fintrack/internal/models"
	"fintrack/internal/service"
	"fintrack/internal/validation"

	"github.com/shopspring/decimal"
)

// TransactionStore owns the transaction slice.
type TransactionStore struct {
	root *Root
	svc  service.TransactionService

	edits   map[string]*editLog
	editSeq uint64
}

// FilterTransactions returns the transactions matching every criterion of f,
// in their original order. An empty filter returns the whole collection.
func FilterTransactions(items []models.Transaction, f models.Filter) []models.Transaction {
	out := make([]models.Transaction, 0, len(items))
	for _, tx := range items {
		if f.IsZero() || f.Match(tx) {
			out = append(out, tx)
		}
	}
	return out
}

func recomputeTransactions(t *TransactionState) {
	t.Filtered = FilterTransactions(t.Items, t.Filter)
	income, expenses := decimal.Zero, decimal.Zero
	byCategory := make(map[string]decimal.Decimal)
	for _, tx := range t.Items {
		if tx.Amount.IsPositive() {
			income = income.Add(tx.Amount)
			continue
		}
		amt := tx.Amount.Abs()
		expenses = expenses.Add(amt)
		byCategory[tx.Category] = byCategory[tx.Category].Add(amt)
	}
	t.TotalIncome = income
	t.TotalExpenses = expenses
	t.Net = income.Sub(expenses)
	t.ByCategory = byCategory
}

// SetFilter replaces the active filter.
func (t *TransactionStore) SetFilter(f models.Filter) { t.root.Dispatch(SetFilter{Filter: f}) }

// ClearFilter removes every criterion.
func (t *TransactionStore) ClearFilter() { t.root.Dispatch(ClearFilter{}) }

// Fetch loads the first page under the active filter, replacing the collection.
func (t *TransactionStore) Fetch(ctx context.Context) error {
	cur := t.root.GetState().Transactions
	page := models.PageRequest{Page: 1, PageSize: cur.PageSize}
	_, err := run(ctx, t.root, operation[models.TransactionPage]{
		slice: SliceTransactions,
		name:  "fetch transactions",
		call: func(ctx context.Context) service.Result[models.TransactionPage] {
			return t.svc.List(ctx, cur.Filter, page)
		},
		fulfilled: func(s *State, p models.TransactionPage) {
			ts := &s.Transactions
			ts.Items = append([]models.Transaction{}, p.Items...)
			t.observeRead(s, p.Items)
			ts.Page = p.Page
			ts.Total = p.Total
			ts.HasMore = p.HasMore
		},
	})
	return err
}

// FetchMore loads the page after the last one fetched and merges it by id.
// It is a no-op when there is nothing more to load.
func (t *TransactionStore) FetchMore(ctx context.Context) error {
	cur := t.root.GetState().Transactions
	if !cur.HasMore {
		return nil
	}
	page := models.PageRequest{Page: cur.Page + 1, PageSize: cur.PageSize}
	_, err := run(ctx, t.root, operation[models.TransactionPage]{
		slice: SliceTransactions,
		name:  "fetch more transactions",
		call: func(ctx context.Context) service.Result[models.TransactionPage] {
			return t.svc.List(ctx, cur.Filter, page)
		},
		fulfilled: func(s *State, p models.TransactionPage) {
			ts := &s.Transactions
			items := ts.Items
			for _, tx := range p.Items {
				items = upsert(items, tx, transactionID)
			}
			ts.Items = items
			t.observeRead(s, p.Items)
			ts.Page = p.Page
			ts.Total = p.Total
			ts.HasMore = p.HasMore
		},
	})
	return err
}

// Get loads one transaction and merges it by id.
func (t *TransactionStore) Get(ctx context.Context, id string) (models.Transaction, error) {
	return run(ctx, t.root, operation[models.Transaction]{
		slice: SliceTransactions,
		name:  "get transaction",
		call: func(ctx context.Context) service.Result[models.Transaction] {
			return t.svc.Get(ctx, id)
		},
		fulfilled: func(s *State, tx models.Transaction) {
			s.Transactions.Items = upsert(s.Transactions.Items, tx, transactionID)
			t.observeRead(s, []models.Transaction{tx})
		},
	})
}

// Create validates in, then appends the created transaction.
func (t *TransactionStore) Create(ctx context.Context, in models.TransactionInput) (models.Transaction, error) {
	const name = "create transaction"
	if err := validation.Transaction(in, t.root.now()).Err(); err != nil {
		return models.Transaction{}, t.root.reject(SliceTransactions, name, service.Invalid(err), nil)
	}
	return run(ctx, t.root, operation[models.Transaction]{
		slice: SliceTransactions,
		name:  name,
		call: func(ctx context.Context) service.Result[models.Transaction] {
			return t.svc.Create(ctx, in)
		},
		fulfilled: func(s *State, tx models.Transaction) {
			ts := &s.Transactions
			if _, exists := findID(ts.Items, tx.ID, transactionID); !exists {
				ts.Total++
			}
			ts.Items = upsert(ts.Items, tx, transactionID)
		},
	})
}

// Update applies p optimistically. A rejected update is undone by rebuilding
// the transaction from its last confirmed value and the updates still pending.
func (t *TransactionStore) Update(ctx context.Context, id string, p models.TransactionPatch) (models.Transaction, error) {
	const name = "update transaction"
	if err := validation.TransactionPatch(p, t.root.now()).Err(); err != nil {
		return models.Transaction{}, t.root.reject(SliceTransactions, name, service.Invalid(err), nil)
	}
	var (
		seq     uint64
		tracked bool
	)
	return run(ctx, t.root, operation[models.Transaction]{
		slice: SliceTransactions,
		name:  name,
		call: func(ctx context.Context) service.Result[models.Transaction] {
			return t.svc.Update(ctx, id, p)
		},
		optimistic: func(s *State) {
			seq, tracked = t.beginEdit(s, id, p, t.root.now())
		},
		fulfilled: func(s *State, tx models.Transaction) {
			if !tracked {
				s.Transactions.Items = upsert(s.Transactions.Items, tx, transactionID)
				return
			}
			t.settleEdit(s, id, seq, &tx)
		},
		rejected: func(s *State, _ error) {
			if tracked {
				t.settleEdit(s, id, seq, nil)
			}
		},
	})
}

// Delete removes a transaction once the service confirms it. A rejected
// delete leaves the collection untouched.
func (t *TransactionStore) Delete(ctx context.Context, id string) error {
	_, err := run(ctx, t.root, operation[string]{
		slice: SliceTransactions,
		name:  "delete transaction",
		call: func(ctx context.Context) service.Result[string] {
			return t.svc.Delete(ctx, id)
		},
		fulfilled: func(s *State, deleted string) {
			ts := &s.Transactions
			if _, ok := findID(ts.Items, deleted, transactionID); ok && ts.Total > 0 {
				ts.Total--
			}
			ts.Items = removeID(ts.Items, deleted, transactionID)
			delete(t.edits, deleted)
		},
	})
	return err
}

// ArchiveMonth archives the month containing month and keeps the archive.
func (t *TransactionStore) ArchiveMonth(ctx context.Context, month time.Time) (models.MonthlyArchive, error) {
	return run(ctx, t.root, operation[models.MonthlyArchive]{
		slice: SliceTransactions,
		name:  "archive month",
		call: func(ctx context.Context) service.Result[models.MonthlyArchive] {
			return t.svc.Archive(ctx, month)
		},
		fulfilled: func(s *State, a models.MonthlyArchive) {
			s.Transactions.Archives = upsert(s.Transactions.Archives, a, archiveID)
		},
	})
}

// FetchArchives loads the most recent archives, newest first.
func (t *TransactionStore) FetchArchives(ctx context.Context, limit int) error {
	_, err := run(ctx, t.root, operation[[]models.MonthlyArchive]{
		slice: SliceTransactions,
		name:  "fetch archives",
		call: func(ctx context.Context) service.Result[[]models.MonthlyArchive] {
			return t.svc.Archives(ctx, limit)
		},
		fulfilled: func(s *State, archives []models.MonthlyArchive) {
			s.Transactions.Archives = append([]models.MonthlyArchive{}, archives...)
		},
	})
	return err
}
