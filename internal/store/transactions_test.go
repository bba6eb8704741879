package store

import (
	"context"
	"sync"
	"testing"
	"time"

	"fintrack/internal/models"
	"fintrack/internal/service"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// failingTransactions rejects every write and delegates reads.
type failingTransactions struct {
	service.TransactionService
	calls int
}

func (f *failingTransactions) Create(context.Context, models.TransactionInput) service.Result[models.Transaction] {
	f.calls++
	return service.Err[models.Transaction](service.ErrUnavailable)
}

func (f *failingTransactions) Update(context.Context, string, models.TransactionPatch) service.Result[models.Transaction] {
	f.calls++
	return service.Err[models.Transaction](service.ErrUnavailable)
}

func (f *failingTransactions) Delete(context.Context, string) service.Result[string] {
	f.calls++
	return service.Err[string](service.ErrUnavailable)
}

// gatedUpdates holds each Update until its description is released.
type gatedUpdates struct {
	service.TransactionService
	mu    sync.Mutex
	gates map[string]chan struct{}
	seen  chan string
}

func (g *gatedUpdates) gate(desc string) chan struct{} {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.gates[desc] == nil {
		g.gates[desc] = make(chan struct{})
	}
	return g.gates[desc]
}

func (g *gatedUpdates) Update(ctx context.Context, id string, p models.TransactionPatch) service.Result[models.Transaction] {
	gate := g.gate(*p.Description)
	g.seen <- *p.Description
	<-gate
	return g.TransactionService.Update(ctx, id, p)
}

func tx(id, amount, category, merchant string, daysAgo int) models.Transaction {
	return models.Transaction{
		ID:       id,
		Amount:   decimal.RequireFromString(amount),
		Category: category,
		Merchant: models.Merchant{Name: merchant},
		Date:     now.AddDate(0, 0, -daysAgo),
	}
}

func sample() []models.Transaction {
	return []models.Transaction{
		tx("1", "3200", "Income", "Employer Inc", 14),
		tx("2", "-54.20", "Groceries", "FreshMart", 12),
		tx("3", "-1200", "Household", "City Apartments", 10),
		tx("4", "-38.75", "Dining Out", "Luigi's", 6),
		tx("5", "-61.10", "Groceries", "FreshMart", 1),
	}
}

func ids(items []models.Transaction) []string {
	out := make([]string, len(items))
	for i, t := range items {
		out[i] = t.ID
	}
	return out
}

func TestFilterTransactions(t *testing.T) {
	fifty := decimal.NewFromInt(50)
	hundred := decimal.NewFromInt(100)

	tests := []struct {
		name   string
		filter models.Filter
		want   []string
	}{
		{"empty filter keeps everything", models.Filter{}, []string{"1", "2", "3", "4", "5"}},
		{"category ignores case", models.Filter{Category: "groceries"}, []string{"2", "5"}},
		{"merchant substring", models.Filter{Merchant: "mart"}, []string{"2", "5"}},
		{"amount bounds use magnitude", models.Filter{MinAmount: &fifty, MaxAmount: &hundred}, []string{"2", "5"}},
		{"inclusive date range", models.Filter{From: now.AddDate(0, 0, -12), To: now.AddDate(0, 0, -6)}, []string{"2", "3", "4"}},
		{"income only", models.Filter{Kind: models.KindIncome}, []string{"1"}},
		{"expense only", models.Filter{Kind: models.KindExpense}, []string{"2", "3", "4", "5"}},
		{"unknown kind matches nothing", models.Filter{Kind: "transfer"}, []string{}},
		{"criteria are conjunctive", models.Filter{Category: "Groceries", From: now.AddDate(0, 0, -5)}, []string{"5"}},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ids(FilterTransactions(sample(), tt.filter)))
		})
	}
}

func TestFilterTransactions_IdempotentAndPure(t *testing.T) {
	items := sample()
	f := models.Filter{Category: "Groceries"}

	once := FilterTransactions(items, f)
	twice := FilterTransactions(once, f)
	assert.Equal(t, once, twice)
	assert.Equal(t, sample(), items)
}

func TestTransactions_FetchAndTotals(t *testing.T) {
	_, svc := seeded(t)
	r := newRoot(svc, WithPageSize(4))
	ctx := context.Background()

	require.NoError(t, r.Transactions.Fetch(ctx))
	s := r.GetState().Transactions
	assert.Len(t, s.Items, 4)
	assert.Equal(t, 6, s.Total)
	assert.True(t, s.HasMore)
	assert.False(t, s.LastUpdated.IsZero())

	require.NoError(t, r.Transactions.FetchMore(ctx))
	s = r.GetState().Transactions
	assert.Len(t, s.Items, 6)
	assert.False(t, s.HasMore)
	assertDecimal(t, "3200", s.TotalIncome)
	assertDecimal(t, "1374.04", s.TotalExpenses)
	assertDecimal(t, "1825.96", s.Net)
	assertDecimal(t, "115.30", s.ByCategory["Groceries"])

	// nothing left to load
	require.NoError(t, r.Transactions.FetchMore(ctx))
	assert.Len(t, r.GetState().Transactions.Items, 6)
}

func TestTransactions_FilterAndClear(t *testing.T) {
	_, svc := seeded(t)
	r := newRoot(svc)
	require.NoError(t, r.Transactions.Fetch(context.Background()))
	all := r.GetState().Transactions.Filtered

	r.Transactions.SetFilter(models.Filter{Merchant: "freshmart"})
	s := r.GetState().Transactions
	assert.Len(t, s.Filtered, 2)
	assert.Equal(t, 0, s.Page)
	assert.True(t, s.HasMore)
	assert.Len(t, s.Items, 6)

	r.Transactions.ClearFilter()
	assert.Equal(t, ids(all), ids(r.GetState().Transactions.Filtered))
}

func TestTransactions_CreateUpdateDelete(t *testing.T) {
	_, svc := seeded(t)
	r := newRoot(svc)
	ctx := context.Background()
	require.NoError(t, r.Transactions.Fetch(ctx))

	created, err := r.Transactions.Create(ctx, models.TransactionInput{
		Amount: decimal.NewFromInt(-25), Description: "Taxi", Category: "Transport", Date: now,
	})
	require.NoError(t, err)
	assert.Equal(t, 7, r.GetState().Transactions.Total)

	updated, err := r.Transactions.Update(ctx, created.ID, models.TransactionPatch{Category: ptr("Travel")})
	require.NoError(t, err)
	assert.Equal(t, "Travel", updated.Category)
	got, ok := findID(r.GetState().Transactions.Items, created.ID, transactionID)
	require.True(t, ok)
	assert.Equal(t, "Travel", got.Category)

	require.NoError(t, r.Transactions.Delete(ctx, created.ID))
	_, ok = findID(r.GetState().Transactions.Items, created.ID, transactionID)
	assert.False(t, ok)
	assert.Equal(t, 6, r.GetState().Transactions.Total)
}

func TestTransactions_InvalidCreateNeverCallsService(t *testing.T) {
	_, svc := seeded(t)
	failing := &failingTransactions{TransactionService: svc.Transactions}
	svc.Transactions = failing
	r := newRoot(svc)

	_, err := r.Transactions.Create(context.Background(), models.TransactionInput{
		Amount: decimal.Zero, Description: "x", Category: "y", Date: now,
	})
	require.Error(t, err)
	assert.Zero(t, failing.calls)
	assert.Contains(t, r.GetState().Transactions.Error, "amount must not be zero")
	assert.False(t, r.GetState().Transactions.Loading)
}

func TestTransactions_RejectedWritesLeaveCollectionUnchanged(t *testing.T) {
	_, svc := seeded(t)
	failing := &failingTransactions{TransactionService: svc.Transactions}
	svc.Transactions = failing
	r := newRoot(svc)
	ctx := context.Background()
	require.NoError(t, r.Transactions.Fetch(ctx))
	before := r.GetState().Transactions.Items
	id := before[0].ID

	var optimistic bool
	unsubscribe := r.Subscribe(func(s State) {
		if cur, ok := findID(s.Transactions.Items, id, transactionID); ok && cur.Description == "changed" {
			optimistic = true
		}
	})
	defer unsubscribe()

	_, err := r.Transactions.Create(ctx, models.TransactionInput{
		Amount: decimal.NewFromInt(-5), Description: "Coffee", Category: "Dining Out", Date: now,
	})
	assert.ErrorIs(t, err, service.ErrUnavailable)
	assert.Equal(t, before, r.GetState().Transactions.Items)

	_, err = r.Transactions.Update(ctx, id, models.TransactionPatch{Description: ptr("changed")})
	assert.ErrorIs(t, err, service.ErrUnavailable)
	assert.True(t, optimistic)
	assert.Equal(t, before, r.GetState().Transactions.Items)

	assert.ErrorIs(t, r.Transactions.Delete(ctx, id), service.ErrUnavailable)
	assert.Equal(t, before, r.GetState().Transactions.Items)

	s := r.GetState().Transactions
	assert.Contains(t, s.Error, "delete transaction")
	assert.False(t, s.Loading)
	assert.Equal(t, 3, failing.calls)
}

func TestTransactions_LastSettledUpdateWins(t *testing.T) {
	_, svc := seeded(t)
	gated := &gatedUpdates{
		TransactionService: svc.Transactions,
		gates:              make(map[string]chan struct{}),
		seen:               make(chan string, 2),
	}
	svc.Transactions = gated
	r := newRoot(svc)
	ctx := context.Background()
	require.NoError(t, r.Transactions.Fetch(ctx))
	id := r.GetState().Transactions.Items[0].ID

	var wg sync.WaitGroup
	for _, desc := range []string{"first", "second"} {
		desc := desc
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = r.Transactions.Update(ctx, id, models.TransactionPatch{Description: ptr(desc)})
		}()
	}
	<-gated.seen
	<-gated.seen

	close(gated.gate("second"))
	require.Eventually(t, func() bool {
		cur, _ := findID(r.GetState().Transactions.Items, id, transactionID)
		return cur.Description == "second" && r.GetState().Transactions.Loading
	}, time.Second, time.Millisecond)
	close(gated.gate("first"))
	wg.Wait()

	cur, _ := findID(r.GetState().Transactions.Items, id, transactionID)
	assert.Equal(t, "first", cur.Description)
	assert.False(t, r.GetState().Transactions.Loading)
}

func TestTransactions_OverlappingRejectedUpdatesRestoreOriginal(t *testing.T) {
	_, svc := seeded(t)
	failing := &failingTransactions{TransactionService: svc.Transactions}
	gated := &gatedUpdates{
		TransactionService: failing,
		gates:              make(map[string]chan struct{}),
		seen:               make(chan string, 2),
	}
	svc.Transactions = gated
	r := newRoot(svc)
	ctx := context.Background()
	require.NoError(t, r.Transactions.Fetch(ctx))
	before := r.GetState().Transactions.Items
	id := before[0].ID

	done := make(map[string]chan error)
	for _, desc := range []string{"first", "second"} {
		desc := desc
		ch := make(chan error, 1)
		done[desc] = ch
		go func() {
			_, err := r.Transactions.Update(ctx, id, models.TransactionPatch{Description: ptr(desc)})
			ch <- err
		}()
		require.Equal(t, desc, <-gated.seen)
	}
	cur, _ := findID(r.GetState().Transactions.Items, id, transactionID)
	assert.Equal(t, "second", cur.Description)

	close(gated.gate("first"))
	assert.ErrorIs(t, <-done["first"], service.ErrUnavailable)
	cur, _ = findID(r.GetState().Transactions.Items, id, transactionID)
	assert.Equal(t, "second", cur.Description, "pending update stays visible")

	close(gated.gate("second"))
	assert.ErrorIs(t, <-done["second"], service.ErrUnavailable)

	s := r.GetState().Transactions
	assert.Equal(t, before, s.Items)
	assert.False(t, s.Loading)
}

func TestTransactions_RejectedUpdateAfterConfirmedOneKeepsConfirmed(t *testing.T) {
	_, svc := seeded(t)
	gated := &gatedUpdates{
		TransactionService: svc.Transactions,
		gates:              make(map[string]chan struct{}),
		seen:               make(chan string, 2),
	}
	svc.Transactions = gated
	r := newRoot(svc)
	ctx := context.Background()
	require.NoError(t, r.Transactions.Fetch(ctx))
	id := r.GetState().Transactions.Items[0].ID

	close(gated.gate("saved"))
	_, err := r.Transactions.Update(ctx, id, models.TransactionPatch{Description: ptr("saved")})
	require.NoError(t, err)
	<-gated.seen
	saved, _ := findID(r.GetState().Transactions.Items, id, transactionID)

	cancelled, cancel := context.WithCancel(ctx)
	errc := make(chan error, 1)
	go func() {
		_, err := r.Transactions.Update(cancelled, id, models.TransactionPatch{Description: ptr("dropped")})
		errc <- err
	}()
	require.Equal(t, "dropped", <-gated.seen)
	cancel()
	close(gated.gate("dropped"))
	assert.ErrorIs(t, <-errc, ErrStale)

	cur, _ := findID(r.GetState().Transactions.Items, id, transactionID)
	assert.Equal(t, saved, cur)
}

func TestTransactions_ArchiveMonth(t *testing.T) {
	_, svc := seeded(t)
	r := newRoot(svc)
	ctx := context.Background()

	archive, err := r.Transactions.ArchiveMonth(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, "2025-03", archive.ID)

	require.NoError(t, r.Transactions.FetchArchives(ctx, 12))
	s := r.GetState().Transactions
	require.Len(t, s.Archives, 1)
	assert.Equal(t, archive.ID, s.Archives[0].ID)
}
