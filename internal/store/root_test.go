package store

import (
	"context"
	"sync"
	"testing"
	"time"

	"fintrack/internal/models"
	"fintrack/internal/service"
	"fintrack/internal/service/mock"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2025, 3, 15, 12, 0, 0, 0, time.UTC)

func clock() time.Time { return now }

// seeded returns a mock backend filled with demo data and its services.
func seeded(t *testing.T) (*mock.Backend, service.Services) {
	t.Helper()
	b := mock.New(mock.WithClock(clock))
	require.NoError(t, b.Seed())
	return b, b.Services()
}

func newRoot(svc service.Services, opts ...Option) *Root {
	return New(svc, append([]Option{WithClock(clock)}, opts...)...)
}

func assertDecimal(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.True(t, decimal.RequireFromString(want).Equal(got), "want %s, got %s", want, got)
}

// blockingTransactions holds List calls until release is closed.
type blockingTransactions struct {
	service.TransactionService
	started chan struct{}
	release chan struct{}
	page    models.TransactionPage
}

func newBlocking(page models.TransactionPage) *blockingTransactions {
	return &blockingTransactions{
		started: make(chan struct{}, 8),
		release: make(chan struct{}),
		page:    page,
	}
}

func (b *blockingTransactions) List(context.Context, models.Filter, models.PageRequest) service.Result[models.TransactionPage] {
	b.started <- struct{}{}
	<-b.release
	return service.Ok(b.page)
}

// slowTransactions waits for the call context to end.
type slowTransactions struct {
	service.TransactionService
}

func (slowTransactions) List(ctx context.Context, _ models.Filter, _ models.PageRequest) service.Result[models.TransactionPage] {
	<-ctx.Done()
	return service.Err[models.TransactionPage](ctx.Err())
}

type recordingObserver struct {
	mu       sync.Mutex
	started  []string
	outcomes []Outcome
}

func (o *recordingObserver) OperationStarted(_ Slice, op string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.started = append(o.started, op)
}

func (o *recordingObserver) OperationFinished(_ Slice, _ string, outcome Outcome, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.outcomes = append(o.outcomes, outcome)
}

func onePage() models.TransactionPage {
	return models.TransactionPage{
		Items: []models.Transaction{{ID: "t1", Amount: decimal.NewFromInt(-10), Category: "Food", Date: now}},
		Page:  1, PageSize: 20, Total: 1,
	}
}

func TestNew_InitialState(t *testing.T) {
	_, svc := seeded(t)
	r := newRoot(svc, WithPageSize(5))

	s := r.GetState()
	for _, slice := range Slices {
		st := s.Status(slice)
		assert.False(t, st.Loading, slice)
		assert.Empty(t, st.Error, slice)
		assert.True(t, st.LastUpdated.IsZero(), slice)
	}
	assert.False(t, s.Auth.IsAuthenticated)
	assert.Equal(t, 5, s.Transactions.PageSize)
	assert.True(t, s.Transactions.HasMore)
	assertDecimal(t, "0", s.Budgets.TotalBudget)
}

func TestSubscribe_ReceivesCommitsInOrder(t *testing.T) {
	_, svc := seeded(t)
	r := newRoot(svc)

	var seen []bool
	unsubscribe := r.Subscribe(func(s State) {
		seen = append(seen, s.Transactions.Loading)
	})
	require.NoError(t, r.Transactions.Fetch(context.Background()))
	assert.Equal(t, []bool{true, false}, seen)

	unsubscribe()
	unsubscribe()
	require.NoError(t, r.Transactions.Fetch(context.Background()))
	assert.Len(t, seen, 2)
}

func TestSnapshot_NotMutatedByLaterCommits(t *testing.T) {
	_, svc := seeded(t)
	r := newRoot(svc)
	ctx := context.Background()
	require.NoError(t, r.Transactions.Fetch(ctx))

	before := r.GetState().Transactions
	first := before.Items[0]
	_, err := r.Transactions.Update(ctx, first.ID, models.TransactionPatch{Description: ptr("edited")})
	require.NoError(t, err)

	assert.Equal(t, first.Description, before.Items[0].Description)
	after, ok := findID(r.GetState().Transactions.Items, first.ID, transactionID)
	require.True(t, ok)
	assert.Equal(t, "edited", after.Description)
}

func TestRun_ResetDropsLateResult(t *testing.T) {
	_, svc := seeded(t)
	blocking := newBlocking(onePage())
	svc.Transactions = blocking
	obs := &recordingObserver{}
	r := newRoot(svc, WithObserver(obs))

	errc := make(chan error, 1)
	go func() { errc <- r.Transactions.Fetch(context.Background()) }()
	<-blocking.started
	assert.True(t, r.GetState().Transactions.Loading)

	r.Reset()
	close(blocking.release)
	err := <-errc

	assert.ErrorIs(t, err, ErrStale)
	s := r.GetState().Transactions
	assert.Empty(t, s.Items)
	assert.False(t, s.Loading)
	assert.Empty(t, s.Error)
	assert.Equal(t, []Outcome{OutcomeStale}, obs.outcomes)
}

func TestRun_CancelledContextIsNoOp(t *testing.T) {
	_, svc := seeded(t)
	blocking := newBlocking(onePage())
	svc.Transactions = blocking
	r := newRoot(svc)

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- r.Transactions.Fetch(ctx) }()
	<-blocking.started
	cancel()
	close(blocking.release)

	assert.ErrorIs(t, <-errc, ErrStale)
	s := r.GetState().Transactions
	assert.Empty(t, s.Items)
	assert.False(t, s.Loading)
	assert.Empty(t, s.Error)
	assert.True(t, s.LastUpdated.IsZero())
}

func TestRun_TimeoutIsRejection(t *testing.T) {
	_, svc := seeded(t)
	svc.Transactions = slowTransactions{}
	r := newRoot(svc, WithTimeout(10*time.Millisecond))

	err := r.Transactions.Fetch(context.Background())
	assert.ErrorIs(t, err, ErrTimeout)
	s := r.GetState().Transactions
	assert.False(t, s.Loading)
	assert.Contains(t, s.Error, "operation timed out")
}

func TestRun_LoadingUntilLastOperationSettles(t *testing.T) {
	_, svc := seeded(t)
	blocking := newBlocking(onePage())
	svc.Transactions = blocking
	r := newRoot(svc)

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = r.Transactions.Fetch(context.Background())
		}()
	}
	<-blocking.started
	<-blocking.started
	assert.True(t, r.GetState().Transactions.Loading)

	close(blocking.release)
	wg.Wait()
	s := r.GetState().Transactions
	assert.False(t, s.Loading)
	assert.Len(t, s.Items, 1)
}

func TestDispatch_ClearError(t *testing.T) {
	_, svc := seeded(t)
	r := newRoot(svc)

	_, err := r.Transactions.Create(context.Background(), models.TransactionInput{})
	require.Error(t, err)
	require.NotEmpty(t, r.GetState().Transactions.Error)

	r.Dispatch(ClearError{Slice: SliceTransactions})
	assert.Empty(t, r.GetState().Transactions.Error)
}

func TestDispatch_ClearErrorZeroValueClearsEverySlice(t *testing.T) {
	_, svc := seeded(t)
	r := newRoot(svc)
	ctx := context.Background()

	_, err := r.Transactions.Create(ctx, models.TransactionInput{})
	require.Error(t, err)
	_, err = r.Investments.Create(ctx, models.InvestmentInput{})
	require.Error(t, err)

	require.NotPanics(t, func() { r.Dispatch(ClearError{}) })
	s := r.GetState()
	assert.Empty(t, s.Transactions.Error)
	assert.Empty(t, s.Investments.Error)

	require.NotPanics(t, func() { r.Dispatch(ClearError{Slice: "ledger"}) })
	assert.Equal(t, Status{}, s.Status("ledger"))

	// the root stays usable
	require.NoError(t, r.Budgets.Fetch(ctx))
	assert.NotEmpty(t, r.GetState().Budgets.Budgets)
}

func TestReset_EmptiesEverySlice(t *testing.T) {
	_, svc := seeded(t)
	r := newRoot(svc)
	ctx := context.Background()
	_, err := r.Auth.Login(ctx, models.Credentials{Email: mock.DemoEmail, Password: mock.DemoPassword})
	require.NoError(t, err)
	require.NoError(t, r.Budgets.Fetch(ctx))

	r.Reset()
	s := r.GetState()
	assert.False(t, s.Auth.IsAuthenticated)
	assert.Empty(t, s.Budgets.Budgets)
	assertDecimal(t, "0", s.Budgets.TotalBudget)
}

func ptr[T any](v T) *T { return &v }
