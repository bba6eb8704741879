// Package mock implements the domain services in memory with a simulated
// network round trip. It backs development runs and tests.
package mock

import (
	"context"
	"strings"
	"sync"
	"time"

	"fintrack/internal/auth"
	"fintrack/internal/models"
	"fintrack/internal/service"

	"github.com/shopspring/decimal"
)

type userRecord struct {
	user         models.User
	passwordHash string
}

// Backend holds the in-memory data shared by the mock services.
type Backend struct {
	latency time.Duration
	now     func() time.Time
	issuer  *auth.Issuer

	mu           sync.RWMutex
	users        map[string]userRecord // by id
	emails       map[string]string     // email -> user id
	sessions     map[string]string     // refresh token hash -> user id
	revoked      map[string]bool       // access token hash
	transactions map[string]models.Transaction
	archives     map[string]models.MonthlyArchive
	budgets      map[string]models.Budget
	goals        map[string]models.Goal
	investments  map[string]models.Investment
	quotes       map[string]decimal.Decimal
}

// Option configures a Backend.
type Option func(*Backend)

// WithLatency sets the simulated round trip of every call.
func WithLatency(d time.Duration) Option {
	return func(b *Backend) { b.latency = d }
}

// WithClock sets the time source.
func WithClock(now func() time.Time) Option {
	return func(b *Backend) { b.now = now }
}

// WithIssuer sets the token issuer.
func WithIssuer(i *auth.Issuer) Option {
	return func(b *Backend) { b.issuer = i }
}

// New creates an empty backend.
func New(opts ...Option) *Backend {
	b := &Backend{
		now:          time.Now,
		users:        make(map[string]userRecord),
		emails:       make(map[string]string),
		sessions:     make(map[string]string),
		revoked:      make(map[string]bool),
		transactions: make(map[string]models.Transaction),
		archives:     make(map[string]models.MonthlyArchive),
		budgets:      make(map[string]models.Budget),
		goals:        make(map[string]models.Goal),
		investments:  make(map[string]models.Investment),
		quotes:       make(map[string]decimal.Decimal),
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.issuer == nil {
		b.issuer = auth.NewIssuer("mock-secret")
	}
	b.issuer = b.issuer.WithClock(b.now)
	return b
}

// Services returns the four domain services backed by b.
func (b *Backend) Services() service.Services {
	return service.Services{
		Auth:         &authService{b},
		Transactions: &transactionService{b},
		Budgets:      &budgetService{b},
		Investments:  &investmentService{b},
	}
}

// SetQuote sets the price served for symbol.
func (b *Backend) SetQuote(symbol string, price decimal.Decimal) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.quotes[strings.ToUpper(symbol)] = price
}

// wait simulates the round trip, returning early when ctx is done.
func (b *Backend) wait(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if b.latency <= 0 {
		return nil
	}
	t := time.NewTimer(b.latency)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
