// Package service defines the Domain Service contracts the stores depend on.
// Implementations live in service/mock (in-memory) and database (MongoDB).
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fintrack/internal/models"

	"github.com/shopspring/decimal"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrInvalidInput       = errors.New("invalid input")
	ErrInvalidToken       = errors.New("invalid token")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrConflict           = errors.New("already exists")
	ErrUnavailable        = errors.New("service unavailable")
)

// Invalid wraps a validation failure so that it matches ErrInvalidInput while
// keeping the rule list reachable through errors.As.
func Invalid(err error) error {
	return fmt.Errorf("%w: %w", ErrInvalidInput, err)
}

// NotFound reports a missing entity of the given kind.
func NotFound(kind, id string) error {
	return fmt.Errorf("%s %q %w", kind, id, ErrNotFound)
}

// AuthService authenticates users and manages their session tokens.
type AuthService interface {
	Login(ctx context.Context, in models.Credentials) Result[models.Session]
	Register(ctx context.Context, in models.Registration) Result[models.Session]
	Logout(ctx context.Context, accessToken string) Result[struct{}]
	Refresh(ctx context.Context, refreshToken string) Result[models.Session]
	Profile(ctx context.Context, accessToken string) Result[models.User]
	UpdateProfile(ctx context.Context, accessToken string, p models.ProfileUpdate) Result[models.User]
}

// TransactionService stores transactions and their monthly archives.
type TransactionService interface {
	List(ctx context.Context, f models.Filter, page models.PageRequest) Result[models.TransactionPage]
	Get(ctx context.Context, id string) Result[models.Transaction]
	Create(ctx context.Context, in models.TransactionInput) Result[models.Transaction]
	Update(ctx context.Context, id string, p models.TransactionPatch) Result[models.Transaction]
	Delete(ctx context.Context, id string) Result[string]
	Archive(ctx context.Context, month time.Time) Result[models.MonthlyArchive]
	Archives(ctx context.Context, limit int) Result[[]models.MonthlyArchive]
}

// BudgetService stores budgets, their categories and savings goals.
type BudgetService interface {
	List(ctx context.Context) Result[[]models.Budget]
	Create(ctx context.Context, in models.BudgetInput) Result[models.Budget]
	Update(ctx context.Context, id string, p models.BudgetPatch) Result[models.Budget]
	Delete(ctx context.Context, id string) Result[string]
	AddCategory(ctx context.Context, budgetID string, in models.CategoryInput) Result[models.BudgetCategory]
	UpdateCategory(ctx context.Context, budgetID, categoryID string, p models.CategoryPatch) Result[models.BudgetCategory]
	DeleteCategory(ctx context.Context, budgetID, categoryID string) Result[string]
	RecordSpend(ctx context.Context, budgetID, categoryID string, delta decimal.Decimal) Result[models.BudgetCategory]

	ListGoals(ctx context.Context) Result[[]models.Goal]
	CreateGoal(ctx context.Context, in models.GoalInput) Result[models.Goal]
	UpdateGoal(ctx context.Context, id string, p models.GoalPatch) Result[models.Goal]
	DeleteGoal(ctx context.Context, id string) Result[string]
}

// InvestmentService stores investment positions and serves quotes.
type InvestmentService interface {
	List(ctx context.Context) Result[[]models.Investment]
	Create(ctx context.Context, in models.InvestmentInput) Result[models.Investment]
	Update(ctx context.Context, id string, p models.InvestmentPatch) Result[models.Investment]
	Delete(ctx context.Context, id string) Result[string]
	Quotes(ctx context.Context, symbols []string) Result[map[string]decimal.Decimal]
}

// Services bundles one implementation of every domain service.
type Services struct {
	Auth         AuthService
	Transactions TransactionService
	Budgets      BudgetService
	Investments  InvestmentService
}
