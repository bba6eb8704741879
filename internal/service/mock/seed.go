package mock

import (
	"fmt"

	"fintrack/internal/auth"
	"fintrack/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Demo account created by Seed.
const (
	DemoEmail    = "demo@fintrack.local"
	DemoPassword = "demo1234"
)

// Seed fills the backend with a demo user and a month of sample data.
func (b *Backend) Seed() error {
	hash, err := auth.HashPassword(DemoPassword)
	if err != nil {
		return fmt.Errorf("failed to seed demo user: %w", err)
	}
	now := b.now()
	b.mu.Lock()
	defer b.mu.Unlock()

	user := models.User{
		ID:        uuid.NewString(),
		Email:     DemoEmail,
		FirstName: "Demo",
		LastName:  "User",
		Currency:  "USD",
		CreatedAt: now,
	}
	b.users[user.ID] = userRecord{user: user, passwordHash: hash}
	b.emails[user.Email] = user.ID

	checking := models.Account{ID: "acc-checking", Name: "Checking", Type: "checking"}
	samples := []struct {
		amount   string
		desc     string
		category string
		merchant string
		daysAgo  int
	}{
		{"3200.00", "Salary", "Income", "Employer Inc", 14},
		{"-54.20", "Weekly groceries", "Groceries", "FreshMart", 12},
		{"-1200.00", "Rent", "Household", "City Apartments", 10},
		{"-38.75", "Dinner", "Dining Out", "Luigi's", 6},
		{"-19.99", "Streaming", "Entertainment", "StreamFlix", 3},
		{"-61.10", "Groceries", "Groceries", "FreshMart", 1},
	}
	for _, s := range samples {
		tx := models.NewTransaction(uuid.NewString(), models.TransactionInput{
			Amount:      decimal.RequireFromString(s.amount),
			Description: s.desc,
			Category:    s.category,
			Merchant:    models.Merchant{ID: uuid.NewString(), Name: s.merchant, Category: s.category},
			Date:        now.AddDate(0, 0, -s.daysAgo),
			Account:     checking,
		})
		tx.CreatedAt, tx.UpdatedAt = now, now
		b.transactions[tx.ID] = tx
	}

	start := now.AddDate(0, 0, 1-now.Day())
	budget := models.Budget{
		ID:        uuid.NewString(),
		Name:      start.Format("January 2006"),
		Period:    models.PeriodMonthly,
		StartDate: start,
		EndDate:   start.AddDate(0, 1, 0),
		CreatedAt: now,
		UpdatedAt: now,
	}
	for _, c := range []models.CategoryInput{
		{Name: "Groceries", BudgetedAmount: decimal.NewFromInt(500), SpentAmount: decimal.RequireFromString("115.30")},
		{Name: "Dining Out", BudgetedAmount: decimal.NewFromInt(200), SpentAmount: decimal.RequireFromString("38.75")},
		{Name: "Entertainment", BudgetedAmount: decimal.NewFromInt(100), SpentAmount: decimal.RequireFromString("19.99")},
	} {
		budget.Categories = append(budget.Categories, newCategory(c))
	}
	b.budgets[budget.ID] = budget

	goal := models.Goal{
		ID:            uuid.NewString(),
		Title:         "Emergency fund",
		TargetAmount:  decimal.NewFromInt(10000),
		CurrentAmount: decimal.NewFromInt(2500),
		TargetDate:    now.AddDate(1, 0, 0),
		Priority:      models.PriorityHigh,
		Status:        models.GoalInProgress,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	b.goals[goal.ID] = goal

	for _, inv := range []models.Investment{
		{Symbol: "VTI", Name: "Vanguard Total Stock Market ETF", Type: "etf", Shares: decimal.NewFromInt(10), CurrentPrice: decimal.RequireFromString("250.10"), TotalCost: decimal.NewFromInt(2200)},
		{Symbol: "AAPL", Name: "Apple Inc.", Type: "stock", Shares: decimal.NewFromInt(5), CurrentPrice: decimal.RequireFromString("189.50"), TotalCost: decimal.NewFromInt(800)},
	} {
		inv.ID = uuid.NewString()
		inv.UpdatedAt = now
		b.investments[inv.ID] = inv
		b.quotes[inv.Symbol] = inv.CurrentPrice
	}
	return nil
}
