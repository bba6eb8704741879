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

// failingBudgets rejects category writes and delegates everything else.
type failingBudgets struct {
	service.BudgetService
}

func (failingBudgets) DeleteCategory(context.Context, string, string) service.Result[string] {
	return service.Err[string](service.ErrUnavailable)
}

func (failingBudgets) RecordSpend(context.Context, string, string, decimal.Decimal) service.Result[models.BudgetCategory] {
	return service.Err[models.BudgetCategory](service.ErrUnavailable)
}

func assertBudgetTotals(t *testing.T, s BudgetState) {
	t.Helper()
	total, spent := decimal.Zero, decimal.Zero
	for _, b := range s.Budgets {
		bt, bs := decimal.Zero, decimal.Zero
		for _, c := range b.Categories {
			bt = bt.Add(c.BudgetedAmount)
			bs = bs.Add(c.SpentAmount)
			assert.True(t, c.RemainingAmount.Equal(c.BudgetedAmount.Sub(c.SpentAmount)), c.Name)
		}
		assert.True(t, b.TotalBudget.Equal(bt), b.Name)
		assert.True(t, b.TotalSpent.Equal(bs), b.Name)
		total, spent = total.Add(bt), spent.Add(bs)
	}
	assert.True(t, s.TotalBudget.Equal(total))
	assert.True(t, s.TotalSpent.Equal(spent))
	assert.True(t, s.TotalRemaining.Equal(total.Sub(spent)))
}

func groceriesBudget() models.BudgetInput {
	return models.BudgetInput{
		Name:       "March groceries",
		Period:     models.PeriodMonthly,
		StartDate:  now.AddDate(0, 0, -14),
		EndDate:    now.AddDate(0, 0, 17),
		Categories: []models.CategoryInput{{Name: "Groceries", BudgetedAmount: decimal.NewFromInt(500)}},
	}
}

func TestBudgets_FetchTotals(t *testing.T) {
	_, svc := seeded(t)
	r := newRoot(svc)
	require.NoError(t, r.Budgets.Fetch(context.Background()))

	s := r.GetState().Budgets
	require.Len(t, s.Budgets, 1)
	assertDecimal(t, "800", s.TotalBudget)
	assertDecimal(t, "174.04", s.TotalSpent)
	assertDecimal(t, "625.96", s.TotalRemaining)
	assertBudgetTotals(t, s)
}

func TestBudgets_RecordSpendOverBudget(t *testing.T) {
	_, svc := seeded(t)
	r := newRoot(svc)
	ctx := context.Background()

	b, err := r.Budgets.Create(ctx, groceriesBudget())
	require.NoError(t, err)
	cat := b.Categories[0]

	_, err = r.Budgets.RecordSpend(ctx, b.ID, cat.ID, decimal.NewFromInt(120))
	require.NoError(t, err)
	_, err = r.Budgets.RecordSpend(ctx, b.ID, cat.ID, decimal.NewFromInt(430))
	require.NoError(t, err)

	s := r.GetState().Budgets
	got, ok := findID(s.Budgets, b.ID, budgetID)
	require.True(t, ok)
	c, ok := got.Category(cat.ID)
	require.True(t, ok)
	assertDecimal(t, "550", c.SpentAmount)
	assertDecimal(t, "-50", c.RemainingAmount)
	assert.InDelta(t, 110.0, c.PercentageUsed, 1e-9)
	assertDecimal(t, "-50", got.TotalRemaining)
	assertBudgetTotals(t, s)
}

func TestBudgets_ZeroDeltaRejectedLocally(t *testing.T) {
	_, svc := seeded(t)
	r := newRoot(svc)

	_, err := r.Budgets.RecordSpend(context.Background(), "b", "c", decimal.Zero)
	assert.ErrorIs(t, err, service.ErrInvalidInput)
	assert.Contains(t, r.GetState().Budgets.Error, "record spend")
}

func TestBudgets_CategoryLifecycle(t *testing.T) {
	_, svc := seeded(t)
	r := newRoot(svc)
	ctx := context.Background()
	b, err := r.Budgets.Create(ctx, groceriesBudget())
	require.NoError(t, err)

	added, err := r.Budgets.AddCategory(ctx, b.ID, models.CategoryInput{Name: "Snacks", BudgetedAmount: decimal.NewFromInt(40)})
	require.NoError(t, err)
	assertDecimal(t, "540", r.GetState().Budgets.TotalBudget)

	_, err = r.Budgets.UpdateCategory(ctx, b.ID, added.ID, models.CategoryPatch{BudgetedAmount: ptr(decimal.NewFromInt(60))})
	require.NoError(t, err)
	assertDecimal(t, "560", r.GetState().Budgets.TotalBudget)

	require.NoError(t, r.Budgets.DeleteCategory(ctx, b.ID, added.ID))
	s := r.GetState().Budgets
	assertDecimal(t, "500", s.TotalBudget)
	assertBudgetTotals(t, s)

	require.NoError(t, r.Budgets.Delete(ctx, b.ID))
	assert.Empty(t, r.GetState().Budgets.Budgets)
}

func TestBudgets_RejectedWritesLeaveBudgetsUnchanged(t *testing.T) {
	_, svc := seeded(t)
	svc.Budgets = failingBudgets{BudgetService: svc.Budgets}
	r := newRoot(svc)
	ctx := context.Background()
	require.NoError(t, r.Budgets.Fetch(ctx))
	before := r.GetState().Budgets
	b := before.Budgets[0]

	_, err := r.Budgets.RecordSpend(ctx, b.ID, b.Categories[0].ID, decimal.NewFromInt(10))
	assert.ErrorIs(t, err, service.ErrUnavailable)
	assert.ErrorIs(t, r.Budgets.DeleteCategory(ctx, b.ID, b.Categories[0].ID), service.ErrUnavailable)

	after := r.GetState().Budgets
	assert.Equal(t, before.Budgets, after.Budgets)
	assert.True(t, before.TotalSpent.Equal(after.TotalSpent))
	assert.NotEmpty(t, after.Error)
}

func TestBudgets_GoalContributions(t *testing.T) {
	_, svc := seeded(t)
	r := newRoot(svc)
	ctx := context.Background()
	require.NoError(t, r.Budgets.FetchGoals(ctx))
	goal := r.GetState().Budgets.Goals[0]
	assert.InDelta(t, 25.0, goal.Progress, 1e-9)

	got, err := r.Budgets.ContributeGoal(ctx, goal.ID, decimal.NewFromInt(7600))
	require.NoError(t, err)
	assertDecimal(t, "10000", got.CurrentAmount)
	assert.Equal(t, models.GoalCompleted, got.Status)

	stored := r.GetState().Budgets.Goals[0]
	assert.InDelta(t, 100.0, stored.Progress, 1e-9)

	_, err = r.Budgets.SetGoalStatus(ctx, goal.ID, models.GoalInProgress)
	assert.ErrorIs(t, err, service.ErrInvalidInput)
	_, err = r.Budgets.ContributeGoal(ctx, goal.ID, decimal.NewFromInt(1))
	assert.ErrorIs(t, err, service.ErrInvalidInput)
	assert.Equal(t, models.GoalCompleted, r.GetState().Budgets.Goals[0].Status)
}

func TestBudgets_GoalLifecycle(t *testing.T) {
	_, svc := seeded(t)
	r := newRoot(svc)
	ctx := context.Background()

	g, err := r.Budgets.CreateGoal(ctx, models.GoalInput{
		Title:        "Bike",
		TargetAmount: decimal.NewFromInt(800),
		TargetDate:   now.AddDate(0, 6, 0),
		Priority:     models.PriorityMedium,
	})
	require.NoError(t, err)
	assert.Equal(t, models.GoalNotStarted, g.Status)

	g, err = r.Budgets.ContributeGoal(ctx, g.ID, decimal.NewFromInt(100))
	require.NoError(t, err)
	assert.Equal(t, models.GoalInProgress, g.Status)

	g, err = r.Budgets.SetGoalStatus(ctx, g.ID, models.GoalPaused)
	require.NoError(t, err)
	assert.Equal(t, models.GoalPaused, g.Status)

	_, err = r.Budgets.SetGoalStatus(ctx, g.ID, models.GoalOnTrack)
	assert.ErrorIs(t, err, service.ErrInvalidInput)

	g, err = r.Budgets.UpdateGoal(ctx, g.ID, models.GoalPatch{Title: ptr("Road bike"), Status: ptr(models.GoalInProgress)})
	require.NoError(t, err)
	assert.Equal(t, "Road bike", g.Title)

	require.NoError(t, r.Budgets.DeleteGoal(ctx, g.ID))
	_, ok := findID(r.GetState().Budgets.Goals, g.ID, goalID)
	assert.False(t, ok)
}

func TestBudgets_UnknownGoalContribution(t *testing.T) {
	_, svc := seeded(t)
	r := newRoot(svc)

	_, err := r.Budgets.ContributeGoal(context.Background(), "missing", decimal.NewFromInt(5))
	assert.ErrorIs(t, err, service.ErrNotFound)
}
