package store

import (
	"context"
	"fmt"

	"fintrack/internal/models"
	"fintrack/internal/service"
	"fintrack/internal/validation"

	"github.com/shopspring/decimal"
)

// BudgetStore owns budgets, their categories and savings goals.
type BudgetStore struct {
	root *Root
	svc  service.BudgetService
}

func recomputeBudgets(b *BudgetState) {
	total, spent := decimal.Zero, decimal.Zero
	budgets := make([]models.Budget, len(b.Budgets))
	for i, bud := range b.Budgets {
		bud.Categories = recomputeCategories(bud.Categories)
		bud.TotalBudget, bud.TotalSpent = decimal.Zero, decimal.Zero
		for _, c := range bud.Categories {
			bud.TotalBudget = bud.TotalBudget.Add(c.BudgetedAmount)
			bud.TotalSpent = bud.TotalSpent.Add(c.SpentAmount)
		}
		bud.TotalRemaining = bud.TotalBudget.Sub(bud.TotalSpent)
		total = total.Add(bud.TotalBudget)
		spent = spent.Add(bud.TotalSpent)
		budgets[i] = bud
	}
	b.Budgets = budgets
	b.TotalBudget = total
	b.TotalSpent = spent
	b.TotalRemaining = total.Sub(spent)

	goals := make([]models.Goal, len(b.Goals))
	for i, g := range b.Goals {
		g.Progress = min(percentOf(g.CurrentAmount, g.TargetAmount), 100)
		goals[i] = g
	}
	b.Goals = goals
}

func recomputeCategories(in []models.BudgetCategory) []models.BudgetCategory {
	out := make([]models.BudgetCategory, len(in))
	for i, c := range in {
		c.RemainingAmount = c.BudgetedAmount.Sub(c.SpentAmount)
		c.PercentageUsed = percentOf(c.SpentAmount, c.BudgetedAmount)
		out[i] = c
	}
	return out
}

// withCategory returns budgets with edit applied to the categories of one budget.
func withCategory(budgets []models.Budget, id string, edit func([]models.BudgetCategory) []models.BudgetCategory) []models.Budget {
	b, ok := findID(budgets, id, budgetID)
	if !ok {
		return budgets
	}
	b.Categories = edit(b.Categories)
	return upsert(budgets, b, budgetID)
}

func (b *BudgetStore) budget(id string) (models.Budget, bool) {
	return findID(b.root.GetState().Budgets.Budgets, id, budgetID)
}

func (b *BudgetStore) goal(id string) (models.Goal, bool) {
	return findID(b.root.GetState().Budgets.Goals, id, goalID)
}

// Fetch replaces every budget.
func (b *BudgetStore) Fetch(ctx context.Context) error {
	_, err := run(ctx, b.root, operation[[]models.Budget]{
		slice: SliceBudgets,
		name:  "fetch budgets",
		call:  b.svc.List,
		fulfilled: func(s *State, budgets []models.Budget) {
			s.Budgets.Budgets = append([]models.Budget{}, budgets...)
		},
	})
	return err
}

// Create validates in, then adds the created budget.
func (b *BudgetStore) Create(ctx context.Context, in models.BudgetInput) (models.Budget, error) {
	const name = "create budget"
	if err := validation.Budget(in).Err(); err != nil {
		return models.Budget{}, b.root.reject(SliceBudgets, name, service.Invalid(err), nil)
	}
	return run(ctx, b.root, operation[models.Budget]{
		slice: SliceBudgets,
		name:  name,
		call: func(ctx context.Context) service.Result[models.Budget] {
			return b.svc.Create(ctx, in)
		},
		fulfilled: func(s *State, bud models.Budget) {
			s.Budgets.Budgets = upsert(s.Budgets.Budgets, bud, budgetID)
		},
	})
}

// Update edits the budget fields. Categories have their own operations.
func (b *BudgetStore) Update(ctx context.Context, id string, p models.BudgetPatch) (models.Budget, error) {
	const name = "update budget"
	if cur, ok := b.budget(id); ok {
		if err := validation.BudgetPatch(p, cur).Err(); err != nil {
			return models.Budget{}, b.root.reject(SliceBudgets, name, service.Invalid(err), nil)
		}
	}
	return run(ctx, b.root, operation[models.Budget]{
		slice: SliceBudgets,
		name:  name,
		call: func(ctx context.Context) service.Result[models.Budget] {
			return b.svc.Update(ctx, id, p)
		},
		fulfilled: func(s *State, bud models.Budget) {
			s.Budgets.Budgets = upsert(s.Budgets.Budgets, bud, budgetID)
		},
	})
}

// Delete removes a budget and its categories.
func (b *BudgetStore) Delete(ctx context.Context, id string) error {
	_, err := run(ctx, b.root, operation[string]{
		slice: SliceBudgets,
		name:  "delete budget",
		call: func(ctx context.Context) service.Result[string] {
			return b.svc.Delete(ctx, id)
		},
		fulfilled: func(s *State, deleted string) {
			s.Budgets.Budgets = removeID(s.Budgets.Budgets, deleted, budgetID)
		},
	})
	return err
}

// AddCategory appends a category to a budget.
func (b *BudgetStore) AddCategory(ctx context.Context, budget string, in models.CategoryInput) (models.BudgetCategory, error) {
	const name = "add category"
	if err := validation.Category(in).Err(); err != nil {
		return models.BudgetCategory{}, b.root.reject(SliceBudgets, name, service.Invalid(err), nil)
	}
	return run(ctx, b.root, operation[models.BudgetCategory]{
		slice: SliceBudgets,
		name:  name,
		call: func(ctx context.Context) service.Result[models.BudgetCategory] {
			return b.svc.AddCategory(ctx, budget, in)
		},
		fulfilled: b.putCategory(budget),
	})
}

// UpdateCategory edits one category of a budget.
func (b *BudgetStore) UpdateCategory(ctx context.Context, budget, category string, p models.CategoryPatch) (models.BudgetCategory, error) {
	const name = "update category"
	if err := validation.CategoryPatch(p).Err(); err != nil {
		return models.BudgetCategory{}, b.root.reject(SliceBudgets, name, service.Invalid(err), nil)
	}
	return run(ctx, b.root, operation[models.BudgetCategory]{
		slice: SliceBudgets,
		name:  name,
		call: func(ctx context.Context) service.Result[models.BudgetCategory] {
			return b.svc.UpdateCategory(ctx, budget, category, p)
		},
		fulfilled: b.putCategory(budget),
	})
}

// DeleteCategory removes one category of a budget.
func (b *BudgetStore) DeleteCategory(ctx context.Context, budget, category string) error {
	_, err := run(ctx, b.root, operation[string]{
		slice: SliceBudgets,
		name:  "delete category",
		call: func(ctx context.Context) service.Result[string] {
			return b.svc.DeleteCategory(ctx, budget, category)
		},
		fulfilled: func(s *State, deleted string) {
			s.Budgets.Budgets = withCategory(s.Budgets.Budgets, budget, func(cs []models.BudgetCategory) []models.BudgetCategory {
				return removeID(cs, deleted, categoryID)
			})
		},
	})
	return err
}

// RecordSpend adds delta to the spent amount of a category. A negative delta
// reverses earlier spend.
func (b *BudgetStore) RecordSpend(ctx context.Context, budget, category string, delta decimal.Decimal) (models.BudgetCategory, error) {
	const name = "record spend"
	if delta.IsZero() {
		return models.BudgetCategory{}, b.root.reject(SliceBudgets, name,
			service.Invalid(fmt.Errorf("spend delta must not be zero")), nil)
	}
	return run(ctx, b.root, operation[models.BudgetCategory]{
		slice: SliceBudgets,
		name:  name,
		call: func(ctx context.Context) service.Result[models.BudgetCategory] {
			return b.svc.RecordSpend(ctx, budget, category, delta)
		},
		fulfilled: b.putCategory(budget),
	})
}

func (b *BudgetStore) putCategory(budget string) func(s *State, c models.BudgetCategory) {
	return func(s *State, c models.BudgetCategory) {
		s.Budgets.Budgets = withCategory(s.Budgets.Budgets, budget, func(cs []models.BudgetCategory) []models.BudgetCategory {
			return upsert(cs, c, categoryID)
		})
	}
}

// FetchGoals replaces every savings goal.
func (b *BudgetStore) FetchGoals(ctx context.Context) error {
	_, err := run(ctx, b.root, operation[[]models.Goal]{
		slice: SliceBudgets,
		name:  "fetch goals",
		call:  b.svc.ListGoals,
		fulfilled: func(s *State, goals []models.Goal) {
			s.Budgets.Goals = append([]models.Goal{}, goals...)
		},
	})
	return err
}

// CreateGoal validates in, then adds the created goal.
func (b *BudgetStore) CreateGoal(ctx context.Context, in models.GoalInput) (models.Goal, error) {
	const name = "create goal"
	if err := validation.Goal(in, b.root.now()).Err(); err != nil {
		return models.Goal{}, b.root.reject(SliceBudgets, name, service.Invalid(err), nil)
	}
	return run(ctx, b.root, operation[models.Goal]{
		slice: SliceBudgets,
		name:  name,
		call: func(ctx context.Context) service.Result[models.Goal] {
			return b.svc.CreateGoal(ctx, in)
		},
		fulfilled: b.putGoal,
	})
}

// UpdateGoal applies p to a goal. A known goal is checked locally first,
// including its status transition.
func (b *BudgetStore) UpdateGoal(ctx context.Context, id string, p models.GoalPatch) (models.Goal, error) {
	return b.updateGoal(ctx, "update goal", id, p)
}

// ContributeGoal adds amount to a goal's saved amount.
func (b *BudgetStore) ContributeGoal(ctx context.Context, id string, amount decimal.Decimal) (models.Goal, error) {
	const name = "contribute goal"
	cur, ok := b.goal(id)
	if !ok {
		return models.Goal{}, b.root.reject(SliceBudgets, name, service.NotFound("goal", id), nil)
	}
	next, err := cur.Contribute(amount)
	if err != nil {
		return models.Goal{}, b.root.reject(SliceBudgets, name, service.Invalid(err), nil)
	}
	p := models.GoalPatch{CurrentAmount: &next.CurrentAmount}
	if next.Status != cur.Status {
		p.Status = &next.Status
	}
	return b.updateGoal(ctx, name, id, p)
}

// SetGoalStatus moves a goal through its lifecycle.
func (b *BudgetStore) SetGoalStatus(ctx context.Context, id string, status models.GoalStatus) (models.Goal, error) {
	return b.updateGoal(ctx, "set goal status", id, models.GoalPatch{Status: &status})
}

func (b *BudgetStore) updateGoal(ctx context.Context, name, id string, p models.GoalPatch) (models.Goal, error) {
	if cur, ok := b.goal(id); ok {
		if err := validation.GoalPatch(p, cur).Err(); err != nil {
			return models.Goal{}, b.root.reject(SliceBudgets, name, service.Invalid(err), nil)
		}
		if _, err := p.Apply(cur); err != nil {
			return models.Goal{}, b.root.reject(SliceBudgets, name, service.Invalid(err), nil)
		}
	}
	return run(ctx, b.root, operation[models.Goal]{
		slice: SliceBudgets,
		name:  name,
		call: func(ctx context.Context) service.Result[models.Goal] {
			return b.svc.UpdateGoal(ctx, id, p)
		},
		fulfilled: b.putGoal,
	})
}

func (b *BudgetStore) putGoal(s *State, g models.Goal) {
	s.Budgets.Goals = upsert(s.Budgets.Goals, g, goalID)
}

// DeleteGoal removes a savings goal.
func (b *BudgetStore) DeleteGoal(ctx context.Context, id string) error {
	_, err := run(ctx, b.root, operation[string]{
		slice: SliceBudgets,
		name:  "delete goal",
		call: func(ctx context.Context) service.Result[string] {
			return b.svc.DeleteGoal(ctx, id)
		},
		fulfilled: func(s *State, deleted string) {
			s.Budgets.Goals = removeID(s.Budgets.Goals, deleted, goalID)
		},
	})
	return err
}
