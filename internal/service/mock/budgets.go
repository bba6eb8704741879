package mock

import (
	"context"
	"fmt"
	"slices"
	"sort"

	"fintrack/internal/models"
	"fintrack/internal/service"
	"fintrack/internal/validation"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type budgetService struct{ b *Backend }

func (s *budgetService) List(ctx context.Context) service.Result[[]models.Budget] {
	return service.Guard(func() service.Result[[]models.Budget] {
		if err := s.b.wait(ctx); err != nil {
			return service.Fail(err, []models.Budget{})
		}
		s.b.mu.RLock()
		defer s.b.mu.RUnlock()
		budgets := make([]models.Budget, 0, len(s.b.budgets))
		for _, b := range s.b.budgets {
			b.Categories = slices.Clone(b.Categories)
			budgets = append(budgets, b)
		}
		sort.Slice(budgets, func(i, j int) bool {
			if !budgets[i].StartDate.Equal(budgets[j].StartDate) {
				return budgets[i].StartDate.After(budgets[j].StartDate)
			}
			return budgets[i].ID < budgets[j].ID
		})
		return service.Ok(budgets)
	})
}

func (s *budgetService) Create(ctx context.Context, in models.BudgetInput) service.Result[models.Budget] {
	return service.Guard(func() service.Result[models.Budget] {
		if err := validation.Budget(in).Err(); err != nil {
			return service.Err[models.Budget](service.Invalid(err))
		}
		if err := s.b.wait(ctx); err != nil {
			return service.Err[models.Budget](err)
		}
		now := s.b.now()
		budget := models.Budget{
			ID:        uuid.NewString(),
			Name:      in.Name,
			Period:    in.Period,
			StartDate: in.StartDate,
			EndDate:   in.EndDate,
			CreatedAt: now,
			UpdatedAt: now,
		}
		for _, c := range in.Categories {
			budget.Categories = append(budget.Categories, newCategory(c))
		}
		s.b.mu.Lock()
		defer s.b.mu.Unlock()
		s.b.budgets[budget.ID] = budget
		return service.Ok(budget)
	})
}

func (s *budgetService) Update(ctx context.Context, id string, p models.BudgetPatch) service.Result[models.Budget] {
	return service.Guard(func() service.Result[models.Budget] {
		if err := s.b.wait(ctx); err != nil {
			return service.Err[models.Budget](err)
		}
		s.b.mu.Lock()
		defer s.b.mu.Unlock()
		budget, ok := s.b.budgets[id]
		if !ok {
			return service.Err[models.Budget](service.NotFound("budget", id))
		}
		if err := validation.BudgetPatch(p, budget).Err(); err != nil {
			return service.Err[models.Budget](service.Invalid(err))
		}
		budget = p.Apply(budget)
		budget.UpdatedAt = s.b.now()
		s.b.budgets[id] = budget
		budget.Categories = slices.Clone(budget.Categories)
		return service.Ok(budget)
	})
}

func (s *budgetService) Delete(ctx context.Context, id string) service.Result[string] {
	return service.Guard(func() service.Result[string] {
		if err := s.b.wait(ctx); err != nil {
			return service.Err[string](err)
		}
		s.b.mu.Lock()
		defer s.b.mu.Unlock()
		if _, ok := s.b.budgets[id]; !ok {
			return service.Err[string](service.NotFound("budget", id))
		}
		delete(s.b.budgets, id)
		return service.Ok(id)
	})
}

func (s *budgetService) AddCategory(ctx context.Context, budgetID string, in models.CategoryInput) service.Result[models.BudgetCategory] {
	return service.Guard(func() service.Result[models.BudgetCategory] {
		if err := validation.Category(in).Err(); err != nil {
			return service.Err[models.BudgetCategory](service.Invalid(err))
		}
		if err := s.b.wait(ctx); err != nil {
			return service.Err[models.BudgetCategory](err)
		}
		s.b.mu.Lock()
		defer s.b.mu.Unlock()
		budget, ok := s.b.budgets[budgetID]
		if !ok {
			return service.Err[models.BudgetCategory](service.NotFound("budget", budgetID))
		}
		category := newCategory(in)
		budget.Categories = append(slices.Clone(budget.Categories), category)
		budget.UpdatedAt = s.b.now()
		s.b.budgets[budgetID] = budget
		return service.Ok(category)
	})
}

func (s *budgetService) UpdateCategory(ctx context.Context, budgetID, categoryID string, p models.CategoryPatch) service.Result[models.BudgetCategory] {
	return service.Guard(func() service.Result[models.BudgetCategory] {
		if err := validation.CategoryPatch(p).Err(); err != nil {
			return service.Err[models.BudgetCategory](service.Invalid(err))
		}
		if err := s.b.wait(ctx); err != nil {
			return service.Err[models.BudgetCategory](err)
		}
		return s.editCategory(budgetID, categoryID, func(c models.BudgetCategory) (models.BudgetCategory, error) {
			return p.Apply(c), nil
		})
	})
}

func (s *budgetService) DeleteCategory(ctx context.Context, budgetID, categoryID string) service.Result[string] {
	return service.Guard(func() service.Result[string] {
		if err := s.b.wait(ctx); err != nil {
			return service.Err[string](err)
		}
		s.b.mu.Lock()
		defer s.b.mu.Unlock()
		budget, ok := s.b.budgets[budgetID]
		if !ok {
			return service.Err[string](service.NotFound("budget", budgetID))
		}
		i := slices.IndexFunc(budget.Categories, func(c models.BudgetCategory) bool { return c.ID == categoryID })
		if i < 0 {
			return service.Err[string](service.NotFound("category", categoryID))
		}
		budget.Categories = slices.Delete(slices.Clone(budget.Categories), i, i+1)
		budget.UpdatedAt = s.b.now()
		s.b.budgets[budgetID] = budget
		return service.Ok(categoryID)
	})
}

func (s *budgetService) RecordSpend(ctx context.Context, budgetID, categoryID string, delta decimal.Decimal) service.Result[models.BudgetCategory] {
	return service.Guard(func() service.Result[models.BudgetCategory] {
		if delta.IsZero() {
			return service.Err[models.BudgetCategory](fmt.Errorf("%w: spend delta must not be zero", service.ErrInvalidInput))
		}
		if err := s.b.wait(ctx); err != nil {
			return service.Err[models.BudgetCategory](err)
		}
		return s.editCategory(budgetID, categoryID, func(c models.BudgetCategory) (models.BudgetCategory, error) {
			c.SpentAmount = c.SpentAmount.Add(delta)
			if c.SpentAmount.IsNegative() {
				return c, fmt.Errorf("%w: spent amount would become negative", service.ErrInvalidInput)
			}
			return c, nil
		})
	})
}

func (s *budgetService) editCategory(budgetID, categoryID string, edit func(models.BudgetCategory) (models.BudgetCategory, error)) service.Result[models.BudgetCategory] {
	s.b.mu.Lock()
	defer s.b.mu.Unlock()
	budget, ok := s.b.budgets[budgetID]
	if !ok {
		return service.Err[models.BudgetCategory](service.NotFound("budget", budgetID))
	}
	i := slices.IndexFunc(budget.Categories, func(c models.BudgetCategory) bool { return c.ID == categoryID })
	if i < 0 {
		return service.Err[models.BudgetCategory](service.NotFound("category", categoryID))
	}
	category, err := edit(budget.Categories[i])
	if err != nil {
		return service.Err[models.BudgetCategory](err)
	}
	budget.Categories = slices.Clone(budget.Categories)
	budget.Categories[i] = category
	budget.UpdatedAt = s.b.now()
	s.b.budgets[budgetID] = budget
	return service.Ok(category)
}

func (s *budgetService) ListGoals(ctx context.Context) service.Result[[]models.Goal] {
	return service.Guard(func() service.Result[[]models.Goal] {
		if err := s.b.wait(ctx); err != nil {
			return service.Fail(err, []models.Goal{})
		}
		s.b.mu.RLock()
		defer s.b.mu.RUnlock()
		goals := make([]models.Goal, 0, len(s.b.goals))
		for _, g := range s.b.goals {
			goals = append(goals, g)
		}
		sort.Slice(goals, func(i, j int) bool {
			if !goals[i].TargetDate.Equal(goals[j].TargetDate) {
				return goals[i].TargetDate.Before(goals[j].TargetDate)
			}
			return goals[i].ID < goals[j].ID
		})
		return service.Ok(goals)
	})
}

func (s *budgetService) CreateGoal(ctx context.Context, in models.GoalInput) service.Result[models.Goal] {
	return service.Guard(func() service.Result[models.Goal] {
		if err := validation.Goal(in, s.b.now()).Err(); err != nil {
			return service.Err[models.Goal](service.Invalid(err))
		}
		if err := s.b.wait(ctx); err != nil {
			return service.Err[models.Goal](err)
		}
		now := s.b.now()
		goal := models.Goal{
			ID:            uuid.NewString(),
			Title:         in.Title,
			TargetAmount:  in.TargetAmount,
			CurrentAmount: in.CurrentAmount,
			TargetDate:    in.TargetDate,
			Priority:      in.Priority,
			Status:        models.GoalNotStarted,
			Category:      in.Category,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		switch {
		case goal.CurrentAmount.Equal(goal.TargetAmount):
			goal.Status = models.GoalCompleted
		case goal.CurrentAmount.IsPositive():
			goal.Status = models.GoalInProgress
		}
		s.b.mu.Lock()
		defer s.b.mu.Unlock()
		s.b.goals[goal.ID] = goal
		return service.Ok(goal)
	})
}

func (s *budgetService) UpdateGoal(ctx context.Context, id string, p models.GoalPatch) service.Result[models.Goal] {
	return service.Guard(func() service.Result[models.Goal] {
		if err := s.b.wait(ctx); err != nil {
			return service.Err[models.Goal](err)
		}
		s.b.mu.Lock()
		defer s.b.mu.Unlock()
		goal, ok := s.b.goals[id]
		if !ok {
			return service.Err[models.Goal](service.NotFound("goal", id))
		}
		if err := validation.GoalPatch(p, goal).Err(); err != nil {
			return service.Err[models.Goal](service.Invalid(err))
		}
		goal, err := p.Apply(goal)
		if err != nil {
			return service.Err[models.Goal](fmt.Errorf("%w: %v", service.ErrInvalidInput, err))
		}
		goal.UpdatedAt = s.b.now()
		s.b.goals[id] = goal
		return service.Ok(goal)
	})
}

func (s *budgetService) DeleteGoal(ctx context.Context, id string) service.Result[string] {
	return service.Guard(func() service.Result[string] {
		if err := s.b.wait(ctx); err != nil {
			return service.Err[string](err)
		}
		s.b.mu.Lock()
		defer s.b.mu.Unlock()
		if _, ok := s.b.goals[id]; !ok {
			return service.Err[string](service.NotFound("goal", id))
		}
		delete(s.b.goals, id)
		return service.Ok(id)
	})
}

func newCategory(in models.CategoryInput) models.BudgetCategory {
	return models.BudgetCategory{
		ID:             uuid.NewString(),
		Name:           in.Name,
		BudgetedAmount: in.BudgetedAmount,
		SpentAmount:    in.SpentAmount,
		Color:          in.Color,
	}
}
