package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fintrack/internal/models"
	"fintrack/internal/service"
	"fintrack/internal/validation"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Categories are embedded in their budget document and edited with
// positional operators.
type budgetService struct{ db *DB }

func (s *budgetService) budgets() *mongo.Collection { return s.db.coll(collBudgets) }
func (s *budgetService) goals() *mongo.Collection   { return s.db.coll(collGoals) }

func (s *budgetService) List(ctx context.Context) service.Result[[]models.Budget] {
	return service.Guard(func() service.Result[[]models.Budget] {
		opts := options.Find().SetSort(bson.D{{Key: "startDate", Value: -1}, {Key: "_id", Value: 1}})
		budgets, err := findAll[models.Budget](ctx, s.budgets(), bson.M{}, opts)
		if err != nil {
			return service.Fail(fmt.Errorf("failed to fetch budgets: %w", err), []models.Budget{})
		}
		return service.Ok(budgets)
	})
}

func (s *budgetService) Create(ctx context.Context, in models.BudgetInput) service.Result[models.Budget] {
	return service.Guard(func() service.Result[models.Budget] {
		if err := validation.Budget(in).Err(); err != nil {
			return service.Err[models.Budget](service.Invalid(err))
		}
		now := s.db.now()
		budget := models.Budget{
			ID:         uuid.NewString(),
			Name:       in.Name,
			Period:     in.Period,
			StartDate:  in.StartDate,
			EndDate:    in.EndDate,
			Categories: []models.BudgetCategory{},
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		for _, c := range in.Categories {
			budget.Categories = append(budget.Categories, newCategory(c))
		}
		if _, err := s.budgets().InsertOne(ctx, budget); err != nil {
			return service.Err[models.Budget](fmt.Errorf("failed to insert budget: %w", err))
		}
		return service.Ok(budget)
	})
}

func (s *budgetService) Update(ctx context.Context, id string, p models.BudgetPatch) service.Result[models.Budget] {
	return service.Guard(func() service.Result[models.Budget] {
		current, err := findByID[models.Budget](ctx, s.budgets(), "budget", id)
		if err != nil {
			return service.Err[models.Budget](fmt.Errorf("failed to find budget: %w", err))
		}
		if err := validation.BudgetPatch(p, current).Err(); err != nil {
			return service.Err[models.Budget](service.Invalid(err))
		}
		set := bson.M{"updatedAt": s.db.now()}
		if p.Name != nil {
			set["name"] = *p.Name
		}
		if p.Period != nil {
			set["period"] = *p.Period
		}
		if p.StartDate != nil {
			set["startDate"] = *p.StartDate
		}
		if p.EndDate != nil {
			set["endDate"] = *p.EndDate
		}
		var budget models.Budget
		opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
		if err := s.budgets().FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, opts).Decode(&budget); err != nil {
			return service.Err[models.Budget](fmt.Errorf("failed to update budget: %w", notFound(err, "budget", id)))
		}
		return service.Ok(budget)
	})
}

func (s *budgetService) Delete(ctx context.Context, id string) service.Result[string] {
	return service.Guard(func() service.Result[string] {
		res, err := s.budgets().DeleteOne(ctx, bson.M{"_id": id})
		if err != nil {
			return service.Err[string](fmt.Errorf("failed to delete budget: %w", err))
		}
		if res.DeletedCount == 0 {
			return service.Err[string](service.NotFound("budget", id))
		}
		return service.Ok(id)
	})
}

func (s *budgetService) AddCategory(ctx context.Context, budgetID string, in models.CategoryInput) service.Result[models.BudgetCategory] {
	return service.Guard(func() service.Result[models.BudgetCategory] {
		if err := validation.Category(in).Err(); err != nil {
			return service.Err[models.BudgetCategory](service.Invalid(err))
		}
		category := newCategory(in)
		update := bson.M{
			"$push": bson.M{"categories": category},
			"$set":  bson.M{"updatedAt": s.db.now()},
		}
		res, err := s.budgets().UpdateOne(ctx, bson.M{"_id": budgetID}, update)
		if err != nil {
			return service.Err[models.BudgetCategory](fmt.Errorf("failed to add category: %w", err))
		}
		if res.MatchedCount == 0 {
			return service.Err[models.BudgetCategory](service.NotFound("budget", budgetID))
		}
		return service.Ok(category)
	})
}

func (s *budgetService) UpdateCategory(ctx context.Context, budgetID, categoryID string, p models.CategoryPatch) service.Result[models.BudgetCategory] {
	return service.Guard(func() service.Result[models.BudgetCategory] {
		if err := validation.CategoryPatch(p).Err(); err != nil {
			return service.Err[models.BudgetCategory](service.Invalid(err))
		}
		current, err := s.category(ctx, budgetID, categoryID)
		if err != nil {
			return service.Err[models.BudgetCategory](err)
		}
		category := p.Apply(current)
		filter := bson.M{"_id": budgetID, "categories._id": categoryID}
		update := bson.M{"$set": bson.M{"categories.$": category, "updatedAt": s.db.now()}}
		if _, err := s.budgets().UpdateOne(ctx, filter, update); err != nil {
			return service.Err[models.BudgetCategory](fmt.Errorf("failed to update category: %w", err))
		}
		return service.Ok(category)
	})
}

func (s *budgetService) DeleteCategory(ctx context.Context, budgetID, categoryID string) service.Result[string] {
	return service.Guard(func() service.Result[string] {
		filter := bson.M{"_id": budgetID, "categories._id": categoryID}
		update := bson.M{
			"$pull": bson.M{"categories": bson.M{"_id": categoryID}},
			"$set":  bson.M{"updatedAt": s.db.now()},
		}
		res, err := s.budgets().UpdateOne(ctx, filter, update)
		if err != nil {
			return service.Err[string](fmt.Errorf("failed to delete category: %w", err))
		}
		if res.MatchedCount == 0 {
			return service.Err[string](service.NotFound("category", categoryID))
		}
		return service.Ok(categoryID)
	})
}

// RecordSpend increments the spent amount atomically. A negative delta only
// applies when the spent amount stays non-negative.
func (s *budgetService) RecordSpend(ctx context.Context, budgetID, categoryID string, delta decimal.Decimal) service.Result[models.BudgetCategory] {
	return service.Guard(func() service.Result[models.BudgetCategory] {
		if delta.IsZero() {
			return service.Err[models.BudgetCategory](fmt.Errorf("%w: spend delta must not be zero", service.ErrInvalidInput))
		}
		match := bson.M{"_id": categoryID}
		if delta.IsNegative() {
			match["spentAmount"] = bson.M{"$gte": delta.Neg()}
		}
		filter := bson.M{"_id": budgetID, "categories": bson.M{"$elemMatch": match}}
		update := bson.M{
			"$inc": bson.M{"categories.$.spentAmount": delta},
			"$set": bson.M{"updatedAt": s.db.now()},
		}
		opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

		var budget models.Budget
		err := s.budgets().FindOneAndUpdate(ctx, filter, update, opts).Decode(&budget)
		if errors.Is(err, mongo.ErrNoDocuments) {
			if _, lookupErr := s.category(ctx, budgetID, categoryID); lookupErr != nil {
				return service.Err[models.BudgetCategory](lookupErr)
			}
			return service.Err[models.BudgetCategory](fmt.Errorf("%w: spent amount would become negative", service.ErrInvalidInput))
		}
		if err != nil {
			return service.Err[models.BudgetCategory](fmt.Errorf("failed to record spend: %w", err))
		}
		category, _ := budget.Category(categoryID)
		return service.Ok(category)
	})
}

func (s *budgetService) category(ctx context.Context, budgetID, categoryID string) (models.BudgetCategory, error) {
	budget, err := findByID[models.Budget](ctx, s.budgets(), "budget", budgetID)
	if err != nil {
		return models.BudgetCategory{}, fmt.Errorf("failed to find budget: %w", err)
	}
	category, ok := budget.Category(categoryID)
	if !ok {
		return models.BudgetCategory{}, service.NotFound("category", categoryID)
	}
	return category, nil
}

func (s *budgetService) ListGoals(ctx context.Context) service.Result[[]models.Goal] {
	return service.Guard(func() service.Result[[]models.Goal] {
		opts := options.Find().SetSort(bson.D{{Key: "targetDate", Value: 1}, {Key: "_id", Value: 1}})
		goals, err := findAll[models.Goal](ctx, s.goals(), bson.M{}, opts)
		if err != nil {
			return service.Fail(fmt.Errorf("failed to fetch goals: %w", err), []models.Goal{})
		}
		return service.Ok(goals)
	})
}

func (s *budgetService) CreateGoal(ctx context.Context, in models.GoalInput) service.Result[models.Goal] {
	return service.Guard(func() service.Result[models.Goal] {
		now := s.db.now()
		if err := validation.Goal(in, now).Err(); err != nil {
			return service.Err[models.Goal](service.Invalid(err))
		}
		goal := newGoal(uuid.NewString(), in, now)
		if _, err := s.goals().InsertOne(ctx, goal); err != nil {
			return service.Err[models.Goal](fmt.Errorf("failed to insert goal: %w", err))
		}
		return service.Ok(goal)
	})
}

// UpdateGoal replaces the goal only if it was not modified since it was read.
func (s *budgetService) UpdateGoal(ctx context.Context, id string, p models.GoalPatch) service.Result[models.Goal] {
	return service.Guard(func() service.Result[models.Goal] {
		current, err := findByID[models.Goal](ctx, s.goals(), "goal", id)
		if err != nil {
			return service.Err[models.Goal](fmt.Errorf("failed to find goal: %w", err))
		}
		if err := validation.GoalPatch(p, current).Err(); err != nil {
			return service.Err[models.Goal](service.Invalid(err))
		}
		goal, err := p.Apply(current)
		if err != nil {
			return service.Err[models.Goal](fmt.Errorf("%w: %v", service.ErrInvalidInput, err))
		}
		goal.UpdatedAt = s.db.now()

		res, err := s.goals().ReplaceOne(ctx, bson.M{"_id": id, "updatedAt": current.UpdatedAt}, goal)
		if err != nil {
			return service.Err[models.Goal](fmt.Errorf("failed to update goal: %w", err))
		}
		if res.MatchedCount == 0 {
			return service.Err[models.Goal](fmt.Errorf("goal %q was modified concurrently: %w", id, service.ErrConflict))
		}
		return service.Ok(goal)
	})
}

func (s *budgetService) DeleteGoal(ctx context.Context, id string) service.Result[string] {
	return service.Guard(func() service.Result[string] {
		res, err := s.goals().DeleteOne(ctx, bson.M{"_id": id})
		if err != nil {
			return service.Err[string](fmt.Errorf("failed to delete goal: %w", err))
		}
		if res.DeletedCount == 0 {
			return service.Err[string](service.NotFound("goal", id))
		}
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

// newGoal derives the initial status from the amount already saved.
func newGoal(id string, in models.GoalInput, now time.Time) models.Goal {
	goal := models.Goal{
		ID:            id,
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
	return goal
}
