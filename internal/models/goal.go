package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// GoalStatus is the lifecycle state of a savings goal.
type GoalStatus string

const (
	GoalNotStarted GoalStatus = "not-started"
	GoalInProgress GoalStatus = "in-progress"
	GoalOnTrack    GoalStatus = "on-track"
	GoalCompleted  GoalStatus = "completed"
	GoalPaused     GoalStatus = "paused"
)

// Goal priorities.
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
)

var goalTransitions = map[GoalStatus][]GoalStatus{
	GoalNotStarted: {GoalInProgress, GoalOnTrack, GoalPaused, GoalCompleted},
	GoalInProgress: {GoalOnTrack, GoalCompleted, GoalPaused},
	GoalOnTrack:    {GoalInProgress, GoalCompleted, GoalPaused},
	GoalPaused:     {GoalInProgress},
}

// CanTransition reports whether a goal may move from s to next.
func (s GoalStatus) CanTransition(next GoalStatus) bool {
	if s == next {
		return true
	}
	for _, v := range goalTransitions[s] {
		if v == next {
			return true
		}
	}
	return false
}

// Valid reports whether s is a known status.
func (s GoalStatus) Valid() bool {
	switch s {
	case GoalNotStarted, GoalInProgress, GoalOnTrack, GoalCompleted, GoalPaused:
		return true
	}
	return false
}

// Goal is a savings target. Progress is derived.
type Goal struct {
	ID            string          `bson:"_id" json:"id"`
	Title         string          `bson:"title" json:"title"`
	TargetAmount  decimal.Decimal `bson:"targetAmount" json:"targetAmount"`
	CurrentAmount decimal.Decimal `bson:"currentAmount" json:"currentAmount"`
	TargetDate    time.Time       `bson:"targetDate" json:"targetDate"`
	Priority      string          `bson:"priority" json:"priority"`
	Status        GoalStatus      `bson:"status" json:"status"`
	Category      string          `bson:"category,omitempty" json:"category,omitempty"`
	CreatedAt     time.Time       `bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time       `bson:"updatedAt" json:"updatedAt"`
	Progress      float64         `bson:"-" json:"progress"`
}

// Contribute adds amount to the goal, clamped at the target. A not-started goal
// becomes in-progress and a goal reaching its target is completed.
func (g Goal) Contribute(amount decimal.Decimal) (Goal, error) {
	if !amount.IsPositive() {
		return g, fmt.Errorf("contribution must be positive")
	}
	if g.Status == GoalCompleted || g.Status == GoalPaused {
		return g, fmt.Errorf("cannot contribute to a %s goal", g.Status)
	}
	g.CurrentAmount = decimal.Min(g.CurrentAmount.Add(amount), g.TargetAmount)
	if g.Status == GoalNotStarted {
		g.Status = GoalInProgress
	}
	if g.CurrentAmount.Equal(g.TargetAmount) {
		g.Status = GoalCompleted
	}
	return g, nil
}

// GoalInput is the payload of a goal create operation.
type GoalInput struct {
	Title         string
	TargetAmount  decimal.Decimal
	CurrentAmount decimal.Decimal
	TargetDate    time.Time
	Priority      string
	Category      string
}

// GoalPatch is a partial goal update.
type GoalPatch struct {
	Title         *string
	TargetAmount  *decimal.Decimal
	CurrentAmount *decimal.Decimal
	TargetDate    *time.Time
	Priority      *string
	Status        *GoalStatus
}

// Apply returns a copy of g with the patch applied. Status changes must respect
// the goal lifecycle.
func (p GoalPatch) Apply(g Goal) (Goal, error) {
	if p.Status != nil {
		if !p.Status.Valid() {
			return g, fmt.Errorf("unknown goal status %q", *p.Status)
		}
		if !g.Status.CanTransition(*p.Status) {
			return g, fmt.Errorf("goal cannot move from %s to %s", g.Status, *p.Status)
		}
		g.Status = *p.Status
	}
	if p.Title != nil {
		g.Title = *p.Title
	}
	if p.TargetAmount != nil {
		g.TargetAmount = *p.TargetAmount
	}
	if p.CurrentAmount != nil {
		g.CurrentAmount = *p.CurrentAmount
	}
	if p.TargetDate != nil {
		g.TargetDate = *p.TargetDate
	}
	if p.Priority != nil {
		g.Priority = *p.Priority
	}
	return g, nil
}
