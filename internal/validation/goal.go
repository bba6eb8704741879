package validation

import (
	"time"

	"fintrack/internal/models"

	"github.com/shopspring/decimal"
)

var maxGoal = decimal.NewFromInt(10_000_000)

// Goal validates a create payload. The target date must lie after now.
func Goal(in models.GoalInput, now time.Time) Result {
	var c collector
	c.text("title", in.Title, true, 100)
	goalAmounts(&c, in.TargetAmount, in.CurrentAmount)
	if in.TargetDate.IsZero() {
		c.add("target date is required")
	} else {
		c.check(in.TargetDate.After(now), "target date must be in the future")
	}
	priority(&c, in.Priority)
	return c.result()
}

// GoalPatch validates p against the goal it will be applied to.
func GoalPatch(p models.GoalPatch, current models.Goal) Result {
	var c collector
	if p.Title != nil {
		c.text("title", *p.Title, true, 100)
	}
	if p.TargetAmount != nil || p.CurrentAmount != nil {
		target, cur := current.TargetAmount, current.CurrentAmount
		if p.TargetAmount != nil {
			target = *p.TargetAmount
		}
		if p.CurrentAmount != nil {
			cur = *p.CurrentAmount
		}
		goalAmounts(&c, target, cur)
	}
	if p.TargetDate != nil {
		c.check(!p.TargetDate.IsZero(), "target date is required")
	}
	if p.Priority != nil {
		priority(&c, *p.Priority)
	}
	if p.Status != nil {
		c.check(p.Status.Valid(), "status %q is not supported", *p.Status)
	}
	return c.result()
}

func goalAmounts(c *collector, target, current decimal.Decimal) {
	c.check(target.IsPositive(), "target amount must be greater than zero")
	c.check(target.LessThanOrEqual(maxGoal), "target amount must not exceed %s", maxGoal)
	c.check(!current.IsNegative(), "current amount must not be negative")
	c.check(current.LessThanOrEqual(target), "current amount must not exceed target amount")
}

func priority(c *collector, p string) {
	switch p {
	case models.PriorityLow, models.PriorityMedium, models.PriorityHigh:
	default:
		c.add("priority must be low, medium or high")
	}
}
