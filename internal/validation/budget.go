package validation

import (
	"fmt"
	"time"

	"fintrack/internal/models"

	"github.com/shopspring/decimal"
)

// Budget validates a create payload, including every category it carries.
func Budget(in models.BudgetInput) Result {
	var c collector
	c.text("name", in.Name, true, 100)
	period(&c, in.Period)
	budgetDates(&c, in.StartDate, in.EndDate)
	for i, cat := range in.Categories {
		c.merge(fmt.Sprintf("category %d: ", i+1), Category(cat))
	}
	return c.result()
}

// BudgetPatch validates p against the budget it will be applied to, so the
// date range is checked on the merged value.
func BudgetPatch(p models.BudgetPatch, current models.Budget) Result {
	var c collector
	if p.Name != nil {
		c.text("name", *p.Name, true, 100)
	}
	if p.Period != nil {
		period(&c, *p.Period)
	}
	if p.StartDate != nil || p.EndDate != nil {
		merged := p.Apply(current)
		budgetDates(&c, merged.StartDate, merged.EndDate)
	}
	return c.result()
}

// Category validates a budget category payload.
func Category(in models.CategoryInput) Result {
	var c collector
	c.text("name", in.Name, true, 50)
	budgeted(&c, in.BudgetedAmount)
	c.check(!in.SpentAmount.IsNegative(), "spent amount must not be negative")
	return c.result()
}

// CategoryPatch validates the fields present in a category update.
func CategoryPatch(p models.CategoryPatch) Result {
	var c collector
	if p.Name != nil {
		c.text("name", *p.Name, true, 50)
	}
	if p.BudgetedAmount != nil {
		budgeted(&c, *p.BudgetedAmount)
	}
	if p.SpentAmount != nil {
		c.check(!p.SpentAmount.IsNegative(), "spent amount must not be negative")
	}
	return c.result()
}

func budgeted(c *collector, v decimal.Decimal) {
	c.check(v.IsPositive(), "budgeted amount must be greater than zero")
	c.check(v.LessThanOrEqual(maxAmount), "budgeted amount must not exceed %s", maxAmount)
}

func period(c *collector, p string) {
	switch p {
	case models.PeriodWeekly, models.PeriodMonthly, models.PeriodYearly:
	case "":
		c.add("period is required")
	default:
		c.add("period must be weekly, monthly or yearly")
	}
}

func budgetDates(c *collector, start, end time.Time) {
	c.check(!start.IsZero(), "start date is required")
	c.check(!end.IsZero(), "end date is required")
	if !start.IsZero() && !end.IsZero() {
		c.check(end.After(start), "end date must be after start date")
	}
}
