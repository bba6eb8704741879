package validation

import (
	"time"

	"fintrack/internal/models"

	"github.com/shopspring/decimal"
)

const maxTags = 10

// Transaction validates a create payload. Dates after now are rejected.
func Transaction(in models.TransactionInput, now time.Time) Result {
	var c collector
	amount(&c, in.Amount)
	c.text("description", in.Description, true, 200)
	c.text("category", in.Category, true, 50)
	c.text("merchant name", in.Merchant.Name, false, 100)
	c.text("notes", in.Notes, false, 500)
	transactionDate(&c, in.Date, now)
	transactionStatus(&c, in.Status)
	c.check(len(in.Tags) <= maxTags, "at most %d tags are allowed", maxTags)
	return c.result()
}

// TransactionPatch validates the fields present in a partial update.
func TransactionPatch(p models.TransactionPatch, now time.Time) Result {
	var c collector
	if p.Amount != nil {
		amount(&c, *p.Amount)
	}
	if p.Description != nil {
		c.text("description", *p.Description, true, 200)
	}
	if p.Category != nil {
		c.text("category", *p.Category, true, 50)
	}
	if p.Merchant != nil {
		c.text("merchant name", p.Merchant.Name, false, 100)
	}
	if p.Notes != nil {
		c.text("notes", *p.Notes, false, 500)
	}
	if p.Date != nil {
		transactionDate(&c, *p.Date, now)
	}
	if p.Status != nil {
		transactionStatus(&c, *p.Status)
	}
	c.check(len(p.Tags) <= maxTags, "at most %d tags are allowed", maxTags)
	return c.result()
}

func amount(c *collector, v decimal.Decimal) {
	if v.IsZero() {
		c.add("amount must not be zero")
		return
	}
	c.check(v.Abs().LessThanOrEqual(maxAmount), "amount must not exceed %s", maxAmount)
}

func transactionDate(c *collector, d, now time.Time) {
	if d.IsZero() {
		c.add("date is required")
		return
	}
	c.check(!d.After(now), "date must not be in the future")
}

func transactionStatus(c *collector, s string) {
	switch s {
	case "", models.StatusPending, models.StatusCompleted, models.StatusCancelled:
	default:
		c.add("status %q is not supported", s)
	}
}
