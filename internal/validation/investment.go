package validation

import (
	"regexp"
	"strings"

	"fintrack/internal/models"
)

var symbolPattern = regexp.MustCompile(`^[A-Z0-9][A-Z0-9.\-]{0,9}$`)

// Investment validates a create payload.
func Investment(in models.InvestmentInput) Result {
	var c collector
	if strings.TrimSpace(in.Symbol) == "" {
		c.add("symbol is required")
	} else {
		c.check(symbolPattern.MatchString(in.Symbol), "symbol must be 1 to 10 upper-case letters or digits")
	}
	c.text("name", in.Name, false, 100)
	c.check(!in.Shares.IsNegative(), "shares must not be negative")
	c.check(!in.CurrentPrice.IsNegative(), "current price must not be negative")
	c.check(!in.TotalCost.IsNegative(), "total cost must not be negative")
	return c.result()
}

// InvestmentPatch validates the fields present in a partial update.
func InvestmentPatch(p models.InvestmentPatch) Result {
	var c collector
	if p.Name != nil {
		c.text("name", *p.Name, false, 100)
	}
	if p.Shares != nil {
		c.check(!p.Shares.IsNegative(), "shares must not be negative")
	}
	if p.CurrentPrice != nil {
		c.check(!p.CurrentPrice.IsNegative(), "current price must not be negative")
	}
	if p.TotalCost != nil {
		c.check(!p.TotalCost.IsNegative(), "total cost must not be negative")
	}
	return c.result()
}
