package handlers

import (
	"fmt"
	"strings"
	"time"

	"fintrack/internal/models"

	"github.com/shopspring/decimal"
)

const dateLayout = "2006-01-02"

// ParseFilter reads "key=value" criteria. A value may contain spaces: words
// without "=" continue the previous value. The "to" date includes the whole day.
func ParseFilter(args string, loc *time.Location) (models.Filter, error) {
	var (
		f    models.Filter
		keys []string
		vals = make(map[string]string)
	)
	for _, word := range strings.Fields(args) {
		key, val, ok := strings.Cut(word, "=")
		if !ok {
			if len(keys) == 0 {
				return f, fmt.Errorf("expected key=value, got %q", word)
			}
			last := keys[len(keys)-1]
			vals[last] += " " + word
			continue
		}
		key = strings.ToLower(key)
		if _, dup := vals[key]; dup {
			return f, fmt.Errorf("%s is given twice", key)
		}
		keys = append(keys, key)
		vals[key] = val
	}

	for _, key := range keys {
		val := strings.TrimSpace(vals[key])
		switch key {
		case "category":
			f.Category = val
		case "merchant":
			f.Merchant = val
		case "kind":
			kind := strings.ToLower(val)
			if kind != models.KindIncome && kind != models.KindExpense {
				return f, fmt.Errorf("kind must be %s or %s", models.KindIncome, models.KindExpense)
			}
			f.Kind = kind
		case "min", "max":
			d, err := decimal.NewFromString(val)
			if err != nil || d.IsNegative() {
				return f, fmt.Errorf("%s must be a non-negative amount", key)
			}
			if key == "min" {
				f.MinAmount = &d
			} else {
				f.MaxAmount = &d
			}
		case "from", "to":
			t, err := time.ParseInLocation(dateLayout, val, loc)
			if err != nil {
				return f, fmt.Errorf("%s must be a date like 2025-03-01", key)
			}
			if key == "from" {
				f.From = t
			} else {
				f.To = t.AddDate(0, 0, 1).Add(-time.Nanosecond)
			}
		default:
			return f, fmt.Errorf("unknown filter %q", key)
		}
	}
	if f.MinAmount != nil && f.MaxAmount != nil && f.MinAmount.GreaterThan(*f.MaxAmount) {
		return f, fmt.Errorf("min must not exceed max")
	}
	if !f.From.IsZero() && !f.To.IsZero() && f.From.After(f.To) {
		return f, fmt.Errorf("from must not be after to")
	}
	return f, nil
}

// DescribeFilter renders f in the syntax accepted by ParseFilter.
func DescribeFilter(f models.Filter) string {
	var parts []string
	if f.Category != "" {
		parts = append(parts, "category="+f.Category)
	}
	if f.Merchant != "" {
		parts = append(parts, "merchant="+f.Merchant)
	}
	if f.Kind != "" {
		parts = append(parts, "kind="+f.Kind)
	}
	if f.MinAmount != nil {
		parts = append(parts, "min="+f.MinAmount.String())
	}
	if f.MaxAmount != nil {
		parts = append(parts, "max="+f.MaxAmount.String())
	}
	if !f.From.IsZero() {
		parts = append(parts, "from="+f.From.Format(dateLayout))
	}
	if !f.To.IsZero() {
		parts = append(parts, "to="+f.To.Format(dateLayout))
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, " ")
}
