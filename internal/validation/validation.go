// Package validation checks candidate entities against field-level rules.
// Every validator is pure and reports all violated rules at once.
package validation

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// ErrInvalid is matched by every *Error.
var ErrInvalid = errors.New("validation failed")

// Result is the outcome of a validation.
type Result struct {
	Valid  bool     `json:"isValid"`
	Errors []string `json:"errors"`
}

// Err returns the result as an error, or nil when it is valid.
func (r Result) Err() error {
	if r.Valid {
		return nil
	}
	return &Error{Errors: r.Errors}
}

// Error carries every violated rule of a failed validation.
type Error struct {
	Errors []string
}

func (e *Error) Error() string { return strings.Join(e.Errors, "; ") }

// Unwrap makes errors.Is(err, ErrInvalid) hold.
func (e *Error) Unwrap() error { return ErrInvalid }

// Messages extracts the rule list from err, or nil when err is not a validation error.
func Messages(err error) []string {
	var verr *Error
	if errors.As(err, &verr) {
		return verr.Errors
	}
	return nil
}

var fields = validator.New()

var maxAmount = decimal.NewFromInt(1_000_000)

type collector struct {
	errs []string
}

func (c *collector) add(format string, args ...any) {
	c.errs = append(c.errs, fmt.Sprintf(format, args...))
}

// check records msg when ok is false.
func (c *collector) check(ok bool, format string, args ...any) {
	if !ok {
		c.add(format, args...)
	}
}

// text validates a free text field: required (when asked) and at most max runes.
func (c *collector) text(name, value string, required bool, max int) {
	value = strings.TrimSpace(value)
	if value == "" {
		c.check(!required, "%s is required", name)
		return
	}
	c.check(utf8.RuneCountInString(value) <= max, "%s must be at most %d characters", name, max)
}

func (c *collector) merge(prefix string, r Result) {
	for _, e := range r.Errors {
		c.add("%s%s", prefix, e)
	}
}

func (c *collector) result() Result {
	return Result{Valid: len(c.errs) == 0, Errors: c.errs}
}
