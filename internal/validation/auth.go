package validation

import (
	"strings"
	"unicode"

	"fintrack/internal/models"
)

// Credentials validates a login payload.
func Credentials(in models.Credentials) Result {
	var c collector
	email(&c, in.Email)
	c.check(in.Password != "", "password is required")
	return c.result()
}

// Registration validates a sign-up payload.
func Registration(in models.Registration) Result {
	var c collector
	email(&c, in.Email)
	password(&c, in.Password)
	c.check(in.ConfirmPassword == in.Password, "passwords do not match")
	c.text("first name", in.FirstName, true, 50)
	c.text("last name", in.LastName, true, 50)
	return c.result()
}

// ProfileUpdate validates the fields present in a profile update.
func ProfileUpdate(p models.ProfileUpdate) Result {
	var c collector
	if p.FirstName != nil {
		c.text("first name", *p.FirstName, true, 50)
	}
	if p.LastName != nil {
		c.text("last name", *p.LastName, true, 50)
	}
	if p.Currency != nil {
		c.check(fields.Var(*p.Currency, "iso4217") == nil, "currency must be an ISO 4217 code")
	}
	return c.result()
}

func email(c *collector, v string) {
	v = strings.TrimSpace(v)
	if v == "" {
		c.add("email is required")
		return
	}
	c.check(fields.Var(v, "email") == nil, "email must be a valid email address")
}

func password(c *collector, v string) {
	if v == "" {
		c.add("password is required")
		return
	}
	c.check(len(v) >= 8, "password must be at least 8 characters")
	var letter, digit bool
	for _, r := range v {
		letter = letter || unicode.IsLetter(r)
		digit = digit || unicode.IsDigit(r)
	}
	c.check(letter && digit, "password must contain a letter and a digit")
}
