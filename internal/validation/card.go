package validation

import "strings"

// CardNumber validates a payment card number: 13 to 19 digits, separators
// allowed, with a valid Luhn checksum.
func CardNumber(number string) Result {
	var c collector
	digits := strings.NewReplacer(" ", "", "-", "").Replace(number)
	switch {
	case digits == "":
		c.add("card number is required")
	case strings.Trim(digits, "0123456789") != "":
		c.add("card number must contain only digits")
	default:
		c.check(len(digits) >= 13 && len(digits) <= 19, "card number must have 13 to 19 digits")
		c.check(Luhn(digits), "card number checksum is invalid")
	}
	return c.result()
}

// Luhn reports whether the digit string passes the Luhn checksum. Digits are
// summed right to left, every second one doubled and reduced by 9 above 9.
func Luhn(digits string) bool {
	if digits == "" {
		return false
	}
	sum := 0
	double := false
	for i := len(digits) - 1; i >= 0; i-- {
		d := int(digits[i] - '0')
		if d < 0 || d > 9 {
			return false
		}
		if double {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
		double = !double
	}
	return sum%10 == 0
}
