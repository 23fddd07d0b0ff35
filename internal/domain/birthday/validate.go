package birthday

import (
	"time"
)

// DateLayout is the canonical storage and input format for dates of birth.
const DateLayout = "2006-01-02"

// ValidateDate reports whether s is a real calendar date written as YYYY-MM-DD.
func ValidateDate(s string) bool {
	_, err := ParseDate(s)
	return err == nil
}

// ValidateIntegerField reports whether s is a non-empty run of decimal digits.
func ValidateIntegerField(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// ParseDate reads a YYYY-MM-DD date into midnight UTC.
// time.Parse alone accepts a signed year, so the shape is checked first.
func ParseDate(s string) (time.Time, error) {
	if len(s) != len(DateLayout) || s[4] != '-' || s[7] != '-' ||
		!ValidateIntegerField(s[0:4]) || !ValidateIntegerField(s[5:7]) || !ValidateIntegerField(s[8:10]) {
		return time.Time{}, &ParseError{Value: s}
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, &ParseError{Value: s, Err: err}
	}
	return t, nil
}
