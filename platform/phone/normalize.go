// Package phone provides contact number utilities.
// This is part of the platform layer and contains no business logic.
package phone

import (
	"strings"

	"github.com/nyaruka/phonenumbers"
)

const (
	minDigits = 10
	maxDigits = 15
)

// separators are the characters tolerated inside a contact number on input.
// They are stripped before storage.
const separators = "+-() "

// StripSeparators removes the tolerated separator characters, leaving the
// raw digit string. Non-digit, non-separator characters are preserved so
// that IsValid can reject them.
func StripSeparators(input string) string {
	return strings.Map(func(r rune) rune {
		if strings.ContainsRune(separators, r) {
			return -1
		}
		return r
	}, strings.TrimSpace(input))
}

// IsValid reports whether the input is an acceptable contact number: 10-15
// digits once the tolerated separators (+, -, parentheses, spaces) are
// stripped.
func IsValid(input string) bool {
	digits := StripSeparators(input)
	if len(digits) < minDigits || len(digits) > maxDigits {
		return false
	}
	for _, r := range digits {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// NormalizeDigits converts a contact number to its digits-only storage form.
// When libphonenumber recognises the number (using region as the default
// country), the E.164 digits are used so that "+91-999-999-9999" and
// "09999999999" store identically. Otherwise the separator-stripped input is
// returned unchanged, which keeps normalization idempotent: a previously
// stored value passes through untouched and still satisfies IsValid.
func NormalizeDigits(input, region string) string {
	digits := StripSeparators(input)
	if digits == "" {
		return digits
	}

	number, err := phonenumbers.Parse(strings.TrimSpace(input), region)
	if err != nil {
		return digits
	}
	if !phonenumbers.IsValidNumber(number) {
		return digits
	}

	return strings.TrimPrefix(phonenumbers.Format(number, phonenumbers.E164), "+")
}
