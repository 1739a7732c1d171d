package utils

import (
	"regexp"
	"unicode"
)

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// IsValidEmail checks the address has a local part, an "@", and a dotted
// domain, with no whitespace. Deliverability is the mail server's problem.
func IsValidEmail(email string) bool {
	return emailPattern.MatchString(email)
}

// IsComplexPassword enforces the account password policy for therapists and
// patients alike: at least 8 characters covering upper case, lower case, a
// digit and a punctuation or symbol character.
func IsComplexPassword(password string) bool {
	if len(password) < 8 {
		return false
	}

	var upper, lower, digit, special bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			special = true
		}
	}
	return upper && lower && digit && special
}
