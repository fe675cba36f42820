package auth

import (
	"regexp"
	"unicode"
)

var emailPattern = regexp.MustCompile(`^\S+@\S+\.\S+$`)

func ValidateEmail(email string) bool {
	return emailPattern.MatchString(email)
}

// ValidatePassword requires at least 8 characters with at least one
// lowercase letter, one uppercase letter, one digit and one special
// character.
func ValidatePassword(password string) bool {
	if len(password) < 8 {
		return false
	}
	var lower, upper, digit, special bool
	for _, r := range password {
		switch {
		case unicode.IsLower(r):
			lower = true
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsDigit(r):
			digit = true
		default:
			special = true
		}
	}
	return lower && upper && digit && special
}
