package service

import (
	"regexp"
	"strings"
	"unicode"

	"landing-v2/internal/domain"
)

// emailPattern is local@domain.tld where no part contains whitespace or '@'.
// \s in RE2 is ASCII only, so unicode separators are excluded explicitly.
var emailPattern = regexp.MustCompile(`^[^@\s\v\p{Z}\x{FEFF}]+@[^@\s\v\p{Z}\x{FEFF}]+\.[^@\s\v\p{Z}\x{FEFF}]+$`)

// TrimInput strips the whitespace a browser's String.trim strips, which
// includes the byte order mark unicode.IsSpace leaves alone
func TrimInput(value string) string {
	return strings.TrimFunc(value, func(r rune) bool {
		return unicode.IsSpace(r) || r == '\uFEFF'
	})
}

// ValidateEmail returns the message for an invalid email, or "" when valid
func ValidateEmail(email string) string {
	if email == "" {
		return domain.MsgEmailRequired
	}
	if !emailPattern.MatchString(email) {
		return domain.MsgEmailInvalid
	}
	return ""
}

// ValidateConsent returns the message for missing consent, or "" when given
func ValidateConsent(given bool) string {
	if !given {
		return domain.MsgConsentMissing
	}
	return ""
}

// Validate checks every validated field of the subscription form.
// Input is expected to be trimmed with TrimInput already.
func Validate(input domain.FormInput) domain.ValidationResult {
	return domain.ValidationResult{Fields: []domain.FieldResult{
		{Field: domain.FieldEmail, Message: ValidateEmail(input.Email)},
		{Field: domain.FieldConsent, Message: ValidateConsent(input.ConsentGiven)},
	}}
}
