// Package validator provides input validation and sanitization functions
// for contact form submissions.
package validator

import (
	"errors"
	"regexp"
	"strings"
	"unicode/utf8"
)

// Validation errors
var (
	ErrInvalidEmail  = errors.New("invalid email format")
	ErrInputTooLong  = errors.New("input exceeds maximum length")
	ErrInputTooShort = errors.New("input is below minimum length")
	ErrEmptyInput    = errors.New("input cannot be empty")
)

// Regex patterns for validation
var (
	// Basic address shape: local part, "@", domain containing a dot.
	// No whitespace and no second "@" on either side.
	emailRegex = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

	scriptSchemeRegex = regexp.MustCompile(`(?i)javascript:`)
)

// ValidateEmail checks the basic syntactic shape of an email address.
// Surrounding whitespace is ignored.
func ValidateEmail(email string) error {
	email = strings.TrimSpace(email)

	if email == "" {
		return ErrEmptyInput
	}

	if !emailRegex.MatchString(email) {
		return ErrInvalidEmail
	}

	return nil
}

// ValidateLength checks that input has between min and max runes inclusive.
// A zero max disables the upper bound.
func ValidateLength(input string, min, max int) error {
	n := utf8.RuneCountInString(input)
	if n < min {
		return ErrInputTooShort
	}
	if max > 0 && n > max {
		return ErrInputTooLong
	}
	return nil
}

// StripMarkup defangs naive HTML and script injection.
// Angle brackets are removed first, then every "javascript:" scheme
// (any case) until none is left, then surrounding whitespace.
// StripMarkup(StripMarkup(s)) == StripMarkup(s).
func StripMarkup(input string) string {
	input = strings.NewReplacer("<", "", ">", "").Replace(input)

	// Removing one occurrence can splice a new one together
	// ("javajavascript:script:"), so repeat until stable.
	for scriptSchemeRegex.MatchString(input) {
		input = scriptSchemeRegex.ReplaceAllString(input, "")
	}

	return strings.TrimSpace(input)
}

// SanitizeString removes potentially dangerous characters and enforces length limits.
// Removes control characters except tab and newlines, and trims whitespace.
func SanitizeString(input string, maxLength int) string {
	input = strings.Map(func(r rune) rune {
		if r == '\n' || r == '\r' || r == '\t' {
			return r
		}
		if r < 32 || r == 127 {
			return -1
		}
		return r
	}, input)

	input = strings.TrimSpace(input)

	// Enforce maximum length if specified
	if maxLength > 0 && utf8.RuneCountInString(input) > maxLength {
		runes := []rune(input)
		input = string(runes[:maxLength])
	}

	return input
}

// SingleLine collapses CR and LF into spaces so the value is safe in a header.
func SingleLine(input string) string {
	return strings.Join(strings.FieldsFunc(input, func(r rune) bool {
		return r == '\r' || r == '\n'
	}), " ")
}

// Truncate shortens input to maxRunes, appending suffix only when it was cut.
func Truncate(input string, maxRunes int, suffix string) string {
	if utf8.RuneCountInString(input) <= maxRunes {
		return input
	}
	return string([]rune(input)[:maxRunes]) + suffix
}
