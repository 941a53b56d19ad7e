package validator

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateEmail(t *testing.T) {
	tests := []struct {
		name    string
		email   string
		wantErr error
	}{
		{"valid simple email", "user@example.com", nil},
		{"valid with subdomain", "user@mail.example.co.uk", nil},
		{"valid with plus", "user+tag@example.com", nil},
		{"surrounding whitespace ignored", "  user@example.com  ", nil},
		{"empty email", "", ErrEmptyInput},
		{"whitespace only", "   ", ErrEmptyInput},
		{"missing at sign", "bad-email", ErrInvalidEmail},
		{"missing dot after at", "user@localhost", ErrInvalidEmail},
		{"dot only before at", "first.last@example", ErrInvalidEmail},
		{"empty local part", "@example.com", ErrInvalidEmail},
		{"double at", "user@@example.com", ErrInvalidEmail},
		{"inner whitespace", "us er@example.com", ErrInvalidEmail},
		{"leading dot domain", "user@.com", ErrInvalidEmail},
		{"long local part", strings.Repeat("a", 250) + "@example.com", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateEmail(tt.email)
			if tt.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestValidateLength(t *testing.T) {
	assert.ErrorIs(t, ValidateLength(strings.Repeat("a", 9), 10, 2000), ErrInputTooShort)
	assert.NoError(t, ValidateLength(strings.Repeat("a", 10), 10, 2000))
	assert.NoError(t, ValidateLength(strings.Repeat("a", 2000), 10, 2000))
	assert.ErrorIs(t, ValidateLength(strings.Repeat("a", 2001), 10, 2000), ErrInputTooLong)
	assert.NoError(t, ValidateLength(strings.Repeat("a", 5000), 1, 0))

	// Counted in runes, not bytes
	assert.NoError(t, ValidateLength(strings.Repeat("é", 10), 10, 10))
}

func TestStripMarkup(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain text untouched", "Hello there", "Hello there"},
		{"angle brackets removed", "<script>alert(1)</script>", "scriptalert(1)/script"},
		{"javascript scheme removed", "click javascript:alert(1)", "click alert(1)"},
		{"scheme case insensitive", "JaVaScRiPt:void(0)", "void(0)"},
		{"spliced scheme removed", "javajavascript:script:x", "x"},
		{"brackets splice scheme", "java<script:x", "x"},
		{"trimmed", "   padded\n", "padded"},
		{"inner newlines kept", "line one\nline two", "line one\nline two"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StripMarkup(tt.input))
		})
	}
}

func TestStripMarkup_Idempotent(t *testing.T) {
	inputs := []string{
		"<b>bold</b>",
		"javascript:javascript:",
		"jjavascript:avascript:",
		" <<>> javaSCRIPT:: ",
		"normal message with > and < signs",
		"\tjava\nscript:\t",
	}

	for _, in := range inputs {
		once := StripMarkup(in)
		twice := StripMarkup(once)
		assert.Equal(t, once, twice, "input %q", in)
		assert.NotContains(t, once, "<")
		assert.NotContains(t, once, ">")
		assert.NotContains(t, strings.ToLower(once), "javascript:")
	}
}

func TestSanitizeString(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		maxLength int
		expected  string
	}{
		{"normal string", "Hello World", 0, "Hello World"},
		{"null bytes removed", "Hello\x00World", 0, "HelloWorld"},
		{"newlines kept", "Hello\nWorld", 0, "Hello\nWorld"},
		{"bell removed", "Hi\x07", 0, "Hi"},
		{"trim whitespace", "  Hello  ", 0, "Hello"},
		{"enforce max length", "Hello World", 5, "Hello"},
		{"unicode max length", "Héllo Wörld", 5, "Héllo"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, SanitizeString(tt.input, tt.maxLength))
		})
	}
}

func TestSingleLine(t *testing.T) {
	assert.Equal(t, "Acme Corp", SingleLine("Acme Corp"))
	assert.Equal(t, "Acme Bcc: x@y.z", SingleLine("Acme\r\nBcc: x@y.z"))
	assert.Equal(t, "a b", SingleLine("a\n\nb"))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", Truncate("short", 200, "..."))
	assert.Equal(t, "abc...", Truncate("abcdef", 3, "..."))
	assert.Equal(t, "ééé...", Truncate("éééé", 3, "..."))
}
