package utils

import (
	"html"
	"regexp"
	"strings"
	"unicode"
)

var (
	htmlTagPattern = regexp.MustCompile(`<[^>]*>`)
	emailPattern   = regexp.MustCompile(`^[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,}$`)
)

// SanitizeString trims and HTML-escapes free-form single line input.
func SanitizeString(input string) string {
	return html.EscapeString(strings.TrimSpace(input))
}

func SanitizeEmail(email string) string {
	email = strings.ToLower(strings.TrimSpace(email))
	email = htmlTagPattern.ReplaceAllString(email, "")
	return removeControlChars(email)
}

// SanitizePhone keeps digits and the usual phone punctuation, then strips
// the punctuation so the value matches the stored E.164-ish form.
func SanitizePhone(phone string) string {
	phone = htmlTagPattern.ReplaceAllString(strings.TrimSpace(phone), "")

	var result strings.Builder
	for i, r := range phone {
		switch {
		case unicode.IsDigit(r):
			result.WriteRune(r)
		case r == '+' && i == 0:
			result.WriteRune(r)
		}
	}

	return result.String()
}

// SanitizeText is SanitizeString for multi-line text.
func SanitizeText(input string) string {
	escaped := html.EscapeString(strings.TrimSpace(input))

	var result strings.Builder
	for _, r := range escaped {
		if unicode.IsPrint(r) || r == '\n' || r == '\t' || r == '\r' {
			result.WriteRune(r)
		}
	}

	return result.String()
}

// SanitizeOptional applies fn to a non-nil value and returns nil for blanks.
func SanitizeOptional(input *string, fn func(string) string) *string {
	if input == nil {
		return nil
	}
	sanitized := fn(*input)
	if sanitized == "" {
		return nil
	}
	return &sanitized
}

func IsValidEmail(email string) bool {
	return emailPattern.MatchString(strings.TrimSpace(strings.ToLower(email)))
}

func removeControlChars(input string) string {
	var result strings.Builder
	for _, r := range input {
		if unicode.IsPrint(r) || unicode.IsSpace(r) {
			result.WriteRune(r)
		}
	}
	return result.String()
}
