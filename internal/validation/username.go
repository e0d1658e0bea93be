package validation

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	MinUsernameLength    = 3
	MaxUsernameLength    = 50
	MaxDisplayNameLength = 50
)

// ValidateUsername allows letters, digits, '.', '_' and '-'.
func ValidateUsername(username string) error {
	trimmed := strings.TrimSpace(username)
	n := utf8.RuneCountInString(trimmed)

	if n == 0 {
		return &FieldError{Field: "username", Message: "is required"}
	}
	if n < MinUsernameLength {
		return &FieldError{Field: "username", Message: "must be at least 3 characters"}
	}
	if n > MaxUsernameLength {
		return &FieldError{Field: "username", Message: "must not exceed 50 characters"}
	}

	for _, r := range trimmed {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '.' || r == '_' || r == '-' {
			continue
		}
		return &FieldError{Field: "username", Message: "may only contain letters, digits, '.', '_' and '-'"}
	}

	return nil
}

func ValidateDisplayName(name string) error {
	if utf8.RuneCountInString(strings.TrimSpace(name)) > MaxDisplayNameLength {
		return &FieldError{Field: "displayName", Message: "must not exceed 50 characters"}
	}
	return nil
}
