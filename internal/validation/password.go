package validation

import (
	"strings"
)

const (
	MinPasswordLength = 8
	// bcrypt ignores everything past 72 bytes
	MaxPasswordLength = 72
)

// ValidatePassword enforces length bounds and blocks the most common patterns.
func ValidatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return &FieldError{Field: "password", Message: "must be at least 8 characters"}
	}

	if len(password) > MaxPasswordLength {
		return &FieldError{Field: "password", Message: "must not exceed 72 bytes"}
	}

	lower := strings.ToLower(password)
	commonPatterns := []string{
		"password", "12345678", "qwerty", "letmein",
	}

	for _, pattern := range commonPatterns {
		if strings.Contains(lower, pattern) {
			return &FieldError{Field: "password", Message: "is too common, please choose a stronger one"}
		}
	}

	return nil
}
