package validation

import (
	"fmt"
	"strings"

	"github.com/MegMacD/wordpointe-sub001/internal/models"
)

const (
	maxNameLength         = 100
	maxTextLength         = 255
	maxBibleVersionLength = 16
)

// ValidationError represents a validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateName checks if a name is valid
func ValidateName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ValidationError{Field: "name", Message: "name is required"}
	}
	if len(name) < 2 {
		return ValidationError{Field: "name", Message: "name must be at least 2 characters"}
	}
	if len(name) > maxNameLength {
		return ValidationError{Field: "name", Message: fmt.Sprintf("name must be at most %d characters", maxNameLength)}
	}
	return nil
}

// ValidatePassword checks if a password meets requirements
func ValidatePassword(password string) error {
	if password == "" {
		return ValidationError{Field: "password", Message: "password is required"}
	}
	if len(password) < 8 {
		return ValidationError{Field: "password", Message: "password must be at least 8 characters"}
	}
	return nil
}

// ValidateCredentials checks that a login request carries both fields
func ValidateCredentials(name, password string) error {
	if strings.TrimSpace(name) == "" {
		return ValidationError{Field: "name", Message: "name is required"}
	}
	if password == "" {
		return ValidationError{Field: "password", Message: "password is required"}
	}
	return nil
}

// ValidateRole checks the role is one of the known roles
func ValidateRole(role models.Role) error {
	if !role.Valid() {
		return ValidationError{Field: "role", Message: "role must be leader or student"}
	}
	return nil
}

// ValidateID checks that an identifier was supplied
func ValidateID(field string, id int64) error {
	if id <= 0 {
		return ValidationError{Field: field, Message: field + " is required"}
	}
	return nil
}

// ValidatePositivePoints checks a points amount is greater than zero
func ValidatePositivePoints(field string, points int) error {
	if points <= 0 {
		return ValidationError{Field: field, Message: "must be greater than zero"}
	}
	return nil
}

// ValidateNonZeroPoints checks a points adjustment is not zero. Negative values are allowed.
func ValidateNonZeroPoints(field string, points int) error {
	if points == 0 {
		return ValidationError{Field: field, Message: "must not be zero"}
	}
	return nil
}

// ValidateText checks an optional free-text field length
func ValidateText(field, value string) error {
	if len(value) > maxTextLength {
		return ValidationError{Field: field, Message: fmt.Sprintf("must be at most %d characters", maxTextLength)}
	}
	return nil
}

// ValidateSettings checks a complete settings value before it is stored
func ValidateSettings(s models.Settings) error {
	if s.DefaultPointsFirst < 0 {
		return ValidationError{Field: "default_points_first", Message: "must not be negative"}
	}
	if s.DefaultPointsRepeat < 0 {
		return ValidationError{Field: "default_points_repeat", Message: "must not be negative"}
	}
	version := strings.TrimSpace(s.BibleVersion)
	if version == "" {
		return ValidationError{Field: "bible_version", Message: "bible_version is required"}
	}
	if len(version) > maxBibleVersionLength {
		return ValidationError{Field: "bible_version", Message: fmt.Sprintf("must be at most %d characters", maxBibleVersionLength)}
	}
	return nil
}
