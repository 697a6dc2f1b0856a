// backend/src/security/validation/field_validator.go
package validation

import (
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"
)

var ErrValidationFailed = fmt.Errorf("validation failed")

const (
	DefaultMaxStringLength = 255
	MaxSymbolLength        = 10
	MaxStrategyLength      = 50
	MaxLegs                = 8
)

var (
	symbolRegex   = regexp.MustCompile(`^[A-Z][A-Z0-9.]*$`)
	strategyRegex = regexp.MustCompile(`^[a-z_]+$`)
)

// ValidateStringNotEmpty checks if a string is not empty after trimming.
func ValidateStringNotEmpty(s, fieldName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s cannot be empty", ErrValidationFailed, fieldName)
	}
	return nil
}

// ValidateStringMaxLength checks if a string's UTF-8 character count is within max bounds.
func ValidateStringMaxLength(s string, maxLength int, fieldName string) error {
	if utf8.RuneCountInString(s) > maxLength {
		return fmt.Errorf("%w: %s exceeds maximum length of %d characters", ErrValidationFailed, fieldName, maxLength)
	}
	return nil
}

// ValidateStringRegex checks if a string matches a given regex pattern.
func ValidateStringRegex(s string, pattern *regexp.Regexp, fieldName, formatDescription string) error {
	if !pattern.MatchString(s) {
		return fmt.Errorf("%w: %s ('%s') is not in the expected format (%s)", ErrValidationFailed, fieldName, s, formatDescription)
	}
	return nil
}

// ValidateSymbol checks an already-uppercased ticker.
func ValidateSymbol(s string) error {
	if err := ValidateStringNotEmpty(s, "symbol"); err != nil {
		return err
	}
	if err := ValidateStringMaxLength(s, MaxSymbolLength, "symbol"); err != nil {
		return err
	}
	return ValidateStringRegex(s, symbolRegex, "symbol", "uppercase letters, digits and dots")
}

// ValidateStrategyKind checks a strategy identifier such as "iron_condor".
func ValidateStrategyKind(s string) error {
	if err := ValidateStringNotEmpty(s, "strategy"); err != nil {
		return err
	}
	if err := ValidateStringMaxLength(s, MaxStrategyLength, "strategy"); err != nil {
		return err
	}
	return ValidateStringRegex(s, strategyRegex, "strategy", "lowercase letters and underscores")
}

// ValidateDateString checks if a string is a valid date in "YYYY-MM-DD" format.
func ValidateDateString(s, fieldName string) (time.Time, error) {
	trimmed := strings.TrimSpace(s)
	if err := ValidateStringNotEmpty(trimmed, fieldName); err != nil {
		return time.Time{}, err
	}
	t, err := time.Parse("2006-01-02", trimmed)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %s ('%s') is not a valid date (expected YYYY-MM-DD): %v", ErrValidationFailed, fieldName, s, err)
	}
	return t, nil
}

// ValidateLegArrays checks that strikes and quantities describe the same legs
// and that every quantity is a positive contract count.
func ValidateLegArrays(strikes, quantities []float64) error {
	if len(strikes) == 0 || len(quantities) == 0 {
		return fmt.Errorf("%w: strikes and quantities are required", ErrValidationFailed)
	}
	if len(strikes) != len(quantities) {
		return fmt.Errorf("%w: strikes and quantities arrays must have same length", ErrValidationFailed)
	}
	if len(strikes) > MaxLegs {
		return fmt.Errorf("%w: at most %d legs are supported", ErrValidationFailed, MaxLegs)
	}
	for i, s := range strikes {
		if s <= 0 {
			return fmt.Errorf("%w: strike %d must be positive", ErrValidationFailed, i+1)
		}
	}
	for i, q := range quantities {
		if q <= 0 {
			return fmt.Errorf("%w: quantity %d must be positive", ErrValidationFailed, i+1)
		}
	}
	return nil
}
