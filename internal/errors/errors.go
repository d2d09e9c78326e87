// Package errors provides error handling utilities.
package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
)

// Type identifies the category of error
type Type string

const (
	// TypeValidation indicates one or more structural or business-rule violations
	TypeValidation Type = "VALIDATION_ERROR"

	// TypeUnknownDerivedKey indicates a categorical input missing from a lookup table
	TypeUnknownDerivedKey Type = "UNKNOWN_DERIVED_KEY"

	// TypeDivisionGuard indicates a zero or negative divisor (quantity, distribution base)
	TypeDivisionGuard Type = "DIVISION_GUARD"

	// TypeRateUnknown indicates a missing or unusable exchange rate
	TypeRateUnknown Type = "RATE_UNKNOWN"

	// TypeTierMismatch indicates a field read through the wrong resolution tier
	TypeTierMismatch Type = "TIER_MISMATCH"

	// TypeInput indicates an unreadable or malformed input document
	TypeInput Type = "INPUT_ERROR"

	// TypeConfig indicates a configuration error
	TypeConfig Type = "CONFIG_ERROR"

	// TypeInternal indicates an internal error
	TypeInternal Type = "INTERNAL_ERROR"
)

// Violation is a single failed validation rule.
// ProductIndex is -1 for quote-level violations.
type Violation struct {
	ProductIndex int    `json:"product_index"`
	Field        string `json:"field"`
	Rule         string `json:"rule"`
	Message      string `json:"message"`
}

// String renders the violation with its location
func (v Violation) String() string {
	if v.ProductIndex < 0 {
		return fmt.Sprintf("quote.%s: %s", v.Field, v.Message)
	}
	return fmt.Sprintf("products[%d].%s: %s", v.ProductIndex, v.Field, v.Message)
}

// Error represents a domain error with context
type Error struct {
	Type       Type                   `json:"type"`
	Message    string                 `json:"message"`
	Cause      error                  `json:"-"`
	Context    map[string]interface{} `json:"context,omitempty"`
	Violations []Violation            `json:"violations,omitempty"`
}

// Error implements the error interface
func (e *Error) Error() string {
	msg := fmt.Sprintf("[%s] %s", e.Type, e.Message)
	if len(e.Violations) > 0 {
		parts := make([]string, len(e.Violations))
		for i, v := range e.Violations {
			parts[i] = v.String()
		}
		msg += ": " + strings.Join(parts, "; ")
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is checks if the error is of a specific type
func (e *Error) Is(t Type) bool {
	return e.Type == t
}

// WithContext adds context to the error
func (e *Error) WithContext(key string, value interface{}) *Error {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// New creates a new error
func New(errType Type, message string) *Error {
	return &Error{
		Type:    errType,
		Message: message,
	}
}

// Newf creates a new formatted error
func Newf(errType Type, format string, args ...interface{}) *Error {
	return &Error{
		Type:    errType,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap wraps an error with context
func Wrap(errType Type, message string, cause error) *Error {
	return &Error{
		Type:    errType,
		Message: message,
		Cause:   cause,
	}
}

// Wrapf wraps an error with formatted context
func Wrapf(errType Type, cause error, format string, args ...interface{}) *Error {
	return &Error{
		Type:    errType,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// As finds the first *Error in err's chain
func As(err error) (*Error, bool) {
	var target *Error
	if stderrors.As(err, &target) {
		return target, true
	}
	return nil, false
}

// IsType checks if any error in the chain is of a specific type
func IsType(err error, t Type) bool {
	for err != nil {
		var e *Error
		if !stderrors.As(err, &e) {
			return false
		}
		if e.Type == t {
			return true
		}
		err = e.Cause
	}
	return false
}

// Validation creates a validation error carrying every violation found
func Validation(violations []Violation) *Error {
	return &Error{
		Type:       TypeValidation,
		Message:    fmt.Sprintf("%d validation violation(s)", len(violations)),
		Violations: violations,
	}
}

// UnknownDerivedKey reports a key that is missing from a lookup table
func UnknownDerivedKey(table, key string) *Error {
	return Newf(TypeUnknownDerivedKey, "no %s entry for %q", table, key).
		WithContext("table", table).
		WithContext("key", key)
}

// DivisionGuard reports a non-positive divisor
func DivisionGuard(what string) *Error {
	return Newf(TypeDivisionGuard, "%s must be greater than zero", what)
}

// RateUnknown reports an unusable currency conversion
func RateUnknown(message string) *Error {
	return New(TypeRateUnknown, message)
}

// Input creates an input error
func Input(message string, cause error) *Error {
	return Wrap(TypeInput, message, cause)
}

// Config creates a configuration error
func Config(message string, cause error) *Error {
	return Wrap(TypeConfig, message, cause)
}

// Internal creates an internal error
func Internal(message string, cause error) *Error {
	return Wrap(TypeInternal, message, cause)
}
