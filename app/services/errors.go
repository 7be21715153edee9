// Package services holds the marketplace's business rules. Services return
// the sentinel errors below; controllers map them to HTTP statuses.
package services

import (
	"errors"
	"sort"
	"strings"

	"github.com/shashiranjanraj/markethub/pkg/validate"
)

var (
	ErrNotFound            = errors.New("not found")
	ErrForbidden           = errors.New("forbidden")
	ErrInvalidCredentials  = errors.New("invalid email or password")
	ErrEmailTaken          = errors.New("email is already registered")
	ErrEmptyCart           = errors.New("cart is empty")
	ErrProductUnavailable  = errors.New("product is not available")
	ErrInsufficientStock   = errors.New("insufficient stock")
	ErrDuplicateRequest    = errors.New("a checkout with this request id is already in progress")
	ErrNoVendorProfile     = errors.New("vendor store is not set up")
	ErrVendorProfileExists = errors.New("vendor store already exists")
	ErrInvalidStatus       = errors.New("invalid status")
)

// ValidationError carries per-field messages keyed by JSON name.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return "validation failed: " + strings.Join(keys, ", ")
}

func invalid(field, msg string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: msg}}
}

// check runs struct validation and wraps failures in a ValidationError.
func check(in any) error {
	if errs := validate.Struct(in); validate.HasErrors(errs) {
		return &ValidationError{Fields: errs}
	}
	return nil
}
