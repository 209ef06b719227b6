// Package services defines the business logic for meal plans. This file
// centralizes the error taxonomy returned by the service layer so handlers
// can map outcomes to HTTP results consistently.
package services

import (
	"errors"
	"fmt"
)

// Result codes carried by *SaveError.
const (
	CodeValidation = "VALIDATION_ERROR"
	CodeDuplicate  = "DUPLICATE_ERROR"
	CodeNotFound   = "NOT_FOUND"
	CodeUnknown    = "UNKNOWN_ERROR"
)

var (
	// ErrMealPlanNotFound indicates that the requested plan does not exist or
	// is not owned by the current user.
	ErrMealPlanNotFound = errors.New("meal plan not found")

	// ErrMissingUser is returned when an operation is attempted without a
	// caller identity.
	ErrMissingUser = errors.New("user id is required")

	// ErrUserIDTooLong is returned for owner ids longer than domain.MaxUserIDLen.
	ErrUserIDTooLong = errors.New("user id is too long")
)

// SaveError is the failure half of a Save result. Code is one of the Code*
// constants; Message is safe to show to callers. Err keeps the underlying
// cause for logs and errors.Is/As.
type SaveError struct {
	Code    string
	Message string
	Err     error
}

func (e *SaveError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return e.Code + ": " + e.Message
}

func (e *SaveError) Unwrap() error { return e.Err }

// CodeOf returns the SaveError code carried by err, or CodeUnknown.
func CodeOf(err error) string {
	var se *SaveError
	if errors.As(err, &se) {
		return se.Code
	}
	return CodeUnknown
}
