// Package handlers defines HTTP-layer error codes used across all API endpoints.
//
// Generic codes are lowercase snake_case and mirror HTTP status semantics.
// Saving a meal plan is the exception: its failures carry the upper-case
// result codes produced by the service layer (VALIDATION_ERROR,
// DUPLICATE_ERROR, NOT_FOUND, UNKNOWN_ERROR) so generator clients can branch
// on the same taxonomy whether the save was attempted over HTTP or in-process.
//
// Example response:
//
//	{
//	  "request_id": "e1b9be03-4999-4289-9f03-999b042d65d6",
//	  "code": "not_found",
//	  "message": "meal plan not found"
//	}
package handlers

const (
	ErrCodeBadRequest   = "bad_request"
	ErrCodeUnauthorized = "unauthorized"
	ErrCodeNotFound     = "not_found"
	ErrCodeRateLimited  = "rate_limited"
	ErrCodeInternal     = "internal_error"

	// Domain-specific:
	ErrCodeListFailed       = "list_failed"
	ErrCodeMethodNotAllowed = "method_not_allowed"
)
