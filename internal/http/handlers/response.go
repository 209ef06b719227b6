// Package handlers provides HTTP handler implementations for the public API.
//
// This file defines the standard response utilities used across all endpoints,
// including structured error envelopes, consistent JSON serialization, and
// helpers for common HTTP patterns. The goal is to guarantee uniform responses
// for both success and failure cases, making the API predictable and
// machine-friendly.
//
// Conventions:
//   - All error responses must return an ErrorResponse with a stable `code`.
//   - `fail()` centralizes error logging and formatting, ensuring 5xx responses
//     are logged with request context for observability.
//   - `ok()` writes success responses in a consistent shape across handlers.
//   - `failSave()` writes the meal plan save envelope and maps service result
//     codes to HTTP statuses in one place.
//
// Example error response:
//
//	HTTP/1.1 404 Not Found
//	{
//	  "request_id": "123e4567-e89b-12d3-a456-426614174000",
//	  "code": "not_found",
//	  "message": "resource not found"
//	}
//
// Example save failure:
//
//	HTTP/1.1 400 Bad Request
//	{
//	  "success": false,
//	  "error": "Day 2, Meal 1: name is required",
//	  "code": "VALIDATION_ERROR",
//	  "request_id": "123e4567-e89b-12d3-a456-426614174000"
//	}
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-mealplan-backend/internal/http/middleware"
	"github.com/tbourn/go-mealplan-backend/internal/services"
)

// ErrorResponse is the standard error envelope returned by all endpoints.
//
// Fields:
//   - RequestID: Optional correlation ID, echoed from X-Request-ID header, used
//     to correlate server logs with client-side errors.
//   - Code: A stable, machine-readable string (see errors.go constants).
//   - Message: A human-readable error description, safe for display to users.
//
// This struct is used in OpenAPI documentation via Swagger annotations.
type ErrorResponse struct {
	// Correlates server logs and client errors
	RequestID string `json:"request_id,omitempty" example:"123e4567-e89b-12d3-a456-426614174000"`
	// Stable, machine-readable code (see errors.go constants)
	Code string `json:"code" example:"not_found"`
	// Human-readable message (safe to show to users)
	Message string `json:"message" example:"resource not found"`
}

// fail aborts the request with a structured error and logs server-side errors.
//
// It constructs an ErrorResponse, writes it as JSON with the given HTTP status,
// and calls gin.Context.AbortWithStatusJSON to stop further processing.
//
// Server errors (>=500) are logged using the request-scoped logger from middleware.
func fail(c *gin.Context, status int, code, msg string) {
	reqID := c.Writer.Header().Get("X-Request-ID")
	resp := ErrorResponse{
		RequestID: reqID,
		Code:      code,
		Message:   msg,
	}

	// Log 5xx (server-side) with request-scoped logger
	if status >= http.StatusInternalServerError {
		lg := middleware.LoggerFrom(c)
		lg.Error().
			Int("status", status).
			Str("code", code).
			Str("message", msg).
			Msg("api error")
	}

	c.AbortWithStatusJSON(status, resp)
}

// Fail is the exported variant of fail().
//
// External packages (e.g., router setup) should call Fail to return
// consistent error envelopes without directly depending on unexported helpers.
func Fail(c *gin.Context, status int, code, msg string) { fail(c, status, code, msg) }

// ok writes a success JSON response.
//
// It serializes `body` as JSON with the given HTTP status code.
func ok(c *gin.Context, status int, body any) {
	c.JSON(status, body)
}

// SaveErrorResponse is the envelope returned when saving a meal plan fails.
type SaveErrorResponse struct {
	Success   bool   `json:"success" example:"false"`
	Error     string `json:"error" example:"title is required"`
	Code      string `json:"code" example:"VALIDATION_ERROR"`
	RequestID string `json:"request_id,omitempty" example:"123e4567-e89b-12d3-a456-426614174000"`
}

// saveStatus maps a service result code to an HTTP status.
func saveStatus(code string) int {
	switch code {
	case services.CodeValidation:
		return http.StatusBadRequest
	case services.CodeDuplicate:
		return http.StatusConflict
	case services.CodeNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// failSave aborts with a SaveErrorResponse built from err. Errors that are
// not a *services.SaveError are reported as UNKNOWN_ERROR without leaking
// their text.
func failSave(c *gin.Context, err error) {
	code, msg := services.CodeUnknown, "failed to save meal plan"
	var se *services.SaveError
	if errors.As(err, &se) {
		code, msg = se.Code, se.Message
	}
	status := saveStatus(code)

	lg := middleware.LoggerFrom(c)
	ev := lg.Warn()
	if status >= http.StatusInternalServerError {
		ev = lg.Error()
	}
	ev.Err(err).Int("status", status).Str("code", code).Msg("meal plan save failed")

	c.AbortWithStatusJSON(status, SaveErrorResponse{
		Success:   false,
		Error:     msg,
		Code:      code,
		RequestID: c.Writer.Header().Get("X-Request-ID"),
	})
}
