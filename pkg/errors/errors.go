package errors

import (
	"fmt"
	"net/http"
)

// Error codes used across the feedback pipeline. The boundary layer maps
// them to HTTP statuses; core logic matches on codes, never on message
// text.
const (
	CodeValidation         = "VALIDATION_ERROR"
	CodeUnauthorized       = "UNAUTHORIZED"
	CodeFeedbackNotFound   = "FEEDBACK_NOT_FOUND"
	CodeAttemptsExhausted  = "ATTEMPTS_EXHAUSTED"
	CodeClassification     = "CLASSIFICATION_FAILED"
	CodeClassifierTimeout  = "CLASSIFICATION_TIMEOUT"
	CodeNoFeedbackForTheme = "NO_FEEDBACK_FOR_THEME"
	CodeSolutionFailed     = "SOLUTION_GENERATION_FAILED"
	CodeSolutionNotFound   = "SOLUTION_NOT_FOUND"
	CodeRateLimited        = "RATE_LIMIT_EXCEEDED"
	CodeInternal           = "INTERNAL_ERROR"
)

// AppError is an application error carrying the HTTP status the boundary
// should answer with.
type AppError struct {
	StatusCode int    `json:"-"`
	Code       string `json:"code"`
	Message    string `json:"message"`
	Details    any    `json:"details,omitempty"`
}

func (e *AppError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// WithDetails attaches structured details to the error.
func (e *AppError) WithDetails(details any) *AppError {
	e.Details = details
	return e
}

// NewError creates a new application error.
func NewError(statusCode int, code string, message string) *AppError {
	return &AppError{
		StatusCode: statusCode,
		Code:       code,
		Message:    message,
	}
}

func NewBadRequestError(code string, message string) *AppError {
	return NewError(http.StatusBadRequest, code, message)
}

func NewUnauthorizedError(code string, message string) *AppError {
	return NewError(http.StatusUnauthorized, code, message)
}

func NewNotFoundError(code string, message string) *AppError {
	return NewError(http.StatusNotFound, code, message)
}

func NewTooManyRequestsError(code string, message string) *AppError {
	return NewError(http.StatusTooManyRequests, code, message)
}

func NewInternalServerError(code string, message string) *AppError {
	return NewError(http.StatusInternalServerError, code, message)
}

// FromError converts any error to an AppError. Non-AppErrors become opaque
// internal errors so store and gateway details never leak to clients.
func FromError(err error) *AppError {
	if err == nil {
		return nil
	}
	if appErr, ok := err.(*AppError); ok {
		return appErr
	}
	return NewInternalServerError(CodeInternal, "An unexpected error occurred.")
}

// GetStatusCode extracts the HTTP status from an error, defaulting to 500.
func GetStatusCode(err error) int {
	if appErr, ok := err.(*AppError); ok {
		return appErr.StatusCode
	}
	return http.StatusInternalServerError
}

// GetErrorCode extracts the application code from an error.
func GetErrorCode(err error) string {
	if appErr, ok := err.(*AppError); ok {
		return appErr.Code
	}
	return CodeInternal
}
