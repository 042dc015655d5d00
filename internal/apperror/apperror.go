// Package apperror defines the application's error taxonomy.
//
// ERROR DESIGN:
// Every failure that can reach an HTTP response carries a machine-readable
// code (stable strings like "RATE_LIMIT_EXCEEDED") alongside the
// human-readable message. The code — not the message — is what the status
// mapper and any API client switch on, so messages can be reworded freely.
//
// The taxonomy has four bands:
//   - validation errors  → client sent a malformed payload (per-field messages)
//   - domain errors      → business-rule violations (duplicates, bad credentials, not-found)
//   - upstream errors    → the GitHub or OpenAI backend failed (classified, never retried here)
//   - unexpected errors  → anything unclassified; surfaced as a generic 500
//
// WHY A CENTRAL STATUS TABLE?
// The code→HTTP mapping lives in exactly one place (Status). Handlers call
// it instead of hard-coding statuses, so two endpoints can never drift
// apart on what a RATE_LIMIT_EXCEEDED means.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes. These are part of the API contract — clients match on them.
const (
	CodeValidation              = "VALIDATION_ERROR"
	CodeNotFound                = "NOT_FOUND"
	CodeUserNotFound            = "USER_NOT_FOUND"
	CodeRepositoryNotFound      = "REPOSITORY_NOT_FOUND"
	CodePathNotFound            = "PATH_NOT_FOUND"
	CodeDuplicateEmail          = "DUPLICATE_EMAIL"
	CodeDuplicateGitHubUsername = "DUPLICATE_GITHUB_USERNAME"
	CodeInvalidCredentials      = "INVALID_CREDENTIALS"
	CodeUnauthorized            = "UNAUTHORIZED"
	CodeAccessDenied            = "ACCESS_DENIED"
	CodeAccessForbidden         = "ACCESS_FORBIDDEN"
	CodeInvalidSearchQuery      = "INVALID_SEARCH_QUERY"
	CodeRequestTimeout          = "REQUEST_TIMEOUT"
	CodeRateLimitExceeded       = "RATE_LIMIT_EXCEEDED"
	CodeConnectionError         = "CONNECTION_ERROR"
	CodeRequestError            = "REQUEST_ERROR"
	CodeUnexpected              = "UNEXPECTED_ERROR"
)

// statusTable is the single source of truth for code → HTTP status.
// Unrecognized codes fall through to 500 in Status.
var statusTable = map[string]int{
	CodeValidation:              http.StatusBadRequest,
	CodeInvalidSearchQuery:      http.StatusBadRequest,
	CodeDuplicateEmail:          http.StatusBadRequest,
	CodeDuplicateGitHubUsername: http.StatusBadRequest,
	CodeInvalidCredentials:      http.StatusUnauthorized,
	CodeUnauthorized:            http.StatusUnauthorized,
	CodeAccessDenied:            http.StatusForbidden,
	CodeAccessForbidden:         http.StatusForbidden,
	CodeNotFound:                http.StatusNotFound,
	CodeUserNotFound:            http.StatusNotFound,
	CodeRepositoryNotFound:      http.StatusNotFound,
	CodePathNotFound:            http.StatusNotFound,
	CodeRequestTimeout:          http.StatusRequestTimeout,
	CodeRateLimitExceeded:       http.StatusTooManyRequests,
	CodeConnectionError:         http.StatusServiceUnavailable,
	CodeRequestError:            http.StatusBadGateway,
	CodeUnexpected:              http.StatusInternalServerError,
}

// Status maps an error code to its HTTP status.
// Unrecognized codes default to 500 — an unknown failure is an internal one.
func Status(code string) int {
	if s, ok := statusTable[code]; ok {
		return s
	}
	return http.StatusInternalServerError
}

// AppError is the error type returned by every service and client in this
// codebase. Handlers use errors.As to extract it and Status to map it.
type AppError struct {
	Code    string              // machine-readable code (see constants above)
	Message string              // human-readable description, safe to show clients
	Fields  map[string][]string // per-field messages; only set for validation errors
	Err     error               // wrapped cause, if any (not exposed to clients)
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// HTTPStatus returns the mapped status for this error's code.
func (e *AppError) HTTPStatus() int {
	return Status(e.Code)
}

// New creates an AppError with the given code and message.
func New(code, message string) *AppError {
	return &AppError{Code: code, Message: message}
}

// Wrap creates an AppError that also records the underlying cause.
// The cause is reachable via errors.Is/As but never serialized.
func Wrap(code, message string, err error) *AppError {
	return &AppError{Code: code, Message: message, Err: err}
}

// ValidationFailed builds the standard 400 error carrying per-field messages.
func ValidationFailed(fields map[string][]string) *AppError {
	return &AppError{
		Code:    CodeValidation,
		Message: "Validation error",
		Fields:  fields,
	}
}

// NotFound builds a generic not-found error for a named resource.
func NotFound(resource, id string) *AppError {
	return &AppError{
		Code:    CodeNotFound,
		Message: fmt.Sprintf("%s not found with id %s", resource, id),
	}
}

// UserNotFound is the domain-specific not-found for user lookups.
func UserNotFound(id string) *AppError {
	return &AppError{
		Code:    CodeUserNotFound,
		Message: "User not found",
		Err:     errors.New("no user with id " + id),
	}
}

// From extracts the *AppError from an error chain.
// Returns (nil, false) when the chain holds no AppError — meaning the
// failure is unclassified and must be treated as unexpected.
func From(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// CodeOf returns the code of the AppError inside err, or CodeUnexpected
// when the error is unclassified.
func CodeOf(err error) string {
	if appErr, ok := From(err); ok {
		return appErr.Code
	}
	return CodeUnexpected
}
