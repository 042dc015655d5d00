package handler

// RESPONSE ENVELOPE:
// Every JSON response from this API has the same outer shape:
//
//	{"success": true,  "message": "...", "data": {...}}
//	{"success": false, "message": "...", "errors": {"field": ["msg"]}}
//
// The frontend branches on `success` alone and never needs to guess
// whether a body is a payload or an error. `data` and `errors` are
// omitted when empty.

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/sakif/doc-generator/internal/apperror"
)

type envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
	Errors  any    `json:"errors,omitempty"`
}

// Success writes a success envelope. An empty message defaults to
// "Success".
func Success(w http.ResponseWriter, status int, message string, data any) {
	if message == "" {
		message = "Success"
	}
	writeJSON(w, status, envelope{Success: true, Message: message, Data: data})
}

// Failure writes a failure envelope. fieldErrors may be nil.
func Failure(w http.ResponseWriter, status int, message string, fieldErrors any) {
	writeJSON(w, status, envelope{Success: false, Message: message, Errors: fieldErrors})
}

// WriteError maps a service-layer error onto an HTTP response.
//
// Classified errors (apperror.AppError) carry their own status via the
// central code table and their message is safe to expose. Anything else
// is logged in full and surfaced as a generic 500 — raw error strings
// can leak SQL, file paths, or upstream internals.
func WriteError(w http.ResponseWriter, logger *slog.Logger, err error) {
	if appErr, ok := apperror.From(err); ok {
		var fieldErrors any
		if len(appErr.Fields) > 0 {
			fieldErrors = appErr.Fields
		}
		Failure(w, appErr.HTTPStatus(), appErr.Message, fieldErrors)
		return
	}

	logger.Error("unhandled error", slog.String("error", err.Error()))
	Failure(w, http.StatusInternalServerError, "An unexpected error occurred", nil)
}

// writeJSON sends a JSON body with the given status. Headers must be
// set before WriteHeader; WriteHeader must run before the first Write.
func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		// Headers are already gone; logging is all that is left.
		slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
	}
}
