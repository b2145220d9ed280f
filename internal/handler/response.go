package handler

// RESPONSE HELPERS:
// Every JSON endpoint (the saved-list mutations, the admin console, the
// health check) answers through writeJSON and writeError, so the shapes stay
// the same everywhere:
//
//	writeJSON(w, http.StatusOK, data)
//	writeError(w, err)
//
// Errors always look like:
//
//	{"error": "not_found", "message": "game not found with id 12"}
//
// plus a "fields" object when a form or record failed validation.

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/sakif/game-list/internal/apperror"
)

// maxBodyBytes bounds every JSON request body.
const maxBodyBytes = 1 << 20

// ErrorResponse is the error format returned by all JSON endpoints.
type ErrorResponse struct {
	Error   string            `json:"error"`            // Machine-readable kind (e.g., "not_found")
	Message string            `json:"message"`          // Human-readable description
	Fields  map[string]string `json:"fields,omitempty"` // Per-field messages for validation errors
}

// writeJSON sends a JSON response with the given status code.
//
// HEADER ORDER MATTERS:
// Headers and status must be set before the body; once Encode writes, any
// later header change is silently ignored.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			// Headers are already sent; all that is left is to log it.
			slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

// writeError maps a domain error to an HTTP status and sends it.
//
// The service layer only knows apperror kinds; this is the one place they
// become status codes. errors.Is walks the wrap chain, so
// fmt.Errorf("adding game: %w", apperror.ValidationFailed(...)) still maps
// to 400.
func writeError(w http.ResponseWriter, err error) {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		status := http.StatusInternalServerError
		errorType := "internal_error"

		switch {
		case errors.Is(err, apperror.ErrValidation):
			status = http.StatusBadRequest // 400
			errorType = "validation_error"
		case errors.Is(err, apperror.ErrUnauthorized):
			status = http.StatusUnauthorized // 401
			errorType = "unauthorized"
		case errors.Is(err, apperror.ErrForbidden):
			status = http.StatusForbidden // 403
			errorType = "forbidden"
		case errors.Is(err, apperror.ErrNotFound):
			status = http.StatusNotFound // 404
			errorType = "not_found"
		case errors.Is(err, apperror.ErrConflict):
			status = http.StatusConflict // 409
			errorType = "conflict"
		}

		if status != http.StatusInternalServerError {
			writeJSON(w, status, ErrorResponse{
				Error:   errorType,
				Message: appErr.Message,
				Fields:  appErr.Fields,
			})
			return
		}
	}

	// Unknown error: never echo it back, it may carry SQL or file paths.
	slog.Error("request failed", slog.String("error", err.Error()))
	writeJSON(w, http.StatusInternalServerError, ErrorResponse{
		Error:   "internal_error",
		Message: "An internal error occurred",
	})
}

// decodeJSON reads one JSON value from the request body into dst. Numbers
// decode as json.Number so ids survive without float rounding. Any decoding
// problem comes back as a validation error.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.UseNumber()

	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return apperror.ValidationFailed("", "request body is empty")
		}
		return apperror.ValidationFailed("", fmt.Sprintf("invalid JSON body: %v", err))
	}
	if dec.More() {
		return apperror.ValidationFailed("", "request body must hold a single JSON value")
	}
	return nil
}
