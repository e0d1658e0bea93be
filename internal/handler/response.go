package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/clipfeed/clipfeed/internal/service"
)

// Machine-readable error codes sent alongside every error response.
const (
	CodeMissingFile         = "MISSING_FILE"
	CodeEmptyText           = "EMPTY_TEXT"
	CodeValidation          = "VALIDATION"
	CodeFileTooLarge        = "FILE_TOO_LARGE"
	CodeNotFound            = "NOT_FOUND"
	CodeRateLimited         = "RATE_LIMITED"
	CodeAlreadyExists       = "ALREADY_EXISTS"
	CodeInvalidCredentials  = "INVALID_CREDENTIALS"
	CodeUnauthorized        = "UNAUTHORIZED"
	CodeBanned              = "BANNED"
	CodePersistenceFailure  = "PERSISTENCE_FAILURE"
	CodeInternal            = "INTERNAL"
	CodeIdentityUnavailable = "IDENTITY_UNAVAILABLE"
)

type errorMapping struct {
	err    error
	status int
	code   string
	// expose sends the wrapped error text instead of the sentinel text
	expose bool
}

var errorMappings = []errorMapping{
	{service.ErrMissingFile, http.StatusBadRequest, CodeMissingFile, false},
	{service.ErrEmptyText, http.StatusBadRequest, CodeEmptyText, false},
	{service.ErrValidation, http.StatusBadRequest, CodeValidation, true},
	{service.ErrFileTooLarge, http.StatusRequestEntityTooLarge, CodeFileTooLarge, true},
	{service.ErrNotFound, http.StatusNotFound, CodeNotFound, false},
	{service.ErrRateLimited, http.StatusTooManyRequests, CodeRateLimited, false},
	{service.ErrAlreadyExists, http.StatusConflict, CodeAlreadyExists, false},
	{service.ErrInvalidCredentials, http.StatusUnauthorized, CodeInvalidCredentials, false},
	{service.ErrUnauthorized, http.StatusUnauthorized, CodeUnauthorized, false},
	{service.ErrBanned, http.StatusForbidden, CodeBanned, false},
	{service.ErrPersistence, http.StatusInternalServerError, CodePersistenceFailure, false},
	{service.ErrIdentityUnavailable, http.StatusBadGateway, CodeIdentityUnavailable, false},
}

type errorResponse struct {
	OK      bool   `json:"ok"`
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Code    string `json:"code"`
}

// WriteJSON encodes v with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)

	err := json.NewEncoder(w).Encode(v)
	if err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

// WriteError writes the JSON error body for code.
func WriteError(w http.ResponseWriter, status int, code, message string) {
	WriteJSON(w, status, errorResponse{Error: message, Code: code})
}

// writeServiceError maps err onto a status and code. Unknown errors are
// logged and reported as INTERNAL without their text.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	for _, m := range errorMappings {
		if !errors.Is(err, m.err) {
			continue
		}
		if m.status >= http.StatusInternalServerError {
			slog.Error("request failed", "path", r.URL.Path, "code", m.code, "error", err)
		}
		msg := m.err.Error()
		if m.expose {
			msg = err.Error()
		}
		WriteError(w, m.status, m.code, msg)
		return
	}

	slog.Error("unexpected error", "path", r.URL.Path, "error", err)
	WriteError(w, http.StatusInternalServerError, CodeInternal, "internal server error")
}
