package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/codeassist-ai/codeassist/internal/generate"
	"github.com/codeassist-ai/codeassist/internal/model"
	"github.com/codeassist-ai/codeassist/internal/session"
)

// ErrorResponse represents an API error response.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error details.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error codes. Callers rely on these to decide whether to re-create a
// session, wait for the model, or surface a failure.
const (
	ErrCodeInvalidRequest   = "INVALID_REQUEST"
	ErrCodeSessionNotFound  = "SESSION_NOT_FOUND"
	ErrCodeModelNotReady    = "MODEL_NOT_READY"
	ErrCodeModelInitFailed  = "MODEL_INIT_FAILED"
	ErrCodeGenerationFailed = "GENERATION_FAILED"
	ErrCodeFileNotFound     = "FILE_NOT_FOUND"
	ErrCodeInternalError    = "INTERNAL_ERROR"
)

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeError writes an error response.
func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{
		Error: ErrorDetail{Code: code, Message: message},
	})
}

// writeDomainError maps the core error taxonomy to HTTP codes, preserving
// the distinction between recoverable and terminal failures.
func writeDomainError(w http.ResponseWriter, err error) {
	var genErr *generate.GenerationError
	var initErr *model.InitError

	switch {
	case errors.Is(err, session.ErrNotFound):
		writeError(w, http.StatusNotFound, ErrCodeSessionNotFound, err.Error())
	case errors.Is(err, model.ErrNotReady):
		writeError(w, http.StatusServiceUnavailable, ErrCodeModelNotReady, err.Error())
	case errors.As(err, &initErr):
		writeError(w, http.StatusInternalServerError, ErrCodeModelInitFailed, err.Error())
	case errors.As(err, &genErr):
		writeError(w, http.StatusBadGateway, ErrCodeGenerationFailed, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, ErrCodeInternalError, err.Error())
	}
}
