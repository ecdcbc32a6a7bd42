// Package response writes the JSON envelope shared by every HTTP endpoint.
package response

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dtroode/alumni-server/internal/logger"
	"github.com/dtroode/alumni-server/internal/model"
)

const msgInternal = "internal server error"

// Envelope is the body of every response.
type Envelope struct {
	Success bool               `json:"success"`
	Message string             `json:"message,omitempty"`
	Data    any                `json:"data,omitempty"`
	Error   string             `json:"error,omitempty"`
	Details []model.FieldError `json:"details,omitempty"`
}

// JSON writes value with the given status.
func JSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}

// Success writes a successful envelope.
func Success(w http.ResponseWriter, status int, message string, data any) {
	JSON(w, status, Envelope{Success: true, Message: message, Data: data})
}

// Fail writes a failed envelope.
func Fail(w http.ResponseWriter, status int, message string, details []model.FieldError) {
	JSON(w, status, Envelope{Success: false, Error: message, Details: details})
}

// StatusFor maps an error kind to its HTTP status.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, model.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, model.ErrDuplicateAccount):
		return http.StatusConflict
	case errors.Is(err, model.ErrInvalidCredential):
		return http.StatusUnauthorized
	case errors.Is(err, model.ErrUnverifiedAccount), errors.Is(err, model.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, model.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, model.ErrDependencyFailure):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// Error writes err as a failed envelope. Only typed errors expose their
// message; anything else is logged and reported generically.
func Error(w http.ResponseWriter, r *http.Request, log *logger.Logger, err error) {
	status := StatusFor(err)

	var typed *model.Error
	if !errors.As(err, &typed) || status == http.StatusInternalServerError {
		log.Error("HTTP: request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"error", err.Error())
		if status == http.StatusInternalServerError {
			Fail(w, status, msgInternal, nil)
			return
		}
		Fail(w, status, http.StatusText(status), nil)
		return
	}

	if status == http.StatusBadGateway {
		log.Error("HTTP: dependency failure",
			"path", r.URL.Path,
			"error", err.Error())
	}
	Fail(w, status, typed.Message, typed.Fields)
}
