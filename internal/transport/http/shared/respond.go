// Package shared holds the response envelope writers. The transport layer is
// the single place where typed domain errors become HTTP statuses.
package shared

import (
	"encoding/json"
	"errors"
	"net/http"

	dErrors "opsconsole/pkg/domain-errors"
)

// ErrorBody is the uniform failure envelope.
type ErrorBody struct {
	Error       string `json:"error"`
	Description string `json:"error_description,omitempty"`
}

// WriteJSON writes v with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError maps a domain error code to a status and writes the failure
// envelope. Unknown errors surface as a generic internal failure; the cause
// stays in the logs, never in the body.
func WriteError(w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(err)

	message := "unexpected failure"
	var de *dErrors.Error
	if errors.As(err, &de) {
		message = de.Message
	}

	WriteJSON(w, statusFor(code), ErrorBody{
		Error:       string(code),
		Description: message,
	})
}

func statusFor(code dErrors.Code) int {
	switch code {
	case dErrors.CodeInvalidInput:
		return http.StatusBadRequest
	case dErrors.CodeNotRegistered:
		return http.StatusNotFound
	case dErrors.CodeUnauthorized:
		return http.StatusUnauthorized
	case dErrors.CodeProvider:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
