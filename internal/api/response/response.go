// internal/api/response/response.go
// Package response provides consistent JSON envelopes for API replies.
package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/nniranjan/mnqsim/internal/core"
)

// SuccessResponse wraps successful payloads.
type SuccessResponse struct {
	Data any   `json:"data"`
	Meta *Meta `json:"meta,omitempty"`
}

// ErrorResponse wraps error payloads.
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

// ErrorBody carries the coded error detail.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Cause   string `json:"cause,omitempty"`
}

// Meta carries response metadata.
type Meta struct {
	Timestamp string `json:"timestamp"`
}

// JSON writes data with the success envelope.
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	resp := SuccessResponse{
		Data: data,
		Meta: &Meta{Timestamp: time.Now().UTC().Format(time.RFC3339)},
	}
	_ = json.NewEncoder(w).Encode(resp)
}

// Error writes err with the error envelope, mapping coded errors to
// HTTP status codes.
func Error(w http.ResponseWriter, err error) {
	var ce *core.Error
	if !errors.As(err, &ce) {
		ce = core.WrapError(core.ErrInternal, err)
	}

	body := ErrorBody{Code: ce.Code, Message: ce.Message}
	if ce.Cause != nil {
		body.Cause = ce.Cause.Error()
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusFor(ce.Code))
	_ = json.NewEncoder(w).Encode(ErrorResponse{Error: body})
}

func statusFor(code string) int {
	switch code {
	case "RUN_NOT_FOUND", "NO_DATA":
		return http.StatusNotFound
	case "CONFIG_INVALID", "CONFIG_MISSING", "BAD_REQUEST":
		return http.StatusBadRequest
	case "UNAUTHORIZED":
		return http.StatusUnauthorized
	case "FETCH_FAILED":
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// BadRequest is a convenience for malformed request bodies.
func BadRequest(w http.ResponseWriter, cause error) {
	Error(w, core.WrapError(core.ErrBadRequest, cause))
}
