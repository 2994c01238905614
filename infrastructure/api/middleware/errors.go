package middleware

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	domainservice "github.com/Acurioustractor/palm-island-repository/domain/service"
)

// ErrAuthentication indicates a missing or rejected API key.
var ErrAuthentication = errors.New("authentication failed")

// APIError is a request-level failure with an explicit status code, such as
// a body that is not valid JSON.
type APIError struct {
	code    int
	message string
	cause   error
}

// NewAPIError creates a new APIError.
func NewAPIError(code int, message string, cause error) *APIError {
	return &APIError{
		code:    code,
		message: message,
		cause:   cause,
	}
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("api error %d: %s: %v", e.code, e.message, e.cause)
	}
	return fmt.Sprintf("api error %d: %s", e.code, e.message)
}

// Unwrap returns the underlying cause.
func (e *APIError) Unwrap() error {
	return e.cause
}

// Code returns the HTTP status code.
func (e *APIError) Code() int {
	return e.code
}

// Message returns the client-facing message.
func (e *APIError) Message() string {
	return e.message
}

// AuthenticationError is an API key rejection, answered with 401.
type AuthenticationError struct {
	message string
}

// NewAuthenticationError creates a new AuthenticationError.
func NewAuthenticationError(message string) *AuthenticationError {
	return &AuthenticationError{message: message}
}

// Error implements the error interface.
func (e *AuthenticationError) Error() string {
	return fmt.Sprintf("authentication failed: %s", e.message)
}

// Unwrap returns ErrAuthentication.
func (e *AuthenticationError) Unwrap() error {
	return ErrAuthentication
}

// Message returns the client-facing reason.
func (e *AuthenticationError) Message() string {
	return e.message
}

// JSONAPIError represents a JSON:API error object.
type JSONAPIError struct {
	Status string `json:"status"`
	Title  string `json:"title"`
	Detail string `json:"detail,omitempty"`
	ID     string `json:"id,omitempty"`
}

// JSONAPIErrorResponse represents a JSON:API error response wrapper.
type JSONAPIErrorResponse struct {
	Errors []JSONAPIError `json:"errors"`
}

const internalDetail = "internal server error"

// classify maps err to a status, title and client-safe detail. Upstream
// error text never reaches the detail.
func classify(err error) (int, string, string) {
	var apiErr *APIError
	var authErr *AuthenticationError
	var validation *domainservice.ValidationError
	var upstream *domainservice.UpstreamError

	switch {
	case errors.As(err, &apiErr):
		return apiErr.Code(), http.StatusText(apiErr.Code()), apiErr.Message()
	case errors.As(err, &authErr):
		return http.StatusUnauthorized, "Unauthorized", authErr.Message()
	case errors.As(err, &validation):
		return http.StatusBadRequest, "Validation Error", validation.Error()
	case errors.Is(err, domainservice.ErrValidation):
		return http.StatusBadRequest, "Validation Error", err.Error()
	case errors.Is(err, domainservice.ErrNotImplemented):
		return http.StatusNotImplemented, "Not Implemented", ""
	case errors.Is(err, domainservice.ErrModelUnavailable):
		return http.StatusInternalServerError, "Internal Server Error", "embedding model unavailable"
	case errors.As(err, &upstream):
		return http.StatusInternalServerError, "Internal Server Error", upstream.Service + " unavailable"
	default:
		return http.StatusInternalServerError, "Internal Server Error", internalDetail
	}
}

// Detail returns the client-safe description of err used in error
// responses.
func Detail(err error) string {
	_, _, detail := classify(err)
	return detail
}

// WriteError logs err and writes a JSON:API formatted error response.
func WriteError(w http.ResponseWriter, r *http.Request, err error, logger *slog.Logger) {
	status, title, detail := classify(err)
	correlationID := GetCorrelationID(r.Context())

	if logger != nil {
		attrs := []any{
			"correlation_id", correlationID,
			"status", status,
			"error", err.Error(),
			"path", r.URL.Path,
		}
		if status >= http.StatusInternalServerError {
			logger.Error("request error", attrs...)
		} else {
			logger.Warn("request error", attrs...)
		}
	}

	resp := JSONAPIErrorResponse{
		Errors: []JSONAPIError{
			{
				Status: strconv.Itoa(status),
				Title:  title,
				Detail: detail,
				ID:     correlationID,
			},
		},
	}
	WriteJSON(w, status, resp)
}

// WriteJSON writes a JSON response.
func WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
